// Package testutil provides hand-written mocks shared across package tests.
package testutil

import "sync"

// MockLineSink is a mock implementation of interfaces.LineSink for testing
type MockLineSink struct {
	mu    sync.Mutex
	lines []string
}

// NewMockLineSink creates a new mock line sink
func NewMockLineSink() *MockLineSink {
	return &MockLineSink{}
}

// HandleLine implements the LineSink interface
func (m *MockLineSink) HandleLine(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, line)
}

// Lines returns all lines received so far
func (m *MockLineSink) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.lines))
	copy(result, m.lines)
	return result
}

// MockDataHandler is a mock implementation of interfaces.DataHandler for testing
type MockDataHandler struct {
	mu         sync.Mutex
	chunks     [][]byte
	flushCount int
	handleErr  error
}

// NewMockDataHandler creates a new mock data handler
func NewMockDataHandler() *MockDataHandler {
	return &MockDataHandler{}
}

// SetHandleDataError makes every subsequent HandleData call return err
func (m *MockDataHandler) SetHandleDataError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handleErr = err
}

// HandleData implements the DataHandler interface
func (m *MockDataHandler) HandleData(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chunk := make([]byte, len(data))
	copy(chunk, data)
	m.chunks = append(m.chunks, chunk)
	return m.handleErr
}

// Flush implements the DataHandler interface
func (m *MockDataHandler) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushCount++
}

// Chunks returns all chunks received so far
func (m *MockDataHandler) Chunks() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([][]byte, len(m.chunks))
	copy(result, m.chunks)
	return result
}

// FlushCount returns how many times Flush was called
func (m *MockDataHandler) FlushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushCount
}
