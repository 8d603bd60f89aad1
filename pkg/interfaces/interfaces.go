// Package interfaces defines the core interfaces used throughout the application.
package interfaces

// LineSink receives completed, reconstructed lines.
type LineSink interface {
	HandleLine(line string)
}

// DataHandler processes raw output data chunk by chunk. HandleData returns
// an error only when the session can no longer be recorded and should end.
type DataHandler interface {
	HandleData(data []byte) error
	Flush()
}
