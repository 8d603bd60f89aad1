package screen

import "strings"

// maxEscapeLookback bounds how far behind the end of the accumulated text a
// trailing escape byte may sit and still be treated as the start of a
// sequence that has not finished arriving. Past this distance the escape is
// assumed to be literal text and the whole buffer is released.
const maxEscapeLookback = 256

// ChunkBuffer withholds the tail of decoded output that might be an escape
// sequence split across two reads, so the tokenizer only ever sees complete
// sequences. One instance persists across all reads of a session.
type ChunkBuffer struct {
	pending string
}

// NewChunkBuffer returns an empty ChunkBuffer.
func NewChunkBuffer() *ChunkBuffer {
	return &ChunkBuffer{}
}

// Feed appends text to the pending tail and returns the prefix that is safe
// to tokenize now. The returned string may be empty if everything is still
// potentially mid-sequence.
func (b *ChunkBuffer) Feed(text string) string {
	combined := b.pending + text
	last := strings.LastIndexByte(combined, esc)
	if last == -1 || len(combined)-last > maxEscapeLookback {
		b.pending = ""
		return combined
	}
	b.pending = combined[last:]
	return combined[:last]
}

// Drain releases whatever is still pending, complete or not. Called at
// session end so a trailing partial sequence is not silently lost.
func (b *ChunkBuffer) Drain() string {
	p := b.pending
	b.pending = ""
	return p
}

// Pending reports whether the buffer is holding back any text.
func (b *ChunkBuffer) Pending() bool {
	return b.pending != ""
}
