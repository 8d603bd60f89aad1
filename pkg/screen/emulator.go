package screen

import (
	"strconv"
	"strings"
	"unicode"
)

// Synthetic marker lines emitted when a full-screen program switches the
// terminal to or from the alternate screen.
const (
	AltScreenEnterMarker = "[LOG: Entered Interactive Mode]"
	AltScreenExitMarker  = "[LOG: Exited Interactive Mode]"
)

// Emulator is a deliberately small terminal emulator: a single logical line
// buffer, a cursor column, and two mode flags. It consumes tokens and emits
// completed lines. It tracks no scrollback and no second dimension; vertical
// cursor motion only matters as a line-boundary hint inside the alternate
// screen.
//
// An Emulator is not safe for concurrent use; each session owns exactly one.
type Emulator struct {
	buffer         []rune
	cursor         int
	inAltScreen    bool
	bracketedPaste bool
}

// NewEmulator returns an Emulator with an empty line buffer in normal
// (non-alternate-screen) mode.
func NewEmulator() *Emulator {
	return &Emulator{}
}

// Process tokenizes a decoded chunk and applies it to the screen state,
// returning completed lines in order. Chunks must already have passed
// through a ChunkBuffer so no escape sequence is torn across calls.
func (e *Emulator) Process(chunk string) []string {
	var completed []string
	for _, tok := range Tokenize(chunk) {
		switch tok.Kind {
		case TokenCSI:
			completed = e.handleCSI(tok.Raw, completed)
		case TokenOSC, TokenEscape:
			// Window titles, keypad and charset selection: no effect
			// on line reconstruction.
		case TokenText:
			completed = e.handleText(tok.Raw, completed)
		}
	}
	return completed
}

// Flush returns the current line buffer as a completed line if it holds any
// non-whitespace text, and resets the buffer and cursor. Mode flags are
// untouched. Flushing an empty buffer yields nothing.
func (e *Emulator) Flush() []string {
	line := strings.TrimRightFunc(string(e.buffer), unicode.IsSpace)
	e.buffer = e.buffer[:0]
	e.cursor = 0
	if line == "" {
		return nil
	}
	return []string{line}
}

// InAltScreen reports whether the stream is currently inside the alternate
// screen.
func (e *Emulator) InAltScreen() bool {
	return e.inAltScreen
}

// BracketedPaste reports whether bracketed-paste mode is on. Tracked for
// completeness; it has no effect on reconstruction.
func (e *Emulator) BracketedPaste() bool {
	return e.bracketedPaste
}

func (e *Emulator) handleCSI(seq string, out []string) []string {
	switch seq {
	case "\x1b[?1049h", "\x1b[?47h":
		e.inAltScreen = true
		return append(out, AltScreenEnterMarker)
	case "\x1b[?1049l", "\x1b[?47l":
		e.inAltScreen = false
		return append(out, AltScreenExitMarker)
	case "\x1b[?2004h":
		e.bracketedPaste = true
		return out
	case "\x1b[?2004l":
		e.bracketedPaste = false
		return out
	}

	final := seq[len(seq)-1]
	params := seq[2 : len(seq)-1]

	switch {
	case final == 'K':
		// Erase in line. Unparseable parameters fall back to mode 0,
		// matching how shells actually emit it.
		mode := 0
		if params != "" {
			if n, err := strconv.Atoi(params); err == nil {
				mode = n
			}
		}
		switch mode {
		case 0:
			if e.cursor < len(e.buffer) {
				e.buffer = e.buffer[:e.cursor]
			}
		case 2:
			e.buffer = e.buffer[:0]
			e.cursor = 0
		}

	case final == 'G' || final == '`':
		// Cursor horizontal absolute, 1-based column.
		if col, err := strconv.Atoi(params); err == nil {
			e.cursor = col - 1
			if e.cursor < 0 {
				e.cursor = 0
			}
		}

	case final == 'A' || final == 'B' || final == 'H' || final == 'f':
		// Vertical or absolute motion. Inside the alternate screen a
		// cursor jump means the editor is done painting this line;
		// outside it there is no reliable line boundary, so ignore.
		if e.inAltScreen {
			out = e.completeLine(out)
		}
	}

	return out
}

func (e *Emulator) handleText(text string, out []string) []string {
	for _, r := range text {
		switch r {
		case '\r':
			// Editors break lines with bare CR; shells use it to
			// redraw the prompt in place.
			if e.inAltScreen {
				out = e.completeLine(out)
			} else {
				e.cursor = 0
			}
		case '\n':
			out = e.completeLine(out)
		case '\x08':
			if e.cursor > 0 {
				e.cursor--
			}
		case '\x07':
			// Bell.
		default:
			if len(e.buffer) <= e.cursor {
				for len(e.buffer) < e.cursor+1 {
					e.buffer = append(e.buffer, ' ')
				}
			}
			e.buffer[e.cursor] = r
			e.cursor++
		}
	}
	return out
}

// completeLine appends the trimmed buffer to out if non-empty and resets the
// buffer and cursor.
func (e *Emulator) completeLine(out []string) []string {
	line := strings.TrimRightFunc(string(e.buffer), unicode.IsSpace)
	e.buffer = e.buffer[:0]
	e.cursor = 0
	if line != "" {
		out = append(out, line)
	}
	return out
}
