// Package screen reconstructs a readable line-oriented transcript from a raw
// terminal byte stream. It interprets just enough of the VT100/xterm control
// vocabulary to decide where one logical line ends and the next begins; it
// does not model colors, attributes, or a 2-D screen grid.
package screen

// TokenKind identifies the type of a lexed terminal token.
type TokenKind int

const (
	// TokenText is a run of printable characters with no escape bytes.
	TokenText TokenKind = iota

	// TokenCSI is a Control Sequence Introducer sequence:
	// ESC '[' [0-9;?]* final-byte, final byte in '@'..'~'.
	TokenCSI

	// TokenOSC is an Operating System Command sequence:
	// ESC ']' digits ';' content, terminated by BEL or ESC '\'.
	// Typically window-title metadata; the content is discarded.
	TokenOSC

	// TokenEscape is a fixed two-character escape such as keypad or
	// charset selection (ESC followed by one of "=@>78()EHM").
	TokenEscape
)

// Token is a single lexed unit of terminal output. Raw always holds the
// exact substring of the input the token was lexed from, including the
// escape introducer for control tokens.
type Token struct {
	Kind TokenKind
	Raw  string
}

func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "Text"
	case TokenCSI:
		return "CSI"
	case TokenOSC:
		return "OSC"
	case TokenEscape:
		return "Escape"
	}
	return "Unknown"
}
