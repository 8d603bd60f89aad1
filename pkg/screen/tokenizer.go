package screen

import "strings"

const esc = 0x1b

// shortEscapeFinals are the second bytes of the recognized two-character
// escapes: keypad modes, charset selection, index/reverse-index, and the
// save/restore cursor pair.
const shortEscapeFinals = "=@>78()EHM"

// Tokenize splits a decoded chunk into an ordered token sequence. Control
// sequences are matched at the earliest unconsumed position in priority
// order: CSI, OSC, short two-character escape. Anything else up to the next
// escape byte becomes a text token. An escape byte that begins none of the
// recognized forms is dropped: it produces no token and scanning resumes at
// the following byte.
func Tokenize(chunk string) []Token {
	var tokens []Token
	i := 0
	for i < len(chunk) {
		if chunk[i] != esc {
			end := strings.IndexByte(chunk[i:], esc)
			if end == -1 {
				end = len(chunk) - i
			}
			tokens = append(tokens, Token{Kind: TokenText, Raw: chunk[i : i+end]})
			i += end
			continue
		}

		if n := lexCSI(chunk[i:]); n > 0 {
			tokens = append(tokens, Token{Kind: TokenCSI, Raw: chunk[i : i+n]})
			i += n
			continue
		}
		if n := lexOSC(chunk[i:]); n > 0 {
			tokens = append(tokens, Token{Kind: TokenOSC, Raw: chunk[i : i+n]})
			i += n
			continue
		}
		if len(chunk) > i+1 && strings.IndexByte(shortEscapeFinals, chunk[i+1]) >= 0 {
			tokens = append(tokens, Token{Kind: TokenEscape, Raw: chunk[i : i+2]})
			i += 2
			continue
		}

		// Unterminated or unknown escape: drop the escape byte alone.
		i++
	}
	return tokens
}

// lexCSI returns the length of a CSI sequence at the start of s, or 0 if s
// does not begin with a complete one.
func lexCSI(s string) int {
	if len(s) < 2 || s[1] != '[' {
		return 0
	}
	i := 2
	for i < len(s) && isCSIParam(s[i]) {
		i++
	}
	if i < len(s) && s[i] >= 0x40 && s[i] <= 0x7e {
		return i + 1
	}
	return 0
}

func isCSIParam(b byte) bool {
	return (b >= '0' && b <= '9') || b == ';' || b == '?'
}

// lexOSC returns the length of an OSC sequence at the start of s, or 0 if s
// does not begin with a complete one. The form is ESC ']' digits ';' then
// arbitrary content up to the first BEL or ESC '\' terminator.
func lexOSC(s string) int {
	if len(s) < 2 || s[1] != ']' {
		return 0
	}
	i := 2
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i >= len(s) || s[i] != ';' {
		return 0
	}
	for i++; i < len(s); i++ {
		if s[i] == 0x07 {
			return i + 1
		}
		if s[i] == esc && i+1 < len(s) && s[i+1] == '\\' {
			return i + 2
		}
	}
	return 0
}
