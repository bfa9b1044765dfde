package lexer

// decodeEscape interprets the backslash escape beginning at s[0] == '\\'
// and returns the byte value it denotes plus the number of bytes of s
// consumed (including the leading backslash). Callers must only invoke
// this when s[0] == '\\' and len(s) >= 2.
func decodeEscape(s []byte) (value byte, consumed int) {
	c := s[1]
	switch c {
	case 'b':
		return '\b', 2
	case 'f':
		return '\f', 2
	case 'n':
		return '\n', 2
	case 'r':
		return '\r', 2
	case 't':
		return '\t', 2
	case 'e':
		return 0x1b, 2
	case '\\':
		return '\\', 2
	case '\'':
		return '\'', 2
	case 's':
		return ' ', 2
	case '^':
		if len(s) < 3 {
			return 0, 2
		}
		ctrl := toUpper(s[2])
		return ctrl - '@', 3
	case 'x':
		return decodeRadix(s[2:], 16, 2) // 1-3 hex digits, prefix "\x" is 2 bytes
	default:
		if isOctalDigit(c) {
			return decodeRadix(s[1:], 8, 1) // 1-3 octal digits, prefix "\" is 1 byte
		}
		return c, 2
	}
}

// decodeRadix consumes up to maxDigits digits of the given base from
// the front of s and returns the accumulated value plus the total
// bytes consumed from the original escape (prefixLen accounts for the
// "\x" or "\" already skipped by the caller).
func decodeRadix(s []byte, base int, prefixLen int) (byte, int) {
	var value int
	n := 0
	for n < 3 && n < len(s) && digitValue(s[n], base) >= 0 {
		value = value*base + digitValue(s[n], base)
		n++
	}
	return byte(value), prefixLen + n
}

func digitValue(c byte, base int) int {
	var v int
	switch {
	case c >= '0' && c <= '9':
		v = int(c - '0')
	case base == 16 && c >= 'a' && c <= 'f':
		v = int(c-'a') + 10
	case base == 16 && c >= 'A' && c <= 'F':
		v = int(c-'A') + 10
	default:
		return -1
	}
	if v >= base {
		return -1
	}
	return v
}

func isOctalDigit(c byte) bool {
	return c >= '0' && c <= '7'
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
