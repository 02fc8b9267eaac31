// Package text implements the string escaping required for the canonical
// event encoding. The encoding must match what nostr clients produce when
// they hash events, which is plain RFC8259 minimal escaping - notably the
// standard library's HTML-safe escapes of <, > and & must NOT be applied or
// event IDs will not verify.
package text

// EscapeJSONStringAndWrap escapes a string as a JSON string literal,
// including the surrounding double quotes.
func EscapeJSONStringAndWrap(s string) []byte {
	b := make([]byte, 0, len(s)+2)
	b = append(b, '"')
	b = AppendEscaped(b, s)
	return append(b, '"')
}

// AppendEscaped appends s to dst with JSON string escaping applied, without
// surrounding quotes.
func AppendEscaped(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			dst = append(dst, '\\', '"')
		case c == '\\':
			dst = append(dst, '\\', '\\')
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c == '\b':
			dst = append(dst, '\\', 'b')
		case c == '\f':
			dst = append(dst, '\\', 'f')
		case c < 0x20:
			const hexChars = "0123456789abcdef"
			dst = append(dst, '\\', 'u', '0', '0',
				hexChars[c>>4], hexChars[c&0xf])
		default:
			dst = append(dst, c)
		}
	}
	return dst
}
