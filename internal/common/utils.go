package common

import "strings"

// Preview returns at most n bytes of b on a single line, for logging bodies
// that failed to parse.
func Preview(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(string(b))
}
