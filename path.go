package dat

// NormalizeFilename converts an archive member name to its identity form.
//
// Backslashes become forward slashes and ASCII letters are lowercased:
// "DATA\SPRITES\Foo.FRM" → "data/sprites/foo.frm". The name is treated as
// bytes, so non-ASCII and invalid UTF-8 bytes are left untouched.
func NormalizeFilename(name string) string {
	b := []byte(name)
	for i, c := range b {
		switch {
		case c == '\\':
			b[i] = '/'
		case 'A' <= c && c <= 'Z':
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
