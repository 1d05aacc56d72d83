// Package pathutil provides path matching for normalized archive member names.
package pathutil

import "strings"

// DirPrefix converts a directory name to its prefix form.
// For "" and ".", returns "" (empty prefix matches all).
// For other names, trims any trailing slash and appends "/" to match children.
func DirPrefix(name string) string {
	if name == "" || name == "." {
		return ""
	}
	return strings.TrimSuffix(name, "/") + "/"
}

// Under reports whether path lies below the directory prefix.
func Under(path, prefix string) bool {
	return strings.HasPrefix(path, prefix)
}
