// Package pathutil shortens file paths for log and error messages.
package pathutil

import "path/filepath"

// RedactPath reduces a full path to .../<parent>/<basename> so that messages
// about files under $HOME do not leak the user's directory layout.
// For example, "/home/user/.walkscale/walkscale.db" becomes
// ".../.walkscale/walkscale.db".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	parent := filepath.Base(dir)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}
