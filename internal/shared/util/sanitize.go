package util

import (
	"errors"
	"path"
	"strings"
)

// SanitizeFileName reduces a client-supplied name to its base name and
// rejects names that would escape a directory.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	s = path.Base(s)
	if s == "" || s == "." || s == ".." || s == "/" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}
