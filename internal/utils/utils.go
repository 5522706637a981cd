package utils

import (
	"crypto/rand"
	"encoding/hex"
	"path"
	"regexp"
	"strings"
)

func GenToken(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return hex.EncodeToString(b)
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename flattens a client-supplied file name into a single safe
// path component: directory parts are dropped, whitespace runs become
// underscores, anything outside [A-Za-z0-9_.-] is removed and leading or
// trailing dots/underscores are stripped. Returns "" when nothing survives.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}
