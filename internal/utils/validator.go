package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

func IsValidPassword(password string) bool {
	return len(password) >= 8
}

func IsValidUsername(username string) bool {
	return len(username) >= 3 && len(username) <= 150
}

func SanitizeString(input string) string {
	return strings.TrimSpace(input)
}

func IsValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

// IsAllowedImage reports whether the filename has an accepted image extension.
func IsAllowedImage(filename string) bool {
	return allowedImageExtensions[strings.ToLower(filepath.Ext(filename))]
}

// SecureFilename strips path components and replaces characters that are not
// safe to embed in a stored filename.
func SecureFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return name
}
