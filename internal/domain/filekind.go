package domain

import (
	"path/filepath"
	"strings"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

func extOf(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// IsPDF sniffs by extension
func IsPDF(name string) bool {
	return extOf(name) == ".pdf"
}

// IsZIP sniffs by extension
func IsZIP(name string) bool {
	return extOf(name) == ".zip"
}

// IsImage sniffs by extension
func IsImage(name string) bool {
	return imageExtensions[extOf(name)]
}
