package util

import (
	"path/filepath"
	"strings"
)

// Upload extensions grouped by extraction strategy.
var (
	PlainTextExtensions   = []string{".txt", ".md", ".markdown"}
	HTMLExtensions        = []string{".html", ".htm"}
	PlaceholderExtensions = []string{".pdf", ".docx", ".doc", ".odt", ".rtf"}
)

// Ext returns the lower-cased extension of name including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

func HasExt(name string, exts []string) bool {
	e := Ext(name)
	for _, x := range exts {
		if e == x {
			return true
		}
	}
	return false
}

// StateKey namespaces a durable state key, e.g. "qdrt:answers".
func StateKey(namespace, suffix string) string {
	return namespace + ":" + suffix
}
