package vfs

import "strings"

// Path helpers for the virtual tree. All virtual paths are absolute,
// slash-separated and normalized; the root is "/". These are pure string
// functions with no filesystem access.

// NormalizePath collapses repeated separators, strips any trailing separator
// and ensures a single leading one. Empty input maps to "/".
func NormalizePath(raw string) string {
	segments := splitSegments(raw)
	return "/" + strings.Join(segments, "/")
}

// JoinPath joins a folder path and a child name, normalizing the result.
func JoinPath(parentPath, name string) string {
	if parentPath == "" || parentPath == "/" {
		return NormalizePath("/" + name)
	}
	return NormalizePath(parentPath + "/" + name)
}

// SplitNameAndExtension splits a display name into base and extension.
// The extension is the part after the last dot, unless that dot is the
// first or last character ("archive.tar" -> "archive", "tar";
// ".profile" and "name." have no extension). Empty names default to
// "untitled".
func SplitNameAndExtension(name string) (base, ext string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "untitled", ""
	}
	dot := strings.LastIndex(trimmed, ".")
	if dot <= 0 || dot == len(trimmed)-1 {
		return trimmed, ""
	}
	return trimmed[:dot], trimmed[dot+1:]
}

// ExtensionOf returns the lower-cased extension of a name, or "" if none.
func ExtensionOf(name string) string {
	_, ext := SplitNameAndExtension(name)
	return strings.ToLower(ext)
}

func splitSegments(raw string) []string {
	parts := strings.Split(raw, "/")
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}
