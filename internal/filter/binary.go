package filter

import (
	"bytes"
	"path"
	"strings"
	"unicode/utf8"
)

// binaryExtensions lists extensions skipped without inspecting content.
var binaryExtensions = map[string]struct{}{
	// Images
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".ico": {},
	".webp": {}, ".tiff": {}, ".tga": {},
	// Audio / video
	".mp3": {}, ".wav": {}, ".flac": {}, ".aac": {}, ".ogg": {}, ".m4a": {},
	".mp4": {}, ".avi": {}, ".mkv": {}, ".mov": {}, ".wmv": {}, ".webm": {},
	// Archives
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".xz": {}, ".7z": {}, ".rar": {},
	// Executables and libraries
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".deb": {}, ".rpm": {},
	".msi": {}, ".dmg": {}, ".class": {}, ".pyc": {}, ".pyo": {}, ".o": {}, ".a": {},
	// Documents
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	// Fonts
	".ttf": {}, ".otf": {}, ".woff": {}, ".woff2": {}, ".eot": {},
	// Databases and blobs
	".db": {}, ".sqlite": {}, ".sqlite3": {}, ".mdb": {},
	".bin": {}, ".dat": {}, ".img": {}, ".iso": {},
}

// excludedDirectories are path segments whose subtrees are never analysed:
// VCS metadata, dependency trees, build outputs, caches.
var excludedDirectories = map[string]struct{}{
	".git": {}, ".svn": {}, ".hg": {},
	"node_modules": {}, "__pycache__": {}, ".pytest_cache": {},
	"venv": {}, ".venv": {}, "env": {},
	"build": {}, "dist": {}, "target": {}, "out": {}, "obj": {},
	".idea": {}, ".vscode": {}, ".vs": {},
	"tmp": {}, "temp": {}, ".tox": {}, ".nyc_output": {},
	"vendor": {}, "Pods": {}, ".next": {}, ".nuxt": {}, ".cache": {},
}

// HasBinaryExtension reports whether the extension is on the known-binary
// list.
func HasBinaryExtension(p string) bool {
	_, ok := binaryExtensions[strings.ToLower(path.Ext(p))]
	return ok
}

// InExcludedDir reports whether any segment of the path is an excluded
// directory.
func InExcludedDir(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if _, ok := excludedDirectories[part]; ok {
			return true
		}
	}
	return false
}

// SkipByPath is the cheap pre-fetch predicate: true when the path alone
// already disqualifies an entry. The API path applies it before spending
// quota on blob fetches; the full filter applies it again on archive
// entries so both paths retain the same set.
func SkipByPath(p string) bool {
	return InExcludedDir(p) || HasBinaryExtension(p)
}

// DecodeText attempts to view content as text. UTF-8 passes through;
// content with NUL bytes in the first KB is rejected as binary; anything
// else falls back to a Latin-1 reading, matching the permissive behaviour
// of common repository tooling.
func DecodeText(content []byte) (string, bool) {
	probe := content
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		return "", false
	}
	if utf8.Valid(content) {
		return string(content), true
	}

	runes := make([]rune, len(content))
	for i, b := range content {
		runes[i] = rune(b)
	}
	return string(runes), true
}

// CountLines counts newline-delimited lines the way text editors do: a
// trailing newline does not start an extra line.
func CountLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
