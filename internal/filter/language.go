package filter

import (
	"path"
	"strings"
)

// extensionLanguages maps file extensions to language tags. Unmapped
// extensions are tagged "unknown" but retained.
var extensionLanguages = map[string]string{
	".py": "python", ".js": "javascript", ".jsx": "javascript",
	".ts": "typescript", ".tsx": "typescript", ".java": "java",
	".go": "go", ".rs": "rust", ".c": "c", ".cpp": "cpp", ".cc": "cpp",
	".cxx": "cpp", ".h": "c", ".hpp": "cpp", ".php": "php", ".rb": "ruby",
	".swift": "swift", ".kt": "kotlin", ".scala": "scala", ".cs": "csharp",
	".fs": "fsharp", ".clj": "clojure", ".hs": "haskell", ".ml": "ocaml",
	".r": "r", ".m": "matlab", ".lua": "lua", ".ex": "elixir", ".exs": "elixir",

	".sh": "shell", ".bash": "shell", ".zsh": "shell", ".fish": "shell",
	".ps1": "powershell", ".sql": "sql",

	".html": "html", ".css": "css", ".scss": "scss", ".sass": "sass",
	".less": "less", ".xml": "xml", ".vue": "vue", ".svelte": "svelte",

	".json": "json", ".yaml": "yaml", ".yml": "yaml", ".toml": "toml",
	".ini": "ini", ".cfg": "ini", ".conf": "conf", ".proto": "protobuf",

	".md": "markdown", ".rst": "markdown", ".txt": "text",
}

// wellKnownFilenames maps manifest and build files without a telling
// extension to a language tag. Keys are lowercase basenames.
var wellKnownFilenames = map[string]string{
	"dockerfile":     "dockerfile",
	"makefile":       "makefile",
	"cmakelists.txt": "cmake",
	"gemfile":        "ruby",
	"rakefile":       "ruby",
	"go.mod":         "go",
	"go.sum":         "go",
	"cargo.toml":     "rust",
	"cargo.lock":     "rust",
	"package.json":   "javascript",
	"pyproject.toml": "python",
	"setup.py":       "python",
	"pom.xml":        "java",
	"build.gradle":   "java",
}

// DetectLanguage derives a language tag from the filename alone.
func DetectLanguage(p string) string {
	base := strings.ToLower(path.Base(p))
	if lang, ok := wellKnownFilenames[base]; ok {
		return lang
	}
	if lang, ok := extensionLanguages[strings.ToLower(path.Ext(p))]; ok {
		return lang
	}
	return "unknown"
}
