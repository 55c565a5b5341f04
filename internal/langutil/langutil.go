// Package langutil maps file extensions to LSP language identifiers and
// converts between absolute paths, relative paths, and file:// URIs.
package langutil

import (
	"net/url"
	"path/filepath"
	"strings"
)

// extensionToLanguage is a static table of the extensions the bridge knows
// about. Peers not covered here still work: DetectLanguageID falls back to
// "plaintext", which is a valid LSP languageId.
var extensionToLanguage = map[string]string{
	".go":     "go",
	".ts":     "typescript",
	".tsx":    "typescriptreact",
	".js":     "javascript",
	".jsx":    "javascriptreact",
	".py":     "python",
	".rb":     "ruby",
	".rs":     "rust",
	".java":   "java",
	".c":      "c",
	".h":      "c",
	".cpp":    "cpp",
	".hpp":    "cpp",
	".cs":     "csharp",
	".php":    "php",
	".lua":    "lua",
	".sh":     "shellscript",
	".yaml":   "yaml",
	".yml":    "yaml",
	".json":   "json",
	".md":     "markdown",
	".html":   "html",
	".css":    "css",
	".sql":    "sql",
	".zig":    "zig",
	".ex":     "elixir",
	".exs":    "elixir",
	".hs":     "haskell",
	".kt":     "kotlin",
	".swift":  "swift",
	".scala":  "scala",
	".proto":  "proto",
	".tf":     "terraform",
	".toml":   "toml",
	".vue":    "vue",
	".svelte": "svelte",
}

// DetectLanguageID returns the LSP languageId for a path based on its
// extension, falling back to "plaintext" when the extension is unknown.
func DetectLanguageID(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionToLanguage[ext]; ok {
		return lang
	}
	return "plaintext"
}

// ToAbsolute resolves path against root if it is not already absolute.
func ToAbsolute(root, path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Abs(filepath.Join(root, path))
}

// ToRelative expresses an absolute path relative to root. If the path is
// not under root, it is returned unchanged.
func ToRelative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// PathToURI converts an absolute filesystem path to a file:// URI.
func PathToURI(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

// URIToPath converts a file:// URI back to a filesystem path.
func URIToPath(rawURI string) string {
	u, err := url.Parse(rawURI)
	if err != nil || u.Scheme != "file" {
		return strings.TrimPrefix(rawURI, "file://")
	}
	path := u.Path
	if filepath.Separator == '\\' {
		path = strings.TrimPrefix(path, "/")
		path = filepath.FromSlash(path)
	}
	return path
}
