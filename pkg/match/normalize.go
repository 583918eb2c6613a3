package match

import (
	"strings"
)

// Glob metacharacters that can be escaped with backslash in patterns.
const globEscapable = `*?[]{}\`

// NormalizePattern converts a user-provided glob pattern to canonical form.
//
// Backslashes before ordinary characters become forward slashes, so Windows
// users can write "fixtures\data\x.json". A backslash before a glob
// metacharacter (\*, \?, \[ ...) stays an escape for literal matching, so
// "fixtures\**" keeps its escape; write "fixtures/**" instead.
//
//	"fixtures/**"          → "fixtures/**"
//	"fixtures\data\x.json" → "fixtures/data/x.json"
//	"data/file\*.txt"      → "data/file\*.txt"
func NormalizePattern(pattern string) string {
	if pattern == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(pattern))

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '\\' {
			result.WriteRune(r)
			continue
		}
		if i+1 < len(runes) && strings.ContainsRune(globEscapable, runes[i+1]) {
			result.WriteRune('\\')
			result.WriteRune(runes[i+1])
			i++
			continue
		}
		result.WriteRune('/')
	}

	return result.String()
}

// IsHidden reports whether any segment of a slash-separated path starts
// with a dot. The "." and ".." segments are not hidden.
//
//	"configs/app.json"      → false
//	".git/config.json"      → true
//	"configs/.draft.yaml"   → true
//	"../configs/app.json"   → false
func IsHidden(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			continue
		}
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
