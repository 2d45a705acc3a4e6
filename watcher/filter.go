package watcher

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Filter is a glob matched against base file names.
// "", "*" and "*.*" match every name, including names without an extension.
type Filter string

// ParseFilter validates pattern and returns it as a Filter.
func ParseFilter(pattern string) (Filter, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidFilter, pattern, err)
	}
	return Filter(pattern), nil
}

// MatchAll reports whether the filter accepts every file name.
func (f Filter) MatchAll() bool {
	return f == "" || f == "*" || f == "*.*"
}

// Match reports whether the base name of path matches the filter.
func (f Filter) Match(path string) bool {
	if f.MatchAll() {
		return true
	}
	ok, err := filepath.Match(string(f), filepath.Base(path))
	return err == nil && ok
}

// LiteralFilter returns a Filter matching exactly name.
// Glob metacharacters are escaped where the platform supports escaping.
func LiteralFilter(name string) Filter {
	if runtime.GOOS == "windows" {
		// filepath.Match has no escape character on Windows, and names there
		// cannot contain '*' or '?'.
		return Filter(name)
	}
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`)
	return Filter(r.Replace(name))
}
