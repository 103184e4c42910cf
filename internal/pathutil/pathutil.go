// Package pathutil reduces user supplied and configured storage paths to a
// safe relative form. Every path handed to a disk passes through here first.
package pathutil

import (
	"net/url"
	"path"
	"strings"

	"github.com/yokitheyo/imagekit/internal/domain"
)

const DefaultSavedPath = "uploads/images"

// Roots are the host directories a configured absolute path may be re-rooted
// against. Empty roots are skipped.
type Roots struct {
	Base    string
	Storage string
	Public  string
}

// Check rejects empty, absolute and traversal paths.
func Check(p string) error {
	if p == "" {
		return domain.InvalidInput("path is empty")
	}
	if domain.IsAbsolutePath(p) {
		return domain.InvalidInput("absolute paths are not allowed, use a relative path: %s", p)
	}
	if strings.Contains(p, "..") || strings.Contains(p, "//") {
		return domain.InvalidInput("path cannot contain '..' or '//': %s", p)
	}
	return nil
}

// StripURL keeps only the path component when s is an absolute URL.
func StripURL(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return s
	}
	return u.Path
}

// Normalize canonicalises a caller supplied path. Absolute filesystem paths
// are rejected.
func Normalize(p string) (string, error) {
	stripped := StripURL(p)
	fromURL := stripped != p
	if !fromURL && domain.IsAbsolutePath(stripped) {
		return "", domain.InvalidInput("absolute paths are not allowed, use a relative path: %s", p)
	}
	return clean(stripped)
}

// NormalizeConfigured canonicalises a path read from configuration. An empty
// value yields DefaultSavedPath; an absolute value is re-rooted under the most
// specific matching root and rejected when none matches.
func NormalizeConfigured(p string, roots Roots) (string, error) {
	if p == "" {
		return DefaultSavedPath, nil
	}
	if domain.IsAbsolutePath(p) {
		rel, ok := reroot(p, roots)
		if !ok {
			return "", domain.InvalidInput("absolute paths are not allowed in config, use a relative path such as %q: %s", DefaultSavedPath, p)
		}
		p = rel
	}
	return clean(p)
}

func reroot(p string, roots Roots) (string, bool) {
	p = strings.ReplaceAll(p, "\\", "/")
	try := func(root string) (string, bool) {
		if root == "" {
			return "", false
		}
		root = strings.TrimRight(strings.ReplaceAll(root, "\\", "/"), "/")
		if !strings.HasPrefix(p, root+"/") {
			return "", false
		}
		return strings.TrimPrefix(p, root+"/"), true
	}

	if rel, ok := try(roots.Storage); ok {
		return rel, true
	}
	if rel, ok := try(roots.Public); ok {
		return rel, true
	}
	if rel, ok := try(roots.Base); ok {
		return strings.TrimPrefix(rel, "public/"), true
	}
	return "", false
}

func clean(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimLeft(p, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if err := Check(p); err != nil {
		return "", err
	}
	return strings.TrimRight(p, "/"), nil
}

// Join builds "{dir}/{name}" without doubling separators.
func Join(dir, name string) string {
	dir = strings.TrimRight(dir, "/")
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// Derivative is the path of the size-labelled copy of {dir}/{name}.
func Derivative(dir, label, name string) string {
	return Join(dir, label+"_"+name)
}

// SplitExt returns the base name without extension and the lowercased
// extension without its dot.
func SplitExt(name string) (string, string) {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext), strings.ToLower(strings.TrimPrefix(ext, "."))
}
