package routing

import "strings"

// MatchPath checks whether a concrete request path matches a route pattern.
// ":name" matches exactly one non-empty path segment; "*" matches one or
// more trailing segments. Matching is segment-wise and case-sensitive.
//
// "/products/:slug" matches "/products/red-shoes" but not "/products/a/b".
// "/admin/*" matches "/admin/users/5" but not "/admin" itself.
func MatchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}
	patSegs := splitPath(pattern)
	pathSegs := splitPath(path)

	for i, seg := range patSegs {
		if seg == "*" {
			// Wildcard consumes the rest of the path; at least the
			// segment position itself must exist.
			return len(pathSegs) > i
		}
		if i >= len(pathSegs) {
			return false
		}
		if strings.HasPrefix(seg, ":") {
			if pathSegs[i] == "" {
				return false
			}
			continue
		}
		if seg != pathSegs[i] {
			return false
		}
	}
	return len(patSegs) == len(pathSegs)
}

// splitPath splits a path into segments, dropping the leading slash so
// "/a/b" and "a/b" segment identically. A trailing slash yields a final
// empty segment, which only "*" or an exact empty literal can match.
func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
