// Package authz holds the request-time authorization decision: route
// classification and the pure allow/redirect table shared by the edge
// middleware, the layout guard and the client auth state.
package authz

import (
	"path"
	"strings"
)

type RouteClass string

const (
	ClassPublic   RouteClass = "public"
	ClassAdmin    RouteClass = "admin"
	ClassSupplier RouteClass = "supplier"
	// ClassProtected requires a session but no specific role.
	ClassProtected RouteClass = "shared_protected"
)

var (
	DefaultPublicPrefixes   = []string{"/login", "/signup", "/forgot-password", "/reset-password"}
	DefaultAdminPrefixes    = []string{"/admin"}
	DefaultSupplierPrefixes = []string{"/supplier"}
)

// Classifier partitions the path space. Sets are checked in the order
// public, admin, supplier; anything unmatched is shared-protected.
type Classifier struct {
	public   []string
	admin    []string
	supplier []string
}

func NewClassifier(public, admin, supplier []string) *Classifier {
	return &Classifier{
		public:   normalizePrefixes(public),
		admin:    normalizePrefixes(admin),
		supplier: normalizePrefixes(supplier),
	}
}

// DefaultClassifier returns the portal's static route table.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultPublicPrefixes, DefaultAdminPrefixes, DefaultSupplierPrefixes)
}

func (c *Classifier) Classify(p string) RouteClass {
	p = CleanPath(p)
	switch {
	case matchAny(p, c.public):
		return ClassPublic
	case matchAny(p, c.admin):
		return ClassAdmin
	case matchAny(p, c.supplier):
		return ClassSupplier
	default:
		return ClassProtected
	}
}

// CleanPath resolves dot segments and duplicate slashes so that
// "/supplier/../admin" classifies as "/admin".
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// MatchPrefix reports whether p equals prefix or is a descendant of it.
func MatchPrefix(p, prefix string) bool {
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

func matchAny(p string, prefixes []string) bool {
	for _, pre := range prefixes {
		if MatchPrefix(p, pre) {
			return true
		}
	}
	return false
}

func normalizePrefixes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		p = CleanPath(p)
		if p == "/" {
			// "/" would swallow the whole path space.
			continue
		}
		out = append(out, p)
	}
	return out
}
