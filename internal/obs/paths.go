package obs

import "strings"

// CanonicalPath collapses resource identifiers in request paths so metric
// label cardinality stays bounded.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || parts[0] != "api" {
		return path
	}
	switch parts[1] {
	case "tasks", "projects", "tenants", "notifications":
	default:
		return path
	}
	switch len(parts) {
	case 3:
		if parts[2] == "assign" {
			return path
		}
		return "/api/" + parts[1] + "/:id"
	case 4:
		switch parts[3] {
		case "status", "assign", "read":
			return "/api/" + parts[1] + "/:id/" + parts[3]
		}
	}
	return path
}
