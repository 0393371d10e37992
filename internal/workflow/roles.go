package workflow

// roleOrder assigns a rank to each well-known role name:
// "queue < work < review < terminal", with "blocked" incomparable (any
// comparison against it is treated as unresolved).
var roleOrder = map[string]int{
	"queue":    0,
	"work":     1,
	"review":   2,
	"terminal": 3,
}

// RoleAtLeast reports whether role meets or exceeds minimum in the
// queue<work<review<terminal ordering. "blocked", and any role absent
// from roleOrder, is incomparable and always reports false — prerequisite
// checks that depend on RoleAtLeast therefore treat unresolved roles as
// not satisfying the bar.
func RoleAtLeast(role, minimum string) bool {
	r, ok := roleOrder[role]
	if !ok {
		return false
	}
	m, ok := roleOrder[minimum]
	if !ok {
		return false
	}
	return r >= m
}

// DefaultUnblockRole is the role a blocking task must reach before it
// stops blocking its dependents, when a Dependency does not set an
// explicit unblockAt role.
const DefaultUnblockRole = "terminal"
