package models

// Assignee is a task grouping key: either a concrete user id or the
// unassigned bucket. The zero value is Unassigned, and it never compares
// equal to Assigned(id) for any id, including the literal "unassigned".
type Assignee struct {
	id       string
	assigned bool
}

// Assigned returns the key for a task assigned to the given user id.
func Assigned(id string) Assignee {
	return Assignee{id: id, assigned: true}
}

// Unassigned returns the key for tasks without an assignee.
func Unassigned() Assignee {
	return Assignee{}
}

// ID returns the user id and whether the key names a real assignee.
func (a Assignee) ID() (string, bool) {
	return a.id, a.assigned
}

// IsAssigned reports whether the key names a real assignee.
func (a Assignee) IsAssigned() bool {
	return a.assigned
}

// String is for display only. Use ID to tell buckets apart.
func (a Assignee) String() string {
	if !a.assigned {
		return "unassigned"
	}
	return a.id
}
