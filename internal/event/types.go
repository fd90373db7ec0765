package event

// Collection names a table of the store.
type Collection string

const (
	TimeEntries Collection = "timeEntries"
	Projects    Collection = "projects"
)

// Op describes what kind of write produced a change.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	// OpExternal marks a write made by another process on the same database.
	OpExternal Op = "external"
)

// Change is published after a write to a collection succeeds.
type Change struct {
	Collection Collection `json:"collection"`
	Op         Op         `json:"op"`
	ID         string     `json:"id,omitempty"`
}

// Subscriber receives changes. It is called from the publishing goroutine.
type Subscriber func(Change)
