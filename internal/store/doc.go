// Package store is the single shared handle to the time tracker's database.
//
// A Store owns the time entry and project tables and a change bus. Every
// successful write publishes an event.Change for its collection; failed
// writes publish nothing. Live queries subscribe to those changes through
// Changes.
package store
