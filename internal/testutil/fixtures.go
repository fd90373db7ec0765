package testutil

import (
	"time"

	"github.com/alexanderramin/timesflying/internal/domain"
	"github.com/google/uuid"
)

// Project options
type ProjectOption func(*domain.Project)

func WithColor(c string) ProjectOption {
	return func(p *domain.Project) {
		p.Color = c
	}
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	p := &domain.Project{
		ID:    uuid.New().String(),
		Name:  name,
		Color: domain.DefaultProjectColor,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TimeEntry options
type EntryOption func(*domain.TimeEntry)

func WithStart(t time.Time) EntryOption {
	return func(e *domain.TimeEntry) {
		e.StartTime = t
	}
}

// WithSpan sets both ends of the entry, making it stopped.
func WithSpan(start time.Time, d time.Duration) EntryOption {
	return func(e *domain.TimeEntry) {
		end := start.Add(d)
		e.StartTime = start
		e.EndTime = &end
	}
}

// Running clears EndTime.
func Running() EntryOption {
	return func(e *domain.TimeEntry) {
		e.EndTime = nil
	}
}

func WithProject(id string) EntryOption {
	return func(e *domain.TimeEntry) {
		e.ProjectID = id
	}
}

func Pinned() EntryOption {
	return func(e *domain.TimeEntry) {
		e.IsPinned = true
	}
}

// NewTestEntry builds a stopped, one-hour entry that started an hour ago.
func NewTestEntry(description string, opts ...EntryOption) *domain.TimeEntry {
	now := time.Now().UTC().Truncate(time.Second)
	end := now
	e := &domain.TimeEntry{
		ID:          uuid.New().String(),
		StartTime:   now.Add(-time.Hour),
		EndTime:     &end,
		Description: description,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
