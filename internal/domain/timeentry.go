package domain

import "time"

// TimeEntry is a tracked span of work. A nil EndTime marks the running entry;
// at most one entry may be running at a time.
type TimeEntry struct {
	ID          string
	StartTime   time.Time
	EndTime     *time.Time
	Description string
	ProjectID   string
	IsPinned    bool
}

// IsRunning reports whether the entry has not been stopped yet.
func (e *TimeEntry) IsRunning() bool {
	return e.EndTime == nil
}

// Elapsed returns (EndTime or now) - StartTime, floored at zero.
func (e *TimeEntry) Elapsed(now time.Time) time.Duration {
	end := now
	if e.EndTime != nil {
		end = *e.EndTime
	}
	d := end.Sub(e.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// DisplayID returns the first 8 characters of ID.
func (e *TimeEntry) DisplayID() string {
	if len(e.ID) >= 8 {
		return e.ID[:8]
	}
	return e.ID
}

// EntryPatch is a partial update of a TimeEntry. Nil fields are left as is.
// StartTime and ID cannot be patched.
type EntryPatch struct {
	EndTime     *time.Time
	Description *string
	ProjectID   *string
	IsPinned    *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.EndTime == nil && p.Description == nil && p.ProjectID == nil && p.IsPinned == nil
}

// Apply copies the non-nil fields of p onto e.
func (p EntryPatch) Apply(e *TimeEntry) {
	if p.EndTime != nil {
		end := *p.EndTime
		e.EndTime = &end
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.ProjectID != nil {
		e.ProjectID = *p.ProjectID
	}
	if p.IsPinned != nil {
		e.IsPinned = *p.IsPinned
	}
}
