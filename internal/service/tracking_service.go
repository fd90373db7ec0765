package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timesflying/internal/domain"
	"github.com/alexanderramin/timesflying/internal/repository"
	"github.com/google/uuid"
)

type trackingService struct {
	entries  repository.TimeEntryRepo
	now      func() time.Time
	observer UseCaseObserver
}

// TrackingOption configures NewTrackingService.
type TrackingOption func(*trackingService)

// WithClock replaces time.Now as the source of start and end times.
func WithClock(now func() time.Time) TrackingOption {
	return func(s *trackingService) { s.now = now }
}

// WithObserver reports every command to obs.
func WithObserver(obs UseCaseObserver) TrackingOption {
	return func(s *trackingService) {
		if obs != nil {
			s.observer = obs
		}
	}
}

func NewTrackingService(entries repository.TimeEntryRepo, opts ...TrackingOption) TrackingService {
	s := &trackingService{
		entries:  entries,
		now:      time.Now,
		observer: NoopUseCaseObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *trackingService) observe(ctx context.Context, name string, startedAt time.Time, fields map[string]any, err error) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}

// Start stops the running entry, if any, then adds a new running entry.
// The two writes are independent; if the add fails the tracker is left idle.
func (s *trackingService) Start(ctx context.Context, description, projectID string) (entry *domain.TimeEntry, err error) {
	startedAt := time.Now()
	fields := map[string]any{"project": projectID}
	defer func() { s.observe(ctx, "start", startedAt, fields, err) }()

	stopped, err := s.stopActive(ctx)
	if err != nil {
		return nil, err
	}
	if stopped != nil {
		fields["stopped"] = stopped.ID
	}

	entry = &domain.TimeEntry{
		ID:          uuid.New().String(),
		StartTime:   s.now().UTC(),
		Description: description,
		ProjectID:   projectID,
	}
	if err = s.entries.Add(ctx, entry); err != nil {
		return nil, fmt.Errorf("adding time entry: %w", err)
	}
	fields["entry"] = entry.ID
	return entry, nil
}

// Stop ends the running entry and returns it. It returns nil, nil when
// nothing is running.
func (s *trackingService) Stop(ctx context.Context) (entry *domain.TimeEntry, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() { s.observe(ctx, "stop", startedAt, fields, err) }()

	entry, err = s.stopActive(ctx)
	if entry != nil {
		fields["entry"] = entry.ID
	}
	return entry, err
}

func (s *trackingService) stopActive(ctx context.Context) (*domain.TimeEntry, error) {
	active, err := s.entries.First(ctx, repository.NewQuery().Where(repository.IsNull(repository.FieldEndTime)))
	if err != nil {
		return nil, fmt.Errorf("finding active entry: %w", err)
	}
	if active == nil {
		return nil, nil
	}

	end := s.now().UTC()
	if end.Before(active.StartTime) {
		end = active.StartTime
	}
	stopped, err := s.entries.Patch(ctx, active.ID, domain.EntryPatch{EndTime: &end})
	if err != nil {
		return nil, fmt.Errorf("stopping entry %s: %w", active.ID, err)
	}
	return stopped, nil
}

// Continue starts a new entry with the description and project of id.
// A missing id is a no-op.
func (s *trackingService) Continue(ctx context.Context, id string) (entry *domain.TimeEntry, err error) {
	startedAt := time.Now()
	fields := map[string]any{"source": id}
	defer func() { s.observe(ctx, "continue", startedAt, fields, err) }()

	src, err := s.entries.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		fields["found"] = false
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fields["found"] = true
	entry, err = s.Start(ctx, src.Description, src.ProjectID)
	if entry != nil {
		fields["entry"] = entry.ID
	}
	return entry, err
}

func (s *trackingService) TogglePin(ctx context.Context, id string) (entry *domain.TimeEntry, err error) {
	startedAt := time.Now()
	fields := map[string]any{"entry": id}
	defer func() { s.observe(ctx, "toggle-pin", startedAt, fields, err) }()

	current, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	pinned := !current.IsPinned
	fields["pinned"] = pinned
	return s.entries.Patch(ctx, id, domain.EntryPatch{IsPinned: &pinned})
}

// Delete removes id after confirm approves. A declined confirmation, or a
// nil confirm, returns false and leaves the store untouched.
func (s *trackingService) Delete(ctx context.Context, id string, confirm Confirmer) (deleted bool, err error) {
	startedAt := time.Now()
	fields := map[string]any{"entry": id}
	defer func() {
		fields["deleted"] = deleted
		s.observe(ctx, "delete", startedAt, fields, err)
	}()

	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if confirm == nil {
		return false, nil
	}
	ok, err := confirm.Confirm(ctx, entry)
	if err != nil {
		return false, fmt.Errorf("confirming delete: %w", err)
	}
	if !ok {
		return false, nil
	}
	if err := s.entries.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// Update applies patch to id. An end time before the start time is rejected.
func (s *trackingService) Update(ctx context.Context, id string, patch domain.EntryPatch) (entry *domain.TimeEntry, err error) {
	startedAt := time.Now()
	fields := map[string]any{"entry": id}
	defer func() { s.observe(ctx, "update", startedAt, fields, err) }()

	current, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.EndTime != nil && patch.EndTime.Before(current.StartTime) {
		return nil, fmt.Errorf("end time %s is before start time %s: %w",
			patch.EndTime.UTC().Format(time.RFC3339), current.StartTime.Format(time.RFC3339), ErrInvalidPatch)
	}
	if patch.IsEmpty() {
		return current, nil
	}
	return s.entries.Patch(ctx, id, patch)
}
