package registration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/careconnect/intake/internal/domain"
	"github.com/careconnect/intake/internal/pkg/logger"
)

// Service implements registration business logic. It is safe for concurrent
// use; it holds no per-request state.
type Service struct {
	repo     Repository
	notifier Notifier
	validate *validator.Validate
	now      func() time.Time
	pending  sync.WaitGroup
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the clock used to stamp creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNotifier registers a notifier that is called in the background after
// each stored record.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService creates a registration service backed by the given repository.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema runs the store initializer.
func (s *Service) EnsureSchema(ctx context.Context) error {
	if err := s.repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Register validates payload for kind, stamps it and stores it as a new row.
// A nil payload yields ErrInvalidPayload; empty required fields yield a
// *ValidationError and nothing is written.
func (s *Service) Register(ctx context.Context, kind domain.Kind, payload map[string]string) (domain.Record, error) {
	schema, ok := domain.SchemaFor(kind)
	if !ok {
		return domain.Record{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if payload == nil {
		return domain.Record{}, ErrInvalidPayload
	}

	fields := make(map[string]string, len(schema.Fields))
	for _, f := range schema.Fields {
		fields[f] = strings.TrimSpace(payload[f])
	}

	missing := lo.Filter(schema.Required, func(f string, _ int) bool {
		return s.validate.Var(fields[f], "required") != nil
	})
	if len(missing) > 0 {
		return domain.Record{}, &ValidationError{Kind: kind, Fields: missing}
	}

	rec := domain.Record{
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		Fields:    fields,
	}

	id, err := s.repo.Insert(ctx, kind, rec)
	if err != nil {
		return domain.Record{}, fmt.Errorf("store %s: %w", schema.Table, err)
	}
	rec.ID = id

	if s.notifier != nil {
		s.notify(context.WithoutCancel(ctx), schema, rec)
	}
	return rec, nil
}

// notify sends off the request goroutine; the caller's cancellation does not
// reach it.
func (s *Service) notify(ctx context.Context, schema domain.Schema, rec domain.Record) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.notifier.Notify(ctx, schema, rec); err != nil {
			logger.Warn("registration notification failed", "kind", schema.Kind, "id", rec.ID, "error", err)
		}
	}()
}

// Wait blocks until every notification started so far has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// List returns every record of kind, most recently created first.
func (s *Service) List(ctx context.Context, kind domain.Kind) ([]domain.Record, error) {
	schema, ok := domain.SchemaFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	recs, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", schema.Table, err)
	}
	return recs, nil
}
