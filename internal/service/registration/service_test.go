package registration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/intake/internal/domain"
)

// mockRepo is an in-memory repository for testing.
type mockRepo struct {
	mu        sync.Mutex
	rows      map[domain.Kind][]domain.Record
	nextID    int64
	insertErr error
	listErr   error
	ensured   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{rows: make(map[domain.Kind][]domain.Record)}
}

func (m *mockRepo) EnsureSchema(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensured++
	return nil
}

func (m *mockRepo) Insert(_ context.Context, kind domain.Kind, rec domain.Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.nextID++
	rec.ID = m.nextID
	m.rows[kind] = append(m.rows[kind], rec)
	return rec.ID, nil
}

func (m *mockRepo) List(_ context.Context, kind domain.Kind) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	rows := m.rows[kind]
	out := make([]domain.Record, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	calls   []domain.Record
	ctxErrs []error
	release chan struct{}
	err     error
}

func (n *recordingNotifier) Notify(ctx context.Context, _ domain.Schema, rec domain.Record) error {
	if n.release != nil {
		<-n.release
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, rec)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	return n.err
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("EST", -5*3600))
}

func TestRegister_TrimsAndStamps(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, WithClock(fixedClock))

	rec, err := svc.Register(context.Background(), domain.KindVolunteer, map[string]string{
		"name":  " Jane Doe ",
		"email": "jane@example.com",
		"city":  "Austin",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, "2026-03-04T10:06:07Z", rec.Timestamp)
	assert.Equal(t, "Jane Doe", rec.Fields["name"])
	assert.Equal(t, "Austin", rec.Fields["city"])
	assert.Equal(t, "", rec.Fields["phone"])
	assert.Equal(t, "", rec.Fields["availability"])
	assert.Equal(t, "", rec.Fields["interests"])

	stored, err := svc.List(context.Background(), domain.KindVolunteer)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Jane Doe", stored[0].Fields["name"])
}

func TestRegister_IgnoresUnknownAndClientTimestamp(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, WithClock(fixedClock))

	rec, err := svc.Register(context.Background(), domain.KindFacility, map[string]string{
		"facilityName": "North Clinic",
		"email":        "desk@north.test",
		"timestamp":    "1999-01-01T00:00:00Z",
		"id":           "77",
		"favorite":     "blue",
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-03-04T10:06:07Z", rec.Timestamp)
	assert.Equal(t, int64(1), rec.ID)
	assert.NotContains(t, rec.Fields, "favorite")
	assert.NotContains(t, rec.Fields, "timestamp")
}

func TestRegister_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.Kind
		payload map[string]string
		missing []string
	}{
		{"empty facility", domain.KindFacility, map[string]string{}, []string{"facilityName", "email"}},
		{"whitespace name", domain.KindFacility, map[string]string{"facilityName": "   ", "email": "a@b.test"}, []string{"facilityName"}},
		{"provider no email", domain.KindProvider, map[string]string{"providerName": "Acme"}, []string{"email"}},
		{"volunteer tab email", domain.KindVolunteer, map[string]string{"name": "Sam", "email": "\t\n"}, []string{"email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			svc := NewService(repo)

			_, err := svc.Register(context.Background(), tt.kind, tt.payload)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.missing, verr.Fields)
			assert.Empty(t, repo.rows[tt.kind], "rejected payload must not be stored")
		})
	}
}

func TestRegister_NilPayload(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.Register(context.Background(), domain.KindFacility, nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestRegister_UnknownKind(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.Register(context.Background(), domain.Kind("donor"), map[string]string{})
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = svc.List(context.Background(), domain.Kind("donor"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRegister_StoreFailureCarriesDetail(t *testing.T) {
	repo := newMockRepo()
	repo.insertErr = fmt.Errorf("disk I/O error")
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), domain.KindProvider, map[string]string{
		"providerName": "Acme",
		"email":        "a@acme.test",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Contains(t, err.Error(), "providers")
}

func TestRegister_NotifierCalledOnlyOnSuccess(t *testing.T) {
	repo := newMockRepo()
	n := &recordingNotifier{err: fmt.Errorf("ses down")}
	svc := NewService(repo, WithNotifier(n))

	_, err := svc.Register(context.Background(), domain.KindVolunteer, map[string]string{"name": "A"})
	require.Error(t, err)
	assert.Empty(t, n.calls)

	rec, err := svc.Register(context.Background(), domain.KindVolunteer, map[string]string{"name": "A", "email": "a@x.test"})
	require.NoError(t, err, "notifier failure must not fail the intake")
	svc.Wait()
	require.Len(t, n.calls, 1)
	assert.Equal(t, rec.ID, n.calls[0].ID)
}

func TestRegister_NotifiesInBackground(t *testing.T) {
	n := &recordingNotifier{release: make(chan struct{})}
	svc := NewService(newMockRepo(), WithNotifier(n))

	ctx, cancel := context.WithCancel(context.Background())
	_, err := svc.Register(ctx, domain.KindFacility, map[string]string{"facilityName": "F", "email": "f@x.test"})
	require.NoError(t, err, "Register returns before the notifier finishes")
	cancel()

	close(n.release)
	svc.Wait()
	require.Len(t, n.calls, 1)
	assert.NoError(t, n.ctxErrs[0], "request cancellation does not reach the notifier")
}

func TestList_OrderMostRecentFirst(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := svc.Register(ctx, domain.KindVolunteer, map[string]string{"name": name, "email": name + "@x.test"})
		require.NoError(t, err)
	}

	recs, err := svc.List(ctx, domain.KindVolunteer)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "C", recs[0].Fields["name"])
	assert.Equal(t, "B", recs[1].Fields["name"])
	assert.Equal(t, "A", recs[2].Fields["name"])
}

func TestList_WrapsStoreError(t *testing.T) {
	repo := newMockRepo()
	repo.listErr = fmt.Errorf("no such table: facilities")
	svc := NewService(repo)

	_, err := svc.List(context.Background(), domain.KindFacility)
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.listErr)
}

func TestEnsureSchema_Delegates(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	require.NoError(t, svc.EnsureSchema(context.Background()))
	require.NoError(t, svc.EnsureSchema(context.Background()))
	assert.Equal(t, 2, repo.ensured)
}
