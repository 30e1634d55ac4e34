package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hackdesk_backend/internal/calllog/repository"
	"hackdesk_backend/platform/apperr"
	"hackdesk_backend/platform/logger"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) ResolveTeam(ctx context.Context, externalID string) (uuid.UUID, error) {
	args := m.Called(ctx, externalID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockRepo) SweepStale(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

func (m *mockRepo) TryAcquire(ctx context.Context, teamID uuid.UUID, caller string, now, cutoff time.Time) (bool, string, error) {
	args := m.Called(ctx, teamID, caller, now, cutoff)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *mockRepo) RecordOutcome(ctx context.Context, teamID uuid.UUID, outcome, caller, notes string, now time.Time) error {
	args := m.Called(ctx, teamID, outcome, caller, notes, now)
	return args.Error(0)
}

func (m *mockRepo) Release(ctx context.Context, teamID uuid.UUID, caller string) (bool, error) {
	args := m.Called(ctx, teamID, caller)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) ListSheet(ctx context.Context) ([]repository.SheetEntry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.SheetEntry), args.Error(1)
}

func (m *mockRepo) StatusCounts(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int), args.Error(1)
}

func newTestService(repo *mockRepo) *Service {
	svc := New(repo, logger.New("development"))
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestAcquireClaimsFreeLock(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo)
	teamID := uuid.New()

	repo.On("SweepStale", mock.Anything, mock.Anything).Return(0, nil)
	repo.On("ResolveTeam", mock.Anything, "UNSTOP-1").Return(teamID, nil)
	repo.On("TryAcquire", mock.Anything, teamID, "Asha", mock.Anything, mock.Anything).Return(true, "Asha", nil)

	err := svc.Acquire(context.Background(), "UNSTOP-1", "Asha")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAcquireConflictNamesHolder(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo)
	teamID := uuid.New()

	repo.On("SweepStale", mock.Anything, mock.Anything).Return(0, nil)
	repo.On("ResolveTeam", mock.Anything, "UNSTOP-1").Return(teamID, nil)
	repo.On("TryAcquire", mock.Anything, teamID, "Bilal", mock.Anything, mock.Anything).Return(false, "Asha", nil)

	err := svc.Acquire(context.Background(), "UNSTOP-1", "Bilal")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Contains(t, err.Error(), "Asha")
}

func TestAcquireSweepsStaleLocksFirst(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo)
	teamID := uuid.New()

	var sweepCutoff time.Time
	repo.On("SweepStale", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sweepCutoff = args.Get(1).(time.Time)
	}).Return(1, nil)
	repo.On("ResolveTeam", mock.Anything, "UNSTOP-1").Return(teamID, nil)
	repo.On("TryAcquire", mock.Anything, teamID, "Asha", mock.Anything, mock.Anything).Return(true, "Asha", nil)

	require.NoError(t, svc.Acquire(context.Background(), "UNSTOP-1", "Asha"))
	assert.Equal(t, svc.now().Add(-staleLockTimeout), sweepCutoff)
}

func TestAcquireUnknownTeam(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo)

	repo.On("SweepStale", mock.Anything, mock.Anything).Return(0, nil)
	repo.On("ResolveTeam", mock.Anything, "NOPE").Return(uuid.Nil, apperr.NotFound("team not found"))

	err := svc.Acquire(context.Background(), "NOPE", "Asha")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	repo.AssertNotCalled(t, "TryAcquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Recording an outcome never checks lock ownership: a caller whose lock
// expired mid-call must still be able to save the result.
func TestCompleteDoesNotRequireLock(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo)
	teamID := uuid.New()

	repo.On("ResolveTeam", mock.Anything, "UNSTOP-1").Return(teamID, nil)
	repo.On("RecordOutcome", mock.Anything, teamID, repository.StatusWillVerify, "Bilal", "answered", mock.Anything).Return(nil)

	err := svc.Complete(context.Background(), "UNSTOP-1", repository.StatusWillVerify, "Bilal", "answered")
	require.NoError(t, err)
	repo.AssertNotCalled(t, "TryAcquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteRejectsInvalidStatus(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo)

	for _, status := range []string{"", "NOT_CALLED", "BEING_CALLED", "done"} {
		err := svc.Complete(context.Background(), "UNSTOP-1", status, "Asha", "")
		assert.True(t, apperr.Is(err, apperr.KindValidation), "status %q", status)
	}
	repo.AssertNotCalled(t, "RecordOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReleaseByHolder(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo)
	teamID := uuid.New()

	repo.On("ResolveTeam", mock.Anything, "UNSTOP-1").Return(teamID, nil)
	repo.On("Release", mock.Anything, teamID, "Asha").Return(true, nil)

	require.NoError(t, svc.Release(context.Background(), "UNSTOP-1", "Asha"))
}

func TestReleaseByNonHolderConflicts(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo)
	teamID := uuid.New()

	repo.On("ResolveTeam", mock.Anything, "UNSTOP-1").Return(teamID, nil)
	repo.On("Release", mock.Anything, teamID, "Bilal").Return(false, nil)

	err := svc.Release(context.Background(), "UNSTOP-1", "Bilal")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestSheetSweepsBeforeListing(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo)

	repo.On("SweepStale", mock.Anything, mock.Anything).Return(2, nil)
	repo.On("ListSheet", mock.Anything).Return([]repository.SheetEntry{{TeamID: "UNSTOP-1", Status: repository.StatusNotCalled}}, nil)

	entries, err := svc.Sheet(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	repo.AssertExpectations(t)
}

func TestStatsPassThrough(t *testing.T) {
	repo := new(mockRepo)
	svc := newTestService(repo)

	repo.On("SweepStale", mock.Anything, mock.Anything).Return(0, nil)
	repo.On("StatusCounts", mock.Anything).Return(map[string]int{
		repository.StatusNotCalled:  3,
		repository.StatusWillVerify: 2,
	}, nil)

	counts, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[repository.StatusNotCalled])
	assert.Equal(t, 2, counts[repository.StatusWillVerify])
}
