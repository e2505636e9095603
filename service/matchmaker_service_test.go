package service

import (
	"context"
	"testing"
	"time"

	"pairline/auth"
	"pairline/events"
	"pairline/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMatchmakerMocks() (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockQueueRepository, *MockMatchRepository) {
	mockFactory := new(MockUnitOfWorkFactory)
	mockUoW := new(MockUnitOfWork)
	mockQueueRepo := new(MockQueueRepository)
	mockMatchRepo := new(MockMatchRepository)
	mockUoW.SetRepositories(mockQueueRepo, mockMatchRepo, nil, nil, nil, nil)
	return mockFactory, mockUoW, mockQueueRepo, mockMatchRepo
}

func TestMatchmakerService_FindMatch_Unauthenticated(t *testing.T) {
	mockFactory, _, _, _ := newMatchmakerMocks()
	svc := NewMatchmakerService(mockFactory)

	result, err := svc.FindMatch(context.Background(), auth.Caller{})

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Nil(t, result)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestMatchmakerService_FindMatch_ReconnectReturnsExistingMatch(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockQueueRepo, mockMatchRepo := newMatchmakerMocks()
	svc := NewMatchmakerService(mockFactory)

	existing := &models.Match{ID: 42, UserA: 100, UserB: 200}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("GetActiveByUser", ctx, int64(100)).Return(existing, nil)
	mockQueueRepo.On("Remove", ctx, int64(100)).Return(true, nil)

	result, err := svc.FindMatch(ctx, auth.Caller{UserID: 100})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(42), result.MatchID)
	assert.Equal(t, int64(200), result.PartnerID)
	assert.False(t, result.Created)

	// The second call returns the identical match
	result2, err := svc.FindMatch(ctx, auth.Caller{UserID: 100})
	require.NoError(t, err)
	require.NotNil(t, result2)
	assert.Equal(t, result.MatchID, result2.MatchID)

	mockMatchRepo.AssertNotCalled(t, "Create")
	mockQueueRepo.AssertNotCalled(t, "ClaimOldest")
}

func TestMatchmakerService_FindMatch_NoCandidateEnqueuesCaller(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockQueueRepo, mockMatchRepo := newMatchmakerMocks()
	svc := NewMatchmakerService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("GetActiveByUser", ctx, int64(100)).Return(nil, nil)
	mockQueueRepo.On("PruneStale", ctx, mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	mockQueueRepo.On("ClaimOldest", ctx, int64(100)).Return(nil, nil)
	mockQueueRepo.On("Upsert", ctx, int64(100)).Return(nil)

	result, err := svc.FindMatch(ctx, auth.Caller{UserID: 100})

	require.NoError(t, err)
	assert.Nil(t, result)
	mockQueueRepo.AssertExpectations(t)
	mockMatchRepo.AssertNotCalled(t, "Create")
}

func TestMatchmakerService_FindMatch_PairsWithOldestWaiter(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockQueueRepo, mockMatchRepo := newMatchmakerMocks()
	svc := NewMatchmakerService(mockFactory)

	partnerEntry := &models.QueueEntry{UserID: 200, JoinedAt: time.Now().Add(-time.Minute)}
	created := &models.Match{ID: 7, UserA: 100, UserB: 200}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("GetActiveByUser", ctx, int64(100)).Return(nil, nil)
	mockQueueRepo.On("Upsert", ctx, int64(100)).Return(nil)
	mockQueueRepo.On("PruneStale", ctx, mock.AnythingOfType("time.Time")).Return(int64(1), nil)
	mockQueueRepo.On("ClaimOldest", ctx, int64(100)).Return(partnerEntry, nil)
	mockQueueRepo.On("Remove", ctx, int64(200)).Return(true, nil)
	mockQueueRepo.On("Remove", ctx, int64(100)).Return(true, nil)
	mockMatchRepo.On("Create", ctx, int64(100), int64(200)).Return(created, nil)

	result, err := svc.FindMatch(ctx, auth.Caller{UserID: 100})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(7), result.MatchID)
	assert.Equal(t, int64(200), result.PartnerID)
	assert.True(t, result.Created)

	published := mockUoW.PublishedEvents()
	require.Len(t, published, 1)
	ev, ok := published[0].(events.MatchCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, int64(7), ev.MatchID)

	mockQueueRepo.AssertExpectations(t)
	mockMatchRepo.AssertExpectations(t)
}

func TestMatchmakerService_FindMatch_LocksOwnEntryBeforeClaiming(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockQueueRepo, mockMatchRepo := newMatchmakerMocks()
	svc := NewMatchmakerService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// The caller's own row must be written, and its lock taken, before the
	// claim scans other rows. If the claim ran first, two finders could
	// each claim the other's unlocked row and then wait on their own,
	// which is a circular wait.
	var calls []string
	mockMatchRepo.On("GetActiveByUser", ctx, int64(100)).Return(nil, nil)
	mockQueueRepo.On("Upsert", ctx, int64(100)).Run(func(mock.Arguments) {
		calls = append(calls, "upsert")
	}).Return(nil)
	mockQueueRepo.On("PruneStale", ctx, mock.AnythingOfType("time.Time")).Return(int64(0), nil)
	mockQueueRepo.On("ClaimOldest", ctx, int64(100)).Run(func(mock.Arguments) {
		calls = append(calls, "claim")
	}).Return(nil, nil)

	_, err := svc.FindMatch(ctx, auth.Caller{UserID: 100})

	require.NoError(t, err)
	assert.Equal(t, []string{"upsert", "claim"}, calls)
}

func TestMatchmakerService_StopSearch_IdempotentWhenAbsent(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockQueueRepo, _ := newMatchmakerMocks()
	svc := NewMatchmakerService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockQueueRepo.On("Remove", ctx, int64(100)).Return(false, nil)

	err := svc.StopSearch(ctx, auth.Caller{UserID: 100})

	assert.NoError(t, err)
	mockQueueRepo.AssertExpectations(t)
}

func TestMatchmakerService_EndMatch_NotFound(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockMatchRepo := newMatchmakerMocks()
	svc := NewMatchmakerService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("GetByID", ctx, int64(9)).Return(nil, nil)

	err := svc.EndMatch(ctx, auth.Caller{UserID: 100}, 9)

	assert.ErrorIs(t, err, ErrNotFound)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestMatchmakerService_EndMatch_NonParticipantDenied(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockMatchRepo := newMatchmakerMocks()
	svc := NewMatchmakerService(mockFactory)

	match := &models.Match{ID: 9, UserA: 200, UserB: 300}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("GetByID", ctx, int64(9)).Return(match, nil)

	err := svc.EndMatch(ctx, auth.Caller{UserID: 100}, 9)

	assert.ErrorIs(t, err, ErrPermissionDenied)
	mockMatchRepo.AssertNotCalled(t, "End")
}

func TestMatchmakerService_EndMatch_AlreadyEndedIsNoOp(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockMatchRepo := newMatchmakerMocks()
	svc := NewMatchmakerService(mockFactory)

	endedAt := time.Now().Add(-time.Hour)
	match := &models.Match{ID: 9, UserA: 100, UserB: 200, EndedAt: &endedAt}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("GetByID", ctx, int64(9)).Return(match, nil)

	err := svc.EndMatch(ctx, auth.Caller{UserID: 100}, 9)

	assert.NoError(t, err)
	mockMatchRepo.AssertNotCalled(t, "End")
	assert.Empty(t, mockUoW.PublishedEvents())
}

func TestMatchmakerService_EndMatch_EndsActiveMatch(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockMatchRepo := newMatchmakerMocks()
	svc := NewMatchmakerService(mockFactory)

	match := &models.Match{ID: 9, UserA: 100, UserB: 200}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("GetByID", ctx, int64(9)).Return(match, nil)
	mockMatchRepo.On("End", ctx, int64(9)).Return(true, nil)

	err := svc.EndMatch(ctx, auth.Caller{UserID: 100}, 9)

	require.NoError(t, err)
	published := mockUoW.PublishedEvents()
	require.Len(t, published, 1)
	ev, ok := published[0].(events.MatchEndedEvent)
	require.True(t, ok)
	assert.Equal(t, int64(9), ev.MatchID)
	assert.Equal(t, int64(100), ev.EndedBy)
	assert.False(t, ev.Moderation)
}
