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

func newModerationMocks() (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockMatchRepository, *MockBanRepository, *MockReportRepository, *MockAdminCodeRepository) {
	mockFactory := new(MockUnitOfWorkFactory)
	mockUoW := new(MockUnitOfWork)
	mockMatchRepo := new(MockMatchRepository)
	mockBanRepo := new(MockBanRepository)
	mockReportRepo := new(MockReportRepository)
	mockCodeRepo := new(MockAdminCodeRepository)
	mockUoW.SetRepositories(nil, mockMatchRepo, nil, mockBanRepo, mockReportRepo, mockCodeRepo)
	return mockFactory, mockUoW, mockMatchRepo, mockBanRepo, mockReportRepo, mockCodeRepo
}

var elevated = auth.Caller{UserID: 1, Elevated: true}

func TestModerationService_Ban_NonElevatedDenied(t *testing.T) {
	mockFactory, _, _, _, _, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	err := svc.Ban(context.Background(), auth.Caller{UserID: 100}, models.BanScopeUser, 200, "", "spam", 0)

	assert.ErrorIs(t, err, ErrPermissionDenied)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestModerationService_Ban_UnconfirmedIdentityDenied(t *testing.T) {
	mockFactory, _, _, _, _, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	err := svc.Ban(context.Background(), auth.Caller{}, models.BanScopeUser, 200, "", "spam", 0)

	assert.ErrorIs(t, err, ErrUnauthenticated)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestModerationService_Ban_ZeroDurationIsPermanent(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockBanRepo, _, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockBanRepo.On("Create", ctx, mock.MatchedBy(func(b *models.Ban) bool {
		return b.Scope == models.BanScopeUser &&
			b.TargetUserID != nil && *b.TargetUserID == 200 &&
			b.ExpiresAt == nil
	})).Return(nil)

	err := svc.Ban(ctx, elevated, models.BanScopeUser, 200, "", "spam", 0)

	require.NoError(t, err)
	mockBanRepo.AssertExpectations(t)
}

func TestModerationService_Ban_PositiveDurationSetsExpiry(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockBanRepo, _, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	var captured *models.Ban
	mockBanRepo.On("Create", ctx, mock.MatchedBy(func(b *models.Ban) bool {
		captured = b
		return b.ExpiresAt != nil
	})).Return(nil)

	err := svc.Ban(ctx, elevated, models.BanScopeIP, 0, "203.0.113.9", "abuse", 3600)

	require.NoError(t, err)
	require.NotNil(t, captured)
	expected := time.Now().Add(time.Hour)
	assert.WithinDuration(t, expected, *captured.ExpiresAt, 5*time.Second)
	require.NotNil(t, captured.TargetValue)
	assert.Equal(t, "203.0.113.9", *captured.TargetValue)
}

func TestModerationService_Ban_PublishesEvent(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockBanRepo, _, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockBanRepo.On("Create", ctx, mock.AnythingOfType("*models.Ban")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Ban).ID = 11
	}).Return(nil)

	err := svc.Ban(ctx, elevated, models.BanScopeHWID, 0, "ab:cd:ef", "evasion", 0)

	require.NoError(t, err)
	published := mockUoW.PublishedEvents()
	require.Len(t, published, 1)
	ev, ok := published[0].(events.BanIssuedEvent)
	require.True(t, ok)
	assert.Equal(t, int64(11), ev.BanID)
	assert.Equal(t, models.BanScopeHWID, ev.Scope)
}

func TestModerationService_Unban_IdempotentWhenNoEffectiveBan(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockBanRepo, _, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockBanRepo.On("RevokeUserBans", ctx, int64(200)).Return(int64(0), nil)

	err := svc.Unban(ctx, elevated, 200)

	assert.NoError(t, err)
	mockBanRepo.AssertExpectations(t)
}

func TestModerationService_IsBanned_DelegatesToRepository(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockBanRepo, _, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockBanRepo.On("HasEffective", ctx, models.BanScopeUser, int64(200), "").Return(true, nil)

	banned, err := svc.IsBanned(ctx, models.BanScopeUser, 200, "")

	require.NoError(t, err)
	assert.True(t, banned)
}

func TestModerationService_EndMatchForUser_NoActiveMatchReturnsFalse(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockMatchRepo, _, _, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("EndActiveByUser", ctx, int64(200)).Return(nil, nil)

	existed, err := svc.EndMatchForUser(ctx, elevated, 200)

	require.NoError(t, err)
	assert.False(t, existed)
	assert.Empty(t, mockUoW.PublishedEvents())
}

func TestModerationService_EndMatchForUser_EndsActiveMatch(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockMatchRepo, _, _, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	ended := &models.Match{ID: 9, UserA: 200, UserB: 300}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("EndActiveByUser", ctx, int64(200)).Return(ended, nil)

	existed, err := svc.EndMatchForUser(ctx, elevated, 200)

	require.NoError(t, err)
	assert.True(t, existed)

	published := mockUoW.PublishedEvents()
	require.Len(t, published, 1)
	ev, ok := published[0].(events.MatchEndedEvent)
	require.True(t, ok)
	assert.True(t, ev.Moderation)
	assert.Equal(t, int64(1), ev.EndedBy)
}

func TestModerationService_GenerateCodes_MintsDistinctOpaqueCodes(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, _, _, mockCodeRepo := newModerationMocks()
	svc := NewModerationService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockCodeRepo.On("CreateBatch", ctx, mock.MatchedBy(func(codes []*models.AdminCode) bool {
		if len(codes) != 10 {
			return false
		}
		for _, c := range codes {
			if c.Role != "helper" || c.MaxUses != 1 || len(c.Code) != 32 {
				return false
			}
		}
		return true
	})).Return(nil)

	values, err := svc.GenerateCodes(ctx, elevated, 10, "helper", 0, "launch batch")

	require.NoError(t, err)
	require.Len(t, values, 10)

	seen := make(map[string]bool, len(values))
	for _, v := range values {
		assert.False(t, seen[v], "duplicate code %s", v)
		seen[v] = true
	}
}

func TestModerationService_GenerateCodes_NonElevatedDenied(t *testing.T) {
	mockFactory, _, _, _, _, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	_, err := svc.GenerateCodes(context.Background(), auth.Caller{UserID: 100}, 1, "moderator", 1, "")

	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestModerationService_Report_AppendsReport(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, _, mockReportRepo, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockReportRepo.On("Create", ctx, mock.MatchedBy(func(r *models.Report) bool {
		return r.ReporterID == 100 && r.TargetID == 200 && r.Reason == "harassment" && r.Context == "match:9"
	})).Return(nil)

	err := svc.Report(ctx, auth.Caller{UserID: 100}, 200, "match:9", "harassment", nil)

	assert.NoError(t, err)
	mockReportRepo.AssertExpectations(t)
}

func TestModerationService_RecentReports_NonElevatedDenied(t *testing.T) {
	mockFactory, _, _, _, _, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	_, err := svc.RecentReports(context.Background(), auth.Caller{UserID: 100}, 200, 10)

	assert.ErrorIs(t, err, ErrPermissionDenied)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestModerationService_RecentReports_DelegatesWithDefaultLimit(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, _, mockReportRepo, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	stored := []*models.Report{{ID: 3, ReporterID: 100, TargetID: 200, Reason: "abuse"}}
	mockReportRepo.On("GetByTarget", ctx, int64(200), defaultReportLimit).Return(stored, nil)

	reports, err := svc.RecentReports(ctx, elevated, 200, 0)

	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, int64(3), reports[0].ID)
	mockReportRepo.AssertExpectations(t)
}

func TestModerationService_Report_EmptyReasonRejected(t *testing.T) {
	mockFactory, _, _, _, _, _ := newModerationMocks()
	svc := NewModerationService(mockFactory)

	err := svc.Report(context.Background(), auth.Caller{UserID: 100}, 200, "", "  ", nil)

	assert.Error(t, err)
	mockFactory.AssertNotCalled(t, "Create")
}
