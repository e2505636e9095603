package service

import (
	"context"
	"time"

	"pairline/events"
	"pairline/models"

	"github.com/stretchr/testify/mock"
)

// MockQueueRepository is a mock implementation of QueueRepository
type MockQueueRepository struct {
	mock.Mock
}

func (m *MockQueueRepository) Upsert(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockQueueRepository) Remove(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQueueRepository) PruneStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQueueRepository) ClaimOldest(ctx context.Context, excludeUserID int64) (*models.QueueEntry, error) {
	args := m.Called(ctx, excludeUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QueueEntry), args.Error(1)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, userA, userB int64) (*models.Match, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetActiveByUser(ctx context.Context, userID int64) (*models.Match, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) End(ctx context.Context, matchID int64) (bool, error) {
	args := m.Called(ctx, matchID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepository) EndActiveByUser(ctx context.Context, userID int64) (*models.Match, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

// MockRoomRepository is a mock implementation of RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) Create(ctx context.Context, room *models.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *MockRoomRepository) UpsertParticipant(ctx context.Context, roomID, userID int64) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}

func (m *MockRoomRepository) TouchParticipant(ctx context.Context, roomID, userID int64) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) RemoveParticipant(ctx context.Context, roomID, userID int64) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) CountActive(ctx context.Context, roomID int64, cutoff time.Time) (int, error) {
	args := m.Called(ctx, roomID, cutoff)
	return args.Int(0), args.Error(1)
}

func (m *MockRoomRepository) ListSummaries(ctx context.Context, cutoff time.Time, sampleSize int) ([]*models.RoomSummary, error) {
	args := m.Called(ctx, cutoff, sampleSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoomSummary), args.Error(1)
}

// MockBanRepository is a mock implementation of BanRepository
type MockBanRepository struct {
	mock.Mock
}

func (m *MockBanRepository) Create(ctx context.Context, ban *models.Ban) error {
	args := m.Called(ctx, ban)
	return args.Error(0)
}

func (m *MockBanRepository) RevokeUserBans(ctx context.Context, targetUserID int64) (int64, error) {
	args := m.Called(ctx, targetUserID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBanRepository) HasEffective(ctx context.Context, scope models.BanScope, targetUserID int64, targetValue string) (bool, error) {
	args := m.Called(ctx, scope, targetUserID, targetValue)
	return args.Bool(0), args.Error(1)
}

// MockReportRepository is a mock implementation of ReportRepository
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, report *models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) GetByTarget(ctx context.Context, targetID int64, limit int) ([]*models.Report, error) {
	args := m.Called(ctx, targetID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Report), args.Error(1)
}

// MockAdminCodeRepository is a mock implementation of AdminCodeRepository
type MockAdminCodeRepository struct {
	mock.Mock
}

func (m *MockAdminCodeRepository) CreateBatch(ctx context.Context, codes []*models.AdminCode) error {
	args := m.Called(ctx, codes)
	return args.Error(0)
}

// MockEventPublisher records published events for assertions
type MockEventPublisher struct {
	Events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Events = append(m.Events, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// attached with SetRepositories; Begin/Commit/Rollback are regular
// testify expectations.
type MockUnitOfWork struct {
	mock.Mock

	queueRepo     QueueRepository
	matchRepo     MatchRepository
	roomRepo      RoomRepository
	banRepo       BanRepository
	reportRepo    ReportRepository
	adminCodeRepo AdminCodeRepository
	publisher     *MockEventPublisher
}

// SetRepositories attaches the repositories this unit of work hands out.
// Nil arguments are fine for repositories a test never touches.
func (m *MockUnitOfWork) SetRepositories(queue QueueRepository, match MatchRepository, room RoomRepository, ban BanRepository, report ReportRepository, adminCode AdminCodeRepository) {
	m.queueRepo = queue
	m.matchRepo = match
	m.roomRepo = room
	m.banRepo = ban
	m.reportRepo = report
	m.adminCodeRepo = adminCode
	m.publisher = &MockEventPublisher{}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) QueueRepository() QueueRepository         { return m.queueRepo }
func (m *MockUnitOfWork) MatchRepository() MatchRepository         { return m.matchRepo }
func (m *MockUnitOfWork) RoomRepository() RoomRepository           { return m.roomRepo }
func (m *MockUnitOfWork) BanRepository() BanRepository             { return m.banRepo }
func (m *MockUnitOfWork) ReportRepository() ReportRepository       { return m.reportRepo }
func (m *MockUnitOfWork) AdminCodeRepository() AdminCodeRepository { return m.adminCodeRepo }

// EventBus returns the recording publisher attached by SetRepositories
func (m *MockUnitOfWork) EventBus() EventPublisher { return m.publisher }

// PublishedEvents returns the events captured during the test
func (m *MockUnitOfWork) PublishedEvents() []events.Event {
	if m.publisher == nil {
		return nil
	}
	return m.publisher.Events
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
