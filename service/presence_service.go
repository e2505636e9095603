package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pairline/auth"
	"pairline/events"
	"pairline/models"
)

const (
	// activeWindow is the trailing span within which a heartbeat counts a
	// member as currently active. Liveness is recomputed at read time;
	// there is no background sweep.
	activeWindow = 5 * time.Minute

	// activeSampleSize caps the member sample in room listings
	activeSampleSize = 6

	// defaultMaxMembers applies when a room is created without a cap
	defaultMaxMembers = 12
)

// presenceService implements the PresenceService interface
type presenceService struct {
	uowFactory UnitOfWorkFactory
}

// NewPresenceService creates a new presence service
func NewPresenceService(uowFactory UnitOfWorkFactory) PresenceService {
	return &presenceService{
		uowFactory: uowFactory,
	}
}

// CreateRoom creates a room hosted by the caller and joins the host to it
func (s *presenceService) CreateRoom(ctx context.Context, caller auth.Caller, name string, private bool, maxMembers int) (*models.Room, error) {
	if caller.UserID == 0 {
		return nil, ErrUnauthenticated
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: room name must not be empty", ErrInvalidArgument)
	}
	if maxMembers <= 0 {
		maxMembers = defaultMaxMembers
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room := &models.Room{
		Name:       name,
		HostID:     caller.UserID,
		Private:    private,
		MaxMembers: maxMembers,
	}
	if err := uow.RoomRepository().Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	if err := uow.RoomRepository().UpsertParticipant(ctx, room.ID, caller.UserID); err != nil {
		return nil, fmt.Errorf("failed to join host to room: %w", err)
	}

	uow.EventBus().Publish(events.RoomPresenceChangedEvent{
		RoomID: room.ID,
		UserID: caller.UserID,
		Joined: true,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return room, nil
}

// JoinRoom adds the caller to the room, enforcing privacy and capacity
func (s *presenceService) JoinRoom(ctx context.Context, caller auth.Caller, roomID int64) error {
	if caller.UserID == 0 {
		return ErrUnauthenticated
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.RoomRepository().GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return ErrNotFound
	}
	if room.Private && room.HostID != caller.UserID {
		return ErrPermissionDenied
	}

	// Capacity is judged against members active within the window; members
	// that stopped refreshing age out without any eviction.
	active, err := uow.RoomRepository().CountActive(ctx, roomID, time.Now().Add(-activeWindow))
	if err != nil {
		return fmt.Errorf("failed to count active members: %w", err)
	}
	if active >= room.MaxMembers {
		return ErrRoomFull
	}

	if err := uow.RoomRepository().UpsertParticipant(ctx, roomID, caller.UserID); err != nil {
		return fmt.Errorf("failed to upsert participant: %w", err)
	}

	uow.EventBus().Publish(events.RoomPresenceChangedEvent{
		RoomID: roomID,
		UserID: caller.UserID,
		Joined: true,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// TouchPresence refreshes the caller's heartbeat. Heartbeats from
// non-members are tolerated silently: clients retry and reorder, and a
// stale touch must not surface as an error.
func (s *presenceService) TouchPresence(ctx context.Context, caller auth.Caller, roomID int64) error {
	if caller.UserID == 0 {
		return ErrUnauthenticated
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := uow.RoomRepository().TouchParticipant(ctx, roomID, caller.UserID); err != nil {
		return fmt.Errorf("failed to touch participant: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LeaveRoom removes the caller from the room; absent memberships are a no-op
func (s *presenceService) LeaveRoom(ctx context.Context, caller auth.Caller, roomID int64) error {
	if caller.UserID == 0 {
		return ErrUnauthenticated
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	removed, err := uow.RoomRepository().RemoveParticipant(ctx, roomID, caller.UserID)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	if removed {
		uow.EventBus().Publish(events.RoomPresenceChangedEvent{
			RoomID: roomID,
			UserID: caller.UserID,
			Joined: false,
		})
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListRooms returns every room with its window-derived activity counts
func (s *presenceService) ListRooms(ctx context.Context) ([]*models.RoomSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	summaries, err := uow.RoomRepository().ListSummaries(ctx, time.Now().Add(-activeWindow), activeSampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return summaries, nil
}
