package service

import (
	"context"
	"fmt"
	"time"

	"pairline/auth"
	"pairline/events"
	"pairline/models"

	log "github.com/sirupsen/logrus"
)

// Queue entries unrefreshed for this long belong to callers that went away
// and are pruned before pairing.
const queueStaleAfter = 2 * time.Minute

// matchmakerService implements the MatchmakerService interface
type matchmakerService struct {
	uowFactory UnitOfWorkFactory
}

// NewMatchmakerService creates a new matchmaker service
func NewMatchmakerService(uowFactory UnitOfWorkFactory) MatchmakerService {
	return &matchmakerService{
		uowFactory: uowFactory,
	}
}

// FindMatch pairs the caller with the oldest waiting user, or enqueues the
// caller when nobody is available. The whole decision runs in one
// transaction: no observer ever sees a dequeued user without the match row.
func (s *matchmakerService) FindMatch(ctx context.Context, caller auth.Caller) (*models.MatchResult, error) {
	if caller.UserID == 0 {
		return nil, ErrUnauthenticated
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Idempotent reconnect: an already-matched caller gets the same match
	// back, and any stale queue entry of theirs is dropped.
	active, err := uow.MatchRepository().GetActiveByUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active match: %w", err)
	}
	if active != nil {
		if _, err := uow.QueueRepository().Remove(ctx, caller.UserID); err != nil {
			return nil, fmt.Errorf("failed to remove stale queue entry: %w", err)
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return &models.MatchResult{MatchID: active.ID, PartnerID: active.PartnerOf(caller.UserID)}, nil
	}

	// Write (and thereby lock) the caller's own entry before touching any
	// other row. A concurrent finder's SKIP LOCKED scan passes over locked
	// rows, so two in-flight FindMatch transactions never claim each other
	// and never wait on each other's entries. They both come up empty and
	// pair on a later poll instead.
	if err := uow.QueueRepository().Upsert(ctx, caller.UserID); err != nil {
		return nil, fmt.Errorf("failed to enqueue caller: %w", err)
	}

	// Drop entries whose owners stopped refreshing. Entries held by active
	// finders were just refreshed, so the prune only ever touches idle rows.
	pruned, err := uow.QueueRepository().PruneStale(ctx, time.Now().Add(-queueStaleAfter))
	if err != nil {
		return nil, fmt.Errorf("failed to prune stale queue entries: %w", err)
	}
	if pruned > 0 {
		log.WithFields(log.Fields{"pruned": pruned}).Debug("Pruned stale queue entries")
	}

	// Claim the oldest idle entry; rows locked by concurrent finders are
	// skipped, so no partner is ever claimed twice
	partner, err := uow.QueueRepository().ClaimOldest(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim queue entry: %w", err)
	}

	if partner == nil {
		// Nobody available: the caller stays queued and waits
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, nil
	}

	if _, err := uow.QueueRepository().Remove(ctx, partner.UserID); err != nil {
		return nil, fmt.Errorf("failed to dequeue partner: %w", err)
	}
	if _, err := uow.QueueRepository().Remove(ctx, caller.UserID); err != nil {
		return nil, fmt.Errorf("failed to dequeue caller: %w", err)
	}

	match, err := uow.MatchRepository().Create(ctx, caller.UserID, partner.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	uow.EventBus().Publish(events.MatchCreatedEvent{
		MatchID: match.ID,
		UserA:   match.UserA,
		UserB:   match.UserB,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchId": match.ID,
		"userA":   match.UserA,
		"userB":   match.UserB,
	}).Info("Paired users into match")

	return &models.MatchResult{MatchID: match.ID, PartnerID: partner.UserID, Created: true}, nil
}

// StopSearch removes the caller's queue entry; absent entries are a no-op
func (s *matchmakerService) StopSearch(ctx context.Context, caller auth.Caller) error {
	if caller.UserID == 0 {
		return ErrUnauthenticated
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := uow.QueueRepository().Remove(ctx, caller.UserID); err != nil {
		return fmt.Errorf("failed to remove queue entry: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// EndMatch ends a match the caller participates in. Ending an already-ended
// match succeeds without effect.
func (s *matchmakerService) EndMatch(ctx context.Context, caller auth.Caller, matchID int64) error {
	if caller.UserID == 0 {
		return ErrUnauthenticated
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return ErrNotFound
	}
	if !match.HasParticipant(caller.UserID) {
		return ErrPermissionDenied
	}

	if match.IsActive() {
		ended, err := uow.MatchRepository().End(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to end match: %w", err)
		}
		if ended {
			uow.EventBus().Publish(events.MatchEndedEvent{
				MatchID: matchID,
				EndedBy: caller.UserID,
			})
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
