package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pairline/auth"
	"pairline/events"
	"pairline/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// moderationService implements the ModerationService interface
type moderationService struct {
	uowFactory UnitOfWorkFactory
}

// NewModerationService creates a new moderation service
func NewModerationService(uowFactory UnitOfWorkFactory) ModerationService {
	return &moderationService{
		uowFactory: uowFactory,
	}
}

// requireElevated gates moderation operations. It fails closed: a caller
// whose role cannot be confirmed is denied.
func requireElevated(caller auth.Caller) error {
	if caller.UserID == 0 {
		return ErrUnauthenticated
	}
	if !caller.Elevated {
		return ErrPermissionDenied
	}
	return nil
}

// Ban records a ban against the target. A non-positive duration makes the
// ban permanent; a positive one sets expires_at relative to now.
func (s *moderationService) Ban(ctx context.Context, caller auth.Caller, scope models.BanScope, targetUserID int64, targetValue, reason string, durationSeconds int64) error {
	if err := requireElevated(caller); err != nil {
		return err
	}
	if !scope.Valid() {
		return fmt.Errorf("%w: unknown ban scope %q", ErrInvalidArgument, scope)
	}
	if scope == models.BanScopeUser && targetUserID == 0 {
		return fmt.Errorf("%w: user-scope ban requires a target user ID", ErrInvalidArgument)
	}
	if scope != models.BanScopeUser && targetValue == "" {
		return fmt.Errorf("%w: %s-scope ban requires a target value", ErrInvalidArgument, scope)
	}

	ban := &models.Ban{
		Scope:  scope,
		Reason: reason,
	}
	if scope == models.BanScopeUser {
		ban.TargetUserID = &targetUserID
	} else {
		ban.TargetValue = &targetValue
	}
	if durationSeconds > 0 {
		expires := time.Now().Add(time.Duration(durationSeconds) * time.Second)
		ban.ExpiresAt = &expires
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.BanRepository().Create(ctx, ban); err != nil {
		return fmt.Errorf("failed to create ban: %w", err)
	}

	uow.EventBus().Publish(events.BanIssuedEvent{
		BanID:     ban.ID,
		Scope:     ban.Scope,
		IssuedBy:  caller.UserID,
		ExpiresAt: ban.ExpiresAt,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"banId":    ban.ID,
		"scope":    ban.Scope,
		"issuedBy": caller.UserID,
	}).Info("Ban issued")

	return nil
}

// Unban revokes all effective user-scope bans for the target. Revoking a
// user with no effective ban succeeds without effect.
func (s *moderationService) Unban(ctx context.Context, caller auth.Caller, targetUserID int64) error {
	if err := requireElevated(caller); err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	revoked, err := uow.BanRepository().RevokeUserBans(ctx, targetUserID)
	if err != nil {
		return fmt.Errorf("failed to revoke bans: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"targetUserId": targetUserID,
		"revoked":      revoked,
		"issuedBy":     caller.UserID,
	}).Info("Unban processed")

	return nil
}

// IsBanned reports whether the target is under an effective ban. The answer
// is a pure function of stored timestamps.
func (s *moderationService) IsBanned(ctx context.Context, scope models.BanScope, targetUserID int64, targetValue string) (bool, error) {
	if !scope.Valid() {
		return false, fmt.Errorf("%w: unknown ban scope %q", ErrInvalidArgument, scope)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	banned, err := uow.BanRepository().HasEffective(ctx, scope, targetUserID, targetValue)
	if err != nil {
		return false, fmt.Errorf("failed to check ban: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return banned, nil
}

// EndMatchForUser force-ends the target's active match. A target with no
// active match is a normal outcome, reported as false.
func (s *moderationService) EndMatchForUser(ctx context.Context, caller auth.Caller, targetUserID int64) (bool, error) {
	if err := requireElevated(caller); err != nil {
		return false, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().EndActiveByUser(ctx, targetUserID)
	if err != nil {
		return false, fmt.Errorf("failed to end match: %w", err)
	}
	if match != nil {
		uow.EventBus().Publish(events.MatchEndedEvent{
			MatchID:    match.ID,
			EndedBy:    caller.UserID,
			Moderation: true,
		})
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return match != nil, nil
}

// GenerateCodes mints count opaque invite codes bound to a role. Batch size
// policy is the caller's convention, not enforced here.
func (s *moderationService) GenerateCodes(ctx context.Context, caller auth.Caller, count int, role string, maxUses int, note string) ([]string, error) {
	if err := requireElevated(caller); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: code count must be positive", ErrInvalidArgument)
	}
	if role == "" {
		return nil, fmt.Errorf("%w: role must not be empty", ErrInvalidArgument)
	}
	if maxUses <= 0 {
		maxUses = 1
	}

	codes := make([]*models.AdminCode, count)
	values := make([]string, count)
	for i := range codes {
		value := strings.ReplaceAll(uuid.NewString(), "-", "")
		codes[i] = &models.AdminCode{
			Code:    value,
			Role:    role,
			MaxUses: maxUses,
			Note:    note,
		}
		values[i] = value
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.AdminCodeRepository().CreateBatch(ctx, codes); err != nil {
		return nil, fmt.Errorf("failed to create codes: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"count":    count,
		"role":     role,
		"issuedBy": caller.UserID,
	}).Info("Invite codes generated")

	return values, nil
}

// Report appends a report filed by the caller against the target
func (s *moderationService) Report(ctx context.Context, caller auth.Caller, targetID int64, reportContext, reason string, details *string) error {
	if caller.UserID == 0 {
		return ErrUnauthenticated
	}
	if targetID == 0 {
		return fmt.Errorf("%w: report requires a target user ID", ErrInvalidArgument)
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: report reason must not be empty", ErrInvalidArgument)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	report := &models.Report{
		ReporterID: caller.UserID,
		TargetID:   targetID,
		Context:    reportContext,
		Reason:     reason,
		Details:    details,
	}
	if err := uow.ReportRepository().Create(ctx, report); err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// defaultReportLimit caps report listings when the caller does not ask
// for a specific page size
const defaultReportLimit = 20

// RecentReports returns the newest reports filed against the target
func (s *moderationService) RecentReports(ctx context.Context, caller auth.Caller, targetID int64, limit int) ([]*models.Report, error) {
	if err := requireElevated(caller); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultReportLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	reports, err := uow.ReportRepository().GetByTarget(ctx, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return reports, nil
}
