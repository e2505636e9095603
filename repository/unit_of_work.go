package repository

import (
	"context"
	"fmt"

	"pairline/database"
	"pairline/events"
	"pairline/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	queueRepo        service.QueueRepository
	matchRepo        service.MatchRepository
	roomRepo         service.RoomRepository
	banRepo          service.BanRepository
	reportRepo       service.ReportRepository
	adminCodeRepo    service.AdminCodeRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories bound to the transaction
	u.queueRepo = newQueueRepositoryWithTx(tx)
	u.matchRepo = newMatchRepositoryWithTx(tx)
	u.roomRepo = newRoomRepositoryWithTx(tx)
	u.banRepo = newBanRepositoryWithTx(tx)
	u.reportRepo = newReportRepositoryWithTx(tx)
	u.adminCodeRepo = newAdminCodeRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Events only leave the unit of work once the commit stuck
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction; a no-op after Commit
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// QueueRepository returns the queue repository for this unit of work
func (u *unitOfWork) QueueRepository() service.QueueRepository {
	if u.queueRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.queueRepo
}

// MatchRepository returns the match repository for this unit of work
func (u *unitOfWork) MatchRepository() service.MatchRepository {
	if u.matchRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.matchRepo
}

// RoomRepository returns the room repository for this unit of work
func (u *unitOfWork) RoomRepository() service.RoomRepository {
	if u.roomRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.roomRepo
}

// BanRepository returns the ban repository for this unit of work
func (u *unitOfWork) BanRepository() service.BanRepository {
	if u.banRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.banRepo
}

// ReportRepository returns the report repository for this unit of work
func (u *unitOfWork) ReportRepository() service.ReportRepository {
	if u.reportRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.reportRepo
}

// AdminCodeRepository returns the admin code repository for this unit of work
func (u *unitOfWork) AdminCodeRepository() service.AdminCodeRepository {
	if u.adminCodeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.adminCodeRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
