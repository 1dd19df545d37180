package service

import (
	"context"
	"errors"
	"time"

	"github.com/mfalkner/trackline/internal/db"
	"github.com/mfalkner/trackline/internal/domain"
	"github.com/mfalkner/trackline/internal/repository"
)

// deletionService is the sole deletion authority. Every path first resolves
// the governing milestone's lock, then soft-deletes the primary target and
// its linked counterparts with one shared actor and timestamp, inside a
// single transaction so a cascade either lands whole or not at all. Each
// individual soft-delete is idempotent, so re-invoking after a failed or
// abandoned call is always safe.
type deletionService struct {
	nodes        repository.PlanNodeRepo
	milestones   repository.MilestoneRepo
	deliverables repository.DeliverableRepo
	resolver     LinkResolver
	uow          db.UnitOfWork
}

func NewDeletionService(
	nodes repository.PlanNodeRepo,
	milestones repository.MilestoneRepo,
	deliverables repository.DeliverableRepo,
	resolver LinkResolver,
	uow db.UnitOfWork,
) DeletionService {
	return &deletionService{
		nodes:        nodes,
		milestones:   milestones,
		deliverables: deliverables,
		resolver:     resolver,
		uow:          uow,
	}
}

// lockRefusal builds the rejected result naming the blocking milestone.
func (s *deletionService) lockRefusal(ctx context.Context, milestoneID string) *DeleteResult {
	name := milestoneID
	if m, err := s.milestones.GetByID(ctx, milestoneID); err == nil {
		name = m.Name
	}
	lockErr := &BaselineLockedError{MilestoneID: milestoneID, MilestoneName: name}
	return &DeleteResult{Allowed: false, Reason: lockErr.Error()}
}

// governingLock reports whether the given milestone currently holds a lock.
// A missing or soft-deleted milestone holds none.
func (s *deletionService) governingLock(ctx context.Context, milestoneID string) (bool, error) {
	if milestoneID == "" {
		return false, nil
	}
	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return !m.IsDeleted && m.Locked, nil
}

func (s *deletionService) DeletePlanNode(ctx context.Context, id, actorID string) (*DeleteResult, error) {
	n, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.IsDeleted {
		return &DeleteResult{Allowed: true, Synced: true}, nil
	}

	target, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	locked, err := s.governingLock(ctx, target.OwnerMilestoneID)
	if err != nil {
		return nil, err
	}
	if locked {
		return s.lockRefusal(ctx, target.OwnerMilestoneID), nil
	}

	now := time.Now().UTC()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txNodes := repository.NewSQLitePlanNodeRepo(tx)
		if err := txNodes.SoftDelete(ctx, id, actorID, now); err != nil {
			return err
		}
		switch target.Kind {
		case domain.LinkMilestone:
			return repository.NewSQLiteMilestoneRepo(tx).SoftDelete(ctx, target.EntityID, actorID, now)
		case domain.LinkDeliverable:
			return repository.NewSQLiteDeliverableRepo(tx).SoftDelete(ctx, target.EntityID, actorID, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &DeleteResult{Allowed: true, Synced: true}, nil
}

func (s *deletionService) DeleteMilestone(ctx context.Context, id, actorID string) (*DeleteResult, error) {
	m, err := s.milestones.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.IsDeleted {
		return &DeleteResult{Allowed: true, Synced: true}, nil
	}
	if m.Locked {
		return s.lockRefusal(ctx, m.ID), nil
	}

	now := time.Now().UTC()
	count := 0
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txNodes := repository.NewSQLitePlanNodeRepo(tx)
		txMilestones := repository.NewSQLiteMilestoneRepo(tx)

		if err := txMilestones.SoftDelete(ctx, id, actorID, now); err != nil {
			return err
		}
		linked, err := txNodes.ListByLink(ctx, domain.LinkMilestone, id)
		if err != nil {
			return err
		}
		for _, node := range linked {
			if err := txNodes.SoftDelete(ctx, node.ID, actorID, now); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &DeleteResult{Allowed: true, Synced: true, Count: count}, nil
}

func (s *deletionService) DeleteDeliverable(ctx context.Context, id, actorID string) (*DeleteResult, error) {
	d, err := s.deliverables.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.IsDeleted {
		return &DeleteResult{Allowed: true, Synced: true}, nil
	}

	// The owning milestone's lock governs the deliverable as well.
	locked, err := s.governingLock(ctx, d.MilestoneID)
	if err != nil {
		return nil, err
	}
	if locked {
		return s.lockRefusal(ctx, d.MilestoneID), nil
	}

	now := time.Now().UTC()
	count := 0
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txNodes := repository.NewSQLitePlanNodeRepo(tx)
		txDeliverables := repository.NewSQLiteDeliverableRepo(tx)

		if err := txDeliverables.SoftDelete(ctx, id, actorID, now); err != nil {
			return err
		}
		linked, err := txNodes.ListByLink(ctx, domain.LinkDeliverable, id)
		if err != nil {
			return err
		}
		for _, node := range linked {
			if err := txNodes.SoftDelete(ctx, node.ID, actorID, now); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &DeleteResult{Allowed: true, Synced: true, Count: count}, nil
}
