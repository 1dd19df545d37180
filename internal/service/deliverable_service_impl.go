package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mfalkner/trackline/internal/domain"
	"github.com/mfalkner/trackline/internal/repository"
	"github.com/google/uuid"
)

type deliverableService struct {
	deliverables repository.DeliverableRepo
	milestones   repository.MilestoneRepo
	breaches     BreachService
}

func NewDeliverableService(deliverables repository.DeliverableRepo, milestones repository.MilestoneRepo, breaches BreachService) DeliverableService {
	return &deliverableService{deliverables: deliverables, milestones: milestones, breaches: breaches}
}

func (s *deliverableService) Create(ctx context.Context, d *domain.Deliverable) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	return s.deliverables.Create(ctx, d)
}

func (s *deliverableService) GetByID(ctx context.Context, id string) (*domain.Deliverable, error) {
	return s.deliverables.GetByID(ctx, id)
}

func (s *deliverableService) ListByMilestone(ctx context.Context, milestoneID string) ([]*domain.Deliverable, error) {
	return s.deliverables.ListByMilestone(ctx, milestoneID)
}

// SetTargetDate commits a new target date for a deliverable. The date is
// judged against the owning milestone before the write: a violating date is
// still committed, but the breach is recorded with this actor at this
// moment; a corrected date triggers reconciliation so a stale breach flag
// can clear.
func (s *deliverableService) SetTargetDate(ctx context.Context, id string, target time.Time, actorID string) (*BreachCheck, error) {
	d, err := s.deliverables.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.IsDeleted {
		return nil, fmt.Errorf("deliverable %s: %w", id, repository.ErrNotFound)
	}

	m, err := s.milestones.GetByID(ctx, d.MilestoneID)
	if err != nil {
		return nil, err
	}
	if m.Locked {
		return nil, fmt.Errorf("deliverable %q: baseline for milestone %q is locked", d.Name, m.Name)
	}

	check, err := s.breaches.Check(ctx, d.MilestoneID, target)
	if err != nil {
		return nil, err
	}

	d.TargetDate = &target
	d.UpdatedAt = time.Now().UTC()
	if err := s.deliverables.Update(ctx, d); err != nil {
		return nil, err
	}

	if check.WouldBreach {
		reason := fmt.Sprintf("deliverable %q scheduled past milestone end (%s)", d.Name, check.MilestoneEnd.Format("2006-01-02"))
		if err := s.breaches.Record(ctx, d.MilestoneID, reason, actorID); err != nil {
			return nil, err
		}
	} else if err := s.breaches.Reconcile(ctx, d.MilestoneID); err != nil {
		return nil, err
	}
	return check, nil
}
