package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mfalkner/trackline/internal/db"
	"github.com/mfalkner/trackline/internal/domain"
	"github.com/mfalkner/trackline/internal/repository"
	"github.com/google/uuid"
)

type planService struct {
	nodes        repository.PlanNodeRepo
	milestones   repository.MilestoneRepo
	deliverables repository.DeliverableRepo
	uow          db.UnitOfWork
}

func NewPlanService(nodes repository.PlanNodeRepo, milestones repository.MilestoneRepo, deliverables repository.DeliverableRepo, uow db.UnitOfWork) PlanService {
	return &planService{nodes: nodes, milestones: milestones, deliverables: deliverables, uow: uow}
}

func (s *planService) Create(ctx context.Context, n *domain.PlanNode) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.ItemType == "" {
		n.ItemType = domain.ItemTask
	}
	return s.nodes.Create(ctx, n)
}

func (s *planService) GetByID(ctx context.Context, id string) (*domain.PlanNode, error) {
	return s.nodes.GetByID(ctx, id)
}

func (s *planService) ListByProject(ctx context.Context, projectID string) ([]*domain.PlanNode, error) {
	return s.nodes.ListByProject(ctx, projectID)
}

func (s *planService) ListChildren(ctx context.Context, parentID string) ([]*domain.PlanNode, error) {
	return s.nodes.ListChildren(ctx, parentID)
}

func (s *planService) Update(ctx context.Context, n *domain.PlanNode) error {
	n.UpdatedAt = time.Now().UTC()
	return s.nodes.Update(ctx, n)
}

// PublishMilestone creates a tracked milestone mirroring the node and links
// the node to it, in one transaction. A node that already carries a link is
// refused: re-publishing would orphan the existing tracked entity.
func (s *planService) PublishMilestone(ctx context.Context, nodeID string) (*domain.Milestone, error) {
	var published *domain.Milestone
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txNodes := repository.NewSQLitePlanNodeRepo(tx)
		txMilestones := repository.NewSQLiteMilestoneRepo(tx)

		n, err := txNodes.GetByID(ctx, nodeID)
		if err != nil {
			return err
		}
		if n.IsDeleted {
			return fmt.Errorf("plan node %s: %w", nodeID, repository.ErrNotFound)
		}
		if n.Link.IsLinked() {
			return fmt.Errorf("publishing node %s: %w", nodeID, ErrAlreadyLinked)
		}

		now := time.Now().UTC()
		m := &domain.Milestone{
			ID:        uuid.New().String(),
			ProjectID: n.ProjectID,
			Name:      n.Title,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := txMilestones.Create(ctx, m); err != nil {
			return err
		}

		n.ItemType = domain.ItemMilestone
		n.Link = domain.MilestoneLink(m.ID)
		n.UpdatedAt = now
		if err := txNodes.Update(ctx, n); err != nil {
			return err
		}
		published = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return published, nil
}

// PublishDeliverable creates a tracked deliverable under the given
// milestone and links the node to it.
func (s *planService) PublishDeliverable(ctx context.Context, nodeID, milestoneID string) (*domain.Deliverable, error) {
	var published *domain.Deliverable
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txNodes := repository.NewSQLitePlanNodeRepo(tx)
		txMilestones := repository.NewSQLiteMilestoneRepo(tx)
		txDeliverables := repository.NewSQLiteDeliverableRepo(tx)

		n, err := txNodes.GetByID(ctx, nodeID)
		if err != nil {
			return err
		}
		if n.IsDeleted {
			return fmt.Errorf("plan node %s: %w", nodeID, repository.ErrNotFound)
		}
		if n.Link.IsLinked() {
			return fmt.Errorf("publishing node %s: %w", nodeID, ErrAlreadyLinked)
		}

		m, err := txMilestones.GetByID(ctx, milestoneID)
		if err != nil {
			return err
		}
		if m.IsDeleted {
			return fmt.Errorf("milestone %s: %w", milestoneID, repository.ErrNotFound)
		}

		now := time.Now().UTC()
		d := &domain.Deliverable{
			ID:          uuid.New().String(),
			ProjectID:   n.ProjectID,
			MilestoneID: m.ID,
			Name:        n.Title,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := txDeliverables.Create(ctx, d); err != nil {
			return err
		}

		n.ItemType = domain.ItemDeliverable
		n.Link = domain.DeliverableLink(d.ID)
		n.UpdatedAt = now
		if err := txNodes.Update(ctx, n); err != nil {
			return err
		}
		published = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return published, nil
}
