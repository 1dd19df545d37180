package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mfalkner/trackline/internal/domain"
	"github.com/mfalkner/trackline/internal/repository"
)

type linkResolver struct {
	nodes        repository.PlanNodeRepo
	milestones   repository.MilestoneRepo
	deliverables repository.DeliverableRepo
}

func NewLinkResolver(nodes repository.PlanNodeRepo, milestones repository.MilestoneRepo, deliverables repository.DeliverableRepo) LinkResolver {
	return &linkResolver{nodes: nodes, milestones: milestones, deliverables: deliverables}
}

func (s *linkResolver) Resolve(ctx context.Context, planNodeID string) (LinkTarget, error) {
	n, err := s.nodes.GetByID(ctx, planNodeID)
	if err != nil {
		return LinkTarget{}, err
	}
	switch n.Link.Kind {
	case domain.LinkMilestone:
		owner, err := s.liveMilestoneID(ctx, n.Link.EntityID)
		if err != nil {
			return LinkTarget{}, fmt.Errorf("resolving milestone link: %w", err)
		}
		return LinkTarget{
			Kind:             domain.LinkMilestone,
			EntityID:         n.Link.EntityID,
			OwnerMilestoneID: owner,
		}, nil
	case domain.LinkDeliverable:
		d, err := s.deliverables.GetByID(ctx, n.Link.EntityID)
		if err != nil {
			return LinkTarget{}, fmt.Errorf("resolving deliverable link: %w", err)
		}
		owner, err := s.liveMilestoneID(ctx, d.MilestoneID)
		if err != nil {
			return LinkTarget{}, fmt.Errorf("resolving owning milestone: %w", err)
		}
		return LinkTarget{
			Kind:             domain.LinkDeliverable,
			EntityID:         d.ID,
			OwnerMilestoneID: owner,
		}, nil
	default:
		return LinkTarget{Kind: domain.LinkNone}, nil
	}
}

// liveMilestoneID returns the milestone ID only when the milestone still
// exists and is not soft-deleted. Resolution fails open on a missing or
// deleted milestone, which cannot meaningfully hold a lock. Any other
// repository error propagates: lock checks must never be skipped because
// the milestone could not be read.
func (s *linkResolver) liveMilestoneID(ctx context.Context, milestoneID string) (string, error) {
	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if m.IsDeleted {
		return "", nil
	}
	return m.ID, nil
}

func (s *linkResolver) LinkedNodes(ctx context.Context, kind domain.LinkKind, entityID string) ([]*domain.PlanNode, error) {
	return s.nodes.ListByLink(ctx, kind, entityID)
}
