package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mfalkner/trackline/internal/repository"
)

type breachService struct {
	milestones   repository.MilestoneRepo
	deliverables repository.DeliverableRepo
}

func NewBreachService(milestones repository.MilestoneRepo, deliverables repository.DeliverableRepo) BreachService {
	return &breachService{milestones: milestones, deliverables: deliverables}
}

// Check is a pure predicate: it never mutates breach state. Callers use it
// before committing a date and decide whether to call Record.
func (s *breachService) Check(ctx context.Context, milestoneID string, proposedDate time.Time) (*BreachCheck, error) {
	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	end := m.EffectiveEnd()
	check := &BreachCheck{
		IsBaselined:  m.Locked,
		MilestoneEnd: end,
	}
	if end != nil && proposedDate.After(*end) {
		check.WouldBreach = true
	}
	return check, nil
}

// Record sets the breach fields. Recording on an already-breached milestone
// overwrites the reason and timestamp.
func (s *breachService) Record(ctx context.Context, milestoneID, reason, actorID string) error {
	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return err
	}
	if m.IsDeleted {
		return fmt.Errorf("milestone %s: %w", milestoneID, repository.ErrNotFound)
	}

	now := time.Now().UTC()
	m.Breached = true
	m.BreachReason = reason
	m.BreachedAt = &now
	m.BreachedBy = actorID
	m.UpdatedAt = now
	return s.milestones.Update(ctx, m)
}

func (s *breachService) Clear(ctx context.Context, milestoneID string) error {
	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return err
	}
	if !m.Breached {
		return nil
	}

	m.Breached = false
	m.BreachReason = ""
	m.BreachedAt = nil
	m.BreachedBy = ""
	m.UpdatedAt = time.Now().UTC()
	return s.milestones.Update(ctx, m)
}

// Reconcile clears a stale breach once every live deliverable is back
// within the milestone's effective end date. It never sets a breach: the
// reason and actor fields must capture intent at the moment of violation,
// which only the caller observing the violating write has.
func (s *breachService) Reconcile(ctx context.Context, milestoneID string) error {
	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return err
	}
	if !m.Breached {
		return nil
	}

	end := m.EffectiveEnd()
	if end == nil {
		return s.Clear(ctx, milestoneID)
	}

	deliverables, err := s.deliverables.ListByMilestone(ctx, milestoneID)
	if err != nil {
		return err
	}
	for _, d := range deliverables {
		if d.TargetDate != nil && d.TargetDate.After(*end) {
			return nil // still violating, breach stands
		}
	}
	return s.Clear(ctx, milestoneID)
}
