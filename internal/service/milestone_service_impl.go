package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mfalkner/trackline/internal/domain"
	"github.com/mfalkner/trackline/internal/repository"
	"github.com/google/uuid"
)

type milestoneService struct {
	milestones repository.MilestoneRepo
}

func NewMilestoneService(milestones repository.MilestoneRepo) MilestoneService {
	return &milestoneService{milestones: milestones}
}

func (s *milestoneService) Create(ctx context.Context, m *domain.Milestone) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	return s.milestones.Create(ctx, m)
}

func (s *milestoneService) GetByID(ctx context.Context, id string) (*domain.Milestone, error) {
	return s.milestones.GetByID(ctx, id)
}

func (s *milestoneService) ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	return s.milestones.ListByProject(ctx, projectID)
}

// Update refuses to touch a locked milestone's baseline window: those
// fields are frozen until an administrative reset. The signatures and the
// lock flag are owned by the baseline workflow and are always carried over
// from the stored row, so an update can never sign, unsign, or unlock.
func (s *milestoneService) Update(ctx context.Context, m *domain.Milestone) error {
	current, err := s.milestones.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	if current.Locked && baselineWindowChanged(current, m) {
		return fmt.Errorf("milestone %q: baseline window is locked; reset it before editing", current.Name)
	}
	m.SupplierSignature = current.SupplierSignature
	m.CustomerSignature = current.CustomerSignature
	m.Locked = current.Locked
	m.UpdatedAt = time.Now().UTC()
	return s.milestones.Update(ctx, m)
}

func baselineWindowChanged(a, b *domain.Milestone) bool {
	return !equalTimePtr(a.BaselineStart, b.BaselineStart) ||
		!equalTimePtr(a.BaselineEnd, b.BaselineEnd) ||
		!equalFloatPtr(a.BaselineBillable, b.BaselineBillable)
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
