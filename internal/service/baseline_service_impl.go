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

type baselineService struct {
	milestones repository.MilestoneRepo
	versions   repository.BaselineVersionRepo
	uow        db.UnitOfWork
	observer   UseCaseObserver
}

func NewBaselineService(milestones repository.MilestoneRepo, versions repository.BaselineVersionRepo, uow db.UnitOfWork, observers ...UseCaseObserver) BaselineService {
	return &baselineService{
		milestones: milestones,
		versions:   versions,
		uow:        uow,
		observer:   useCaseObserverOrNoop(observers),
	}
}

func (s *baselineService) Sign(ctx context.Context, milestoneID string, role domain.SignerRole, signerID, signerName string) (*domain.Milestone, error) {
	if !domain.ValidSignerRoles[string(role)] {
		return nil, fmt.Errorf("signing milestone %s as %q: %w", milestoneID, role, ErrInvalidRole)
	}

	started := time.Now().UTC()
	var signed *domain.Milestone
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txMilestones := repository.NewSQLiteMilestoneRepo(tx)
		txVersions := repository.NewSQLiteBaselineVersionRepo(tx)

		m, err := txMilestones.GetByID(ctx, milestoneID)
		if err != nil {
			return err
		}
		if m.IsDeleted {
			return fmt.Errorf("milestone %s: %w", milestoneID, repository.ErrNotFound)
		}

		now := time.Now().UTC()
		m.SetSignature(role, domain.Signature{SignerID: signerID, SignerName: signerName, SignedAt: now})

		if m.SignatureState() == domain.StateLocked {
			m.Locked = true
			if err := s.materializeOriginalBaseline(ctx, txVersions, m, now); err != nil {
				return err
			}
		}

		m.UpdatedAt = now
		if err := txMilestones.Update(ctx, m); err != nil {
			return err
		}
		signed = m
		return nil
	})

	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      "baseline_sign",
		Duration:  time.Since(started),
		Success:   err == nil,
		Err:       err,
		Fields:    map[string]any{"milestone_id": milestoneID, "role": string(role)},
		StartedAt: started,
	})
	if err != nil {
		return nil, err
	}
	return signed, nil
}

// materializeOriginalBaseline writes the version-1 audit snapshot. The
// conditional insert under the unique (milestone_id, version) index means a
// concurrent signer that also observed "not yet locked" collapses to a
// logged no-op rather than a duplicate row.
func (s *baselineService) materializeOriginalBaseline(ctx context.Context, versions repository.BaselineVersionRepo, m *domain.Milestone, now time.Time) error {
	v := domain.SnapshotOriginal(uuid.New().String(), m, now)
	created, err := versions.CreateOriginal(ctx, v)
	if err != nil {
		return fmt.Errorf("materializing original baseline for milestone %s: %w", m.ID, err)
	}
	if !created {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "baseline_materialize_duplicate_guarded",
			Success:   true,
			Fields:    map[string]any{"milestone_id": m.ID},
			StartedAt: now,
		})
	}
	return nil
}

func (s *baselineService) Reset(ctx context.Context, milestoneID string) (*domain.Milestone, error) {
	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if m.IsDeleted {
		return nil, fmt.Errorf("milestone %s: %w", milestoneID, repository.ErrNotFound)
	}
	if m.SignatureState() == domain.StateUnsigned && !m.Locked {
		return m, nil
	}

	m.ClearSignatures()
	m.UpdatedAt = time.Now().UTC()
	if err := s.milestones.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *baselineService) IsLocked(ctx context.Context, milestoneID string) (bool, error) {
	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return false, err
	}
	// A soft-deleted milestone cannot meaningfully hold a lock.
	if m.IsDeleted {
		return false, nil
	}
	return m.Locked, nil
}

func (s *baselineService) Versions(ctx context.Context, milestoneID string) ([]*domain.BaselineVersion, error) {
	return s.versions.ListByMilestone(ctx, milestoneID)
}
