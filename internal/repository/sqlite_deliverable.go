package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mfalkner/trackline/internal/db"
	"github.com/mfalkner/trackline/internal/domain"
)

const deliverableColumns = `id, project_id, milestone_id, name, target_date,
		is_deleted, deleted_at, deleted_by, created_at, updated_at`

// SQLiteDeliverableRepo implements DeliverableRepo using a SQLite database.
type SQLiteDeliverableRepo struct {
	db db.DBTX
}

// NewSQLiteDeliverableRepo creates a new SQLiteDeliverableRepo.
func NewSQLiteDeliverableRepo(conn db.DBTX) *SQLiteDeliverableRepo {
	return &SQLiteDeliverableRepo{db: conn}
}

func (r *SQLiteDeliverableRepo) Create(ctx context.Context, d *domain.Deliverable) error {
	query := `INSERT INTO deliverables (` + deliverableColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.ProjectID,
		d.MilestoneID,
		d.Name,
		nullableTimeToString(d.TargetDate, dateLayout),
		boolToInt(d.IsDeleted),
		nullableTimeToString(d.DeletedAt, time.RFC3339),
		d.DeletedBy,
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting deliverable: %w", err)
	}
	return nil
}

func (r *SQLiteDeliverableRepo) GetByID(ctx context.Context, id string) (*domain.Deliverable, error) {
	query := `SELECT ` + deliverableColumns + ` FROM deliverables WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return r.scanDeliverable(row)
}

func (r *SQLiteDeliverableRepo) ListByMilestone(ctx context.Context, milestoneID string) ([]*domain.Deliverable, error) {
	query := `SELECT ` + deliverableColumns + ` FROM deliverables
		WHERE milestone_id = ? AND is_deleted = 0 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("listing deliverables by milestone: %w", err)
	}
	defer rows.Close()

	var deliverables []*domain.Deliverable
	for rows.Next() {
		d, err := r.scanDeliverableFromRows(rows)
		if err != nil {
			return nil, err
		}
		deliverables = append(deliverables, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deliverables: %w", err)
	}
	return deliverables, nil
}

func (r *SQLiteDeliverableRepo) Update(ctx context.Context, d *domain.Deliverable) error {
	query := `UPDATE deliverables SET project_id = ?, milestone_id = ?, name = ?,
		target_date = ?, is_deleted = ?, deleted_at = ?, deleted_by = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		d.ProjectID,
		d.MilestoneID,
		d.Name,
		nullableTimeToString(d.TargetDate, dateLayout),
		boolToInt(d.IsDeleted),
		nullableTimeToString(d.DeletedAt, time.RFC3339),
		d.DeletedBy,
		d.UpdatedAt.Format(time.RFC3339),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating deliverable: %w", err)
	}
	return nil
}

// SoftDelete stamps the deletion triple on a live deliverable; a repeat
// call is a no-op.
func (r *SQLiteDeliverableRepo) SoftDelete(ctx context.Context, id, actorID string, at time.Time) error {
	stamp := at.UTC().Format(time.RFC3339)
	query := `UPDATE deliverables SET is_deleted = 1, deleted_at = ?, deleted_by = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0`
	_, err := r.db.ExecContext(ctx, query, stamp, actorID, stamp, id)
	if err != nil {
		return fmt.Errorf("soft-deleting deliverable: %w", err)
	}
	return nil
}

func (r *SQLiteDeliverableRepo) scanDeliverable(row *sql.Row) (*domain.Deliverable, error) {
	var d domain.Deliverable
	var createdAtStr, updatedAtStr string
	var targetDateStr, deletedAtStr sql.NullString
	var isDeletedInt int

	err := row.Scan(&d.ID, &d.ProjectID, &d.MilestoneID, &d.Name, &targetDateStr,
		&isDeletedInt, &deletedAtStr, &d.DeletedBy, &createdAtStr, &updatedAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("deliverable: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning deliverable: %w", err)
	}
	return r.populateDeliverable(&d, createdAtStr, updatedAtStr, targetDateStr, deletedAtStr, isDeletedInt)
}

func (r *SQLiteDeliverableRepo) scanDeliverableFromRows(rows *sql.Rows) (*domain.Deliverable, error) {
	var d domain.Deliverable
	var createdAtStr, updatedAtStr string
	var targetDateStr, deletedAtStr sql.NullString
	var isDeletedInt int

	err := rows.Scan(&d.ID, &d.ProjectID, &d.MilestoneID, &d.Name, &targetDateStr,
		&isDeletedInt, &deletedAtStr, &d.DeletedBy, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("scanning deliverable row: %w", err)
	}
	return r.populateDeliverable(&d, createdAtStr, updatedAtStr, targetDateStr, deletedAtStr, isDeletedInt)
}

func (r *SQLiteDeliverableRepo) populateDeliverable(
	d *domain.Deliverable,
	createdAtStr, updatedAtStr string,
	targetDateStr, deletedAtStr sql.NullString,
	isDeletedInt int,
) (*domain.Deliverable, error) {
	d.TargetDate = parseNullableTime(targetDateStr, dateLayout)
	d.IsDeleted = intToBool(isDeletedInt)
	d.DeletedAt = parseNullableTime(deletedAtStr, time.RFC3339)

	var parseErr error
	d.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	d.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return d, nil
}
