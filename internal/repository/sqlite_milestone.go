package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mfalkner/trackline/internal/db"
	"github.com/mfalkner/trackline/internal/domain"
)

// milestoneColumns is the canonical SELECT column list for milestones.
const milestoneColumns = `id, project_id, name, start_date, end_date, forecast_end,
		baseline_start, baseline_end, baseline_billable,
		supplier_signer_id, supplier_signer_name, supplier_signed_at,
		customer_signer_id, customer_signer_name, customer_signed_at,
		locked, breached, breach_reason, breached_at, breached_by,
		is_deleted, deleted_at, deleted_by, created_at, updated_at`

// SQLiteMilestoneRepo implements MilestoneRepo using a SQLite database.
type SQLiteMilestoneRepo struct {
	db db.DBTX
}

// NewSQLiteMilestoneRepo creates a new SQLiteMilestoneRepo.
func NewSQLiteMilestoneRepo(conn db.DBTX) *SQLiteMilestoneRepo {
	return &SQLiteMilestoneRepo{db: conn}
}

func (r *SQLiteMilestoneRepo) Create(ctx context.Context, m *domain.Milestone) error {
	supID, supName, supAt := signatureColumns(m.SupplierSignature)
	cusID, cusName, cusAt := signatureColumns(m.CustomerSignature)
	query := `INSERT INTO milestones (` + milestoneColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.ProjectID,
		m.Name,
		nullableTimeToString(m.StartDate, dateLayout),
		nullableTimeToString(m.EndDate, dateLayout),
		nullableTimeToString(m.ForecastEnd, dateLayout),
		nullableTimeToString(m.BaselineStart, dateLayout),
		nullableTimeToString(m.BaselineEnd, dateLayout),
		nullableFloatToValue(m.BaselineBillable),
		supID, supName, supAt,
		cusID, cusName, cusAt,
		boolToInt(m.Locked),
		boolToInt(m.Breached),
		m.BreachReason,
		nullableTimeToString(m.BreachedAt, time.RFC3339),
		m.BreachedBy,
		boolToInt(m.IsDeleted),
		nullableTimeToString(m.DeletedAt, time.RFC3339),
		m.DeletedBy,
		m.CreatedAt.Format(time.RFC3339),
		m.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting milestone: %w", err)
	}
	return nil
}

func (r *SQLiteMilestoneRepo) GetByID(ctx context.Context, id string) (*domain.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return r.scanMilestone(row)
}

func (r *SQLiteMilestoneRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones
		WHERE project_id = ? AND is_deleted = 0 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing milestones by project: %w", err)
	}
	defer rows.Close()

	var milestones []*domain.Milestone
	for rows.Next() {
		m, err := r.scanMilestoneFromRows(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating milestones: %w", err)
	}
	return milestones, nil
}

func (r *SQLiteMilestoneRepo) Update(ctx context.Context, m *domain.Milestone) error {
	supID, supName, supAt := signatureColumns(m.SupplierSignature)
	cusID, cusName, cusAt := signatureColumns(m.CustomerSignature)
	query := `UPDATE milestones SET project_id = ?, name = ?, start_date = ?, end_date = ?,
		forecast_end = ?, baseline_start = ?, baseline_end = ?, baseline_billable = ?,
		supplier_signer_id = ?, supplier_signer_name = ?, supplier_signed_at = ?,
		customer_signer_id = ?, customer_signer_name = ?, customer_signed_at = ?,
		locked = ?, breached = ?, breach_reason = ?, breached_at = ?, breached_by = ?,
		is_deleted = ?, deleted_at = ?, deleted_by = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		m.ProjectID,
		m.Name,
		nullableTimeToString(m.StartDate, dateLayout),
		nullableTimeToString(m.EndDate, dateLayout),
		nullableTimeToString(m.ForecastEnd, dateLayout),
		nullableTimeToString(m.BaselineStart, dateLayout),
		nullableTimeToString(m.BaselineEnd, dateLayout),
		nullableFloatToValue(m.BaselineBillable),
		supID, supName, supAt,
		cusID, cusName, cusAt,
		boolToInt(m.Locked),
		boolToInt(m.Breached),
		m.BreachReason,
		nullableTimeToString(m.BreachedAt, time.RFC3339),
		m.BreachedBy,
		boolToInt(m.IsDeleted),
		nullableTimeToString(m.DeletedAt, time.RFC3339),
		m.DeletedBy,
		m.UpdatedAt.Format(time.RFC3339),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("updating milestone: %w", err)
	}
	return nil
}

// SoftDelete stamps the deletion triple on a live milestone; a repeat call
// is a no-op.
func (r *SQLiteMilestoneRepo) SoftDelete(ctx context.Context, id, actorID string, at time.Time) error {
	stamp := at.UTC().Format(time.RFC3339)
	query := `UPDATE milestones SET is_deleted = 1, deleted_at = ?, deleted_by = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0`
	_, err := r.db.ExecContext(ctx, query, stamp, actorID, stamp, id)
	if err != nil {
		return fmt.Errorf("soft-deleting milestone: %w", err)
	}
	return nil
}

func (r *SQLiteMilestoneRepo) scanMilestone(row *sql.Row) (*domain.Milestone, error) {
	var m domain.Milestone
	var createdAtStr, updatedAtStr string
	var startStr, endStr, forecastStr, bStartStr, bEndStr sql.NullString
	var billable sql.NullFloat64
	var supID, supName, supAt, cusID, cusName, cusAt sql.NullString
	var breachedAtStr, deletedAtStr sql.NullString
	var lockedInt, breachedInt, isDeletedInt int

	err := row.Scan(
		&m.ID, &m.ProjectID, &m.Name, &startStr, &endStr, &forecastStr,
		&bStartStr, &bEndStr, &billable,
		&supID, &supName, &supAt,
		&cusID, &cusName, &cusAt,
		&lockedInt, &breachedInt, &m.BreachReason, &breachedAtStr, &m.BreachedBy,
		&isDeletedInt, &deletedAtStr, &m.DeletedBy, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("milestone: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning milestone: %w", err)
	}
	return r.populateMilestone(&m, createdAtStr, updatedAtStr,
		startStr, endStr, forecastStr, bStartStr, bEndStr, billable,
		supID, supName, supAt, cusID, cusName, cusAt,
		breachedAtStr, deletedAtStr, lockedInt, breachedInt, isDeletedInt)
}

func (r *SQLiteMilestoneRepo) scanMilestoneFromRows(rows *sql.Rows) (*domain.Milestone, error) {
	var m domain.Milestone
	var createdAtStr, updatedAtStr string
	var startStr, endStr, forecastStr, bStartStr, bEndStr sql.NullString
	var billable sql.NullFloat64
	var supID, supName, supAt, cusID, cusName, cusAt sql.NullString
	var breachedAtStr, deletedAtStr sql.NullString
	var lockedInt, breachedInt, isDeletedInt int

	err := rows.Scan(
		&m.ID, &m.ProjectID, &m.Name, &startStr, &endStr, &forecastStr,
		&bStartStr, &bEndStr, &billable,
		&supID, &supName, &supAt,
		&cusID, &cusName, &cusAt,
		&lockedInt, &breachedInt, &m.BreachReason, &breachedAtStr, &m.BreachedBy,
		&isDeletedInt, &deletedAtStr, &m.DeletedBy, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning milestone row: %w", err)
	}
	return r.populateMilestone(&m, createdAtStr, updatedAtStr,
		startStr, endStr, forecastStr, bStartStr, bEndStr, billable,
		supID, supName, supAt, cusID, cusName, cusAt,
		breachedAtStr, deletedAtStr, lockedInt, breachedInt, isDeletedInt)
}

func (r *SQLiteMilestoneRepo) populateMilestone(
	m *domain.Milestone,
	createdAtStr, updatedAtStr string,
	startStr, endStr, forecastStr, bStartStr, bEndStr sql.NullString,
	billable sql.NullFloat64,
	supID, supName, supAt, cusID, cusName, cusAt sql.NullString,
	breachedAtStr, deletedAtStr sql.NullString,
	lockedInt, breachedInt, isDeletedInt int,
) (*domain.Milestone, error) {
	m.StartDate = parseNullableTime(startStr, dateLayout)
	m.EndDate = parseNullableTime(endStr, dateLayout)
	m.ForecastEnd = parseNullableTime(forecastStr, dateLayout)
	m.BaselineStart = parseNullableTime(bStartStr, dateLayout)
	m.BaselineEnd = parseNullableTime(bEndStr, dateLayout)

	if billable.Valid {
		v := billable.Float64
		m.BaselineBillable = &v
	}

	m.SupplierSignature = scanSignature(supID, supName, supAt)
	m.CustomerSignature = scanSignature(cusID, cusName, cusAt)
	m.Locked = intToBool(lockedInt)
	m.Breached = intToBool(breachedInt)
	m.BreachedAt = parseNullableTime(breachedAtStr, time.RFC3339)
	m.IsDeleted = intToBool(isDeletedInt)
	m.DeletedAt = parseNullableTime(deletedAtStr, time.RFC3339)

	var parseErr error
	m.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	m.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return m, nil
}
