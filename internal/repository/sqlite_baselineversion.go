package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mfalkner/trackline/internal/db"
	"github.com/mfalkner/trackline/internal/domain"
)

const baselineVersionColumns = `id, milestone_id, version, baseline_start, baseline_end,
		baseline_billable, supplier_signer_id, supplier_signer_name, supplier_signed_at,
		customer_signer_id, customer_signer_name, customer_signed_at, variation_id, created_at`

// SQLiteBaselineVersionRepo implements BaselineVersionRepo using a SQLite database.
type SQLiteBaselineVersionRepo struct {
	db db.DBTX
}

// NewSQLiteBaselineVersionRepo creates a new SQLiteBaselineVersionRepo.
func NewSQLiteBaselineVersionRepo(conn db.DBTX) *SQLiteBaselineVersionRepo {
	return &SQLiteBaselineVersionRepo{db: conn}
}

// CreateOriginal inserts the version-1 snapshot with ON CONFLICT DO NOTHING
// against the unique (milestone_id, version) index. Two racing callers that
// both observed "not yet locked" thus produce exactly one row; the loser
// sees created=false and treats it as a no-op. A check-then-insert would
// leave a race window here.
func (r *SQLiteBaselineVersionRepo) CreateOriginal(ctx context.Context, v *domain.BaselineVersion) (bool, error) {
	query := `INSERT INTO baseline_versions (` + baselineVersionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(milestone_id, version) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query,
		v.ID,
		v.MilestoneID,
		v.Version,
		nullableTimeToString(v.BaselineStart, dateLayout),
		nullableTimeToString(v.BaselineEnd, dateLayout),
		nullableFloatToValue(v.BaselineBillable),
		v.SupplierSignature.SignerID,
		v.SupplierSignature.SignerName,
		v.SupplierSignature.SignedAt.UTC().Format(time.RFC3339),
		v.CustomerSignature.SignerID,
		v.CustomerSignature.SignerName,
		v.CustomerSignature.SignedAt.UTC().Format(time.RFC3339),
		v.VariationID,
		v.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("inserting baseline version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking baseline version insert: %w", err)
	}
	return affected > 0, nil
}

func (r *SQLiteBaselineVersionRepo) GetOriginal(ctx context.Context, milestoneID string) (*domain.BaselineVersion, error) {
	query := `SELECT ` + baselineVersionColumns + ` FROM baseline_versions
		WHERE milestone_id = ? AND version = ?`
	row := r.db.QueryRowContext(ctx, query, milestoneID, domain.OriginalBaselineVersion)
	return r.scanVersion(row)
}

func (r *SQLiteBaselineVersionRepo) ListByMilestone(ctx context.Context, milestoneID string) ([]*domain.BaselineVersion, error) {
	query := `SELECT ` + baselineVersionColumns + ` FROM baseline_versions
		WHERE milestone_id = ? ORDER BY version`
	rows, err := r.db.QueryContext(ctx, query, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("listing baseline versions: %w", err)
	}
	defer rows.Close()

	var versions []*domain.BaselineVersion
	for rows.Next() {
		var v domain.BaselineVersion
		var bStartStr, bEndStr, variationID sql.NullString
		var billable sql.NullFloat64
		var supAt, cusAt, createdAtStr string
		err := rows.Scan(
			&v.ID, &v.MilestoneID, &v.Version, &bStartStr, &bEndStr, &billable,
			&v.SupplierSignature.SignerID, &v.SupplierSignature.SignerName, &supAt,
			&v.CustomerSignature.SignerID, &v.CustomerSignature.SignerName, &cusAt,
			&variationID, &createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning baseline version row: %w", err)
		}
		if err := r.populateVersion(&v, bStartStr, bEndStr, billable, variationID, supAt, cusAt, createdAtStr); err != nil {
			return nil, err
		}
		versions = append(versions, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating baseline versions: %w", err)
	}
	return versions, nil
}

func (r *SQLiteBaselineVersionRepo) scanVersion(row *sql.Row) (*domain.BaselineVersion, error) {
	var v domain.BaselineVersion
	var bStartStr, bEndStr, variationID sql.NullString
	var billable sql.NullFloat64
	var supAt, cusAt, createdAtStr string

	err := row.Scan(
		&v.ID, &v.MilestoneID, &v.Version, &bStartStr, &bEndStr, &billable,
		&v.SupplierSignature.SignerID, &v.SupplierSignature.SignerName, &supAt,
		&v.CustomerSignature.SignerID, &v.CustomerSignature.SignerName, &cusAt,
		&variationID, &createdAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("baseline version: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning baseline version: %w", err)
	}
	if err := r.populateVersion(&v, bStartStr, bEndStr, billable, variationID, supAt, cusAt, createdAtStr); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *SQLiteBaselineVersionRepo) populateVersion(
	v *domain.BaselineVersion,
	bStartStr, bEndStr sql.NullString,
	billable sql.NullFloat64,
	variationID sql.NullString,
	supAt, cusAt, createdAtStr string,
) error {
	v.BaselineStart = parseNullableTime(bStartStr, dateLayout)
	v.BaselineEnd = parseNullableTime(bEndStr, dateLayout)
	if billable.Valid {
		b := billable.Float64
		v.BaselineBillable = &b
	}
	if variationID.Valid {
		v.VariationID = &variationID.String
	}

	var parseErr error
	v.SupplierSignature.SignedAt, parseErr = time.Parse(time.RFC3339, supAt)
	if parseErr != nil {
		return fmt.Errorf("parsing supplier_signed_at: %w", parseErr)
	}
	v.CustomerSignature.SignedAt, parseErr = time.Parse(time.RFC3339, cusAt)
	if parseErr != nil {
		return fmt.Errorf("parsing customer_signed_at: %w", parseErr)
	}
	v.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return fmt.Errorf("parsing created_at: %w", parseErr)
	}
	return nil
}
