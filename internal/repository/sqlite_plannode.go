package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mfalkner/trackline/internal/db"
	"github.com/mfalkner/trackline/internal/domain"
)

// planNodeColumns is the canonical SELECT column list for plan_nodes.
const planNodeColumns = `id, project_id, parent_id, title, item_type,
		linked_milestone_id, linked_deliverable_id, order_index, indent_level,
		is_deleted, deleted_at, deleted_by, created_at, updated_at`

// SQLitePlanNodeRepo implements PlanNodeRepo using a SQLite database.
type SQLitePlanNodeRepo struct {
	db db.DBTX
}

// NewSQLitePlanNodeRepo creates a new SQLitePlanNodeRepo.
func NewSQLitePlanNodeRepo(conn db.DBTX) *SQLitePlanNodeRepo {
	return &SQLitePlanNodeRepo{db: conn}
}

// linkColumns explodes the EntityLink union into the two nullable FK values.
func linkColumns(l domain.EntityLink) (interface{}, interface{}) {
	switch l.Kind {
	case domain.LinkMilestone:
		return l.EntityID, nil
	case domain.LinkDeliverable:
		return nil, l.EntityID
	default:
		return nil, nil
	}
}

func (r *SQLitePlanNodeRepo) Create(ctx context.Context, n *domain.PlanNode) error {
	milestoneID, deliverableID := linkColumns(n.Link)
	query := `INSERT INTO plan_nodes (id, project_id, parent_id, title, item_type,
		linked_milestone_id, linked_deliverable_id, order_index, indent_level,
		is_deleted, deleted_at, deleted_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.ProjectID,
		n.ParentID, // *string: nil becomes SQL NULL
		n.Title,
		string(n.ItemType),
		milestoneID,
		deliverableID,
		n.OrderIndex,
		n.IndentLevel,
		boolToInt(n.IsDeleted),
		nullableTimeToString(n.DeletedAt, time.RFC3339),
		n.DeletedBy,
		n.CreatedAt.Format(time.RFC3339),
		n.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting plan node: %w", err)
	}
	return nil
}

func (r *SQLitePlanNodeRepo) GetByID(ctx context.Context, id string) (*domain.PlanNode, error) {
	query := `SELECT ` + planNodeColumns + ` FROM plan_nodes WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return r.scanNode(row)
}

func (r *SQLitePlanNodeRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.PlanNode, error) {
	query := `SELECT ` + planNodeColumns + ` FROM plan_nodes
		WHERE project_id = ? AND is_deleted = 0 ORDER BY order_index`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing plan nodes by project: %w", err)
	}
	defer rows.Close()
	return r.scanNodes(rows)
}

func (r *SQLitePlanNodeRepo) ListChildren(ctx context.Context, parentID string) ([]*domain.PlanNode, error) {
	query := `SELECT ` + planNodeColumns + ` FROM plan_nodes
		WHERE parent_id = ? AND is_deleted = 0 ORDER BY order_index`
	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing child plan nodes: %w", err)
	}
	defer rows.Close()
	return r.scanNodes(rows)
}

func (r *SQLitePlanNodeRepo) ListByLink(ctx context.Context, kind domain.LinkKind, entityID string) ([]*domain.PlanNode, error) {
	var col string
	switch kind {
	case domain.LinkMilestone:
		col = "linked_milestone_id"
	case domain.LinkDeliverable:
		col = "linked_deliverable_id"
	default:
		return nil, fmt.Errorf("listing plan nodes by link: unsupported kind %q", kind)
	}
	query := `SELECT ` + planNodeColumns + ` FROM plan_nodes
		WHERE ` + col + ` = ? AND is_deleted = 0 ORDER BY order_index`
	rows, err := r.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("listing plan nodes by link: %w", err)
	}
	defer rows.Close()
	return r.scanNodes(rows)
}

func (r *SQLitePlanNodeRepo) Update(ctx context.Context, n *domain.PlanNode) error {
	milestoneID, deliverableID := linkColumns(n.Link)
	query := `UPDATE plan_nodes SET project_id = ?, parent_id = ?, title = ?, item_type = ?,
		linked_milestone_id = ?, linked_deliverable_id = ?, order_index = ?, indent_level = ?,
		is_deleted = ?, deleted_at = ?, deleted_by = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		n.ProjectID,
		n.ParentID,
		n.Title,
		string(n.ItemType),
		milestoneID,
		deliverableID,
		n.OrderIndex,
		n.IndentLevel,
		boolToInt(n.IsDeleted),
		nullableTimeToString(n.DeletedAt, time.RFC3339),
		n.DeletedBy,
		n.UpdatedAt.Format(time.RFC3339),
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("updating plan node: %w", err)
	}
	return nil
}

// SoftDelete stamps the deletion triple on a live node. Already-deleted
// nodes are left untouched so retried cascades stay idempotent.
func (r *SQLitePlanNodeRepo) SoftDelete(ctx context.Context, id, actorID string, at time.Time) error {
	stamp := at.UTC().Format(time.RFC3339)
	query := `UPDATE plan_nodes SET is_deleted = 1, deleted_at = ?, deleted_by = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0`
	_, err := r.db.ExecContext(ctx, query, stamp, actorID, stamp, id)
	if err != nil {
		return fmt.Errorf("soft-deleting plan node: %w", err)
	}
	return nil
}

// scanNode scans a single plan node from a *sql.Row.
func (r *SQLitePlanNodeRepo) scanNode(row *sql.Row) (*domain.PlanNode, error) {
	var n domain.PlanNode
	var itemTypeStr, createdAtStr, updatedAtStr string
	var parentID, milestoneID, deliverableID, deletedAtStr sql.NullString
	var isDeletedInt int

	err := row.Scan(
		&n.ID, &n.ProjectID, &parentID, &n.Title, &itemTypeStr,
		&milestoneID, &deliverableID, &n.OrderIndex, &n.IndentLevel,
		&isDeletedInt, &deletedAtStr, &n.DeletedBy, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("plan node: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning plan node: %w", err)
	}
	return r.populateNode(&n, itemTypeStr, createdAtStr, updatedAtStr,
		parentID, milestoneID, deliverableID, deletedAtStr, isDeletedInt)
}

// scanNodes scans multiple plan nodes from *sql.Rows.
func (r *SQLitePlanNodeRepo) scanNodes(rows *sql.Rows) ([]*domain.PlanNode, error) {
	var nodes []*domain.PlanNode
	for rows.Next() {
		var n domain.PlanNode
		var itemTypeStr, createdAtStr, updatedAtStr string
		var parentID, milestoneID, deliverableID, deletedAtStr sql.NullString
		var isDeletedInt int

		err := rows.Scan(
			&n.ID, &n.ProjectID, &parentID, &n.Title, &itemTypeStr,
			&milestoneID, &deliverableID, &n.OrderIndex, &n.IndentLevel,
			&isDeletedInt, &deletedAtStr, &n.DeletedBy, &createdAtStr, &updatedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning plan node row: %w", err)
		}
		node, err := r.populateNode(&n, itemTypeStr, createdAtStr, updatedAtStr,
			parentID, milestoneID, deliverableID, deletedAtStr, isDeletedInt)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan nodes: %w", err)
	}
	return nodes, nil
}

// populateNode fills in parsed fields on a PlanNode after scanning raw strings.
func (r *SQLitePlanNodeRepo) populateNode(
	n *domain.PlanNode,
	itemTypeStr, createdAtStr, updatedAtStr string,
	parentID, milestoneID, deliverableID, deletedAtStr sql.NullString,
	isDeletedInt int,
) (*domain.PlanNode, error) {
	n.ItemType = domain.ItemType(itemTypeStr)

	if parentID.Valid {
		n.ParentID = &parentID.String
	}

	// Collapse the two nullable FK columns into the link union. The schema
	// CHECK guarantees at most one is set.
	switch {
	case milestoneID.Valid:
		n.Link = domain.MilestoneLink(milestoneID.String)
	case deliverableID.Valid:
		n.Link = domain.DeliverableLink(deliverableID.String)
	default:
		n.Link = domain.NoLink
	}

	n.IsDeleted = intToBool(isDeletedInt)
	n.DeletedAt = parseNullableTime(deletedAtStr, time.RFC3339)

	var parseErr error
	n.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	n.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return n, nil
}
