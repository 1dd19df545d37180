package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		short_id    TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'active'
		            CHECK(status IN ('active','paused','done','archived')),
		start_date  TEXT NOT NULL,
		target_date TEXT,
		archived_at TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_short_id ON projects(short_id) WHERE short_id != ''`,

	`CREATE TABLE IF NOT EXISTS plan_nodes (
		id                    TEXT PRIMARY KEY,
		project_id            TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		parent_id             TEXT REFERENCES plan_nodes(id) ON DELETE CASCADE,
		title                 TEXT NOT NULL,
		item_type             TEXT NOT NULL
		                      CHECK(item_type IN ('task','milestone','deliverable')),
		linked_milestone_id   TEXT REFERENCES milestones(id),
		linked_deliverable_id TEXT REFERENCES deliverables(id),
		order_index           INTEGER NOT NULL DEFAULT 0,
		indent_level          INTEGER NOT NULL DEFAULT 0,
		is_deleted            INTEGER NOT NULL DEFAULT 0,
		deleted_at            TEXT,
		deleted_by            TEXT NOT NULL DEFAULT '',
		created_at            TEXT NOT NULL,
		updated_at            TEXT NOT NULL,
		CHECK(linked_milestone_id IS NULL OR linked_deliverable_id IS NULL)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_plan_nodes_project ON plan_nodes(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_plan_nodes_parent ON plan_nodes(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_plan_nodes_milestone ON plan_nodes(linked_milestone_id)`,
	`CREATE INDEX IF NOT EXISTS idx_plan_nodes_deliverable ON plan_nodes(linked_deliverable_id)`,

	`CREATE TABLE IF NOT EXISTS milestones (
		id                   TEXT PRIMARY KEY,
		project_id           TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name                 TEXT NOT NULL,
		start_date           TEXT,
		end_date             TEXT,
		forecast_end         TEXT,
		baseline_start       TEXT,
		baseline_end         TEXT,
		baseline_billable    REAL,
		supplier_signer_id   TEXT,
		supplier_signer_name TEXT,
		supplier_signed_at   TEXT,
		customer_signer_id   TEXT,
		customer_signer_name TEXT,
		customer_signed_at   TEXT,
		locked               INTEGER NOT NULL DEFAULT 0,
		breached             INTEGER NOT NULL DEFAULT 0,
		breach_reason        TEXT NOT NULL DEFAULT '',
		breached_at          TEXT,
		breached_by          TEXT NOT NULL DEFAULT '',
		is_deleted           INTEGER NOT NULL DEFAULT 0,
		deleted_at           TEXT,
		deleted_by           TEXT NOT NULL DEFAULT '',
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_milestones_project ON milestones(project_id)`,

	`CREATE TABLE IF NOT EXISTS deliverables (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		milestone_id TEXT NOT NULL REFERENCES milestones(id),
		name         TEXT NOT NULL,
		target_date  TEXT,
		is_deleted   INTEGER NOT NULL DEFAULT 0,
		deleted_at   TEXT,
		deleted_by   TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_deliverables_milestone ON deliverables(milestone_id)`,

	`CREATE TABLE IF NOT EXISTS baseline_versions (
		id                   TEXT PRIMARY KEY,
		milestone_id         TEXT NOT NULL REFERENCES milestones(id),
		version              INTEGER NOT NULL CHECK(version >= 1),
		baseline_start       TEXT,
		baseline_end         TEXT,
		baseline_billable    REAL,
		supplier_signer_id   TEXT NOT NULL,
		supplier_signer_name TEXT NOT NULL,
		supplier_signed_at   TEXT NOT NULL,
		customer_signer_id   TEXT NOT NULL,
		customer_signer_name TEXT NOT NULL,
		customer_signed_at   TEXT NOT NULL,
		variation_id         TEXT,
		created_at           TEXT NOT NULL
	)`,

	// The uniqueness constraint is what makes the one-time original
	// snapshot safe under racing signature calls: the conditional insert
	// in the repository relies on it instead of a check-then-insert.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_baseline_versions_milestone_version
		ON baseline_versions(milestone_id, version)`,
}
