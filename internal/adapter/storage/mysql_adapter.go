package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/stock-tracker/internal/core/domain"
	"github.com/rl1809/stock-tracker/internal/port"
)

var _ port.SnapshotRepository = (*MySQLAdapter)(nil)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_snapshots (
		name VARCHAR(255) NOT NULL PRIMARY KEY,
		saved_at DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_snapshot_items (
		snapshot_name VARCHAR(255) NOT NULL,
		position INT NOT NULL,
		item_id VARCHAR(255) NOT NULL,
		stock BIGINT NOT NULL,
		PRIMARY KEY (snapshot_name, position)
	)`,
	// Older deployments created the column as INT.
	`ALTER TABLE inventory_snapshot_items MODIFY stock BIGINT NOT NULL`,
}

// MySQLAdapter keeps named snapshots in two tables: one header row per
// snapshot and one row per item, ordered by position.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// EnsureSchema creates the snapshot tables if they are missing.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range mysqlSchema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) Load(ctx context.Context, name string) (*domain.Inventory, error) {
	var savedAt time.Time
	err := m.db.QueryRowContext(ctx, `
		SELECT saved_at FROM inventory_snapshots WHERE name = ?`, name,
	).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, port.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT item_id, stock FROM inventory_snapshot_items
		WHERE snapshot_name = ?
		ORDER BY position`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshot items: %w", err)
	}
	defer rows.Close()

	inv := domain.NewInventory()
	for rows.Next() {
		var (
			item  string
			stock int
		)
		if err := rows.Scan(&item, &stock); err != nil {
			return nil, fmt.Errorf("scan snapshot item: %w", err)
		}
		inv.Add(item, stock)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot items: %w", err)
	}

	return inv, nil
}

// Save replaces the snapshot in a single transaction.
func (m *MySQLAdapter) Save(ctx context.Context, name string, inv *domain.Inventory) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory_snapshots (name, saved_at) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE saved_at = VALUES(saved_at)`,
		name, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_snapshot_items WHERE snapshot_name = ?`, name); err != nil {
		return fmt.Errorf("clear snapshot items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO inventory_snapshot_items (snapshot_name, position, item_id, stock)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range inv.Items() {
		if _, err := stmt.ExecContext(ctx, name, i, item.Name, item.Quantity); err != nil {
			return fmt.Errorf("insert item %q: %w", item.Name, err)
		}
	}

	return tx.Commit()
}

// Delete drops a snapshot. Deleting a missing snapshot returns ErrSnapshotNotFound.
func (m *MySQLAdapter) Delete(ctx context.Context, name string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_snapshot_items WHERE snapshot_name = ?`, name); err != nil {
		return fmt.Errorf("delete snapshot items: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM inventory_snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%s: %w", name, port.ErrSnapshotNotFound)
	}

	return tx.Commit()
}
