package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var journalTables = []string{"commands", "status_log"}

// ClearJournal removes every journal row.
func ClearJournal(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear journal tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range journalTables {
		//goland:noinspection SqlWithoutWhere
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+`;`); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear journal tx: %w", err)
	}

	return nil
}

// PruneBefore drops journal rows recorded before cutoff and returns how many were removed.
func PruneBefore(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("database is not initialized")
	}

	var total int64
	for _, table := range journalTables {
		res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE at < ?;`, cutoffMillis(cutoff))
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}

	return total, nil
}
