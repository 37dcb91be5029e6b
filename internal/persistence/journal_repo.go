package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skobkin/dsrelay/internal/connectors"
)

type CommandRepo struct {
	db *sql.DB
}

func NewCommandRepo(db *sql.DB) *CommandRepo {
	return &CommandRepo{db: db}
}

func (r *CommandRepo) Insert(ctx context.Context, e connectors.CommandEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO commands(kind, channel_index, state, period_ms, line, delivered, error_text, at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Kind, e.Index, e.State, e.PeriodMs, e.Line, boolToInt(e.Delivered), e.Err, journalMillis(e.At))
	if err != nil {
		return fmt.Errorf("insert command: %w", err)
	}

	return nil
}

// ListRecent returns the newest commands first.
func (r *CommandRepo) ListRecent(ctx context.Context, limit int) ([]connectors.CommandEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, channel_index, state, period_ms, line, delivered, error_text, at
		FROM commands
		ORDER BY at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []connectors.CommandEvent
	for rows.Next() {
		var (
			e         connectors.CommandEvent
			delivered int
			at        int64
		)
		if err := rows.Scan(&e.Kind, &e.Index, &e.State, &e.PeriodMs, &e.Line, &delivered, &e.Err, &at); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		e.Delivered = delivered != 0
		e.At = journalTime(at)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}

	return out, nil
}

type StatusRepo struct {
	db *sql.DB
}

func NewStatusRepo(db *sql.DB) *StatusRepo {
	return &StatusRepo{db: db}
}

func (r *StatusRepo) Insert(ctx context.Context, s connectors.ConnectionStatus) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO status_log(state, error_text, transport, target, at)
		VALUES(?, ?, ?, ?, ?)
	`, string(s.State), s.Err, s.TransportName, s.Target, journalMillis(s.Timestamp))
	if err != nil {
		return fmt.Errorf("insert status: %w", err)
	}

	return nil
}

func (r *StatusRepo) ListRecent(ctx context.Context, limit int) ([]connectors.ConnectionStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT state, error_text, transport, target, at
		FROM status_log
		ORDER BY at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []connectors.ConnectionStatus
	for rows.Next() {
		var (
			s     connectors.ConnectionStatus
			state string
			at    int64
		)
		if err := rows.Scan(&state, &s.Err, &s.TransportName, &s.Target, &at); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		s.State = connectors.ConnectionState(state)
		s.Timestamp = journalTime(at)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statuses: %w", err)
	}

	return out, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}

	return 0
}
