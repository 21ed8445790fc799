package postgres

import (
	"context"
	"fmt"
	"time"

	"signal_bot/internal/models"
	"signal_bot/pkg/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS fired_bars (
	instrument TEXT        NOT NULL,
	timeframe  TEXT        NOT NULL,
	bar_open   TIMESTAMPTZ NOT NULL,
	fired_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (instrument, timeframe, bar_open)
)`

// Journal keeps fired dedup keys so a restart does not re-alert bars that
// are still inside the ledger window. Only keys are stored, not signals.
type Journal struct {
	tx db.TxManager
}

func NewJournal(tx db.TxManager) *Journal {
	return &Journal{tx: tx}
}

func (j *Journal) EnsureSchema(ctx context.Context) error {
	if _, err := j.tx.Conn().Exec(ctx, schema); err != nil {
		return fmt.Errorf("create fired_bars: %w", err)
	}
	return nil
}

func (j *Journal) Record(ctx context.Context, key models.DedupKey) error {
	return j.tx.RunMaster(ctx, func(ctx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO fired_bars (instrument, timeframe, bar_open) VALUES ($1, $2, $3)
			 ON CONFLICT DO NOTHING`,
			key.Instrument, key.Timeframe.String(), key.BarOpen.UTC(),
		)
		return err
	})
}

// Recent returns up to limit keys, oldest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]models.DedupKey, error) {
	rows, err := j.tx.Conn().Query(ctx,
		`SELECT instrument, timeframe, bar_open FROM (
			SELECT instrument, timeframe, bar_open, fired_at FROM fired_bars
			ORDER BY fired_at DESC, bar_open DESC LIMIT $1
		 ) t ORDER BY fired_at, bar_open`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query fired_bars: %w", err)
	}
	defer rows.Close()

	var keys []models.DedupKey
	for rows.Next() {
		var (
			instrument, tf string
			barOpen        time.Time
		)
		if err := rows.Scan(&instrument, &tf, &barOpen); err != nil {
			return nil, fmt.Errorf("scan fired_bars: %w", err)
		}
		keys = append(keys, models.NewDedupKey(instrument, models.Timeframe(tf), barOpen))
	}
	return keys, rows.Err()
}
