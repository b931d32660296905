package journal

import (
	"context"
	"time"

	"trade_engine/internal/models"
	"trade_engine/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// PgWriter дублирует трейд-лог в postgres, чтобы журнал переживал рестарты.
// Кольцевой буфер остаётся источником для рантайма, pg — только журнал.
type PgWriter struct {
	tm db.TxManager
}

func NewPgWriter(tm db.TxManager) *PgWriter {
	return &PgWriter{tm: tm}
}

const createTradeLogSQL = `
CREATE TABLE IF NOT EXISTS trade_log (
	id           BIGSERIAL PRIMARY KEY,
	at           TIMESTAMPTZ NOT NULL,
	instrument   TEXT NOT NULL,
	action       TEXT NOT NULL,
	confidence   DOUBLE PRECISION NOT NULL,
	executed     BOOLEAN NOT NULL,
	profit       DOUBLE PRECISION NOT NULL DEFAULT 0,
	count_before INT NOT NULL DEFAULT 0,
	count_after  INT NOT NULL DEFAULT 0,
	detail       TEXT NOT NULL DEFAULT '',
	decision     JSONB
)`

func (w *PgWriter) EnsureSchema(ctx context.Context) error {
	err := w.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, createTradeLogSQL)
		return err
	})
	return errors.Wrap(err, "journal: ensure schema")
}

// Insert пишет запись и, если есть, решение, по которому она сделана.
func (w *PgWriter) Insert(ctx context.Context, e models.TradeLogEntry, rec *models.DecisionRecord) error {
	var payload []byte
	if rec != nil {
		var err error
		payload, err = sonic.Marshal(rec)
		if err != nil {
			return errors.Wrap(err, "journal: marshal decision")
		}
	}

	err := w.tm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx,
			`INSERT INTO trade_log
			 (at, instrument, action, confidence, executed, profit, count_before, count_after, detail, decision)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			e.At, e.Instrument, e.Action.String(), e.Confidence, e.Executed,
			e.Profit, e.CountBefore, e.CountAfter, e.Detail, payload,
		)
		return err
	})
	return errors.Wrap(err, "journal: insert")
}

// History читает n последних записей (для cmd/replay).
func (w *PgWriter) History(ctx context.Context, n int) ([]models.TradeLogEntry, error) {
	rows, err := w.tm.Conn().Query(ctx,
		`SELECT at, instrument, action, confidence, executed, profit, count_before, count_after, detail
		 FROM trade_log ORDER BY at DESC, id DESC LIMIT $1`, n)
	if err != nil {
		return nil, errors.Wrap(err, "journal: history")
	}
	defer rows.Close()

	var out []models.TradeLogEntry
	for rows.Next() {
		var e models.TradeLogEntry
		var action string
		var at time.Time
		if err := rows.Scan(&at, &e.Instrument, &action, &e.Confidence, &e.Executed,
			&e.Profit, &e.CountBefore, &e.CountAfter, &e.Detail); err != nil {
			return nil, errors.Wrap(err, "journal: scan")
		}
		e.At = at
		e.Action = models.ParseAction(action)
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "journal: rows")
}
