// Package rollup maintains the per-customer monthly usage rollups.
package rollup

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resailhq/resail/internal/clock"
	usagedomain "github.com/resailhq/resail/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config Config `optional:"true"`
}

// Worker folds freshly ingested usage records into usage_rollups. Each
// batch is one transaction; records are marked rolled_up only after the
// rollup upserts commit with them.
type Worker struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	cfg   Config
}

func NewWorker(p Params) *Worker {
	cfg := p.Config.withDefaults()
	return &Worker{
		db:    p.DB,
		log:   p.Log.Named("usage.rollup"),
		genID: p.GenID,
		clock: p.Clock,
		cfg:   cfg,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(); err != nil {
			w.log.Warn("usage rollup run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		processed, err := w.ProcessBatch(ctx, w.cfg.BatchSize)
		if err != nil {
			return err
		}
		if processed < w.cfg.BatchSize {
			return nil
		}
	}
}

type rollupKey struct {
	customerID  snowflake.ID
	periodStart time.Time
}

type rollupDelta struct {
	messages  int64
	tokens    int64
	costCents int64
}

// ProcessBatch rolls up at most limit pending records and reports how
// many it handled.
func (w *Worker) ProcessBatch(ctx context.Context, limit int) (int, error) {
	if w.db == nil {
		return 0, errors.New("rollup_worker_unavailable")
	}
	if limit <= 0 {
		limit = w.cfg.BatchSize
	}

	processed := 0
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []usagedomain.UsageRecord
		err := tx.WithContext(ctx).
			Where("rolled_up = ?", false).
			Order("recorded_at ASC, id ASC").
			Limit(limit).
			Find(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		deltas := make(map[rollupKey]*rollupDelta)
		ids := make([]snowflake.ID, 0, len(rows))
		for _, row := range rows {
			key := rollupKey{
				customerID:  row.CustomerID,
				periodStart: monthStart(row.RecordedAt),
			}
			delta, ok := deltas[key]
			if !ok {
				delta = &rollupDelta{}
				deltas[key] = delta
			}
			delta.messages += row.MessagesCount
			delta.tokens += row.TokensUsed
			delta.costCents += row.CostCents
			ids = append(ids, row.ID)
		}

		now := w.clock.Now()
		for key, delta := range deltas {
			err := tx.WithContext(ctx).Exec(
				`INSERT INTO usage_rollups (id, customer_id, period_start, period_end, total_messages, total_tokens, total_cost_cents, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (customer_id, period_start) DO UPDATE SET
					total_messages = usage_rollups.total_messages + excluded.total_messages,
					total_tokens = usage_rollups.total_tokens + excluded.total_tokens,
					total_cost_cents = usage_rollups.total_cost_cents + excluded.total_cost_cents,
					updated_at = excluded.updated_at`,
				w.genID.Generate(),
				key.customerID,
				key.periodStart,
				key.periodStart.AddDate(0, 1, 0),
				delta.messages,
				delta.tokens,
				delta.costCents,
				now,
			).Error
			if err != nil {
				return err
			}
		}

		result := tx.WithContext(ctx).Exec(
			`UPDATE usage_records SET rolled_up = ? WHERE id IN ?`,
			true,
			ids,
		)
		if result.Error != nil {
			return result.Error
		}

		processed = len(rows)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return processed, nil
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
