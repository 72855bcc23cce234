// Package audit checks the ledger's soft invariants and reports the rows
// that break them. It never modifies data.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pagos-app/payment-manager/internal/logger"
	"github.com/pagos-app/payment-manager/internal/money"
	"github.com/pagos-app/payment-manager/internal/schema"
	"github.com/pagos-app/payment-manager/internal/store"
)

// Finding kinds.
const (
	DetailMismatch           = "detail_mismatch"
	OutstandingNegative      = "outstanding_negative"
	OutstandingAboveOriginal = "outstanding_above_original"
)

type Finding struct {
	Kind     string  `json:"kind"`
	ID       uint    `json:"id"`
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
}

type Report struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	Findings    []Finding     `json:"findings"`
	Schema      schema.Health `json:"schema"`
}

// Clean reports whether nothing was found and the unique index is in place.
func (r *Report) Clean() bool { return len(r.Findings) == 0 && r.Schema.UniqueIndex }

type Auditor struct {
	db     store.Adapter
	schema *schema.Manager
	log    zerolog.Logger
}

func New(db store.Adapter, sm *schema.Manager) *Auditor {
	return &Auditor{db: db, schema: sm, log: logger.WithComponent("audit")}
}

type paymentTotals struct {
	ID      uint
	Monto   float64
	Detalle float64
}

type documentBalance struct {
	ID             uint
	Monto          float64
	SaldoPendiente float64
}

// Run inspects every payment and document.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	r := &Report{GeneratedAt: time.Now().UTC(), Findings: []Finding{}}

	var totals []paymentTotals
	err := a.db.All(ctx, &totals, `
		SELECT p.id, p.monto, COALESCE(SUM(d.monto), 0) AS detalle
		FROM pagos p
		LEFT JOIN pagos_detalle d ON d.pago_id = p.id
		GROUP BY p.id, p.monto
		ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("audit payments: %w", err)
	}
	for _, t := range totals {
		if !money.Equal(t.Monto, t.Detalle) {
			r.Findings = append(r.Findings, Finding{Kind: DetailMismatch, ID: t.ID, Expected: t.Monto, Actual: money.Round2(t.Detalle)})
		}
	}

	var docs []documentBalance
	err = a.db.All(ctx, &docs, `
		SELECT id, monto, saldo_pendiente
		FROM documentos
		WHERE saldo_pendiente < 0 OR saldo_pendiente > monto
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("audit documents: %w", err)
	}
	for _, d := range docs {
		kind := OutstandingAboveOriginal
		if d.SaldoPendiente < 0 {
			kind = OutstandingNegative
		}
		r.Findings = append(r.Findings, Finding{Kind: kind, ID: d.ID, Expected: d.Monto, Actual: d.SaldoPendiente})
	}

	if a.schema != nil {
		r.Schema = a.schema.Health(ctx)
	}
	return r, nil
}

// Log runs the audit and writes the outcome to the log.
func (a *Auditor) Log(ctx context.Context) {
	r, err := a.Run(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("audit failed")
		return
	}
	if r.Clean() {
		a.log.Info().Msg("ledger audit clean")
		return
	}
	for _, f := range r.Findings {
		a.log.Warn().Str("kind", f.Kind).Uint("id", f.ID).Float64("expected", f.Expected).Float64("actual", f.Actual).
			Msg("ledger audit finding")
	}
	if !r.Schema.UniqueIndex {
		a.log.Warn().Str("detail", r.Schema.Detail).Msg("client unique index missing")
	}
}

// Scheduler runs the audit on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	auditor *Auditor
	jobID   cron.EntryID
}

func NewScheduler(a *Auditor) *Scheduler {
	return &Scheduler{cron: cron.New(), auditor: a}
}

// Start schedules the audit with a standard cron spec or a descriptor such
// as "@every 1h".
func (s *Scheduler) Start(spec string) error {
	var err error
	s.jobID, err = s.cron.AddFunc(spec, func() {
		s.auditor.Log(context.Background())
	})
	if err != nil {
		return fmt.Errorf("error scheduling audit: %w", err)
	}
	s.cron.Start()
	s.auditor.log.Info().Str("schedule", spec).Msg("audit scheduler started")
	return nil
}

// Stop waits for a running audit to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
