package review

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ckdreview/ckdreview/internal/platform/db"
)

// -- Postgres implementation --

type snapshotRepoPG struct {
	pool   *pgxpool.Pool
	schema string
}

// NewSnapshotRepoPG publishes runs into the ckd_review_run and
// ckd_review_record tables of schema.
func NewSnapshotRepoPG(pool *pgxpool.Pool, schema string) SnapshotRepository {
	return &snapshotRepoPG{pool: pool, schema: schema}
}

func (r *snapshotRepoPG) Save(ctx context.Context, res *Result) error {
	if err := db.ValidateSchema(r.schema); err != nil {
		return err
	}
	return db.InTx(ctx, r.pool, r.schema, func(tx pgx.Tx) error {
		sources, err := json.Marshal(res.Sources)
		if err != nil {
			return fmt.Errorf("encode sources: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO ckd_review_run (
				id, as_of, started_at, sources, patients, excluded, orphaned_rows
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			res.RunID, res.AsOf, res.StartedAt, sources,
			len(res.Records), len(res.ExcludedRecords()), res.Orphaned,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		batch := &pgx.Batch{}
		for _, rec := range res.Records {
			payload, err := recordPayload(rec)
			if err != nil {
				return fmt.Errorf("encode record %s: %w", rec.HCNumber, err)
			}
			batch.Queue(`
				INSERT INTO ckd_review_record (
					run_id, hc_number, source, egfr, ckd_stage, risk_2yr, risk_5yr,
					excluded, triage, days_since_visit, payload
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				res.RunID, rec.HCNumber, string(rec.Source), rec.EGFR, string(rec.CKDStage),
				riskValue(rec, false), riskValue(rec, true),
				rec.Excluded(), string(rec.Triage), rec.DaysSinceVisit, payload,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range res.Records {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert record: %w", err)
			}
		}
		return br.Close()
	})
}

// recordPayload stores the full review row keyed by column name.
func recordPayload(rec *PatientRecord) ([]byte, error) {
	row := rec.Row()
	m := make(map[string]string, len(Columns))
	for i, col := range Columns {
		m[col] = row[i]
	}
	return json.Marshal(m)
}

func riskValue(rec *PatientRecord, fiveYear bool) *float64 {
	if rec.Risk == nil {
		return nil
	}
	v := rec.Risk.TwoYear
	if fiveYear {
		v = rec.Risk.FiveYear
	}
	return &v
}
