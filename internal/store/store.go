/*
Package store persists ranked predictions keyed by run date, so downstream
consumers can query a day's screen or the latest record without re-running
the pipeline.
*/
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mab-007/elrond-stock-analyzer-be/internal/screen"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
	run_date     TEXT NOT NULL,
	rank         INTEGER NOT NULL,
	file         TEXT NOT NULL,
	pdf_link     TEXT NOT NULL DEFAULT '',
	company      TEXT NOT NULL DEFAULT '',
	scrip_cd     TEXT NOT NULL,
	impact       TEXT NOT NULL DEFAULT '',
	summary      TEXT NOT NULL DEFAULT '',
	price_range  TEXT NOT NULL DEFAULT '',
	rationale    TEXT NOT NULL DEFAULT '',
	impact_score INTEGER NOT NULL DEFAULT 0,
	mid_percent  REAL NOT NULL DEFAULT 0,
	submitted_at TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_date, rank)
);

CREATE INDEX IF NOT EXISTS idx_predictions_scrip ON predictions(scrip_cd);

CREATE INDEX IF NOT EXISTS idx_predictions_submitted ON predictions(submitted_at);
`

// Prediction is one persisted row of a run's ranked table.
type Prediction struct {
	RunDate     string  `db:"run_date" json:"run_date"`
	Rank        int     `db:"rank" json:"rank"`
	File        string  `db:"file" json:"file"`
	PDFLink     string  `db:"pdf_link" json:"pdf_link"`
	Company     string  `db:"company" json:"company"`
	ScripCode   string  `db:"scrip_cd" json:"scrip_cd"`
	Impact      string  `db:"impact" json:"impact"`
	Summary     string  `db:"summary" json:"summary"`
	PriceRange  string  `db:"price_range" json:"price_range"`
	Rationale   string  `db:"rationale" json:"rationale"`
	ImpactScore int     `db:"impact_score" json:"impact_score"`
	MidPercent  float64 `db:"mid_percent" json:"mid_percent"`
	SubmittedAt string  `db:"submitted_at" json:"submitted_at,omitempty"`
}

type Store struct {
	db *sqlx.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun replaces the stored predictions for runDate with the given ranked
// records. submittedAt maps scrip code to the disclosure's submission time
// when the discovery feed provided one. A scrip may appear more than once in
// a run when a company files several disclosures on the same day; only the
// rank is unique within a run.
func (s *Store) SaveRun(runDate string, records []screen.Record, submittedAt map[string]time.Time) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM predictions WHERE run_date = ?`, runDate); err != nil {
		return fmt.Errorf("clear run %s: %w", runDate, err)
	}
	const insert = `
INSERT INTO predictions
	(run_date, rank, file, pdf_link, company, scrip_cd, impact, summary, price_range, rationale, impact_score, mid_percent, submitted_at)
VALUES
	(:run_date, :rank, :file, :pdf_link, :company, :scrip_cd, :impact, :summary, :price_range, :rationale, :impact_score, :mid_percent, :submitted_at)`
	for _, rec := range records {
		p := fromRecord(runDate, rec)
		if ts, ok := submittedAt[rec.ScripCode]; ok {
			p.SubmittedAt = ts.Format(time.RFC3339)
		}
		if _, err := tx.NamedExec(insert, p); err != nil {
			return fmt.Errorf("insert prediction %s: %w", rec.ScripCode, err)
		}
	}
	return tx.Commit()
}

// PredictionsByDate returns a run's rows in rank order; empty when the date
// was never run.
func (s *Store) PredictionsByDate(runDate string) ([]Prediction, error) {
	var preds []Prediction
	err := s.db.Select(&preds,
		`SELECT * FROM predictions WHERE run_date = ? ORDER BY rank ASC`, runDate)
	if err != nil {
		return nil, fmt.Errorf("query predictions for %s: %w", runDate, err)
	}
	return preds, nil
}

// Latest returns the single most recently submitted prediction across all
// runs, or nil when the store is empty.
func (s *Store) Latest() (*Prediction, error) {
	var p Prediction
	err := s.db.Get(&p,
		`SELECT * FROM predictions ORDER BY submitted_at DESC, run_date DESC, rank ASC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest prediction: %w", err)
	}
	return &p, nil
}

func fromRecord(runDate string, r screen.Record) Prediction {
	return Prediction{
		RunDate:     runDate,
		Rank:        r.Rank,
		File:        r.File,
		PDFLink:     r.PDFLink,
		Company:     r.Company,
		ScripCode:   r.ScripCode,
		Impact:      r.Impact,
		Summary:     r.Summary,
		PriceRange:  r.PriceRange,
		Rationale:   r.Rationale,
		ImpactScore: r.ImpactScore,
		MidPercent:  r.MidPercent,
	}
}
