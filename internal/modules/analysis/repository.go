package analysis

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotRepository persists analysis snapshots as msgpack payloads.
type SnapshotRepository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a snapshot repository.
func NewSnapshotRepository(db *sqlx.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repo", "analysis_runs").Logger(),
	}
}

// EncodeSnapshot serialises a snapshot with msgpack using its json field names.
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(payload []byte) (*Snapshot, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.SetCustomStructTag("json")
	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// Save stores a snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, snap *Snapshot) error {
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	excluded := 0
	if snap.Report != nil {
		excluded = len(snap.Report.Excluded)
	}

	query := r.db.Rebind(`INSERT INTO analysis_runs (run_id, generated_at, companies, excluded, payload)
		VALUES (?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, snap.RunID, snap.GeneratedAt.UTC(), snap.Report.Len(), excluded, payload); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.RunID, err)
	}

	r.log.Debug().
		Str("run_id", snap.RunID).
		Int("bytes", len(payload)).
		Msg("Saved analysis snapshot")
	return nil
}

// Latest returns the most recent snapshot, or nil when none is stored.
func (r *SnapshotRepository) Latest(ctx context.Context) (*Snapshot, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload,
		"SELECT payload FROM analysis_runs ORDER BY generated_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	return DecodeSnapshot(payload)
}

// RunSummary is the index row of a stored run.
type RunSummary struct {
	RunID       string    `json:"run_id" db:"run_id"`
	GeneratedAt time.Time `json:"generated_at" db:"generated_at"`
	Companies   int       `json:"companies" db:"companies"`
	Excluded    int       `json:"excluded" db:"excluded"`
}

// List returns the most recent runs, newest first.
func (r *SnapshotRepository) List(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []RunSummary
	query := r.db.Rebind(`SELECT run_id, generated_at, companies, excluded
		FROM analysis_runs ORDER BY generated_at DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	return runs, nil
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (r *SnapshotRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	query := r.db.Rebind(`DELETE FROM analysis_runs WHERE run_id NOT IN (
		SELECT run_id FROM analysis_runs ORDER BY generated_at DESC LIMIT ?)`)
	res, err := r.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune analysis runs: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.log.Info().Int64("removed", n).Msg("Pruned old analysis runs")
	}
	return n, nil
}
