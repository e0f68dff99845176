package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/fhir-etl/internal/transform"
)

// ErrStoreUnavailable marks the point where upsert failures stop being
// per-record noise and become a dead store. It aborts the run.
var ErrStoreUnavailable = errors.New("store unavailable")

// Sink is where mapped resource documents go. The SQLite store implements
// it; tests substitute a fake.
type Sink interface {
	Upsert(ctx context.Context, kind, id string, doc map[string]interface{}) error
}

// Stats aggregates run-level counts.
type Stats struct {
	Files     int
	Processed int
	Mapped    int
	Skipped   int
	Errored   int
	Elapsed   time.Duration
}

// Driver streams per-table record files through the mapping registry into
// the sink. Files are processed one at a time, records within a file one
// at a time, in source order; the pull-based loop means the driver never
// reads faster than the sink absorbs writes.
type Driver struct {
	sink        Sink
	logger      zerolog.Logger
	maxFailures int
}

func NewDriver(sink Sink, logger zerolog.Logger, maxConsecutiveFailures int) *Driver {
	return &Driver{sink: sink, logger: logger, maxFailures: maxConsecutiveFailures}
}

// Run discovers record files in dir and ingests every file whose table has
// a registered mapping rule. A single bad record never aborts the file or
// the run; an unreadable input directory or an unusable store does.
func (d *Driver) Run(ctx context.Context, dir string) (Stats, error) {
	start := time.Now()
	var stats Stats

	entries, err := os.ReadDir(dir)
	if err != nil {
		return stats, fmt.Errorf("read input directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		table := tableID(entry.Name())
		rule, ok := transform.Lookup(table)
		if !ok {
			d.logger.Debug().Str("file", entry.Name()).Str("table", table).
				Msg("no mapping rule, skipping file")
			continue
		}

		stats.Files++
		if err := d.processFile(ctx, filepath.Join(dir, entry.Name()), table, rule, &stats); err != nil {
			if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, context.Canceled) {
				stats.Elapsed = time.Since(start)
				return stats, err
			}
			// Malformed stream: the rest of this file is unreadable but the
			// batch moves on to the next file.
			stats.Errored++
			d.logger.Error().Err(err).Str("file", entry.Name()).
				Msg("abandoning rest of file")
		}
	}

	stats.Elapsed = time.Since(start)
	d.logger.Info().
		Int("files", stats.Files).
		Int("processed", stats.Processed).
		Int("mapped", stats.Mapped).
		Int("skipped", stats.Skipped).
		Int("errored", stats.Errored).
		Dur("elapsed", stats.Elapsed).
		Msg("ingestion complete")
	return stats, nil
}

// processFile parses one record file as a lazy sequence: the decoder holds
// one record at a time, so file size never bounds memory.
func (d *Driver) processFile(ctx context.Context, path, table string, rule transform.Rule, stats *Stats) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("read %s: expected JSON array, got %v", path, tok)
	}

	d.logger.Info().Str("table", table).Str("kind", rule.Kind).Msg("ingesting table")

	consecutiveFailures := 0
	for dec.More() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var rec transform.Record
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("decode record in %s: %w", path, err)
		}
		stats.Processed++

		doc, err := rule.Map(rec)
		if err != nil {
			stats.Skipped++
			var s *transform.SkipError
			if errors.As(err, &s) {
				d.logger.Warn().Str("table", table).Str("kind", s.Kind).
					Str("reason", s.Reason).Str("record", s.Snapshot).
					Msg("record skipped")
			} else {
				d.logger.Warn().Err(err).Str("table", table).Msg("record skipped")
			}
			continue
		}

		id, _ := doc["id"].(string)
		if err := d.sink.Upsert(ctx, rule.Kind, id, doc); err != nil {
			stats.Errored++
			consecutiveFailures++
			d.logger.Error().Err(err).Str("table", table).Str("id", id).
				Msg("upsert failed, record dropped")
			if consecutiveFailures >= d.maxFailures {
				return fmt.Errorf("%w: %d consecutive upsert failures, last: %v",
					ErrStoreUnavailable, consecutiveFailures, err)
			}
			continue
		}
		consecutiveFailures = 0
		stats.Mapped++
	}

	return nil
}

// tableID derives the registry lookup key from a record filename: the
// extension and the preprocessor's "_preprocessed" suffix are stripped,
// so both tb_encounter.json and tb_encounter_preprocessed.json resolve to
// tb_encounter.
func tableID(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.TrimSuffix(stem, "_preprocessed")
}
