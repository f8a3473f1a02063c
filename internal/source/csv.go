// Package source supplies raw transaction batches to the screening
// pipeline. Sources are forgiving about absent input: a missing file
// or object yields an empty batch with a warning, not an error.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/dvloznov/fraud-pipeline/internal/domain"
	"github.com/dvloznov/fraud-pipeline/internal/logger"
)

// FileSource reads a transaction batch from a local CSV file.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for the given CSV path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name identifies the source for run tracking and logs.
func (s *FileSource) Name() string {
	return s.Path
}

// Load reads the whole CSV into memory. A missing file is non-fatal:
// it logs a warning and returns an empty batch.
func (s *FileSource) Load(ctx context.Context) ([]domain.Record, error) {
	log := logger.FromContext(ctx)

	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", s.Path).Msg("input file not found, yielding empty batch")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	recs, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}

	log.Info().Int("records", len(recs)).Str("path", s.Path).Msg("Ingested transaction batch")
	return recs, nil
}

// ReadRecords parses CSV content into records. The first row is the
// header; field names are kept as-is (the normalizer canonicalizes
// them later). Values are type-inferred the way the upstream feed is
// loaded: numeric strings become float64, everything else stays a
// string.
func ReadRecords(r io.Reader) ([]domain.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var recs []domain.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(recs)+2, err)
		}

		rec := make(domain.Record, len(header))
		for i, name := range header {
			if i >= len(row) {
				break
			}
			rec[name] = inferValue(row[i])
		}
		recs = append(recs, rec)
	}

	return recs, nil
}

func inferValue(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return s
}
