package source

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/fraud-pipeline/internal/domain"
	"github.com/dvloznov/fraud-pipeline/internal/logger"
)

// GCSSource reads a transaction CSV batch from a Google Cloud Storage
// object.
type GCSSource struct {
	Bucket string
	Object string
}

// NewGCSSource creates a GCSSource for the given bucket and object.
func NewGCSSource(bucket, object string) *GCSSource {
	return &GCSSource{Bucket: bucket, Object: object}
}

// Name identifies the source for run tracking and logs.
func (s *GCSSource) Name() string {
	return fmt.Sprintf("gs://%s/%s", s.Bucket, s.Object)
}

// Load downloads and parses the object. A missing object is non-fatal:
// it logs a warning and returns an empty batch.
func (s *GCSSource) Load(ctx context.Context) ([]domain.Record, error) {
	log := logger.FromContext(ctx)

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(s.Bucket).Object(s.Object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		log.Warn().Str("uri", s.Name()).Msg("input object not found, yielding empty batch")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	recs, err := ReadRecords(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Name(), err)
	}

	log.Info().Int("records", len(recs)).Str("uri", s.Name()).Msg("Ingested transaction batch")
	return recs, nil
}
