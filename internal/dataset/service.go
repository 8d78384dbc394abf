// Package dataset runs the upload pipeline: parse, summarize, store, and
// report on equipment files, with a per-owner retention limit.
package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/equipment-visualizer/backend/internal/analysis"
	"github.com/equipment-visualizer/backend/internal/config"
	"github.com/equipment-visualizer/backend/internal/metrics"
	"github.com/equipment-visualizer/backend/internal/models"
	"github.com/equipment-visualizer/backend/internal/parser"
	"github.com/equipment-visualizer/backend/internal/report"
	"github.com/equipment-visualizer/backend/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngestResult is an accepted upload.
type IngestResult struct {
	Dataset *models.Dataset
	Table   *models.Table
	Evicted []*models.Dataset
}

// ReportResult is a rendered report.
type ReportResult struct {
	Dataset  *models.Dataset
	View     *report.ViewModel
	PDF      []byte
	Filename string
}

// Service coordinates parsing, storage and rendering.
type Service struct {
	repo      storage.Repository
	blobs     storage.BlobStore
	renderer  *report.Renderer
	retention config.RetentionConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
	locks     *ownerLocks
	now       func() time.Time
}

// NewService creates a Service.
func NewService(repo storage.Repository, blobs storage.BlobStore, renderer *report.Renderer,
	retention config.RetentionConfig, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		blobs:     blobs,
		renderer:  renderer,
		retention: retention,
		metrics:   m,
		logger:    logger.Named("dataset"),
		locks:     newOwnerLocks(),
		now:       time.Now,
	}
}

// ReportFilename is the attachment name of a dataset's report.
func ReportFilename(id string) string {
	return fmt.Sprintf("report_%s.pdf", id)
}

// Ingest validates and stores an uploaded file. Either the dataset is
// stored and retention applied, or nothing changes.
func (s *Service) Ingest(ctx context.Context, owner, filename string, r io.Reader) (*IngestResult, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		s.metrics.RecordUpload(metrics.ResultInvalid, 0)
		return nil, models.NewValidationError("file", "file name is required")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		s.metrics.RecordUpload(metrics.ResultError, 0)
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	table, err := parser.ParseEquipmentCSV(bytes.NewReader(data))
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			s.metrics.RecordUpload(metrics.ResultInvalid, 0)
		} else {
			s.metrics.RecordUpload(metrics.ResultError, 0)
		}
		return nil, err
	}
	summary := analysis.Summarize(table)

	unlock := s.locks.lock(owner)
	ds, evicted, err := s.create(ctx, owner, filename, data, summary)
	unlock()
	if err != nil {
		var le *models.LimitExceededError
		if errors.As(err, &le) {
			s.metrics.RecordUpload(metrics.ResultRejected, 0)
		} else {
			s.metrics.RecordUpload(metrics.ResultError, 0)
		}
		return nil, err
	}

	for _, old := range evicted {
		s.dropBlobs(ctx, old)
		s.logger.Info("dataset evicted",
			zap.String("owner", owner),
			zap.String("id", old.ID),
			zap.String("filename", old.Filename))
	}
	s.metrics.RecordEvictions(len(evicted))
	s.metrics.RecordUpload(metrics.ResultOK, table.Len())

	s.logger.Info("dataset stored",
		zap.String("owner", owner),
		zap.String("id", ds.ID),
		zap.String("filename", filename),
		zap.Int("rows", table.Len()))

	return &IngestResult{Dataset: ds, Table: table, Evicted: evicted}, nil
}

// create runs under the owner lock.
func (s *Service) create(ctx context.Context, owner, filename string, data []byte, summary models.Summary) (*models.Dataset, []*models.Dataset, error) {
	limit, err := s.Limit(ctx, owner)
	if err != nil {
		return nil, nil, err
	}

	if s.retention.Mode == config.RetentionReject {
		n, err := s.repo.Count(ctx, owner)
		if err != nil {
			return nil, nil, err
		}
		if n >= limit {
			return nil, nil, &models.LimitExceededError{Limit: limit}
		}
	}

	blob, err := s.blobs.Save(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("storing upload: %w", err)
	}

	ds := &models.Dataset{
		ID:         uuid.New().String(),
		Owner:      owner,
		Filename:   filename,
		UploadedAt: s.now().UTC().Truncate(time.Microsecond),
		Summary:    summary,
		RawKey:     blob.Key,
		RawSize:    blob.Size,
	}

	evicted, err := s.repo.Create(ctx, ds, limit)
	if err != nil {
		if derr := s.blobs.Delete(ctx, blob.Key); derr != nil {
			s.logger.Warn("removing orphaned upload", zap.String("key", blob.Key), zap.Error(derr))
		}
		return nil, nil, err
	}
	return ds, evicted, nil
}

// dropBlobs removes a deleted dataset's files. Failures only leak storage.
func (s *Service) dropBlobs(ctx context.Context, ds *models.Dataset) {
	for _, key := range []string{ds.RawKey, ds.ReportKey} {
		if key == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("deleting blob", zap.String("dataset", ds.ID), zap.String("key", key), zap.Error(err))
		}
	}
}

// Limit returns the owner's retention limit.
func (s *Service) Limit(ctx context.Context, owner string) (int, error) {
	limit, ok, err := s.repo.OwnerLimit(ctx, owner)
	if err != nil {
		return 0, err
	}
	if ok {
		return limit, nil
	}
	return s.retention.LimitFor(owner), nil
}

// SetLimit stores an owner's limit and evicts anything above it now.
func (s *Service) SetLimit(ctx context.Context, owner string, limit int) ([]*models.Dataset, error) {
	if limit < 1 || limit > s.retention.MaxLimit {
		return nil, models.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", s.retention.MaxLimit))
	}

	unlock := s.locks.lock(owner)
	defer unlock()

	if err := s.repo.SetOwnerLimit(ctx, owner, limit); err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx, owner, 0)
	if err != nil {
		return nil, err
	}

	var evicted []*models.Dataset
	for _, ds := range all[min(limit, len(all)):] {
		if _, err := s.repo.Delete(ctx, ds.ID, owner); err != nil {
			return evicted, err
		}
		s.dropBlobs(ctx, ds)
		evicted = append(evicted, ds)
	}
	s.metrics.RecordEvictions(len(evicted))
	return evicted, nil
}

// List returns the owner's datasets newest first.
func (s *Service) List(ctx context.Context, owner string) ([]*models.Dataset, error) {
	limit, err := s.Limit(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, owner, limit)
}

// Get returns a dataset record with its parsed rows.
func (s *Service) Get(ctx context.Context, owner, id string) (*models.Dataset, *models.Table, error) {
	ds, err := s.repo.Get(ctx, id, owner)
	if err != nil {
		return nil, nil, err
	}
	table, err := s.load(ctx, ds)
	if err != nil {
		return nil, nil, err
	}
	return ds, table, nil
}

func (s *Service) load(ctx context.Context, ds *models.Dataset) (*models.Table, error) {
	data, err := storage.ReadAll(ctx, s.blobs, ds.RawKey)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", ds.ID, err)
	}
	table, err := parser.ParseEquipmentCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("re-parsing dataset %s: %w", ds.ID, err)
	}
	return table, nil
}

// Latest returns the owner's newest dataset.
func (s *Service) Latest(ctx context.Context, owner string) (*models.Dataset, error) {
	return s.repo.Latest(ctx, owner)
}

// Delete removes a dataset and its files.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	unlock := s.locks.lock(owner)
	ds, err := s.repo.Delete(ctx, id, owner)
	unlock()
	if err != nil {
		return err
	}
	s.dropBlobs(ctx, ds)
	s.logger.Info("dataset deleted", zap.String("owner", owner), zap.String("id", id))
	return nil
}

// Report renders a fresh report for a dataset and keeps it as the
// dataset's last report.
func (s *Service) Report(ctx context.Context, owner, id string, sel report.Selection) (*ReportResult, error) {
	ds, table, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, ds, table, sel)
}

// LatestReport renders the report of the owner's newest dataset.
func (s *Service) LatestReport(ctx context.Context, owner string, sel report.Selection) (*ReportResult, error) {
	ds, err := s.repo.Latest(ctx, owner)
	if err != nil {
		return nil, err
	}
	table, err := s.load(ctx, ds)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, ds, table, sel)
}

func (s *Service) render(ctx context.Context, ds *models.Dataset, table *models.Table, sel report.Selection) (*ReportResult, error) {
	start := time.Now()
	vm, doc, err := s.renderer.Render(report.MetaOf(ds), table, sel)
	if err != nil {
		s.metrics.RecordReport(metrics.ResultError, time.Since(start))
		return nil, err
	}
	s.metrics.RecordReport(metrics.ResultOK, time.Since(start))

	name := ReportFilename(ds.ID)
	s.storeReport(ctx, ds, name, doc)

	return &ReportResult{Dataset: ds, View: vm, PDF: doc, Filename: name}, nil
}

// storeReport keeps doc as the dataset's last report. The render is
// returned to the caller even when keeping it fails.
func (s *Service) storeReport(ctx context.Context, ds *models.Dataset, name string, doc []byte) {
	blob, err := s.blobs.Save(ctx, name, bytes.NewReader(doc))
	if err != nil {
		s.logger.Warn("storing report", zap.String("dataset", ds.ID), zap.Error(err))
		return
	}
	at := s.now().UTC().Truncate(time.Microsecond)
	prev, err := s.repo.SetReport(ctx, ds.ID, blob.Key, at)
	if err != nil {
		// dataset deleted or evicted while rendering
		s.logger.Warn("recording report", zap.String("dataset", ds.ID), zap.Error(err))
		_ = s.blobs.Delete(ctx, blob.Key)
		return
	}
	ds.ReportKey, ds.ReportAt = blob.Key, &at
	if prev != "" && prev != blob.Key {
		if err := s.blobs.Delete(ctx, prev); err != nil {
			s.logger.Warn("deleting previous report", zap.String("key", prev), zap.Error(err))
		}
	}
}

// LastReport returns the most recently stored report of a dataset.
func (s *Service) LastReport(ctx context.Context, owner, id string) (*ReportResult, error) {
	ds, err := s.repo.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if !ds.HasReport() {
		return nil, &models.NotFoundError{Resource: "report", ID: id}
	}
	doc, err := storage.ReadAll(ctx, s.blobs, ds.ReportKey)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, &models.NotFoundError{Resource: "report", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", id, err)
	}
	return &ReportResult{Dataset: ds, PDF: doc, Filename: ReportFilename(id)}, nil
}

// Chart renders one chart of a dataset as PNG.
func (s *Service) Chart(ctx context.Context, owner, id, kind string, sel report.Selection) ([]byte, error) {
	_, table, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return s.renderer.Chart(kind, table, sel)
}
