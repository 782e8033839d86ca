package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
)

// ErrSyncInProgress is returned when a pass is requested while another one
// is still running.
var ErrSyncInProgress = errors.New("sync already in progress")

// Service drives full sync passes: fetch every record from the source,
// mirror its assets, render previews and persist the results. Only one
// pass runs at a time.
type Service struct {
	source   port.RecordSource
	resolver port.AssetResolver
	previews port.PreviewGenerator
	products port.ProductRepository
	stickers port.StickerRepository
	runs     port.SyncRunRepository
	logger   *zap.Logger

	mu    sync.Mutex
	state string
	runID string
}

// NewService creates a new sync Service
func NewService(
	source port.RecordSource,
	resolver port.AssetResolver,
	previews port.PreviewGenerator,
	products port.ProductRepository,
	stickers port.StickerRepository,
	runs port.SyncRunRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		source:   source,
		resolver: resolver,
		previews: previews,
		products: products,
		stickers: stickers,
		runs:     runs,
		logger:   logger,
		state:    entity.SyncStateIdle,
	}
}

// State returns the current pipeline state.
func (s *Service) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentRunID returns the run ID of the pass in flight, or the last one
// started when the pipeline is idle.
func (s *Service) CurrentRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Run executes one sync pass synchronously and returns its report.
func (s *Service) Run(ctx context.Context) (entity.SyncReport, error) {
	runID, err := s.begin()
	if err != nil {
		return entity.SyncReport{}, err
	}
	return s.run(ctx, runID)
}

// Trigger starts a sync pass in the background and returns its run ID
// immediately. The pass detaches from the caller's context so an HTTP
// client disconnect does not abort it.
func (s *Service) Trigger() (string, error) {
	runID, err := s.begin()
	if err != nil {
		return "", err
	}
	go func() {
		if _, err := s.run(context.Background(), runID); err != nil {
			s.logger.Error("Background sync pass failed",
				zap.String("run_id", runID),
				zap.Error(err))
		}
	}()
	return runID, nil
}

// begin claims the single-flight slot, moving the pipeline out of idle and
// minting a run ID. Callers that got a run ID own the pass until run
// returns.
func (s *Service) begin() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != entity.SyncStateIdle {
		return "", ErrSyncInProgress
	}
	s.state = entity.SyncStateFetching
	s.runID = uuid.NewString()
	return s.runID, nil
}

func (s *Service) setState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// run executes the pass owned by runID. The pipeline returns to idle on
// every exit path.
func (s *Service) run(ctx context.Context, runID string) (entity.SyncReport, error) {
	defer s.setState(entity.SyncStateIdle)

	startedAt := time.Now().UTC()
	if err := s.runs.Create(ctx, &entity.SyncRun{
		ID:        runID,
		State:     entity.SyncRunRunning,
		StartedAt: startedAt,
	}); err != nil {
		// Run bookkeeping must not block the pass itself.
		s.logger.Warn("Failed to record sync run", zap.String("run_id", runID), zap.Error(err))
	}

	s.logger.Info("Sync pass started", zap.String("run_id", runID))

	records, err := s.source.ListRecords(ctx)
	if err != nil {
		message := fmt.Sprintf("failed to fetch record listing: %v", err)
		if failErr := s.runs.Fail(ctx, runID, message); failErr != nil {
			s.logger.Warn("Failed to record sync failure", zap.String("run_id", runID), zap.Error(failErr))
		}
		s.logger.Error("Sync pass aborted",
			zap.String("run_id", runID),
			zap.Error(err))
		return entity.SyncReport{}, fmt.Errorf("failed to fetch record listing: %w", err)
	}

	s.setState(entity.SyncStateProcessing)
	s.logger.Info("Processing records",
		zap.String("run_id", runID),
		zap.Int("count", len(records)))

	var report entity.SyncReport
	for _, record := range records {
		outcome, err := s.processRecord(ctx, record)
		if err != nil {
			report.Errors++
			s.logger.Error("Record processing failed",
				zap.String("run_id", runID),
				zap.String("record_id", record.ID),
				zap.Error(err))
			continue
		}
		switch outcome {
		case port.UpsertCreated:
			report.Created++
		case port.UpsertUpdated:
			report.Updated++
		default:
			report.Skipped++
		}
	}

	s.setState(entity.SyncStateFinalizing)

	report.Message = fmt.Sprintf("Synced %d records: %d created, %d updated, %d skipped, %d errors",
		len(records), report.Created, report.Updated, report.Skipped, report.Errors)

	if err := s.runs.Complete(ctx, runID, report); err != nil {
		s.logger.Warn("Failed to record sync completion", zap.String("run_id", runID), zap.Error(err))
	}

	s.logger.Info("Sync pass finished",
		zap.String("run_id", runID),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", report.Errors),
		zap.Duration("took", time.Since(startedAt)))

	return report, nil
}

// processRecord turns one source record into a persisted product with its
// stickers and mirrored assets. A panic inside record handling surfaces as
// that record's error so one malformed row can never abort the batch.
func (s *Service) processRecord(ctx context.Context, record entity.Record) (outcome port.UpsertOutcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			outcome = ""
			err = fmt.Errorf("panic while processing record %s: %v", record.ID, p)
		}
	}()

	fields := extractProductFields(record)
	name := fields.Name
	if name == "" {
		name = "Untitled"
	}

	product := &entity.Product{
		ID:       record.ID,
		Name:     name,
		SKU:      fields.SKU,
		Category: fields.Category,
		ImageURL: fields.ImageURL,
	}

	var recordErrs []error

	if fields.ImageURL != "" {
		asset, resolveErr := s.resolver.Resolve(ctx, entity.AssetReference{
			SourceURL:     fields.ImageURL,
			Kind:          entity.AssetKindImage,
			SuggestedName: name,
		})
		if resolveErr != nil {
			recordErrs = append(recordErrs, resolveErr)
		}
		product.LocalImagePath = asset.LocalPath
		product.ImagePublicURL = asset.PublicURL
	}

	inputs, stickerErrs := s.collectStickers(ctx, record)
	recordErrs = append(recordErrs, stickerErrs...)
	if len(inputs) == 0 {
		// Every product lists at least one sticker entry so the UI always
		// has something to print.
		inputs = []entity.StickerInput{{Name: name, IsDefault: true}}
	}

	saved := make([]*entity.Sticker, 0, len(inputs))
	for _, in := range inputs {
		sticker, stickerErr := s.materializeSticker(ctx, record.ID, name, in)
		if stickerErr != nil {
			recordErrs = append(recordErrs, stickerErr)
		}
		saved = append(saved, sticker)
	}

	outcome, upsertErr := s.products.CreateOrUpdate(ctx, product)
	if upsertErr != nil {
		return "", fmt.Errorf("failed to persist product %s: %w", record.ID, upsertErr)
	}

	for _, sticker := range saved {
		if upsertErr := s.stickers.Upsert(ctx, sticker); upsertErr != nil {
			recordErrs = append(recordErrs, fmt.Errorf("failed to persist sticker %q: %w", sticker.Name, upsertErr))
		}
	}

	if len(recordErrs) > 0 {
		return "", errors.Join(recordErrs...)
	}
	return outcome, nil
}

// collectStickers extracts sticker inputs for a record: related sub-records
// take precedence, flat "Sticker: ..." fields serve as the fallback. Fetch
// failures for individual sub-records are reported without discarding the
// rest.
func (s *Service) collectStickers(ctx context.Context, record entity.Record) ([]entity.StickerInput, []error) {
	ids := relationIDs(record)
	if len(ids) == 0 {
		return flatStickers(record), nil
	}

	var (
		inputs []entity.StickerInput
		errs   []error
	)
	for _, id := range ids {
		sub, err := s.source.GetRecord(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to fetch sticker record %s: %w", id, err))
			continue
		}
		in := stickerFromRecord(*sub)
		if in.Name == "" {
			in.Name = "Sticker"
		}
		inputs = append(inputs, in)
	}
	return inputs, errs
}

// materializeSticker mirrors the sticker's PDF and renders its preview,
// returning the sticker row to persist. The row is always returned; the
// error reports any asset work that failed along the way.
func (s *Service) materializeSticker(ctx context.Context, productID, productName string, in entity.StickerInput) (*entity.Sticker, error) {
	sticker := &entity.Sticker{
		ProductID: productID,
		Name:      in.Name,
		Size:      in.Size,
		PDFURL:    in.PDFURL,
		IsDefault: in.IsDefault,
	}
	if in.PDFURL == "" {
		return sticker, nil
	}

	baseName := productName + "-" + in.Name
	asset, resolveErr := s.resolver.Resolve(ctx, entity.AssetReference{
		SourceURL:     in.PDFURL,
		Kind:          entity.AssetKindPDF,
		SuggestedName: baseName,
	})
	sticker.LocalPDFPath = asset.LocalPath
	sticker.PDFPublicURL = asset.PublicURL
	if resolveErr != nil {
		return sticker, resolveErr
	}

	preview, previewErr := s.previews.GeneratePreview(ctx, asset.LocalPath, baseName)
	if previewErr != nil {
		return sticker, fmt.Errorf("failed to render preview for sticker %q: %w", in.Name, previewErr)
	}
	if preview != nil {
		sticker.PreviewPath = preview.LocalPath
		sticker.PreviewPublicURL = preview.PublicURL
	}
	return sticker, nil
}
