package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/application/resolver"
	"github.com/printdock/labelsync/internal/domain/entity"
	"github.com/printdock/labelsync/internal/infrastructure/storage"
)

type fakeSource struct {
	mu        sync.Mutex
	records   []entity.Record
	subs      map[string]entity.Record
	listErr   error
	release   chan struct{}
	listCalls int
}

func (f *fakeSource) ListRecords(ctx context.Context) ([]entity.Record, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeSource) GetRecord(ctx context.Context, id string) (*entity.Record, error) {
	if rec, ok := f.subs[id]; ok {
		return &rec, nil
	}
	return nil, fmt.Errorf("record %s not found", id)
}

type fakeAssetResolver struct {
	mu    sync.Mutex
	calls []entity.AssetReference
	fn    func(ref entity.AssetReference) (entity.LocalAsset, error)
}

func (f *fakeAssetResolver) Resolve(ctx context.Context, ref entity.AssetReference) (entity.LocalAsset, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ref)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ref)
	}
	return entity.LocalAsset{
		LocalPath: "/data/" + ref.SuggestedName,
		PublicURL: "app://assets/" + ref.SuggestedName,
		SizeBytes: 128,
	}, nil
}

func (f *fakeAssetResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakePreviewGenerator struct {
	mu    sync.Mutex
	calls []string
	fn    func(pdfPath, name string) (*entity.PreviewAsset, error)
}

func (f *fakePreviewGenerator) GeneratePreview(ctx context.Context, pdfPath, name string) (*entity.PreviewAsset, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pdfPath)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(pdfPath, name)
	}
	return &entity.PreviewAsset{
		LocalPath: pdfPath + "_preview.png",
		PublicURL: "app://previews/" + name + "_preview.png",
		Converter: "fake",
	}, nil
}

type memProductRepo struct {
	mu   sync.Mutex
	rows map[string]entity.Product
	err  error
}

func (r *memProductRepo) CreateOrUpdate(ctx context.Context, p *entity.Product) (port.UpsertOutcome, error) {
	if r.err != nil {
		return "", r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows == nil {
		r.rows = make(map[string]entity.Product)
	}
	existing, ok := r.rows[p.ID]
	if ok &&
		existing.Name == p.Name &&
		existing.SKU == p.SKU &&
		existing.Category == p.Category &&
		existing.ImageURL == p.ImageURL &&
		existing.LocalImagePath == p.LocalImagePath &&
		existing.ImagePublicURL == p.ImagePublicURL {
		return port.UpsertUnchanged, nil
	}
	r.rows[p.ID] = *p
	if ok {
		return port.UpsertUpdated, nil
	}
	return port.UpsertCreated, nil
}

func (r *memProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.rows[id]; ok {
		return &p, nil
	}
	return nil, fmt.Errorf("product %s not found", id)
}

func (r *memProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	return nil, nil
}

func (r *memProductRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows), nil
}

type memStickerRepo struct {
	mu   sync.Mutex
	rows map[string][]entity.Sticker
	err  error
}

func (r *memStickerRepo) Upsert(ctx context.Context, sticker *entity.Sticker) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows == nil {
		r.rows = make(map[string][]entity.Sticker)
	}
	list := r.rows[sticker.ProductID]
	for i := range list {
		if list[i].Name == sticker.Name {
			list[i] = *sticker
			return nil
		}
	}
	r.rows[sticker.ProductID] = append(list, *sticker)
	return nil
}

func (r *memStickerRepo) GetByProductID(ctx context.Context, productID string) ([]*entity.Sticker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Sticker
	for i := range r.rows[productID] {
		s := r.rows[productID][i]
		out = append(out, &s)
	}
	return out, nil
}

func (r *memStickerRepo) List(ctx context.Context, limit, offset int) ([]*entity.Sticker, error) {
	return nil, nil
}

func (r *memStickerRepo) byProduct(productID string) []entity.Sticker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Sticker(nil), r.rows[productID]...)
}

type memRunsRepo struct {
	mu        sync.Mutex
	created   []entity.SyncRun
	completed map[string]entity.SyncReport
	failed    map[string]string
}

func (r *memRunsRepo) Create(ctx context.Context, run *entity.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, *run)
	return nil
}

func (r *memRunsRepo) Complete(ctx context.Context, id string, report entity.SyncReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completed == nil {
		r.completed = make(map[string]entity.SyncReport)
	}
	r.completed[id] = report
	return nil
}

func (r *memRunsRepo) Fail(ctx context.Context, id string, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed == nil {
		r.failed = make(map[string]string)
	}
	r.failed[id] = message
	return nil
}

func (r *memRunsRepo) GetLatest(ctx context.Context) (*entity.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.created) == 0 {
		return nil, nil
	}
	run := r.created[len(r.created)-1]
	return &run, nil
}

func (r *memRunsRepo) LastSyncedAt(ctx context.Context) (*time.Time, error) {
	return nil, nil
}

func (r *memRunsRepo) failedMessage(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.failed[id]
	return msg, ok
}

func (r *memRunsRepo) completedReport(id string) (entity.SyncReport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.completed[id]
	return report, ok
}

type fixture struct {
	source   *fakeSource
	resolver *fakeAssetResolver
	previews *fakePreviewGenerator
	products *memProductRepo
	stickers *memStickerRepo
	runs     *memRunsRepo
	svc      *Service
}

func newFixture(source *fakeSource) *fixture {
	f := &fixture{
		source:   source,
		resolver: &fakeAssetResolver{},
		previews: &fakePreviewGenerator{},
		products: &memProductRepo{},
		stickers: &memStickerRepo{},
		runs:     &memRunsRepo{},
	}
	f.svc = NewService(f.source, f.resolver, f.previews, f.products, f.stickers, f.runs, zap.NewNop())
	return f
}

func TestServiceRunCreatesProductsAndStickers(t *testing.T) {
	source := &fakeSource{
		records: []entity.Record{
			record("page-1", map[string]entity.PropertyValue{
				"Name":       titleProp("Blue Widget"),
				"SKU":        textProp("BW-001"),
				"Image Link": urlProp("https://example.com/widget.png"),
				"Stickers":   relationProp("sub-1"),
			}),
			record("page-2", map[string]entity.PropertyValue{
				"Name": titleProp("Plain Box"),
			}),
		},
		subs: map[string]entity.Record{
			"sub-1": record("sub-1", map[string]entity.PropertyValue{
				"Name": titleProp("Shelf Label"),
				"Size": selectProp("100x50"),
				"PDF":  urlProp("https://example.com/shelf.pdf"),
			}),
		},
	}
	f := newFixture(source)

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Errors)
	assert.Equal(t, 2, report.Total())
	assert.Equal(t, entity.SyncStateIdle, f.svc.State())

	widget, err := f.products.GetByID(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Equal(t, "Blue Widget", widget.Name)
	assert.Equal(t, "BW-001", widget.SKU)
	assert.NotEmpty(t, widget.LocalImagePath)

	labels := f.stickers.byProduct("page-1")
	require.Len(t, labels, 1)
	assert.Equal(t, "Shelf Label", labels[0].Name)
	assert.Equal(t, "100x50", labels[0].Size)
	assert.NotEmpty(t, labels[0].LocalPDFPath)
	assert.NotEmpty(t, labels[0].PreviewPath)
	assert.False(t, labels[0].IsDefault)

	// No sticker data on page-2, so a default entry is synthesized.
	defaults := f.stickers.byProduct("page-2")
	require.Len(t, defaults, 1)
	assert.Equal(t, "Plain Box", defaults[0].Name)
	assert.True(t, defaults[0].IsDefault)
	assert.Empty(t, defaults[0].PDFURL)
	assert.Empty(t, defaults[0].LocalPDFPath)

	runID := f.svc.CurrentRunID()
	got, ok := f.runs.completedReport(runID)
	require.True(t, ok)
	assert.Equal(t, report, got)
}

func TestServiceRunSecondPassSkipsUnchanged(t *testing.T) {
	source := &fakeSource{
		records: []entity.Record{
			record("page-1", map[string]entity.PropertyValue{
				"Name":       titleProp("Blue Widget"),
				"Image Link": urlProp("https://example.com/widget.png"),
			}),
		},
	}
	f := newFixture(source)

	first, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 1, second.Total())
}

func TestServiceRunFetchFailureAborts(t *testing.T) {
	source := &fakeSource{listErr: errors.New("api unreachable")}
	f := newFixture(source)

	_, err := f.svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch record listing")
	assert.Equal(t, entity.SyncStateIdle, f.svc.State())

	msg, ok := f.runs.failedMessage(f.svc.CurrentRunID())
	require.True(t, ok)
	assert.Contains(t, msg, "api unreachable")

	assert.Equal(t, 0, f.resolver.callCount())
}

func TestServiceRunIsolatesRecordFailures(t *testing.T) {
	source := &fakeSource{
		records: []entity.Record{
			record("page-1", map[string]entity.PropertyValue{
				"Name":       titleProp("Good One"),
				"Image Link": urlProp("https://example.com/one.png"),
			}),
			record("page-2", map[string]entity.PropertyValue{
				"Name":       titleProp("Bad Apple"),
				"Image Link": urlProp("https://example.com/boom.png"),
			}),
			record("page-3", map[string]entity.PropertyValue{
				"Name":       titleProp("Good Two"),
				"Image Link": urlProp("https://example.com/two.png"),
			}),
		},
	}
	f := newFixture(source)
	f.resolver.fn = func(ref entity.AssetReference) (entity.LocalAsset, error) {
		if strings.Contains(ref.SourceURL, "boom") {
			panic("corrupt download buffer")
		}
		return entity.LocalAsset{LocalPath: "/data/" + ref.SuggestedName, SizeBytes: 64}, nil
	}

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 3, report.Total())

	_, err = f.products.GetByID(context.Background(), "page-1")
	assert.NoError(t, err)
	_, err = f.products.GetByID(context.Background(), "page-3")
	assert.NoError(t, err)
}

func TestServiceRunTalliesResolutionFailures(t *testing.T) {
	source := &fakeSource{
		records: []entity.Record{
			record("page-1", map[string]entity.PropertyValue{
				"Name":       titleProp("Unreachable"),
				"Image Link": urlProp("https://example.com/gone.png"),
			}),
		},
	}
	f := newFixture(source)
	f.resolver.fn = func(ref entity.AssetReference) (entity.LocalAsset, error) {
		return entity.LocalAsset{
			LocalPath: "/data/placeholder.png",
			PublicURL: "app://images/placeholder.png",
			SizeBytes: 0,
		}, errors.New("all strategies failed")
	}

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.Total())

	// The product row still lands, pointing at the placeholder.
	p, err := f.products.GetByID(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Equal(t, "/data/placeholder.png", p.LocalImagePath)
}

func TestServiceRunStickerFetchFailureKeepsSiblings(t *testing.T) {
	source := &fakeSource{
		records: []entity.Record{
			record("page-1", map[string]entity.PropertyValue{
				"Name":     titleProp("Blue Widget"),
				"Stickers": relationProp("sub-ok", "sub-missing"),
			}),
		},
		subs: map[string]entity.Record{
			"sub-ok": record("sub-ok", map[string]entity.PropertyValue{
				"Name": titleProp("Shelf Label"),
				"PDF":  urlProp("https://example.com/shelf.pdf"),
			}),
		},
	}
	f := newFixture(source)

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)

	labels := f.stickers.byProduct("page-1")
	require.Len(t, labels, 1)
	assert.Equal(t, "Shelf Label", labels[0].Name)
}

func TestServiceRunFlatStickerFields(t *testing.T) {
	source := &fakeSource{
		records: []entity.Record{
			record("page-1", map[string]entity.PropertyValue{
				"Name":                      titleProp("Blue Widget"),
				"Sticker: Shelf Label (A7)": urlProp("https://example.com/shelf.pdf"),
			}),
		},
	}
	f := newFixture(source)

	report, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Errors)

	labels := f.stickers.byProduct("page-1")
	require.Len(t, labels, 1)
	assert.Equal(t, "Shelf Label", labels[0].Name)
	assert.Equal(t, "A7", labels[0].Size)
	assert.NotEmpty(t, labels[0].LocalPDFPath)
}

func TestServiceRejectsConcurrentPasses(t *testing.T) {
	source := &fakeSource{
		records: []entity.Record{
			record("page-1", map[string]entity.PropertyValue{
				"Name": titleProp("Blue Widget"),
			}),
		},
		release: make(chan struct{}),
	}
	f := newFixture(source)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Run(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		return f.svc.State() == entity.SyncStateFetching
	}, time.Second, 5*time.Millisecond)

	_, err := f.svc.Run(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)

	_, err = f.svc.Trigger()
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(source.release)
	require.NoError(t, <-done)
	assert.Equal(t, entity.SyncStateIdle, f.svc.State())

	// The slot frees up once the pass finishes.
	_, err = f.svc.Run(context.Background())
	assert.NoError(t, err)
}

func TestServiceTriggerRunsInBackground(t *testing.T) {
	source := &fakeSource{
		records: []entity.Record{
			record("page-1", map[string]entity.PropertyValue{
				"Name": titleProp("Blue Widget"),
			}),
		},
	}
	f := newFixture(source)

	runID, err := f.svc.Trigger()
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.Eventually(t, func() bool {
		_, ok := f.runs.completedReport(runID)
		return ok
	}, time.Second, 5*time.Millisecond)

	report, _ := f.runs.completedReport(runID)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, entity.SyncStateIdle, f.svc.State())
}

// stubStrategy feeds a canned payload to the real resolver.
type stubStrategy struct {
	mu      sync.Mutex
	payload []byte
	fetches int
}

func (s *stubStrategy) Name() string { return "stub" }

func (s *stubStrategy) Fetch(ctx context.Context, src entity.AssetSource) ([]byte, error) {
	s.mu.Lock()
	s.fetches++
	s.mu.Unlock()
	return s.payload, nil
}

func (s *stubStrategy) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

type stubChain struct {
	strategy *stubStrategy
	planned  []entity.AssetReference
}

func (c *stubChain) Plan(ref entity.AssetReference) (entity.AssetSource, []port.DownloadStrategy) {
	c.planned = append(c.planned, ref)
	return entity.AssetSource{URL: ref.SourceURL, Kind: ref.Kind}, []port.DownloadStrategy{c.strategy}
}

// Full pass over one drive-linked record with the real resolver and store:
// the image lands on disk under the sanitized product name, the product row
// references it through an app URL and the missing sticker data yields a
// single default entry. A second pass reuses the cached file without
// another download.
func TestServiceEndToEndDriveImage(t *testing.T) {
	driveURL := "https://drive.google.com/uc?id=" + strings.Repeat("a1B_", 8)
	source := &fakeSource{
		records: []entity.Record{
			record("page-1", map[string]entity.PropertyValue{
				"Name":       titleProp("Blue Widget"),
				"Image Link": urlProp(driveURL),
			}),
		},
	}

	store := storage.NewLocalAssetStore(t.TempDir(), zap.NewNop())
	require.NoError(t, store.EnsureLayout())

	strategy := &stubStrategy{payload: []byte("png-bytes")}
	res := resolver.New(&stubChain{strategy: strategy}, store, zap.NewNop())

	products := &memProductRepo{}
	stickers := &memStickerRepo{}
	runs := &memRunsRepo{}
	svc := NewService(source, res, &fakePreviewGenerator{}, products, stickers, runs, zap.NewNop())

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Errors)

	p, err := products.GetByID(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Equal(t, driveURL, p.ImageURL)
	assert.Equal(t, "app://images/Blue_Widget.png", p.ImagePublicURL)
	assert.Greater(t, store.FileSize(p.LocalImagePath), int64(0), "image must not be a placeholder")

	labels := stickers.byProduct("page-1")
	require.Len(t, labels, 1)
	assert.True(t, labels[0].IsDefault)
	assert.Equal(t, "Blue Widget", labels[0].Name)
	assert.Empty(t, labels[0].PDFURL)

	// Second pass: the cached image short-circuits the download.
	report, err = svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, strategy.fetchCount())
}
