package usecase

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrylens/backend/internal/domain"
)

const fennelReceipt = "SUPERMARKET STORE\nSTORE 0042\nFENNEL\n0,510 kg x 1,79 EUR/kg\nMANGO PZ\nORGANIC QUINOA\nSHOPPER BAGS\nTOTAL 12,50"

// fakePreprocessor encodes the input length as the image width so fake recognizers can tell inputs apart
type fakePreprocessor struct {
	err error
}

func (p *fakePreprocessor) Preprocess(data []byte) (*image.Gray, error) {
	if p.err != nil {
		return nil, p.err
	}
	return image.NewGray(image.Rect(0, 0, len(data), 1)), nil
}

type fakeRecognizer struct {
	text   string
	byLen  map[int]string
	err    error
	called atomic.Int32
}

func (r *fakeRecognizer) Recognize(_ context.Context, img *image.Gray) (string, error) {
	r.called.Add(1)
	if r.err != nil {
		return "", r.err
	}
	if r.byLen != nil {
		return r.byLen[img.Bounds().Dx()], nil
	}
	return r.text, nil
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *mapCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *mapCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

type recordingMetrics struct {
	mu       sync.Mutex
	statuses []string
	skipped  map[string]int
}

func (m *recordingMetrics) ObserveAnalysis(status string, _ time.Duration, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
}

func (m *recordingMetrics) AddSkippedLines(reason string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.skipped == nil {
		m.skipped = make(map[string]int)
	}
	m.skipped[reason] += count
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
}

func newTestReceiptService(t *testing.T, recognizer domain.TextRecognizer, cache domain.CacheRepository, metrics MetricsRecorder) *ReceiptService {
	t.Helper()
	return NewReceiptService(&fakePreprocessor{}, recognizer, newTestCatalog(t), cache, ReceiptServiceConfig{
		Lexicon: englishTestLexicon(t),
		Metrics: metrics,
		Now:     fixedNow,
	})
}

func TestReceiptService_Analyze(t *testing.T) {
	metrics := &recordingMetrics{}
	service := newTestReceiptService(t, &fakeRecognizer{text: fennelReceipt}, nil, metrics)

	result := service.Analyze(context.Background(), []byte("receipt"))

	require.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, fennelReceipt, result.RawText)
	require.Len(t, result.Products, 3)

	fennel := result.Products[0]
	assert.Equal(t, "Fennel", fennel.Name)
	assert.InDelta(t, 0.51, fennel.Quantity, 1e-9)
	assert.Equal(t, domain.UnitKilogram, fennel.Unit)
	assert.Equal(t, "vegetable", fennel.Category)
	assert.Equal(t, vegetableRange, fennel.ExpiryRange)
	assert.Equal(t, "2025-03-16", fennel.ExpiryFresh.String())
	assert.Equal(t, "2025-06-08", fennel.ExpiryFrozen.String())

	mango := result.Products[1]
	assert.Equal(t, "Mango", mango.Name)
	assert.Equal(t, 1.0, mango.Quantity)
	assert.Equal(t, domain.UnitPiece, mango.Unit)
	assert.Equal(t, "fruit", mango.Category)
	assert.Equal(t, "2025-03-14", mango.ExpiryFresh.String())

	quinoa := result.Products[2]
	assert.Equal(t, "Organic Quinoa", quinoa.Name)
	assert.Equal(t, domain.UnitPackage, quinoa.Unit)
	assert.Equal(t, domain.DefaultCategory, quinoa.Category)
	assert.Empty(t, quinoa.ExpiryRange)
	assert.Equal(t, "2025-03-15", quinoa.ExpiryFresh.String())
	assert.Equal(t, "2025-06-08", quinoa.ExpiryFrozen.String())

	for _, p := range result.Products {
		assert.Greater(t, p.Quantity, 0.0)
		assert.True(t, p.Unit.Valid())
		assert.NotEmpty(t, p.Category)
		assert.False(t, p.ExpiryFresh.Before(analysisDate()))
		assert.False(t, p.ExpiryFrozen.Before(p.ExpiryFresh.Time))
	}

	assert.Equal(t, []string{StatusSuccess}, metrics.statuses)
	assert.Equal(t, 3, metrics.skipped[string(SkipKeyword)])
	assert.Equal(t, 1, metrics.skipped[string(SkipNotFood)])
}

// analysisDate is the day fixedNow falls on
func analysisDate() time.Time {
	return domain.DateOf(fixedNow()).Time
}

func TestReceiptService_Analyze_NoProducts(t *testing.T) {
	service := newTestReceiptService(t, &fakeRecognizer{text: "TOTAL 3,00\nCASH 5,00"}, nil, nil)

	result := service.Analyze(context.Background(), []byte("receipt"))

	assert.True(t, result.Success)
	assert.NotNil(t, result.Products)
	assert.Empty(t, result.Products)
}

func TestReceiptService_Analyze_Failures(t *testing.T) {
	t.Run("decode failure", func(t *testing.T) {
		recognizer := &fakeRecognizer{text: fennelReceipt}
		service := NewReceiptService(&fakePreprocessor{err: errors.New("unknown format")}, recognizer, newTestCatalog(t), nil, ReceiptServiceConfig{
			Lexicon: englishTestLexicon(t),
			Now:     fixedNow,
		})

		result := service.Analyze(context.Background(), []byte("garbage"))

		assert.False(t, result.Success)
		assert.NotNil(t, result.Products)
		assert.Empty(t, result.Products)
		assert.Contains(t, result.Error, domain.ErrImageDecode.Error())
		assert.Contains(t, result.Error, "unknown format")
		assert.Equal(t, int32(0), recognizer.called.Load())
	})

	t.Run("classified decode failure keeps its message", func(t *testing.T) {
		service := NewReceiptService(&fakePreprocessor{err: eris.Wrap(domain.ErrImageDecode, "empty input")}, &fakeRecognizer{}, newTestCatalog(t), nil, ReceiptServiceConfig{
			Lexicon: englishTestLexicon(t),
		})

		result := service.Analyze(context.Background(), nil)

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "empty input")
	})

	t.Run("ocr failure", func(t *testing.T) {
		metrics := &recordingMetrics{}
		service := newTestReceiptService(t, &fakeRecognizer{err: errors.New("tesseract crashed")}, nil, metrics)

		result := service.Analyze(context.Background(), []byte("receipt"))

		assert.False(t, result.Success)
		assert.Empty(t, result.Products)
		assert.Contains(t, result.Error, domain.ErrOCREngine.Error())
		assert.Contains(t, result.Error, "tesseract crashed")
		assert.Equal(t, []string{StatusFailed}, metrics.statuses)
	})
}

func TestReceiptService_Cache(t *testing.T) {
	t.Run("second analysis of the same image is served from cache", func(t *testing.T) {
		cache := newMapCache()
		recognizer := &fakeRecognizer{text: fennelReceipt}
		metrics := &recordingMetrics{}
		service := newTestReceiptService(t, recognizer, cache, metrics)

		first := service.Analyze(context.Background(), []byte("receipt"))
		second := service.Analyze(context.Background(), []byte("receipt"))

		assert.Equal(t, int32(1), recognizer.called.Load())
		assert.Equal(t, 1, cache.len())
		assert.Equal(t, []string{StatusSuccess, StatusCached}, metrics.statuses)

		require.Len(t, second.Products, len(first.Products))
		for i := range first.Products {
			assert.Equal(t, first.Products[i].Name, second.Products[i].Name)
			assert.Equal(t, first.Products[i].ExpiryFresh.String(), second.Products[i].ExpiryFresh.String())
			assert.Equal(t, first.Products[i].ExpiryFrozen.String(), second.Products[i].ExpiryFrozen.String())
		}
	})

	t.Run("failures are not cached", func(t *testing.T) {
		cache := newMapCache()
		recognizer := &fakeRecognizer{err: errors.New("boom")}
		service := newTestReceiptService(t, recognizer, cache, nil)

		service.Analyze(context.Background(), []byte("receipt"))
		service.Analyze(context.Background(), []byte("receipt"))

		assert.Equal(t, int32(2), recognizer.called.Load())
		assert.Equal(t, 0, cache.len())
	})

	t.Run("key depends on content and date", func(t *testing.T) {
		service := newTestReceiptService(t, &fakeRecognizer{}, nil, nil)
		today := domain.DateOf(fixedNow())

		key := service.generateCacheKey([]byte("a"), today)
		assert.Regexp(t, `^receipt:[0-9a-f]{64}:2025-03-10$`, key)
		assert.NotEqual(t, key, service.generateCacheKey([]byte("b"), today))
		assert.NotEqual(t, key, service.generateCacheKey([]byte("a"), today.AddDays(1)))
	})
}

func TestReceiptService_AnalyzeBatch(t *testing.T) {
	recognizer := &fakeRecognizer{byLen: map[int]string{
		1: "FENNEL",
		2: "MANGO",
		3: "TOTAL 1,00",
		4: "CARROTS",
	}}
	service := NewReceiptService(&fakePreprocessor{}, recognizer, newTestCatalog(t), nil, ReceiptServiceConfig{
		Lexicon:     englishTestLexicon(t),
		MaxParallel: 2,
		Now:         fixedNow,
	})

	results := service.AnalyzeBatch(context.Background(), [][]byte{
		[]byte("a"), []byte("bb"), []byte("ccc"), []byte("dddd"),
	})

	require.Len(t, results, 4)
	require.Len(t, results[0].Products, 1)
	assert.Equal(t, "Fennel", results[0].Products[0].Name)
	require.Len(t, results[1].Products, 1)
	assert.Equal(t, "Mango", results[1].Products[0].Name)
	assert.True(t, results[2].Success)
	assert.Empty(t, results[2].Products)
	require.Len(t, results[3].Products, 1)
	assert.Equal(t, "Carrots", results[3].Products[0].Name)
}

func TestReceiptService_AnalyzeFile(t *testing.T) {
	service := newTestReceiptService(t, &fakeRecognizer{text: "FENNEL"}, nil, nil)

	result := service.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"))

	assert.False(t, result.Success)
	assert.Empty(t, result.Products)
	assert.Contains(t, result.Error, domain.ErrImageDecode.Error())
}

func TestReceiptService_AnalyzeFiles(t *testing.T) {
	recognizer := &fakeRecognizer{byLen: map[int]string{1: "FENNEL", 2: "MANGO"}}
	service := newTestReceiptService(t, recognizer, nil, nil)

	dir := t.TempDir()
	first := filepath.Join(dir, "first.png")
	second := filepath.Join(dir, "second.png")
	require.NoError(t, os.WriteFile(first, []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("bb"), 0o600))

	results := service.AnalyzeFiles(context.Background(), []string{
		first, filepath.Join(dir, "missing.png"), second,
	})

	require.Len(t, results, 3)
	require.Len(t, results[0].Products, 1)
	assert.Equal(t, "Fennel", results[0].Products[0].Name)

	assert.False(t, results[1].Success)
	assert.Empty(t, results[1].Products)
	assert.Contains(t, results[1].Error, domain.ErrImageDecode.Error())

	require.Len(t, results[2].Products, 1)
	assert.Equal(t, "Mango", results[2].Products[0].Name)
}
