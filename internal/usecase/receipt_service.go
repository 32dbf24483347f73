package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pantrylens/backend/internal/domain"
)

// Analysis status labels
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusCached  = "cached"
)

// MetricsRecorder receives per-analysis measurements
type MetricsRecorder interface {
	ObserveAnalysis(status string, duration time.Duration, products int)
	AddSkippedLines(reason string, count int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAnalysis(string, time.Duration, int) {}
func (nopRecorder) AddSkippedLines(string, int)                {}

// ReceiptServiceConfig holds configuration for the receipt service
type ReceiptServiceConfig struct {
	Lexicon       domain.Lexicon
	MinNameLength int
	CacheTTL      time.Duration
	MaxParallel   int // concurrent pipelines in AnalyzeBatch
	Logger        *zap.Logger
	Metrics       MetricsRecorder
	Now           func() time.Time
}

// ReceiptService turns receipt images into lists of pantry items
type ReceiptService struct {
	preprocessor domain.ImagePreprocessor
	recognizer   domain.TextRecognizer
	cache        domain.CacheRepository
	segmenter    *LineSegmenter
	resolver     *CategoryResolver
	cacheTTL     time.Duration
	maxParallel  int
	logger       *zap.Logger
	metrics      MetricsRecorder
	now          func() time.Time
}

// NewReceiptService creates a receipt service. cache may be nil to disable result caching.
func NewReceiptService(
	preprocessor domain.ImagePreprocessor,
	recognizer domain.TextRecognizer,
	catalog domain.ProductCatalog,
	cache domain.CacheRepository,
	config ReceiptServiceConfig,
) *ReceiptService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}
	maxParallel := config.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 4
	}

	classifier := NewFoodClassifier(catalog, config.Lexicon, logger)

	return &ReceiptService{
		preprocessor: preprocessor,
		recognizer:   recognizer,
		cache:        cache,
		segmenter:    NewLineSegmenter(config.Lexicon, classifier, config.MinNameLength, logger),
		resolver:     NewCategoryResolver(catalog),
		cacheTTL:     cacheTTL,
		maxParallel:  maxParallel,
		logger:       logger,
		metrics:      metrics,
		now:          now,
	}
}

// Analyze runs the whole pipeline on one encoded receipt image.
// A decode or OCR failure yields a failure envelope with no products;
// every later stage falls back to defaults instead of failing.
func (s *ReceiptService) Analyze(ctx context.Context, data []byte) domain.ReceiptResult {
	start := time.Now()
	today := domain.DateOf(s.now())
	cacheKey := s.generateCacheKey(data, today)

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		s.metrics.ObserveAnalysis(StatusCached, time.Since(start), len(cached.Products))
		return *cached
	}

	result, err := s.analyze(ctx, data, today)
	if err != nil {
		s.logger.Error("receipt analysis failed", zap.Error(err))
		s.metrics.ObserveAnalysis(StatusFailed, time.Since(start), 0)
		return domain.FailedReceipt(err)
	}

	if err := s.setInCache(ctx, cacheKey, result); err != nil {
		s.logger.Warn("receipt cache write failed", zap.Error(err))
	}

	s.logger.Info("receipt analyzed",
		zap.Int("products", len(result.Products)),
		zap.Duration("duration", time.Since(start)))
	s.metrics.ObserveAnalysis(StatusSuccess, time.Since(start), len(result.Products))
	return *result
}

// AnalyzeFile reads an image from disk and analyzes it
func (s *ReceiptService) AnalyzeFile(ctx context.Context, path string) domain.ReceiptResult {
	data, err := os.ReadFile(path)
	if err != nil {
		err = eris.Wrapf(domain.ErrImageDecode, "read %s: %v", path, err)
		s.logger.Error("receipt analysis failed", zap.String("path", path), zap.Error(err))
		s.metrics.ObserveAnalysis(StatusFailed, 0, 0)
		return domain.FailedReceipt(err)
	}
	return s.Analyze(ctx, data)
}

// AnalyzeBatch analyzes independent receipts concurrently. Results keep the input order.
func (s *ReceiptService) AnalyzeBatch(ctx context.Context, images [][]byte) []domain.ReceiptResult {
	return s.fanOut(len(images), func(i int) domain.ReceiptResult {
		return s.Analyze(ctx, images[i])
	})
}

// AnalyzeFiles is AnalyzeBatch over paths. An unreadable path fails only its own receipt.
func (s *ReceiptService) AnalyzeFiles(ctx context.Context, paths []string) []domain.ReceiptResult {
	return s.fanOut(len(paths), func(i int) domain.ReceiptResult {
		return s.AnalyzeFile(ctx, paths[i])
	})
}

func (s *ReceiptService) fanOut(n int, analyze func(i int) domain.ReceiptResult) []domain.ReceiptResult {
	results := make([]domain.ReceiptResult, n)

	var g errgroup.Group
	g.SetLimit(s.maxParallel)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			results[i] = analyze(i)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *ReceiptService) analyze(ctx context.Context, data []byte, today domain.Date) (*domain.ReceiptResult, error) {
	img, err := s.preprocessor.Preprocess(data)
	if err != nil {
		if !errors.Is(err, domain.ErrImageDecode) {
			err = eris.Wrapf(domain.ErrImageDecode, "%v", err)
		}
		return nil, err
	}

	text, err := s.recognizer.Recognize(ctx, img)
	if err != nil {
		if !errors.Is(err, domain.ErrOCREngine) {
			err = eris.Wrapf(domain.ErrOCREngine, "%v", err)
		}
		return nil, err
	}

	seg := s.segmenter.Segment(text)
	for reason, count := range seg.Skipped {
		s.metrics.AddSkippedLines(string(reason), count)
	}

	products := make([]domain.ParsedProduct, 0, len(seg.Candidates))
	for _, candidate := range seg.Candidates {
		products = append(products, s.buildProduct(candidate, today))
	}

	return &domain.ReceiptResult{
		Success:  true,
		Products: products,
		RawText:  text,
	}, nil
}

// buildProduct resolves category, expiry and quantity for one accepted line
func (s *ReceiptService) buildProduct(candidate Candidate, today domain.Date) domain.ParsedProduct {
	category, expiryRange := s.resolver.Resolve(candidate.Name)
	fresh, frozen := EstimateExpiry(expiryRange, today)
	quantity := ExtractQuantity(candidate.Line.Text, candidate.Pair)

	s.logger.Debug("receipt product",
		zap.String("name", candidate.Name),
		zap.String("category", category),
		zap.Float64("quantity", quantity.Amount),
		zap.String("unit", string(quantity.Unit)))

	return domain.ParsedProduct{
		Name:         titleCase(candidate.Name),
		Quantity:     quantity.Amount,
		Unit:         quantity.Unit,
		Category:     category,
		ExpiryRange:  expiryRange,
		ExpiryFresh:  fresh,
		ExpiryFrozen: frozen,
	}
}

// titleCase capitalizes each word. A Caser is stateful, so one is built per call.
func titleCase(name string) string {
	return cases.Title(language.Und).String(name)
}

// generateCacheKey creates a cache key from the image content and the analysis date.
// Format: "receipt:{sha256}:{yyyy-mm-dd}"; expiry dates depend on the day of analysis.
func (s *ReceiptService) generateCacheKey(data []byte, today domain.Date) string {
	sum := sha256.Sum256(data)
	return "receipt:" + hex.EncodeToString(sum[:]) + ":" + today.String()
}

// getFromCache retrieves a previous successful result
func (s *ReceiptService) getFromCache(ctx context.Context, key string) (*domain.ReceiptResult, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var result domain.ReceiptResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return &result, nil
}

// setInCache stores a successful result
func (s *ReceiptService) setInCache(ctx context.Context, key string, result *domain.ReceiptResult) error {
	if s.cache == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, raw, s.cacheTTL)
}
