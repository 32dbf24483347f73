package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pantrylens/backend/config"
	httpDelivery "github.com/pantrylens/backend/internal/delivery/http"
	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/infrastructure/cache"
	"github.com/pantrylens/backend/internal/infrastructure/catalog"
	"github.com/pantrylens/backend/internal/infrastructure/imaging"
	"github.com/pantrylens/backend/internal/infrastructure/resilience"
	"github.com/pantrylens/backend/internal/infrastructure/tesseract"
	"github.com/pantrylens/backend/internal/observability/metrics"
	"github.com/pantrylens/backend/internal/usecase"
)

// App holds the wired receipt pipeline shared by the server and the CLI
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Catalog *catalog.Catalog
	Service *usecase.ReceiptService
	Metrics *metrics.ReceiptMetrics

	cache *cache.MemoryCache
}

// New builds every dependency from configuration
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	foodCatalog, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, eris.Wrap(err, "app: load catalog")
	}

	lexicon, err := usecase.DefaultLexicon(cfg.Receipt.Locale)
	if err != nil {
		return nil, eris.Wrap(err, "app: receipt lexicon")
	}
	lexicon = usecase.MergeLexicon(lexicon, domain.Lexicon{
		SkipKeywords:    cfg.Receipt.SkipKeywords,
		NonFoodKeywords: cfg.Receipt.NonFoodKeywords,
		FoodIndicators:  cfg.Receipt.FoodIndicators,
	})

	preprocessor := imaging.NewPreprocessor(imaging.Config{
		ClipLimit:       cfg.Preprocess.ClipLimit,
		TileGrid:        cfg.Preprocess.TileGrid,
		BlockSize:       cfg.Preprocess.BlockSize,
		C:               cfg.Preprocess.ThresholdC,
		DenoiseStrength: cfg.Preprocess.DenoiseStrength,
		MinWidth:        cfg.Preprocess.MinWidth,
		MaxPixels:       cfg.Preprocess.MaxPixels,
	}, logger)

	var recognizer domain.TextRecognizer = tesseract.NewEngine(tesseract.Config{
		Language:       cfg.OCR.Language,
		TessdataPrefix: cfg.OCR.TessdataPrefix,
		PageSegMode:    cfg.OCR.PageSegMode,
	}, logger)
	if cfg.Breaker.Enabled {
		recognizer = resilience.NewBreakerRecognizer("tesseract", recognizer, resilience.Config{
			MinRequests:  cfg.Breaker.MinRequests,
			FailureRatio: cfg.Breaker.FailureRatio,
			OpenTimeout:  cfg.Breaker.OpenTimeout,
		}, logger)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Catalog: foodCatalog,
		Metrics: metrics.NewReceiptMetrics(),
	}

	var resultCache domain.CacheRepository
	if cfg.Cache.Enabled {
		a.cache = cache.NewMemoryCache(cfg.Cache.MaxEntries, 0)
		resultCache = a.cache
	}

	a.Service = usecase.NewReceiptService(preprocessor, recognizer, foodCatalog, resultCache, usecase.ReceiptServiceConfig{
		Lexicon:       lexicon,
		MinNameLength: cfg.Receipt.MinNameLength,
		CacheTTL:      cfg.Cache.TTL,
		MaxParallel:   cfg.Receipt.MaxParallel,
		Logger:        logger,
		Metrics:       a.Metrics,
	})

	logger.Info("receipt pipeline ready",
		zap.String("catalog", cfg.Catalog.Path),
		zap.Int("products", foodCatalog.Len()),
		zap.String("locale", cfg.Receipt.Locale),
		zap.String("ocr_language", cfg.OCR.Language),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Bool("breaker", cfg.Breaker.Enabled))

	return a, nil
}

// Router returns the HTTP API
func (a *App) Router() *gin.Engine {
	handler := httpDelivery.NewHandler(a.Service, a.Catalog, a.Config.Server.MaxUploadBytes, a.Logger)
	return httpDelivery.SetupRouter(a.Config, handler, a.Logger, a.Metrics)
}

// Serve runs the HTTP server until ctx is canceled, then drains in-flight requests
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "app: serve")
	case <-ctx.Done():
	}

	a.Logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "app: shutdown")
	}
	return nil
}

// Close releases background resources
func (a *App) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}
