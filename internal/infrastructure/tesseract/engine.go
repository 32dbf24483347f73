package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pantrylens/backend/internal/domain"
)

// Config holds Tesseract settings
type Config struct {
	Language       string // e.g. "eng", "ita" or "eng+ita"
	TessdataPrefix string // empty uses the engine default
	PageSegMode    int    // 6 treats the image as one uniform block of text
}

// DefaultConfig returns settings for English receipts
func DefaultConfig() Config {
	return Config{
		Language:    "eng",
		PageSegMode: int(gosseract.PSM_SINGLE_BLOCK),
	}
}

// Engine recognizes receipt text with Tesseract
type Engine struct {
	config        Config
	clientFactory func() *gosseract.Client
	logger        *zap.Logger
}

// NewEngine creates a Tesseract-backed text recognizer
func NewEngine(config Config, logger *zap.Logger) *Engine {
	if config.Language == "" {
		config.Language = DefaultConfig().Language
	}
	if config.PageSegMode <= 0 {
		config.PageSegMode = DefaultConfig().PageSegMode
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{config: config, clientFactory: gosseract.NewClient, logger: logger}
}

// Recognize returns the text of a preprocessed receipt image with line breaks preserved.
// Each call uses its own client; a client is not safe for concurrent use.
func (e *Engine) Recognize(ctx context.Context, img *image.Gray) (string, error) {
	if err := ctx.Err(); err != nil {
		// Keep the context error in the chain so callers can tell a give-up from an engine fault.
		return "", fmt.Errorf("%w: recognize: %w", domain.ErrOCREngine, err)
	}
	if img == nil || img.Bounds().Empty() {
		return "", eris.Wrap(domain.ErrOCREngine, "recognize: empty image")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", eris.Wrapf(domain.ErrOCREngine, "encode image: %v", err)
	}

	client := e.clientFactory()
	defer client.Close()

	if e.config.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.config.TessdataPrefix); err != nil {
			return "", eris.Wrapf(domain.ErrOCREngine, "set tessdata prefix: %v", err)
		}
	}
	if err := client.SetLanguage(strings.Split(e.config.Language, "+")...); err != nil {
		return "", eris.Wrapf(domain.ErrOCREngine, "set language %s: %v", e.config.Language, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(e.config.PageSegMode)); err != nil {
		return "", eris.Wrapf(domain.ErrOCREngine, "set page segmentation mode: %v", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", eris.Wrapf(domain.ErrOCREngine, "set image: %v", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", eris.Wrapf(domain.ErrOCREngine, "recognize text: %v", err)
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	e.logger.Debug("ocr completed",
		zap.String("language", e.config.Language),
		zap.Int("chars", len(text)))
	return text, nil
}
