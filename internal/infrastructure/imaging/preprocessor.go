package imaging

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pantrylens/backend/internal/domain"
)

// Non-local means window sizes, the OpenCV defaults
const (
	denoiseTemplateWindow = 7
	denoiseSearchWindow   = 21
)

// Config holds the preprocessing parameters
type Config struct {
	ClipLimit       float64 // CLAHE contrast limit
	TileGrid        int     // CLAHE tiles per side
	BlockSize       int     // adaptive threshold neighbourhood, odd
	C               float64 // constant subtracted from the weighted mean
	DenoiseStrength float64 // non-local means filter strength, 0 disables
	MinWidth        int     // narrower images are upscaled to this width, 0 disables
	MaxPixels       int     // larger images are rejected before decoding
}

// DefaultConfig returns the parameters tuned for thermal till receipts
func DefaultConfig() Config {
	return Config{
		ClipLimit:       2.0,
		TileGrid:        8,
		BlockSize:       11,
		C:               2,
		DenoiseStrength: 3,
		MaxPixels:       40_000_000,
	}
}

// Preprocessor turns an encoded photo of a receipt into a binary image for OCR
type Preprocessor struct {
	config Config
	logger *zap.Logger
}

// NewPreprocessor creates a preprocessor. Invalid parameters are replaced with their defaults.
func NewPreprocessor(config Config, logger *zap.Logger) *Preprocessor {
	defaults := DefaultConfig()
	if config.ClipLimit <= 0 {
		config.ClipLimit = defaults.ClipLimit
	}
	if config.TileGrid <= 0 {
		config.TileGrid = defaults.TileGrid
	}
	if config.BlockSize < 3 || config.BlockSize%2 == 0 {
		config.BlockSize = defaults.BlockSize
	}
	if config.DenoiseStrength < 0 {
		config.DenoiseStrength = 0
	}
	if config.MaxPixels <= 0 {
		config.MaxPixels = defaults.MaxPixels
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preprocessor{config: config, logger: logger}
}

// Preprocess decodes data and returns the cleaned binary image:
// grayscale, CLAHE, adaptive Gaussian threshold, then non-local means denoising.
// The output has the same dimensions as the decoded image unless upscaling applies.
func (p *Preprocessor) Preprocess(data []byte) (*image.Gray, error) {
	if len(data) == 0 {
		return nil, eris.Wrap(domain.ErrImageDecode, "empty image")
	}

	header, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrapf(domain.ErrImageDecode, "decode: %v", err)
	}
	if header.Width <= 0 || header.Height <= 0 {
		return nil, eris.Wrapf(domain.ErrImageDecode, "%s image has no pixels", format)
	}
	width, height := p.targetSize(header.Width, header.Height)
	if header.Width*header.Height > p.config.MaxPixels || width*height > p.config.MaxPixels {
		return nil, eris.Wrapf(domain.ErrImageDecode, "%s image %dx%d exceeds %d pixels",
			format, header.Width, header.Height, p.config.MaxPixels)
	}

	gray, err := decodeGray(data, format)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	src := gray
	if width != gray.Cols() || height != gray.Rows() {
		scaled := gocv.NewMat()
		defer scaled.Close()
		gocv.Resize(gray, &scaled, image.Pt(width, height), 0, 0, gocv.InterpolationCubic)
		src = scaled
	}

	clahe := gocv.NewCLAHEWithParams(p.config.ClipLimit, image.Pt(p.config.TileGrid, p.config.TileGrid))
	defer clahe.Close()
	enhanced := gocv.NewMat()
	defer enhanced.Close()
	clahe.Apply(src, &enhanced)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(enhanced, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary,
		p.config.BlockSize, float32(p.config.C))

	out := binary
	if p.config.DenoiseStrength > 0 {
		denoised := gocv.NewMat()
		defer denoised.Close()
		gocv.FastNlMeansDenoisingWithParams(binary, &denoised, float32(p.config.DenoiseStrength),
			denoiseTemplateWindow, denoiseSearchWindow)
		out = denoised
	}

	result, err := matToGray(out)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("receipt image preprocessed",
		zap.String("format", format),
		zap.Int("width", result.Rect.Dx()),
		zap.Int("height", result.Rect.Dy()))
	return result, nil
}

// PreprocessFile reads an image from disk and preprocesses it
func (p *Preprocessor) PreprocessFile(path string) (*image.Gray, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(domain.ErrImageDecode, "read %s: %v", path, err)
	}
	return p.Preprocess(data)
}

// targetSize returns the dimensions after upscaling narrow images, keeping the aspect ratio
func (p *Preprocessor) targetSize(width, height int) (int, int) {
	if p.config.MinWidth <= 0 || width >= p.config.MinWidth {
		return width, height
	}
	scaled := height * p.config.MinWidth / width
	if scaled < 1 {
		scaled = 1
	}
	return p.config.MinWidth, scaled
}

// decodeGray decodes data into a single channel Mat. Formats OpenCV cannot
// read (GIF, and WebP or TIFF on minimal builds) go through the Go decoders.
func decodeGray(data []byte, format string) (gocv.Mat, error) {
	if format != "gif" {
		src, err := gocv.IMDecode(data, gocv.IMReadColor)
		if err == nil {
			if !src.Empty() {
				defer src.Close()
				gray := gocv.NewMat()
				gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
				return gray, nil
			}
			src.Close()
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return gocv.Mat{}, eris.Wrapf(domain.ErrImageDecode, "decode %s: %v", format, err)
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return gocv.Mat{}, eris.Wrapf(domain.ErrImageDecode, "convert %s: %v", format, err)
	}
	return mat, nil
}

// matToGray copies a single channel Mat out of OpenCV memory
func matToGray(m gocv.Mat) (*image.Gray, error) {
	img, err := m.ToImage()
	if err != nil {
		return nil, eris.Wrapf(domain.ErrImageDecode, "export image: %v", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, eris.Wrapf(domain.ErrImageDecode, "export image: unexpected %T", img)
	}
	return gray, nil
}
