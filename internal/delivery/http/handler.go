package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pantrylens/backend/internal/domain"
)

// ReceiptAnalyzer runs the receipt pipeline on one uploaded image
type ReceiptAnalyzer interface {
	Analyze(ctx context.Context, data []byte) domain.ReceiptResult
}

// Categorizer assigns a category to a manually entered product name
type Categorizer interface {
	Categorize(name string) string
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analyzer       ReceiptAnalyzer
	categorizer    Categorizer
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandler creates a new HTTP handler. Nil dependencies make their endpoints answer 503.
func NewHandler(analyzer ReceiptAnalyzer, categorizer Categorizer, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		analyzer:       analyzer,
		categorizer:    categorizer,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pantrylens-backend",
		"version": "1.0.0",
	})
}

// AnalyzeReceipt handles POST /api/v1/receipts/analyze with the image in the multipart field "image"
func (h *Handler) AnalyzeReceipt(c *gin.Context) {
	if h.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "receipt analysis not configured"})
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "receipt image exceeds the upload limit"})
			return
		}
		respondError(c, eris.Wrap(domain.ErrInvalidRequest, "multipart field \"image\" is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, eris.Wrapf(domain.ErrInvalidRequest, "open upload: %v", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, eris.Wrapf(domain.ErrInvalidRequest, "read upload: %v", err))
		return
	}

	result := h.analyzer.Analyze(c.Request.Context(), data)
	if !result.Success {
		h.logger.Warn("receipt rejected",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("error", result.Error))
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Categorize handles GET /api/v1/catalog/categorize?name= for manually entered items
func (h *Handler) Categorize(c *gin.Context) {
	if h.categorizer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not configured"})
		return
	}

	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		respondError(c, eris.Wrap(domain.ErrInvalidRequest, "query parameter \"name\" is required"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":     name,
		"category": h.categorizer.Categorize(name),
	})
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
