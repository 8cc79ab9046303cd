package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"card-psycho/internal/backend"
	"card-psycho/internal/domain"
	"card-psycho/internal/service"
)

// CardHandler mantiene dependencias para los endpoints de analisis simple.
type CardHandler struct {
	logger   *zap.Logger
	analyzer *service.AnalyzeService
	nav      service.NavigationEngine
}

// NewCardHandler crea una instancia de CardHandler con sus dependencias.
func NewCardHandler(logger *zap.Logger, analyzer *service.AnalyzeService) *CardHandler {
	return &CardHandler{
		logger:   logger,
		analyzer: analyzer,
		nav:      service.NavigationEngine{},
	}
}

// Analyze maneja POST /cards/analyze.
func (h *CardHandler) Analyze(c *gin.Context) {
	card, ok := readCardImage(c, h.logger, "file")
	if !ok {
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), card)
	if err != nil {
		respondAnalysisError(c, h.logger, err)
		return
	}

	destination, err := h.nav.RouteSingle(&result)
	if err != nil {
		respondAnalysisError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"destination": destination,
		"narrative":   service.NarrativeFor(result.PsychoScore),
	})
}

// Quick maneja POST /cards/quick.
func (h *CardHandler) Quick(c *gin.Context) {
	card, ok := readCardImage(c, h.logger, "file")
	if !ok {
		return
	}

	result, err := h.analyzer.Quick(c.Request.Context(), card)
	if err != nil {
		respondAnalysisError(c, h.logger, err)
		return
	}

	destination, err := h.nav.RouteSingle(&result)
	if err != nil {
		respondAnalysisError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"destination": destination,
		"narrative":   service.NarrativeFor(result.PsychoScore),
	})
}

// readCardImage extrae el archivo multipart del request. Responde 400 y
// devuelve false si el campo falta o no se puede leer.
func readCardImage(c *gin.Context, logger *zap.Logger, field string) (domain.CardImage, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		logger.Warn("missing upload field", zap.String("field", field), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return domain.CardImage{}, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Warn("open upload failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file upload"})
		return domain.CardImage{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Warn("read upload failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file upload"})
		return domain.CardImage{}, false
	}

	return domain.CardImage{
		Name: fileHeader.Filename,
		MIME: fileHeader.Header.Get("Content-Type"),
		Data: data,
	}, true
}

// respondAnalysisError mapea la taxonomia de errores del flujo a respuestas
// HTTP. RequestFailed y MalformedResponse comparten el mensaje generico de
// cara al usuario pero se distinguen en logs.
func respondAnalysisError(c *gin.Context, logger *zap.Logger, err error) {
	var reqErr *backend.RequestFailedError
	switch {
	case errors.Is(err, service.ErrUploadEmpty),
		errors.Is(err, service.ErrUploadTooLarge),
		errors.Is(err, service.ErrUploadNotImage):
		logger.Warn("upload rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card image"})
	case errors.As(err, &reqErr):
		logger.Warn("backend request failed", zap.Int("backend_status", reqErr.Status), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "analysis failed, please try again"})
	case errors.Is(err, service.ErrMalformedResponse):
		logger.Error("backend response malformed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "analysis failed, please try again"})
	case errors.Is(err, service.ErrMissingUpstreamResult):
		logger.Warn("navigation without result", zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{
			"destination": domain.Destination{Screen: domain.ScreenUpload},
			"error":       "no analysis available",
		})
	default:
		logger.Error("analysis flow failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed, please try again"})
	}
}
