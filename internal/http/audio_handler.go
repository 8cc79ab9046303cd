package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"card-psycho/internal/backend"
)

// AudioHandler proxea los endpoints de audio del backend: el cliente nunca
// habla con el origen del backend directamente.
type AudioHandler struct {
	logger *zap.Logger
	client backend.Client
}

// NewAudioHandler crea una instancia de AudioHandler con sus dependencias.
func NewAudioHandler(logger *zap.Logger, client backend.Client) *AudioHandler {
	return &AudioHandler{
		logger: logger,
		client: client,
	}
}

// Voices maneja GET /audio/voices.
func (h *AudioHandler) Voices(c *gin.Context) {
	body, err := h.client.Voices(c.Request.Context())
	if err != nil {
		h.respondProxyError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// File maneja GET /audio/file/*path, resolviendo la ruta relativa devuelta
// en audio_url contra el origen del backend. Acepta tanto el audio_url
// completo de un resultado normalizado como el nombre de archivo pelado.
func (h *AudioHandler) File(c *gin.Context) {
	audioPath := c.Param("path")
	if !strings.HasPrefix(audioPath, "/") {
		audioPath = "/" + audioPath
	}
	if !strings.HasPrefix(audioPath, "/api/audio/file/") {
		audioPath = "/api/audio/file" + audioPath
	}

	data, contentType, err := h.client.FetchAudio(c.Request.Context(), audioPath)
	if err != nil {
		h.respondProxyError(c, err)
		return
	}
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	c.Data(http.StatusOK, contentType, data)
}

// Generate maneja POST /audio/generate (passthrough de TTS).
func (h *AudioHandler) Generate(c *gin.Context) {
	text := c.PostForm("text")
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text cannot be empty"})
		return
	}

	body, err := h.client.GenerateAudio(c.Request.Context(), text, c.PostForm("voice_id"))
	if err != nil {
		h.respondProxyError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// Critique maneja POST /audio/critique: TTS con la voz y el estilo fijos de
// la critica, sin voice_id configurable.
func (h *AudioHandler) Critique(c *gin.Context) {
	text := c.PostForm("text")
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text cannot be empty"})
		return
	}

	body, err := h.client.CritiqueAudio(c.Request.Context(), text)
	if err != nil {
		h.respondProxyError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

func (h *AudioHandler) respondProxyError(c *gin.Context, err error) {
	var reqErr *backend.RequestFailedError
	switch {
	case errors.Is(err, backend.ErrInvalidAudioPath):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid audio path"})
	case errors.As(err, &reqErr) && reqErr.Status == http.StatusNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "audio not found"})
	default:
		h.logger.Warn("audio proxy failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "audio unavailable"})
	}
}

// StatusHandler expone el estado del gateway y del backend.
type StatusHandler struct {
	logger *zap.Logger
	client backend.Client
}

// NewStatusHandler crea una instancia de StatusHandler.
func NewStatusHandler(logger *zap.Logger, client backend.Client) *StatusHandler {
	return &StatusHandler{
		logger: logger,
		client: client,
	}
}

// Health maneja GET /health.
func (h *StatusHandler) Health(c *gin.Context) {
	backendStatus := "reachable"
	if err := h.client.Health(c.Request.Context()); err != nil {
		h.logger.Warn("backend health check failed", zap.Error(err))
		backendStatus = "unreachable"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "card gateway",
		"backend": backendStatus,
	})
}
