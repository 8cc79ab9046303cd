package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"card-psycho/internal/domain"
)

// Rutas del backend de analisis. El origen base viene de configuracion.
const (
	pathAnalyze  = "/api/analyze/psycho-score"
	pathQuick    = "/api/analyze/quick-analysis"
	pathBattle   = "/api/analyze/alpha-vs-beta"
	pathVoices   = "/api/audio/voices"
	pathGenerate = "/api/audio/generate"
	pathCritique = "/api/audio/patrick-critique"
	pathHealth   = "/health"
)

// Client define la interfaz hacia el backend de analisis de tarjetas.
// Cada metodo emite exactamente un request; no hay retry ni backoff.
type Client interface {
	AnalyzeCard(ctx context.Context, card domain.CardImage) ([]byte, error)
	QuickAnalysis(ctx context.Context, card domain.CardImage) ([]byte, error)
	BattleAnalysis(ctx context.Context, original, contender domain.CardImage) ([]byte, error)
	GenerateAudio(ctx context.Context, text, voiceID string) ([]byte, error)
	CritiqueAudio(ctx context.Context, text string) ([]byte, error)
	Voices(ctx context.Context) ([]byte, error)
	FetchAudio(ctx context.Context, audioPath string) ([]byte, string, error)
	Health(ctx context.Context) error
}

// RequestFailedError indica un fallo de red o un status no-2xx al hablar
// con el backend. Status es 0 cuando el request nunca obtuvo respuesta.
type RequestFailedError struct {
	Status int
	Err    error
}

func (e *RequestFailedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend request failed: status=%d", e.Status)
	}
	return fmt.Sprintf("backend request failed: %v", e.Err)
}

func (e *RequestFailedError) Unwrap() error { return e.Err }

// ErrInvalidAudioPath indica una referencia de audio que no es una ruta
// relativa al origen del backend.
var ErrInvalidAudioPath = errors.New("invalid audio path")

// HTTPClient implementa Client contra el backend HTTP real.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye un cliente apuntando al origen base del backend.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// AnalyzeCard sube una tarjeta al endpoint de analisis completo.
func (c *HTTPClient) AnalyzeCard(ctx context.Context, card domain.CardImage) ([]byte, error) {
	return c.postMultipart(ctx, pathAnalyze, []filePart{{field: "file", card: card}}, nil)
}

// QuickAnalysis sube una tarjeta al endpoint reducido (score + critica, sin audio).
func (c *HTTPClient) QuickAnalysis(ctx context.Context, card domain.CardImage) ([]byte, error) {
	return c.postMultipart(ctx, pathQuick, []filePart{{field: "file", card: card}}, nil)
}

// BattleAnalysis sube ambas tarjetas de una batalla en un solo request.
func (c *HTTPClient) BattleAnalysis(ctx context.Context, original, contender domain.CardImage) ([]byte, error) {
	parts := []filePart{
		{field: "original", card: original},
		{field: "contender", card: contender},
	}
	return c.postMultipart(ctx, pathBattle, parts, nil)
}

// GenerateAudio pide TTS para un texto arbitrario. voiceID es opcional.
func (c *HTTPClient) GenerateAudio(ctx context.Context, text, voiceID string) ([]byte, error) {
	fields := map[string]string{"text": text}
	if voiceID != "" {
		fields["voice_id"] = voiceID
	}
	return c.postMultipart(ctx, pathGenerate, nil, fields)
}

// CritiqueAudio pide TTS en la voz fija de la critica; el backend le agrega
// su propio estilo al texto.
func (c *HTTPClient) CritiqueAudio(ctx context.Context, text string) ([]byte, error) {
	return c.postMultipart(ctx, pathCritique, nil, map[string]string{"text": text})
}

// Voices devuelve el listado de voces disponibles tal cual lo entrega el backend.
func (c *HTTPClient) Voices(ctx context.Context) ([]byte, error) {
	body, _, err := c.get(ctx, pathVoices)
	return body, err
}

// FetchAudio resuelve una ruta de audio relativa al origen del backend y
// descarga el asset. Devuelve los bytes y el content-type reportado.
func (c *HTTPClient) FetchAudio(ctx context.Context, audioPath string) ([]byte, string, error) {
	if !strings.HasPrefix(audioPath, "/") || strings.Contains(audioPath, "..") {
		return nil, "", ErrInvalidAudioPath
	}
	return c.get(ctx, audioPath)
}

// Health verifica que el backend responda.
func (c *HTTPClient) Health(ctx context.Context) error {
	_, _, err := c.get(ctx, pathHealth)
	return err
}

type filePart struct {
	field string
	card  domain.CardImage
}

func (c *HTTPClient) postMultipart(ctx context.Context, path string, files []filePart, fields map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.card.Name))
		if f.card.MIME != "" {
			header.Set("Content-Type", f.card.MIME)
		} else {
			header.Set("Content-Type", "application/octet-stream")
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("create multipart field %s: %w", f.field, err)
		}
		if _, err := part.Write(f.card.Data); err != nil {
			return nil, fmt.Errorf("write multipart field %s: %w", f.field, err)
		}
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &RequestFailedError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestFailedError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("backend returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &RequestFailedError{Status: resp.StatusCode}
	}

	return body, nil
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", &RequestFailedError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &RequestFailedError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("backend returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, "", &RequestFailedError{Status: resp.StatusCode}
	}

	return body, resp.Header.Get("Content-Type"), nil
}
