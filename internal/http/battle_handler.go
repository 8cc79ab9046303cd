package http

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"card-psycho/internal/service"
)

// BattleHandler mantiene dependencias para el sub-flujo de batalla.
type BattleHandler struct {
	logger   *zap.Logger
	analyzer *service.AnalyzeService
	battles  *service.BattleService

	// Una subida en vuelo por slot logico (sesion+rol); la segunda se
	// rechaza hasta que la primera resuelva.
	inflight sync.Map
}

// NewBattleHandler crea una instancia de BattleHandler con sus dependencias.
func NewBattleHandler(logger *zap.Logger, analyzer *service.AnalyzeService, battles *service.BattleService) *BattleHandler {
	return &BattleHandler{
		logger:   logger,
		analyzer: analyzer,
		battles:  battles,
	}
}

// Start maneja POST /battle.
func (h *BattleHandler) Start(c *gin.Context) {
	session, err := h.battles.Start(c.Request.Context())
	if err != nil {
		h.logger.Error("start battle failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start battle"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// Get maneja GET /battle/:id.
func (h *BattleHandler) Get(c *gin.Context) {
	session, err := h.battles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondBattleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// SubmitChallenger maneja POST /battle/:id/challenger.
func (h *BattleHandler) SubmitChallenger(c *gin.Context) {
	h.submitSlot(c, "challenger")
}

// SubmitContender maneja POST /battle/:id/contender.
func (h *BattleHandler) SubmitContender(c *gin.Context) {
	h.submitSlot(c, "contender")
}

func (h *BattleHandler) submitSlot(c *gin.Context, slot string) {
	sessionID := c.Param("id")
	slotKey := sessionID + ":" + slot
	if _, busy := h.inflight.LoadOrStore(slotKey, struct{}{}); busy {
		c.JSON(http.StatusConflict, gin.H{"error": "upload already in progress for this slot"})
		return
	}
	defer h.inflight.Delete(slotKey)

	card, ok := readCardImage(c, h.logger, "file")
	if !ok {
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), card)
	if err != nil {
		respondAnalysisError(c, h.logger, err)
		return
	}

	if slot == "challenger" {
		updated, err := h.battles.SetChallenger(c.Request.Context(), sessionID, result)
		if err != nil {
			respondBattleError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": updated})
		return
	}

	updated, err := h.battles.SetContender(c.Request.Context(), sessionID, result)
	if err != nil {
		respondBattleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": updated})
}

// Resolve maneja POST /battle/:id/resolve. La resolucion es siempre un
// disparo explicito del usuario, nunca un efecto de la segunda subida.
func (h *BattleHandler) Resolve(c *gin.Context) {
	session, err := h.battles.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondBattleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":     session,
		"destination": session.Outcome,
	})
}

// Duel maneja POST /battle/duel: las dos imagenes en un solo request contra
// el endpoint alpha-vs-beta del backend.
func (h *BattleHandler) Duel(c *gin.Context) {
	original, ok := readCardImage(c, h.logger, "original")
	if !ok {
		return
	}
	contender, ok := readCardImage(c, h.logger, "contender")
	if !ok {
		return
	}

	destination, err := h.analyzer.Duel(c.Request.Context(), original, contender)
	if err != nil {
		respondAnalysisError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"destination": destination})
}

func respondBattleError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrBattleSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "battle session not found"})
	case errors.Is(err, service.ErrBattleAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "battle already resolved"})
	case errors.Is(err, service.ErrBattleNoChallenger):
		c.JSON(http.StatusConflict, gin.H{"error": "challenger card required first"})
	case errors.Is(err, service.ErrBattleNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": "both cards required before resolving"})
	default:
		logger.Error("battle flow failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "battle failed, please try again"})
	}
}
