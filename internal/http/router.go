package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"card-psycho/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas del gateway.
func NewRouter(
	logger *zap.Logger,
	cardH *CardHandler,
	battleH *BattleHandler,
	audioH *AudioHandler,
	statusH *StatusHandler,
	limiter service.UploadRateLimiter,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/health", statusH.Health)

	cards := r.Group("/cards")
	cards.Use(uploadRateLimitMiddleware(limiter))
	cards.POST("/analyze", cardH.Analyze)
	cards.POST("/quick", cardH.Quick)

	battle := r.Group("/battle")
	battle.POST("", battleH.Start)
	battle.GET("/:id", battleH.Get)
	battle.POST("/duel", uploadRateLimitMiddleware(limiter), battleH.Duel)
	battle.POST("/:id/challenger", uploadRateLimitMiddleware(limiter), battleH.SubmitChallenger)
	battle.POST("/:id/contender", uploadRateLimitMiddleware(limiter), battleH.SubmitContender)
	battle.POST("/:id/resolve", battleH.Resolve)

	audio := r.Group("/audio")
	audio.GET("/voices", audioH.Voices)
	audio.GET("/file/*path", audioH.File)
	audio.POST("/generate", audioH.Generate)
	audio.POST("/critique", audioH.Critique)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// uploadRateLimitMiddleware corta subidas excesivas por IP de cliente.
func uploadRateLimitMiddleware(limiter service.UploadRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many uploads"})
			return
		}
		c.Next()
	}
}
