// Package handlers exposes the moderation, post screening and daily word
// game over HTTP.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campusnest/forum/internal/metrics"
	"github.com/campusnest/forum/internal/middleware"
	"github.com/campusnest/forum/internal/ratelimit"
)

// RouterConfig carries everything NewRouter wires together. Review may be
// nil to disable the reviewer websocket.
type RouterConfig struct {
	Auth       middleware.TokenValidator
	Limiter    ratelimit.Allower
	GuessRule  ratelimit.Rule
	ModRule    ratelimit.Rule
	Moderation *ModerationHandler
	Wordle     *WordleHandler
	Review     http.Handler
	Health     func() map[string]string
	Log        *zap.SugaredLogger
}

// NewRouter builds the gin engine with every API route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Log != nil {
		r.Use(middleware.Logger(cfg.Log))
	}

	r.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if cfg.Health != nil {
			for k, v := range cfg.Health() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/v1")
	api.GET("/forum/categories", cfg.Moderation.Categories)

	authed := api.Group("")
	authed.Use(middleware.Auth(cfg.Auth))

	modLimit := middleware.RateLimit(cfg.Limiter, cfg.ModRule)
	authed.POST("/moderation/check", modLimit, cfg.Moderation.Check)
	authed.POST("/posts/screen", modLimit, cfg.Moderation.Screen)

	game := authed.Group("/wordle")
	game.GET("/today", cfg.Wordle.Today)
	game.POST("/guess", middleware.RateLimit(cfg.Limiter, cfg.GuessRule), cfg.Wordle.Guess)
	game.GET("/stats", cfg.Wordle.Stats)
	game.GET("/leaderboard", cfg.Wordle.Leaderboard)

	admin := authed.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.POST("/wordle/words", cfg.Wordle.SetWord)
	admin.GET("/wordle/words", cfg.Wordle.ListWords)
	admin.DELETE("/wordle/words/:date", cfg.Wordle.DeleteWord)
	admin.POST("/wordle/regenerate", cfg.Wordle.Regenerate)
	admin.GET("/moderation/pending", cfg.Moderation.Pending)
	admin.POST("/moderation/:id/decision", cfg.Moderation.Decide)
	if cfg.Review != nil {
		admin.GET("/review/ws", gin.WrapH(cfg.Review))
	}

	return r
}
