package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"mockinterview/internal/config"
)

// NewRouter builds the gin engine with middlewares and all routes.
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(requestID(), recovery(logger), accessLog(logger))
	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Not found")
	})
	h.RegisterRoutes(router)
	return router
}

// NewServer wraps handler with CORS and returns an http.Server configured from cfg.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	// a respond or end request may wait on every gateway attempt
	attempts := cfg.Gateway.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	writeTimeout := time.Duration(attempts)*cfg.GatewayTimeout() + 15*time.Second

	return &http.Server{
		Addr:              cfg.BasicConfig.ServerAddress,
		Handler:           withCORS(cfg.CORS.AllowedOrigins, handler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       time.Minute,
	}
}

func withCORS(origins []string, next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})(next)
}
