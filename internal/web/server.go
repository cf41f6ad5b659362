package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"arxivdigest/internal/config"
	"arxivdigest/internal/ports"
)

const (
	userHeader  = "X-User"
	defaultUser = "guest"
	userKey     = "user"
)

// New builds the HTTP front: stored dates, per-user favorites, and the
// slide-deck export.
func New(cfg config.WebConfig, days ports.DailyStore, favorites ports.FavoriteStore, slides *SlideRenderer, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(userGate(cfg.AllowedUsers))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
	})

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "ok"})
	})

	dayHandler := DayHandler{Store: days, Logger: logger}
	dayHandler.RegisterRoutes(router)

	favoriteHandler := FavoriteHandler{Store: favorites, Logger: logger}
	favoriteHandler.RegisterRoutes(router)

	slideHandler := SlideHandler{Store: days, Renderer: slides, Logger: logger}
	slideHandler.RegisterRoutes(router)

	return router
}

// userGate resolves the requesting user from the X-User header and enforces
// the static allow-list when one is configured.
func userGate(allowed []string) gin.HandlerFunc {
	allowSet := make(map[string]struct{}, len(allowed))
	for _, user := range allowed {
		allowSet[user] = struct{}{}
	}

	return func(c *gin.Context) {
		user := c.GetHeader(userHeader)
		if user == "" {
			user = defaultUser
		}

		if len(allowSet) > 0 {
			if _, ok := allowSet[user]; !ok {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user not allowed"})
				return
			}
		}

		c.Set(userKey, user)
		c.Next()
	}
}
