package web

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"arxivdigest/internal/domain"
	"arxivdigest/internal/ports"
)

// FavoriteHandler manages the requesting user's favorites collection.
type FavoriteHandler struct {
	Store  ports.FavoriteStore
	Logger *slog.Logger
}

func (h *FavoriteHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/favorites", h.List)
	router.POST("/api/favorites", h.Save)
	router.DELETE("/api/favorites/:id", h.Delete)
	router.DELETE("/api/favorite-dates/:date", h.DeleteByDate)
}

// List groups favorites by the calendar day they were saved, newest day
// first. Entries with an unparsable saved_at are grouped under "unknown".
func (h *FavoriteHandler) List(c *gin.Context) {
	user := c.GetString(userKey)

	favorites, err := h.Store.List(user)
	if err != nil {
		h.Logger.Error("list favorites", "user", user, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	groups := map[string][]domain.Favorite{}
	for _, favorite := range favorites {
		key, _, _ := strings.Cut(favorite.SavedAt, "T")
		if key == "" {
			key = "unknown"
		}
		groups[key] = append(groups[key], favorite)
	}

	dates := make([]string, 0, len(groups))
	for date := range groups {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"dates": dates, "groups": groups}})
}

func (h *FavoriteHandler) Save(c *gin.Context) {
	user := c.GetString(userKey)

	var paper domain.Paper
	if err := c.BindJSON(&paper); err != nil {
		return
	}
	if !paper.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paper id is required"})
		return
	}

	saved, err := h.Store.Save(user, paper)
	if err != nil {
		h.Logger.Error("save favorite", "user", user, "id", paper.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"saved": saved}})
}

func (h *FavoriteHandler) Delete(c *gin.Context) {
	user := c.GetString(userKey)
	id := c.Param("id")

	deleted, err := h.Store.Delete(user, id)
	if err != nil {
		h.Logger.Error("delete favorite", "user", user, "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": deleted}})
}

func (h *FavoriteHandler) DeleteByDate(c *gin.Context) {
	user := c.GetString(userKey)
	date := c.Param("date")

	removed, err := h.Store.DeleteByDate(user, date)
	if err != nil {
		h.Logger.Error("delete favorites by date", "user", user, "date", date, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"removed": removed}})
}
