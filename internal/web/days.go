package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"arxivdigest/internal/ports"
)

// DayHandler serves the stored daily documents.
type DayHandler struct {
	Store  ports.DailyStore
	Logger *slog.Logger
}

func (h *DayHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/dates", h.List)
	router.GET("/api/dates/:date", h.Get)
}

func (h *DayHandler) List(c *gin.Context) {
	dates, err := h.Store.Dates()
	if err != nil {
		h.Logger.Error("list dates", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if dates == nil {
		dates = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"data": dates})
}

func (h *DayHandler) Get(c *gin.Context) {
	date := c.Param("date")

	papers, err := h.Store.Load(date)
	if err != nil {
		h.Logger.Error("load daily document", "date", date, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if papers == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no papers for %s", date)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": papers})
}
