package mockapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Config configures the mock router.
type Config struct {
	// SessionCookie, when set, rejects requests without a non-empty cookie
	// of that name with 401.
	SessionCookie string
}

// NewRouter returns a gin engine serving st.
func NewRouter(st *Store, cfg Config, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogging(logger))
	if cfg.SessionCookie != "" {
		r.Use(requireCookie(cfg.SessionCookie))
	}

	h := &handler{store: st, logger: logger}
	api := r.Group("/api")
	{
		api.GET("/notifications", h.list)
		api.POST("/notifications", h.create)
		api.POST("/notifications/:id/mark_read", h.markRead)
	}
	return r
}

type handler struct {
	store  *Store
	logger *slog.Logger
}

func (h *handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.store.Pending()})
}

func (h *handler) create(c *gin.Context) {
	var n Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		h.logger.Warn("invalid notification body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored := h.store.Add(n)
	h.logger.Info("notification created", "id", stored.ID, "type", stored.Type, "priority", stored.Priority)
	c.JSON(http.StatusCreated, stored)
}

func (h *handler) markRead(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if !h.store.MarkRead(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}

	h.logger.Info("notification marked read", "id", id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func requireCookie(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := c.Cookie(name)
		if err != nil || v == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		c.Next()
	}
}

func requestLogging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
