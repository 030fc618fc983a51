package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
	"github.com/mamadbah2/palmtrack/internal/server/respond"
)

// DashboardService computes and snapshots the summary.
type DashboardService interface {
	ComputeSummary(ctx context.Context) (models.Summary, error)
	ListSnapshots(ctx context.Context, limit int) ([]models.SummarySnapshot, error)
}

// Assistant answers questions about the summary.
type Assistant interface {
	Answer(ctx context.Context, in models.ChatInput) (string, error)
}

// DashboardHandler serves /dashboard.
type DashboardHandler struct {
	svc       DashboardService
	assistant Assistant
	logger    *zap.Logger
}

// NewDashboardHandler constructs the dashboard HTTP adapter.
func NewDashboardHandler(svc DashboardService, assistant Assistant, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{svc: svc, assistant: assistant, logger: logger}
}

// Register mounts the routes on rg.
func (h *DashboardHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/summary", h.Summary)
	rg.GET("/snapshots", h.Snapshots)
	rg.POST("/chat-summary", h.ChatSummary)
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.svc.ComputeSummary(c.Request.Context())
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *DashboardHandler) Snapshots(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.Error(c, h.logger, errs.ValidationFields("invalid fields: limit", map[string]string{"limit": "gte=0"}))
			return
		}
		limit = n
	}
	list, err := h.svc.ListSnapshots(c.Request.Context(), limit)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *DashboardHandler) ChatSummary(c *gin.Context) {
	var in models.ChatInput
	if !respond.Bind(c, h.logger, &in) {
		return
	}
	answer, err := h.assistant.Answer(c.Request.Context(), in)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": answer})
}
