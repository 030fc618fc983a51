package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/domain/models"
	"github.com/mamadbah2/palmtrack/internal/server/middleware"
	"github.com/mamadbah2/palmtrack/internal/server/respond"
)

// ProcessingService is the batch engine.
type ProcessingService interface {
	CreateBatch(ctx context.Context, in models.BatchInput) (*models.ProcessingBatch, error)
	ListBatches(ctx context.Context) ([]models.BatchView, error)
	AppendStageLog(ctx context.Context, actor models.Actor, batchID string, in models.StageLogInput) (*models.ProcessingBatch, error)
	CompleteBatch(ctx context.Context, actor models.Actor, batchID string) (*models.ProcessingBatch, error)
	SetInventoryStatus(ctx context.Context, id string, added bool) (*models.ProcessingBatch, error)
}

// ProcessingHandler serves /processing.
type ProcessingHandler struct {
	svc    ProcessingService
	logger *zap.Logger
}

// NewProcessingHandler constructs the batch engine HTTP adapter.
func NewProcessingHandler(svc ProcessingService, logger *zap.Logger) *ProcessingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessingHandler{svc: svc, logger: logger}
}

// Register mounts the routes on rg. Completing a batch requires a manager
// token; the service checks the role again.
func (h *ProcessingHandler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/all", h.List)
	rg.PATCH("/:batchId/stage", h.AppendStage)
	rg.PATCH("/:batchId/complete", middleware.RequireRole(models.RoleManager, h.logger), h.Complete)
	rg.PUT("/:batchId/inventory-status", h.SetInventoryStatus)
}

func (h *ProcessingHandler) Create(c *gin.Context) {
	var in models.BatchInput
	if !respond.Bind(c, h.logger, &in) {
		return
	}
	batch, err := h.svc.CreateBatch(c.Request.Context(), in)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Processing batch created", "batch": batch})
}

func (h *ProcessingHandler) List(c *gin.Context) {
	list, err := h.svc.ListBatches(c.Request.Context())
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ProcessingHandler) AppendStage(c *gin.Context) {
	var in models.StageLogInput
	if !respond.Bind(c, h.logger, &in) {
		return
	}
	batch, err := h.svc.AppendStageLog(c.Request.Context(), middleware.ActorFrom(c), c.Param("batchId"), in)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stage updated", "batch": batch})
}

func (h *ProcessingHandler) Complete(c *gin.Context) {
	batch, err := h.svc.CompleteBatch(c.Request.Context(), middleware.ActorFrom(c), c.Param("batchId"))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Batch marked as completed", "batch": batch})
}

// SetInventoryStatus addresses the batch by its internal id.
func (h *ProcessingHandler) SetInventoryStatus(c *gin.Context) {
	var in models.InventoryStatusInput
	if !respond.Bind(c, h.logger, &in) {
		return
	}
	batch, err := h.svc.SetInventoryStatus(c.Request.Context(), c.Param("batchId"), *in.AddedToInventory)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Processing batch inventory status updated", "batch": batch})
}
