package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/domain/models"
	"github.com/mamadbah2/palmtrack/internal/server/respond"
)

// InventoryService converts batches and manages finished goods.
type InventoryService interface {
	CreateInventory(ctx context.Context, in models.InventoryInput) (*models.InventoryRecord, error)
	List(ctx context.Context) ([]models.InventoryView, error)
	Get(ctx context.Context, id string) (*models.InventoryView, error)
	Update(ctx context.Context, id string, patch models.InventoryPatch) (*models.InventoryRecord, error)
	Delete(ctx context.Context, id string) error
}

// InventoryHandler serves /inventory.
type InventoryHandler struct {
	svc        InventoryService
	newBatchID func(processingBatchID string) (string, error)
	logger     *zap.Logger
}

// NewInventoryHandler constructs the inventory HTTP adapter. newBatchID
// backs the batch id suggestion endpoint.
func NewInventoryHandler(svc InventoryService, newBatchID func(string) (string, error), logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, newBatchID: newBatchID, logger: logger}
}

// Register mounts the routes on rg.
func (h *InventoryHandler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/batch-id", h.SuggestBatchID)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

func (h *InventoryHandler) Create(c *gin.Context) {
	var in models.InventoryInput
	if !respond.Bind(c, h.logger, &in) {
		return
	}
	rec, err := h.svc.CreateInventory(c.Request.Context(), in)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Inventory added successfully", "inventory": rec})
}

func (h *InventoryHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *InventoryHandler) SuggestBatchID(c *gin.Context) {
	id, err := h.newBatchID(c.Query("processingBatchId"))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batchId": id})
}

func (h *InventoryHandler) Get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *InventoryHandler) Update(c *gin.Context) {
	var patch models.InventoryPatch
	if !respond.Bind(c, h.logger, &patch) {
		return
	}
	rec, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inventory updated successfully", "inventory": rec})
}

func (h *InventoryHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inventory deleted successfully"})
}
