package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/domain/models"
	"github.com/mamadbah2/palmtrack/internal/server/respond"
)

// NeeraService is the collection ledger.
type NeeraService interface {
	Create(ctx context.Context, in models.CollectionInput) (*models.CollectionRecord, error)
	List(ctx context.Context) ([]models.CollectionRecord, error)
	Get(ctx context.Context, id string) (*models.CollectionRecord, error)
	Update(ctx context.Context, id string, patch models.CollectionPatch) (*models.CollectionRecord, error)
	UpdateStatus(ctx context.Context, id string, status string) (*models.CollectionRecord, error)
	Delete(ctx context.Context, id string) error
}

// NeeraHandler serves /neera.
type NeeraHandler struct {
	svc    NeeraService
	logger *zap.Logger
}

// NewNeeraHandler constructs the collection ledger HTTP adapter.
func NewNeeraHandler(svc NeeraService, logger *zap.Logger) *NeeraHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NeeraHandler{svc: svc, logger: logger}
}

// Register mounts the routes on rg.
func (h *NeeraHandler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.PUT("/:id/status", h.UpdateStatus)
	rg.DELETE("/:id", h.Delete)
}

func (h *NeeraHandler) Create(c *gin.Context) {
	var in models.CollectionInput
	if !respond.Bind(c, h.logger, &in) {
		return
	}
	rec, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Neera collection added successfully", "neera": rec})
}

func (h *NeeraHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *NeeraHandler) Get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *NeeraHandler) Update(c *gin.Context) {
	var patch models.CollectionPatch
	if !respond.Bind(c, h.logger, &patch) {
		return
	}
	rec, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Neera collection updated successfully", "neera": rec})
}

func (h *NeeraHandler) UpdateStatus(c *gin.Context) {
	var in models.StatusInput
	if !respond.Bind(c, h.logger, &in) {
		return
	}
	rec, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated successfully", "neera": rec})
}

func (h *NeeraHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Neera collection deleted successfully"})
}
