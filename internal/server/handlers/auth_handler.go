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

// AuthService manages accounts and sessions.
type AuthService interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in models.LoginInput) (*models.Session, error)
	Me(ctx context.Context, actor models.Actor) (*models.User, error)
	ListUsers(ctx context.Context, actor models.Actor) ([]models.User, error)
	VerifyUser(ctx context.Context, actor models.Actor, userID string) (*models.User, error)
}

// AuthHandler serves /auth.
type AuthHandler struct {
	svc    AuthService
	logger *zap.Logger
}

// NewAuthHandler constructs the auth HTTP adapter.
func NewAuthHandler(svc AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

// Register mounts the routes on rg.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/register", h.SignUp)
	rg.POST("/login", h.Login)
	rg.GET("/me", middleware.RequireAuth(h.logger), h.Me)
	rg.GET("/users", middleware.RequireRole(models.RoleManager, h.logger), h.Users)
	rg.PATCH("/verify/:userId", middleware.RequireRole(models.RoleManager, h.logger), h.Verify)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var in models.RegisterInput
	if !respond.Bind(c, h.logger, &in) {
		return
	}
	if _, err := h.svc.Register(c.Request.Context(), in); err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Registered successfully. Await verification by manager."})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in models.LoginInput
	if !respond.Bind(c, h.logger, &in) {
		return
	}
	session, err := h.svc.Login(c.Request.Context(), in)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.svc.Me(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Users(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AuthHandler) Verify(c *gin.Context) {
	user, err := h.svc.VerifyUser(c.Request.Context(), middleware.ActorFrom(c), c.Param("userId"))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User verified successfully", "user": user})
}
