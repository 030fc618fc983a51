package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
	"github.com/mamadbah2/palmtrack/pkg/token"
)

// Users is the identity store.
type Users interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserVerified(ctx context.Context, id string) (*models.User, error)
}

// Tokens issues and parses bearer tokens.
type Tokens interface {
	Issue(claims token.Claims) (string, error)
	Parse(tokenString string) (*token.Claims, error)
}

// Service registers, authenticates and verifies users.
type Service struct {
	users      Users
	tokens     Tokens
	logger     *zap.Logger
	now        func() time.Time
	bcryptCost int
}

// NewService wires the auth service.
func NewService(users Users, tokens Tokens, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, tokens: tokens, logger: logger, now: time.Now, bcryptCost: bcrypt.DefaultCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account. Role defaults to employee.
func (s *Service) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, errs.Internal(err, "hash password")
	}

	role := models.Role(in.Role)
	if role == "" {
		role = models.RoleEmployee
	}
	now := s.now().UTC()
	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.InsertUser(ctx, &user); err != nil {
		if errs.IsKind(err, errs.KindDuplicateKey) {
			return nil, errs.DuplicateKey("user already exists")
		}
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &user, nil
}

// Login checks credentials and returns a signed token with the user.
func (s *Service) Login(ctx context.Context, in models.LoginInput) (*models.Session, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	user, err := s.users.FindUserByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errs.IsKind(err, errs.KindNotFound) {
			return nil, errs.NotFound("user not found")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, errs.Unauthorized("invalid password")
		}
		return nil, errs.Internal(err, "compare password")
	}

	signed, err := s.tokens.Issue(token.Claims{
		ID:         user.ID,
		Role:       string(user.Role),
		IsVerified: user.IsVerified,
		Name:       user.Name,
		Email:      user.Email,
	})
	if err != nil {
		return nil, errs.Internal(err, "issue token")
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &models.Session{Token: signed, User: *user}, nil
}

// Authenticate decodes a bearer token into an actor.
func (s *Service) Authenticate(tokenString string) (models.Actor, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return models.Actor{}, errs.Wrap(errs.KindUnauthorized, err, "invalid or expired token")
	}
	return models.Actor{
		ID:         claims.ID,
		Name:       claims.Name,
		Email:      claims.Email,
		Role:       models.Role(claims.Role),
		IsVerified: claims.IsVerified,
	}, nil
}

// Me returns the stored account of the actor.
func (s *Service) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	if !actor.Authenticated() {
		return nil, errs.Unauthorized("authentication required")
	}
	return s.users.FindUserByID(ctx, actor.ID)
}

// ListUsers returns every account. Managers only.
func (s *Service) ListUsers(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if !actor.IsManager() {
		return nil, errs.Forbidden("only managers can list users")
	}
	return s.users.ListUsers(ctx)
}

// VerifyUser marks an account verified. Managers only; an unknown id is
// reported as a failed verification.
func (s *Service) VerifyUser(ctx context.Context, actor models.Actor, userID string) (*models.User, error) {
	if !actor.IsManager() {
		return nil, errs.Forbidden("only manager can verify users")
	}
	user, err := s.users.SetUserVerified(ctx, userID)
	if err != nil {
		if errs.IsKind(err, errs.KindNotFound) {
			return nil, errs.Wrap(errs.KindValidation, err, "verification failed")
		}
		return nil, err
	}
	s.logger.Info("user verified", zap.String("user_id", user.ID), zap.String("by", actor.ID))
	return user, nil
}
