package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-portal/internal/models"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
)

type userStore interface {
	All(ctx context.Context) []models.User
	Update(ctx context.Context, mutate func([]models.User) ([]models.User, error)) error
}

type sessionStore interface {
	Current(ctx context.Context) (*models.Session, bool)
	Save(ctx context.Context, session models.Session) bool
	Clear(ctx context.Context) bool
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService checks portal credentials and manages the current session.
type AuthService struct {
	users     userStore
	sessions  sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users userStore, sessions sessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{users: users, sessions: sessions, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login matches id, password and role against the stored users and records the session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Please fill in all fields")
	}

	var user *models.User
	for _, candidate := range s.users.All(ctx) {
		if candidate.ID == req.UserID && candidate.Password == req.Password && candidate.Role == req.Role {
			u := candidate
			user = &u
			break
		}
	}
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid credentials. Please check your ID, password, and role.")
	}

	issuedAt := s.now().UTC()
	session := models.Session{UserID: user.ID, Name: user.Name, Role: user.Role, LoginTime: issuedAt}
	if !s.sessions.Save(ctx, session) {
		s.logger.Warn("failed to persist session", zap.String("user_id", user.ID))
	}

	token, err := s.generateAccessToken(session, issuedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		Session:     session,
		Redirect:    RedirectPath(user.Role),
		IssuedAt:    issuedAt,
	}, nil
}

// Logout clears the stored session.
func (s *AuthService) Logout(ctx context.Context) error {
	if !s.sessions.Clear(ctx) {
		return appErrors.Clone(appErrors.ErrSaveFailed, "failed to clear session")
	}
	return nil
}

// CurrentUser returns the stored session.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.Session, error) {
	session, ok := s.sessions.Current(ctx)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Not logged in")
	}
	return session, nil
}

// UpdatePassword replaces the password of userID after checking the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}

	err := s.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].ID != userID {
				continue
			}
			if users[i].Password != req.CurrentPassword {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "Current password is incorrect")
			}
			users[i].Password = req.NewPassword
			return users, nil
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
	})
	if err != nil {
		return saveError(err, "failed to update password")
	}
	s.logger.Info("password updated", zap.String("user_id", userID))
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(session models.Session, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID: session.UserID,
		Role:   session.Role,
		Name:   session.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.UserID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}

// RedirectPath returns the dashboard path for role.
func RedirectPath(role models.UserRole) string {
	switch role {
	case models.RoleAdmin:
		return "/dashboard/admin"
	case models.RoleTeacher:
		return "/dashboard/teacher"
	case models.RoleStudent:
		return "/dashboard/student"
	default:
		return "/"
	}
}

// Initials returns the upper-cased initials shown in avatars.
func Initials(name string) string {
	if name == "" {
		return "??"
	}
	parts := strings.Split(name, " ")
	if len(parts) >= 2 {
		first := []rune(parts[0])
		last := []rune(parts[len(parts)-1])
		if len(first) > 0 && len(last) > 0 {
			return strings.ToUpper(string(first[0]) + string(last[0]))
		}
	}
	runes := []rune(name)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}
