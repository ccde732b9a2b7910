package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clientes/internal/models"
	"clientes/internal/repositories"
	"clientes/pkg/brdoc"
	"clientes/pkg/masker"
	"clientes/pkg/observer"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// AuthEvent is emitted on every sign-in and sign-out.
type AuthEvent struct {
	UserID   string
	TokenID  string
	SignedIn bool
}

// AuthOptions configures an AuthService.
type AuthOptions struct {
	JWTSecret   string
	TokenTTL    time.Duration
	AllowSignup bool
}

// AuthService issues credentials, signs users in and out, and validates tokens.
type AuthService struct {
	userRepo    repositories.UserRepository
	jwtSecret   []byte
	tokenDurat  time.Duration
	allowSignup bool
	revoked     *gocache.Cache // token ids signed out before expiry
	states      *observer.Hub[AuthEvent]
	logger      *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, opts AuthOptions, logger *zap.Logger) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:    userRepo,
		jwtSecret:   []byte(opts.JWTSecret),
		tokenDurat:  opts.TokenTTL,
		allowSignup: opts.AllowSignup,
		revoked:     gocache.New(opts.TokenTTL, time.Hour),
		states:      observer.New[AuthEvent](),
		logger:      logger,
	}
}

// RegisterUser creates a named credential, used for staff sign-up.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string) (*models.User, error) {
	user, err := s.createUser(ctx, strings.TrimSpace(name), email, password, models.RoleStaff)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("email", masker.Email(email)))
	return user, nil
}

// CreateCredential provisions a customer login for email and returns its
// identifier. Failures are *CredentialError values carrying an auth/* code.
func (s *AuthService) CreateCredential(ctx context.Context, email, secret string) (string, error) {
	user, err := s.createUser(ctx, "", email, secret, models.RoleCustomer)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password, role string) (*models.User, error) {
	if !s.allowSignup {
		return nil, &CredentialError{Code: CodeOperationNotAllowed}
	}
	if !brdoc.IsValidEmail(email) {
		return nil, &CredentialError{Code: CodeInvalidEmail}
	}
	if len(password) < minPasswordLength {
		return nil, &CredentialError{Code: CodeWeakPassword}
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, &CredentialError{Code: CodeEmailAlreadyInUse}
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Email: email, Name: name, Password: string(hashedPassword), Role: role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, &CredentialError{Code: CodeEmailAlreadyInUse, Err: err}
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// DeleteCredential removes a credential, undoing CreateCredential.
func (s *AuthService) DeleteCredential(ctx context.Context, uid string) error {
	return s.userRepo.Delete(ctx, uid)
}

// SignIn authenticates a user and returns a signed JWT.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", &CredentialError{Code: CodeUserNotFound, Err: ErrInvalidCredentials}
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", &CredentialError{Code: CodeWrongPassword, Err: ErrInvalidCredentials}
	}

	tokenID := uuid.New().String()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"jti":     tokenID,
		"exp":     now.Add(s.tokenDurat).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.states.Publish(AuthEvent{UserID: user.ID, TokenID: tokenID, SignedIn: true})
	return tokenString, nil
}

// SignOut revokes the token until it would have expired anyway.
func (s *AuthService) SignOut(_ context.Context, tokenString string) error {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return err
	}

	tokenID, _ := claims["jti"].(string)
	userID, _ := claims["user_id"].(string)
	ttl := s.tokenDurat
	if exp, ok := claims["exp"].(float64); ok {
		ttl = time.Until(time.Unix(int64(exp), 0))
	}
	s.revoked.Set(tokenID, struct{}{}, ttl)

	s.states.Publish(AuthEvent{UserID: userID, TokenID: tokenID, SignedIn: false})
	s.logger.Info("user signed out", zap.String("user_id", userID))
	return nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.logger.Debug("token validation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if tokenID, _ := claims["jti"].(string); tokenID != "" {
		if _, revoked := s.revoked.Get(tokenID); revoked {
			return nil, fmt.Errorf("%w: token revoked", ErrInvalidToken)
		}
	}
	return claims, nil
}

// OnAuthStateChanged registers fn for sign-in/sign-out events.
func (s *AuthService) OnAuthStateChanged(fn func(AuthEvent)) (unsubscribe func()) {
	return s.states.Subscribe(fn)
}
