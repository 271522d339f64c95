package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/todo-grow/backend/internal/config"
	"github.com/todo-grow/backend/internal/constants"
	apperrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/models"
	"github.com/todo-grow/backend/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// UnlinkWarning is reported when the account was deleted locally but is still linked at the provider.
const UnlinkWarning = "Kakao account unlink failed, but user data was deleted"

// Claims is the payload of an access token
type Claims struct {
	KakaoID  string `json:"kakao_id,omitempty"`
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

// UserID returns the user ID carried in the subject claim
func (c *Claims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	provider SocialAuthProvider
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// NewAuthService creates a new AuthService. provider may be nil when
// social login is not configured.
func NewAuthService(userRepo repository.UserRepository, provider SocialAuthProvider, cfg config.AuthConfig) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = constants.DefaultTokenTTL
	}

	return &AuthService{
		userRepo: userRepo,
		provider: provider,
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: ttl,
		now:      time.Now,
	}
}

// LoginResult is the outcome of a successful social login.
type LoginResult struct {
	User        *models.User
	AccessToken string
}

// WithdrawResult reports how account deletion went at the provider.
type WithdrawResult struct {
	Warning string
}

// LoginURL returns the provider consent page URL for state.
func (s *AuthService) LoginURL(state string) (string, error) {
	if s.provider == nil {
		return "", apperrors.NewUpstream(kakaoServiceName, apperrors.ErrNotConfigured)
	}
	return s.provider.AuthCodeURL(state), nil
}

// Login exchanges an authorization code, loads or creates the user and issues a token.
func (s *AuthService) Login(ctx context.Context, code string) (*LoginResult, error) {
	if s.provider == nil {
		return nil, apperrors.NewUpstream(kakaoServiceName, apperrors.ErrNotConfigured)
	}
	if code == "" {
		return nil, apperrors.NewValidation("code", "authorization code is required")
	}

	accessToken, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := s.provider.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.GetOrCreateUser(*profile)
	if err != nil {
		return nil, err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, AccessToken: token}, nil
}

// GetOrCreateUser returns the user linked to profile, creating one on first login.
func (s *AuthService) GetOrCreateUser(profile SocialProfile) (*models.User, error) {
	if profile.ProviderID == "" {
		return nil, apperrors.NewValidation("kakao_id", "provider account id is required")
	}

	existing, err := s.userRepo.FindByKakaoID(profile.ProviderID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	nickname := profile.Nickname
	if nickname == "" {
		nickname = constants.DefaultNickname
	}
	profileImage := profile.ProfileImage
	if profileImage == "" {
		profileImage = constants.DefaultProfileImage
	}

	kakaoID := profile.ProviderID
	user := &models.User{
		KakaoID:      &kakaoID,
		Email:        profile.Email,
		Nickname:     nickname,
		ProfileImage: profileImage,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race against a concurrent first login
			return s.userRepo.FindByKakaoID(profile.ProviderID)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// IssueToken signs an HS256 access token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := &Claims{
		Nickname: user.Nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	if user.KakaoID != nil {
		claims.KakaoID = *user.KakaoID
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken verifies an access token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user", id)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// Withdraw deletes the user with everything they own. Unlinking at the
// provider is best effort; its failure only produces a warning.
func (s *AuthService) Withdraw(ctx context.Context, userID uint64) (*WithdrawResult, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	result := &WithdrawResult{}
	if user.HasKakaoAccount() {
		if err := s.unlink(ctx, *user.KakaoID); err != nil {
			log.Printf("Warning: failed to unlink kakao account for user %d: %v", userID, err)
			result.Warning = UnlinkWarning
		}
	}

	if err := s.userRepo.DeleteWithOwnedData(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user", userID)
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	return result, nil
}

func (s *AuthService) unlink(ctx context.Context, kakaoID string) error {
	if s.provider == nil {
		return apperrors.NewUpstream(kakaoServiceName, apperrors.ErrNotConfigured)
	}
	return s.provider.Unlink(ctx, kakaoID)
}
