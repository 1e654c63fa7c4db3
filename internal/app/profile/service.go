package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"backend/internal/app/session"
	"backend/internal/providers/redis"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	profileCacheTTL   = 5 * time.Minute
	maxUsernameLength = 20
	maxUsernameSuffix = 999
)

var displayNameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
var countryCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

type Service interface {
	GuestSignup(ctx context.Context, req *GuestSignupRequest, userAgent string) (*SignupResponse, error)
	GetBySessionKey(ctx context.Context, sessionKey string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
	UpdateDisplayName(ctx context.Context, userID uuid.UUID, displayName string) error
	UpdateCountry(ctx context.Context, userID uuid.UUID, countryCode string) error
	UpdateFlagVisibility(ctx context.Context, userID uuid.UUID, show bool) error
	TouchLastSeen(userID uuid.UUID)
}

type service struct {
	repo        Repository
	sessionSvc  session.Service
	redisP      *redis.RedisProvider
	logger      *zap.SugaredLogger
	cachePrefix string
}

func NewService(repo Repository, sessionSvc session.Service, redisP *redis.RedisProvider, logger *zap.Logger) Service {
	return &service{
		repo:        repo,
		sessionSvc:  sessionSvc,
		redisP:      redisP,
		logger:      logger.Sugar(),
		cachePrefix: "profile:user",
	}
}

func (s *service) GuestSignup(ctx context.Context, req *GuestSignupRequest, userAgent string) (*SignupResponse, error) {
	if !req.AgeConfirmed || !req.TermsAccepted {
		return nil, fmt.Errorf("age confirmation and terms acceptance are required")
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if !displayNameRe.MatchString(displayName) {
		return nil, fmt.Errorf("display name can only contain letters, numbers, and underscores")
	}
	if !req.Vibe.Valid() {
		return nil, fmt.Errorf("invalid vibe: %s", req.Vibe)
	}
	if err := validateInterests(req.Interests); err != nil {
		return nil, err
	}

	username, err := generateUniqueUsername(displayName, s.repo.UsernameExists)
	if err != nil {
		return nil, err
	}

	vibe := req.Vibe
	user := &User{
		Username:        username,
		DisplayName:     displayName,
		Age:             req.Age,
		IsGuest:         true,
		ShowCountryFlag: true,
		Vibe:            &vibe,
		Interests:       req.Interests,
		StatusLine:      req.StatusLine,
		PremiumTier:     TierFree,
		LastSeenAt:      time.Now().UTC(),
	}
	if user.Interests == nil {
		user.Interests = []string{}
	}

	if err := s.repo.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	sess, err := s.sessionSvc.Create(user.ID, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Infow("Guest signed up",
		"user_id", user.ID,
		"username", user.Username,
	)

	return &SignupResponse{User: user, SessionKey: sess.SessionKey}, nil
}

func (s *service) GetBySessionKey(ctx context.Context, sessionKey string) (*User, error) {
	sess, err := s.sessionSvc.GetByKey(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	return s.GetByID(ctx, sess.UserID)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	cacheKey := fmt.Sprintf("%s:%s", s.cachePrefix, id)
	cached, err := s.redisP.Get(ctx, cacheKey).Result()
	if err == nil && cached != "" {
		var user User
		if json.Unmarshal([]byte(cached), &user) == nil {
			return &user, nil
		}
	}

	user, err := s.repo.GetUserByID(id)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if data, err := json.Marshal(user); err == nil {
		s.redisP.SetEX(ctx, cacheKey, data, profileCacheTTL)
	}
	return user, nil
}

func (s *service) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error) {
	return s.repo.GetUsersByIDs(ids)
}

func (s *service) UpdateDisplayName(ctx context.Context, userID uuid.UUID, displayName string) error {
	displayName = strings.TrimSpace(displayName)
	if !displayNameRe.MatchString(displayName) {
		return fmt.Errorf("display name can only contain letters, numbers, and underscores")
	}
	if err := s.repo.UpdateDisplayName(userID, displayName); err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *service) UpdateCountry(ctx context.Context, userID uuid.UUID, countryCode string) error {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if !countryCodeRe.MatchString(countryCode) {
		return fmt.Errorf("country code must be a two-letter ISO code")
	}
	if err := s.repo.UpdateCountry(userID, countryCode); err != nil {
		return fmt.Errorf("failed to update country: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *service) UpdateFlagVisibility(ctx context.Context, userID uuid.UUID, show bool) error {
	if err := s.repo.UpdateFlagVisibility(userID, show); err != nil {
		return fmt.Errorf("failed to update flag visibility: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *service) TouchLastSeen(userID uuid.UUID) {
	if err := s.repo.TouchLastSeen(userID); err != nil {
		s.logger.Warnw("Failed to touch last seen", "user_id", userID, "error", err)
	}
}

func (s *service) invalidate(ctx context.Context, userID uuid.UUID) {
	s.redisP.Del(ctx, fmt.Sprintf("%s:%s", s.cachePrefix, userID))
}

func validateInterests(interests []string) error {
	if len(interests) > MaxInterests {
		return fmt.Errorf("you can select up to %d interests", MaxInterests)
	}
	for _, tag := range interests {
		known := false
		for _, allowed := range InterestTags {
			if tag == allowed {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown interest tag: %s", tag)
		}
	}
	return nil
}

// generateUniqueUsername derives a unique username from the chosen
// display name, appending sequential suffixes when the base is taken.
func generateUniqueUsername(displayName string, exists func(string) (bool, error)) (string, error) {
	baseName := strings.TrimSpace(displayName)

	taken, err := exists(baseName)
	if err != nil {
		return "", fmt.Errorf("failed to check username: %w", err)
	}
	if !taken {
		return baseName, nil
	}

	for suffix := 1; suffix <= maxUsernameSuffix; suffix++ {
		candidate := fmt.Sprintf("%s%d", baseName, suffix)
		if len(candidate) > maxUsernameLength {
			return "", fmt.Errorf("cannot generate unique username: %q is too long", baseName)
		}
		taken, err := exists(candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("unable to generate unique username for %q", baseName)
}
