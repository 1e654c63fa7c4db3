package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/app/profile"
	"backend/internal/app/safety"
	"backend/internal/config"
	"backend/internal/providers/redis"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const keyPrefix = "online:user"

// Service keeps the ephemeral online-user registry. Entries live in
// Redis under a TTL and vanish on their own when heartbeats stop, so
// a crashed client never stays "online".
type Service interface {
	MarkOnline(ctx context.Context, userID uuid.UUID) error
	Heartbeat(ctx context.Context, userID uuid.UUID) error
	MarkOffline(ctx context.Context, userID uuid.UUID) error
	ListOnline(ctx context.Context, viewerID uuid.UUID) ([]*OnlineUser, error)
}

type service struct {
	redisP     *redis.RedisProvider
	profileSvc profile.Service
	safetySvc  safety.Service
	logger     *zap.SugaredLogger
	ttl        time.Duration
}

func NewService(
	redisP *redis.RedisProvider,
	profileSvc profile.Service,
	safetySvc safety.Service,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		redisP:     redisP,
		profileSvc: profileSvc,
		safetySvc:  safetySvc,
		logger:     logger.Sugar(),
		ttl:        cfg.PresenceTTL,
	}
}

func (s *service) MarkOnline(ctx context.Context, userID uuid.UUID) error {
	user, err := s.profileSvc.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}

	entry := &OnlineUser{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Age:         user.Age,
		StatusLine:  user.StatusLine,
		OnlineAt:    time.Now().UTC(),
	}
	if user.Vibe != nil {
		v := string(*user.Vibe)
		entry.Vibe = &v
	}
	if user.ShowCountryFlag {
		entry.CountryCode = user.CountryCode
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := s.redisP.SetEX(ctx, s.key(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark online: %w", err)
	}

	s.profileSvc.TouchLastSeen(userID)
	return nil
}

func (s *service) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	extended, err := s.redisP.Expire(ctx, s.key(userID), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to refresh presence: %w", err)
	}
	if !extended {
		// Entry already expired; rebuild it.
		return s.MarkOnline(ctx, userID)
	}
	return nil
}

func (s *service) MarkOffline(ctx context.Context, userID uuid.UUID) error {
	s.profileSvc.TouchLastSeen(userID)
	return s.redisP.Del(ctx, s.key(userID)).Err()
}

// ListOnline returns everyone currently online except the viewer and
// anyone either side has blocked.
func (s *service) ListOnline(ctx context.Context, viewerID uuid.UUID) ([]*OnlineUser, error) {
	blocked, err := s.safetySvc.GetBlockedIDs(viewerID)
	if err != nil {
		s.logger.Warnw("Failed to load block list for lobby", "user_id", viewerID, "error", err)
		blocked = nil
	}
	blockedSet := make(map[uuid.UUID]bool, len(blocked))
	for _, id := range blocked {
		blockedSet[id] = true
	}

	users := make([]*OnlineUser, 0)
	var cursor uint64
	pattern := keyPrefix + ":*"

	for {
		keys, cur, err := s.redisP.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan presence keys: %w", err)
		}

		for _, key := range keys {
			raw, err := s.redisP.Get(ctx, key).Result()
			if err != nil || raw == "" {
				continue
			}
			var entry OnlineUser
			if json.Unmarshal([]byte(raw), &entry) != nil {
				continue
			}
			if entry.UserID == viewerID || blockedSet[entry.UserID] {
				continue
			}
			if hidden, err := s.safetySvc.IsBlockedEitherWay(viewerID, entry.UserID); err == nil && hidden {
				continue
			}
			users = append(users, &entry)
		}

		if cur == 0 {
			break
		}
		cursor = cur
	}

	return users, nil
}

func (s *service) key(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", keyPrefix, userID)
}
