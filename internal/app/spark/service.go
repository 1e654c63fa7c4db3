package spark

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"backend/internal/app/profile"
	"backend/internal/app/safety"
	"backend/internal/config"
	"backend/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrQuotaExceeded = errors.New("daily spark limit reached")
	ErrBlocked       = errors.New("cannot send spark to this user")
	ErrSelfSpark     = errors.New("you cannot spark yourself")
	ErrUndoExpired   = errors.New("spark is too old to undo")
	ErrNoSpark       = errors.New("no spark to undo")
)

type Service interface {
	SendSpark(ctx context.Context, reactorID uuid.UUID, req *SendSparkRequest) (*SendSparkResult, error)
	DeleteSpark(ctx context.Context, reactorID, targetID uuid.UUID) (bool, error)
	ListSparks(ctx context.Context, userID uuid.UUID, listType string) ([]*SparkListItem, error)
	Quota(ctx context.Context, userID uuid.UUID) (*QuotaStatus, error)
	HasMutualSpark(a, b uuid.UUID) (bool, error)
}

type service struct {
	repo       Repository
	profileSvc profile.Service
	safetySvc  safety.Service
	eventBus   *utils.EventBus
	logger     *zap.SugaredLogger
	dailyLimit int
	undoWindow time.Duration
}

func NewService(
	repo Repository,
	profileSvc profile.Service,
	safetySvc safety.Service,
	eventBus *utils.EventBus,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		repo:       repo,
		profileSvc: profileSvc,
		safetySvc:  safetySvc,
		eventBus:   eventBus,
		logger:     logger.Sugar(),
		dailyLimit: cfg.SparkDailyLimit,
		undoWindow: cfg.SparkUndoWindow,
	}
}

func (s *service) SendSpark(ctx context.Context, reactorID uuid.UUID, req *SendSparkRequest) (*SendSparkResult, error) {
	if reactorID == req.TargetUserID {
		return nil, ErrSelfSpark
	}
	if !ValidEmoji(req.Emoji) {
		return nil, fmt.Errorf("invalid spark emoji: %s", req.Emoji)
	}

	blocked, err := s.safetySvc.IsBlockedEitherWay(reactorID, req.TargetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocks: %w", err)
	}
	if blocked {
		return nil, ErrBlocked
	}

	reactor, err := s.profileSvc.GetByID(ctx, reactorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reactor profile: %w", err)
	}

	// Re-sparking only changes the emoji; quota is charged for new
	// sparks alone.
	existing, err := s.repo.GetReaction(reactorID, req.TargetUserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing spark: %w", err)
	}
	isUpdate := existing != nil
	var previousEmoji *string
	if isUpdate {
		prev := existing.Emoji
		previousEmoji = &prev
	}

	if !reactor.IsPremium() && !isUpdate {
		status, err := s.Quota(ctx, reactorID)
		if err != nil {
			return nil, err
		}
		if status.Remaining <= 0 {
			return nil, ErrQuotaExceeded
		}
	}

	reaction, err := s.repo.UpsertReaction(reactorID, req.TargetUserID, req.Emoji)
	if err != nil {
		return nil, fmt.Errorf("failed to save spark: %w", err)
	}

	if !reactor.IsPremium() && !isUpdate {
		if err := s.repo.IncrementQuota(reactorID, QuotaDate(time.Now())); err != nil {
			s.logger.Warnw("Failed to increment spark quota", "user_id", reactorID, "error", err)
		}
	}

	mutual, err := s.repo.HasMutualSpark(reactorID, req.TargetUserID)
	if err != nil {
		s.logger.Warnw("Failed to check mutual spark", "error", err)
		mutual = false
	}

	s.eventBus.Publish(utils.TopicSparkReceived, &SparkEvent{
		ReactorID: reactorID,
		TargetID:  req.TargetUserID,
		Emoji:     req.Emoji,
		Mutual:    mutual,
		Timestamp: time.Now().UTC().Unix(),
	})

	s.logger.Infow("Spark sent",
		"reactor_id", reactorID,
		"target_id", req.TargetUserID,
		"emoji", req.Emoji,
		"mutual", mutual,
		"is_update", isUpdate,
	)

	return &SendSparkResult{
		Reaction:      reaction,
		MutualSpark:   mutual,
		IsUpdate:      isUpdate,
		PreviousEmoji: previousEmoji,
	}, nil
}

// DeleteSpark undoes a recent spark. Quota is refunded for free-tier
// users; the bool reports whether a refund happened.
func (s *service) DeleteSpark(ctx context.Context, reactorID, targetID uuid.UUID) (bool, error) {
	existing, err := s.repo.GetReaction(reactorID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNoSpark
		}
		return false, fmt.Errorf("failed to get spark: %w", err)
	}

	if time.Since(existing.CreatedAt) > s.undoWindow {
		return false, ErrUndoExpired
	}

	if _, err := s.repo.DeleteReaction(reactorID, targetID); err != nil {
		return false, fmt.Errorf("failed to delete spark: %w", err)
	}

	reactor, err := s.profileSvc.GetByID(ctx, reactorID)
	if err != nil {
		return false, nil
	}

	refunded := false
	if !reactor.IsPremium() {
		refunded, err = s.repo.DecrementQuota(reactorID, QuotaDate(existing.CreatedAt))
		if err != nil {
			s.logger.Warnw("Failed to refund spark quota", "user_id", reactorID, "error", err)
			refunded = false
		}
	}

	s.logger.Infow("Spark undone",
		"reactor_id", reactorID,
		"target_id", targetID,
		"quota_refunded", refunded,
	)
	return refunded, nil
}

func (s *service) ListSparks(ctx context.Context, userID uuid.UUID, listType string) ([]*SparkListItem, error) {
	var reactions []*ProfileReaction
	var err error
	var otherID func(r *ProfileReaction) uuid.UUID

	switch listType {
	case "sent", "mutual":
		reactions, err = s.repo.ListByReactor(userID)
		otherID = func(r *ProfileReaction) uuid.UUID { return r.TargetID }
	case "received", "incoming":
		reactions, err = s.repo.ListByTarget(userID)
		otherID = func(r *ProfileReaction) uuid.UUID { return r.ReactorID }
	default:
		return nil, fmt.Errorf("invalid type parameter: %q", listType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sparks: %w", err)
	}

	items := make([]*SparkListItem, 0, len(reactions))
	for _, reaction := range reactions {
		other := otherID(reaction)
		mutual, err := s.repo.HasMutualSpark(userID, other)
		if err != nil {
			return nil, fmt.Errorf("failed to check mutual spark: %w", err)
		}
		if listType == "mutual" && !mutual {
			continue
		}

		user, err := s.profileSvc.GetByID(ctx, other)
		if err != nil {
			s.logger.Warnw("Spark references missing profile", "user_id", other, "error", err)
			continue
		}

		items = append(items, &SparkListItem{
			Reaction: reaction,
			Profile:  toSparkProfile(user),
			IsMutual: mutual,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Reaction.CreatedAt.After(items[j].Reaction.CreatedAt)
	})
	return items, nil
}

func (s *service) Quota(ctx context.Context, userID uuid.UUID) (*QuotaStatus, error) {
	user, err := s.profileSvc.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if user.IsPremium() {
		return &QuotaStatus{Remaining: -1, Limit: -1, IsPremium: true}, nil
	}

	used, err := s.repo.GetQuotaCount(userID, QuotaDate(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to get quota: %w", err)
	}

	remaining := s.dailyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaStatus{Remaining: remaining, Limit: s.dailyLimit, IsPremium: false}, nil
}

func (s *service) HasMutualSpark(a, b uuid.UUID) (bool, error) {
	return s.repo.HasMutualSpark(a, b)
}

func toSparkProfile(u *profile.User) *SparkProfile {
	p := &SparkProfile{
		ID:              u.ID,
		DisplayName:     u.DisplayName,
		Age:             u.Age,
		Interests:       u.Interests,
		StatusLine:      u.StatusLine,
		CountryCode:     u.CountryCode,
		ShowCountryFlag: u.ShowCountryFlag,
		PremiumTier:     u.PremiumTier,
	}
	if u.Vibe != nil {
		v := string(*u.Vibe)
		p.Vibe = &v
	}
	if !u.ShowCountryFlag {
		p.CountryCode = nil
	}
	return p
}
