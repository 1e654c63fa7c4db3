package conversation

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/app/profile"
	"backend/internal/app/safety"
	"backend/internal/app/spark"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrSelfConversation = errors.New("you cannot start a conversation with yourself")
	ErrNoMutualSpark    = errors.New("mutual spark required to start a conversation")
	ErrBlocked          = errors.New("cannot start a conversation with this user")
	ErrNotParticipant   = errors.New("you are not part of this conversation")
)

type Service interface {
	GetOrCreate(ctx context.Context, userID, otherUserID uuid.UUID) (*Conversation, error)
	GetForParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*Conversation, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Summary, error)
}

type service struct {
	repo       Repository
	profileSvc profile.Service
	safetySvc  safety.Service
	sparkSvc   spark.Service
	logger     *zap.SugaredLogger
}

func NewService(
	repo Repository,
	profileSvc profile.Service,
	safetySvc safety.Service,
	sparkSvc spark.Service,
	logger *zap.Logger,
) Service {
	return &service{
		repo:       repo,
		profileSvc: profileSvc,
		safetySvc:  safetySvc,
		sparkSvc:   sparkSvc,
		logger:     logger.Sugar(),
	}
}

func (s *service) GetOrCreate(ctx context.Context, userID, otherUserID uuid.UUID) (*Conversation, error) {
	if userID == otherUserID {
		return nil, ErrSelfConversation
	}

	blocked, err := s.safetySvc.IsBlockedEitherWay(userID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocks: %w", err)
	}
	if blocked {
		return nil, ErrBlocked
	}

	mutual, err := s.sparkSvc.HasMutualSpark(userID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify mutual spark: %w", err)
	}
	if !mutual {
		return nil, ErrNoMutualSpark
	}

	conv, err := s.repo.GetByPair(userID, otherUserID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	conv = &Conversation{User1ID: userID, User2ID: otherUserID}
	if err := s.repo.Create(conv); err != nil {
		// A concurrent get-or-create for the same pair may have won.
		if existing, lookupErr := s.repo.GetByPair(userID, otherUserID); lookupErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	s.logger.Infow("Conversation created",
		"conversation_id", conv.ID,
		"user1_id", conv.User1ID,
		"user2_id", conv.User2ID,
	)
	return conv, nil
}

func (s *service) GetForParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*Conversation, error) {
	conv, err := s.repo.GetByID(conversationID)
	if err != nil {
		return nil, fmt.Errorf("conversation not found: %w", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*Summary, error) {
	convs, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	summaries := make([]*Summary, 0, len(convs))
	for _, conv := range convs {
		peerID := conv.OtherParticipant(userID)
		peer, err := s.profileSvc.GetByID(ctx, peerID)
		if err != nil {
			s.logger.Warnw("Conversation references missing profile",
				"conversation_id", conv.ID,
				"user_id", peerID,
			)
			continue
		}

		summary := &Summary{
			Conversation: conv,
			OtherUser:    toPeerProfile(peer),
		}

		if last, err := s.repo.LastMessage(conv.ID); err == nil {
			summary.LastMessage = last
		}
		if unread, err := s.repo.UnreadCount(conv.ID, userID); err == nil {
			summary.UnreadCount = unread
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func toPeerProfile(u *profile.User) *PeerProfile {
	p := &PeerProfile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Age:         u.Age,
		LastSeenAt:  u.LastSeenAt,
	}
	if u.Vibe != nil {
		v := string(*u.Vibe)
		p.Vibe = &v
	}
	if u.ShowCountryFlag {
		p.CountryCode = u.CountryCode
	}
	return p
}
