package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service interface {
	Create(userID uuid.UUID, userAgent string) (*Session, error)
	GetByKey(sessionKey string) (*Session, error)
	Touch(sessionID uuid.UUID) error
	End(sessionID uuid.UUID) error
	CloseIdleSessions(idleFor time.Duration) (int64, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(userID uuid.UUID, userAgent string) (*Session, error) {
	sessionKey, err := generateSessionKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}

	now := time.Now().UTC()
	session := &Session{
		SessionKey: sessionKey,
		UserID:     userID,
		StartedAt:  now,
		LastSeenAt: now,
		CreatedAt:  now,
	}
	if userAgent != "" {
		session.UserAgent = &userAgent
	}

	if err := s.repo.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

func (s *service) GetByKey(sessionKey string) (*Session, error) {
	return s.repo.GetSessionByKey(sessionKey)
}

func (s *service) Touch(sessionID uuid.UUID) error {
	return s.repo.TouchSession(sessionID)
}

func (s *service) End(sessionID uuid.UUID) error {
	return s.repo.UpdateSessionEndedAt(sessionID)
}

func (s *service) CloseIdleSessions(idleFor time.Duration) (int64, error) {
	return s.repo.CloseIdleSessions(time.Now().UTC().Add(-idleFor))
}

func generateSessionKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
