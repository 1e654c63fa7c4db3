package safety

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	BlockUser(blockerID, blockedID uuid.UUID) error
	UnblockUser(blockerID, blockedID uuid.UUID) error
	IsBlockedEitherWay(a, b uuid.UUID) (bool, error)
	GetBlockedIDs(blockerID uuid.UUID) ([]uuid.UUID, error)
	ReportUser(req *ReportRequest, reporterID uuid.UUID) (*Report, error)
}

type service struct {
	repo   Repository
	logger *zap.SugaredLogger
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger.Sugar()}
}

func (s *service) BlockUser(blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return fmt.Errorf("you cannot block yourself")
	}
	if err := s.repo.CreateBlock(&Block{BlockerID: blockerID, BlockedID: blockedID}); err != nil {
		return err
	}
	s.logger.Infow("User blocked", "blocker_id", blockerID, "blocked_id", blockedID)
	return nil
}

func (s *service) UnblockUser(blockerID, blockedID uuid.UUID) error {
	removed, err := s.repo.DeleteBlock(blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("failed to unblock user: %w", err)
	}
	if !removed {
		return fmt.Errorf("user is not blocked")
	}
	return nil
}

func (s *service) IsBlockedEitherWay(a, b uuid.UUID) (bool, error) {
	return s.repo.IsBlockedEitherWay(a, b)
}

func (s *service) GetBlockedIDs(blockerID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.GetBlockedIDs(blockerID)
}

func (s *service) ReportUser(req *ReportRequest, reporterID uuid.UUID) (*Report, error) {
	if reporterID == req.ReportedID {
		return nil, fmt.Errorf("you cannot report yourself")
	}
	if !req.Reason.Valid() {
		return nil, fmt.Errorf("invalid report reason: %s", req.Reason)
	}

	report := &Report{
		ReporterID: reporterID,
		ReportedID: req.ReportedID,
		Reason:     req.Reason,
		Details:    req.Details,
		Status:     "pending",
	}
	if err := s.repo.CreateReport(report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	s.logger.Infow("User reported",
		"reporter_id", reporterID,
		"reported_id", req.ReportedID,
		"reason", req.Reason,
	)
	return report, nil
}
