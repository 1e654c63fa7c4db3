package seeder

import (
	"backend/internal/app/profile"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Seeder struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSeeder(db *gorm.DB, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     db,
		logger: logger,
	}
}

func (s *Seeder) Seed() error {
	s.logger.Info("Running database seeders...")

	if err := s.seedProfiles(); err != nil {
		return err
	}

	s.logger.Info("Database seeders completed successfully")
	return nil
}

// seedProfiles fills an empty dev database with a few lobby profiles.
func (s *Seeder) seedProfiles() error {
	var count int64
	s.db.Model(&profile.User{}).Count(&count)
	if count > 0 {
		s.logger.Info("Users already exist, skipping seed")
		return nil
	}

	soft := profile.VibeSoft
	flirty := profile.VibeFlirty
	spicy := profile.VibeSpicy

	users := []profile.User{
		{
			ID:          uuid.New(),
			Username:    "NightOwl1",
			DisplayName: "NightOwl",
			Age:         27,
			Vibe:        &flirty,
			Interests:   []string{"Playful teasing", "Story-driven"},
			CountryCode: ptr("DE"),
			PremiumTier: profile.TierFree,
		},
		{
			ID:          uuid.New(),
			Username:    "Stargazer1",
			DisplayName: "Stargazer",
			Age:         31,
			Vibe:        &soft,
			Interests:   []string{"Emotional support", "Confessions"},
			CountryCode: ptr("FR"),
			PremiumTier: profile.TierFree,
		},
		{
			ID:          uuid.New(),
			Username:    "Wildcard1",
			DisplayName: "Wildcard",
			Age:         24,
			Vibe:        &spicy,
			Interests:   []string{"Roleplay", "Kink-friendly", "Power exchange"},
			PremiumTier: profile.TierPremium,
		},
	}

	if err := s.db.Create(&users).Error; err != nil {
		return err
	}

	s.logger.Info("Seeded users", zap.Int("count", len(users)))
	return nil
}

func ptr(s string) *string {
	return &s
}
