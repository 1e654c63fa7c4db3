package db

import (
	"backend/internal/app/conversation"
	"backend/internal/app/message"
	"backend/internal/app/profile"
	"backend/internal/app/safety"
	"backend/internal/app/session"
	"backend/internal/app/spark"
	"backend/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.PostgresDSN()
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", cfg.DBHost),
		zap.String("database", cfg.DBName),
	)

	return db, nil
}

func Migrate(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(
		&profile.User{},
		&session.Session{},
		&safety.Block{},
		&safety.Report{},
		&spark.ProfileReaction{},
		&spark.ReactionQuota{},
		&conversation.Conversation{},
		&message.Message{},
		&message.MessageReaction{},
	); err != nil {
		return err
	}

	logger.Info("Database migrations applied")
	return nil
}
