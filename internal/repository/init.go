package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/NeonAnubis/afrimail-backend/interfaces"
	"github.com/NeonAnubis/afrimail-backend/internal/config"
	"github.com/NeonAnubis/afrimail-backend/internal/models"
)

type Repositories struct {
	SendingTierRepository     interfaces.SendingTierRepository
	SendingLimitRepository    interfaces.SendingLimitRepository
	SendLogRepository         interfaces.SendLogRepository
	ViolationRepository       interfaces.ViolationRepository
	MailboxMetadataRepository interfaces.MailboxMetadataRepository
	AliasCacheRepository      interfaces.AliasCacheRepository
	DomainCacheRepository     interfaces.DomainCacheRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		SendingTierRepository:     NewSendingTierRepository(db),
		SendingLimitRepository:    NewSendingLimitRepository(db),
		SendLogRepository:         NewSendLogRepository(db),
		ViolationRepository:       NewViolationRepository(db),
		MailboxMetadataRepository: NewMailboxMetadataRepository(db),
		AliasCacheRepository:      NewAliasCacheRepository(db),
		DomainCacheRepository:     NewDomainCacheRepository(db),
	}
}

func MigrateDB(dbConfig *config.DatabaseConfig, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(5)

	err = db.AutoMigrate(
		&models.SendingTier{},
		&models.EmailSendingLimit{},
		&models.EmailSendLog{},
		&models.SendingLimitViolation{},
		&models.MailboxMetadata{},
		&models.EmailAlias{},
		&models.MailDomain{},
	)

	sqlDB.Close()

	sqlDB, _ = db.DB()
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConn)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConn)
	sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
