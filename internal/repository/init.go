package repository

import (
	"gorm.io/gorm"

	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/models"
)

type Repositories struct {
	AccountRepository interfaces.AccountRepository
	EmailRepository   interfaces.EmailRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		AccountRepository: NewAccountRepository(db),
		EmailRepository:   NewEmailRepository(db),
	}
}

func MigrateTempmailDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(5)

	return db.AutoMigrate(
		&models.Account{},
		&models.Email{},
	)
}
