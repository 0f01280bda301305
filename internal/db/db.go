// Package db provides database connectivity and migrations.
package db

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/leadsourcer/leadsourcer/internal/db/models"
)

// Options represents database connection configuration options
type Options struct {
	Host     string
	User     string
	Password string
	DBName   string
	Port     int
	SSLMode  string
	LogLevel logger.LogLevel
}

// New creates a new database connection with the given options
func New(opts Options) (*gorm.DB, error) {
	opts = setDefaults(opts)
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		opts.Host, opts.User, opts.Password, opts.DBName, opts.Port, opts.SSLMode)

	// Custom logger so record-not-found lookups don't pollute the logs.
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func setDefaults(opts Options) Options {
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	if opts.User == "" {
		opts.User = "postgres"
	}
	if opts.Password == "" {
		opts.Password = "postgres"
	}
	if opts.DBName == "" {
		opts.DBName = "leadsourcer"
	}
	if opts.Port == 0 {
		opts.Port = 5432
	}
	if opts.SSLMode == "" {
		opts.SSLMode = "disable"
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	return opts
}

// Migrate runs schema migrations for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrgMember{},
		&models.AppSetting{},
		&models.OrgSetting{},
		&models.Project{},
		&models.Repository{},
		&models.Contributor{},
		&models.RepositoryContributor{},
		&models.ContributorStats{},
		&models.SocialContext{},
		&models.LeadScore{},
		&models.SourcingJob{},
		&models.JobProgress{},
		&models.OrgBilling{},
		&models.CreditTransaction{},
		&models.UsageEvent{},
		&models.ClayPushLog{},
	)
}
