// Package commands implements the leadsourcer CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/leadsourcer/leadsourcer/config"
	"github.com/leadsourcer/leadsourcer/internal/clients/clay"
	"github.com/leadsourcer/leadsourcer/internal/clients/enrichment"
	"github.com/leadsourcer/leadsourcer/internal/clients/github"
	"github.com/leadsourcer/leadsourcer/internal/db"
	"github.com/leadsourcer/leadsourcer/internal/db/repos"
	"github.com/leadsourcer/leadsourcer/internal/logger"
	"github.com/leadsourcer/leadsourcer/internal/services"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "leadsourcer",
	Short: "Leadsourcer - GitHub lead sourcing and enrichment pipeline",
	Long: `Leadsourcer discovers leads from GitHub repositories, enriches them with
professional profile data, scores them, and exports them to Clay.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.InitializeAndConfigure()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(workerCmd)
	RootCmd.AddCommand(migrateCmd)
}

func openDatabase(cfg config.Config) (*gorm.DB, error) {
	conn, err := db.New(db.Options{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// buildProcessor wires the job processor with its repositories and the
// external adapter clients. Adapter credentials resolved per job through
// settings still take precedence; the env values here are the fallback.
func buildProcessor(cfg config.Config, conn *gorm.DB) *services.Processor {
	return services.NewProcessor(cfg, services.ProcessorDeps{
		Jobs:         repos.NewJobRepository(conn),
		Steps:        repos.NewProgressRepository(conn),
		Contributors: repos.NewContributorRepository(conn),
		Scores:       repos.NewScoreRepository(conn),
		PushLogs:     repos.NewClayPushRepository(conn),
		Orgs:         repos.NewOrgRepository(conn),
		Billing:      repos.NewBillingRepository(conn),

		Fetcher:    github.New(config.GetEnv("GITHUB_TOKEN", "")),
		Enricher:   enrichment.NewSearcher(config.GetEnv("SERPER_API_KEY", "")),
		Classifier: enrichment.NewClassifier(config.GetEnv("OPENAI_API_KEY", ""), config.GetEnv("OPENAI_MODEL", "")),
		Pusher:     clay.New(),
	})
}
