package commands

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"

	"github.com/leadsourcer/leadsourcer/config"
	"github.com/leadsourcer/leadsourcer/internal/api/v1/handlers"
	"github.com/leadsourcer/leadsourcer/internal/api/v1/routes"
	"github.com/leadsourcer/leadsourcer/internal/db/repos"
	"github.com/leadsourcer/leadsourcer/internal/logger"
	"github.com/leadsourcer/leadsourcer/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server together with the job worker",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg := config.Load()
		conn, err := openDatabase(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var wg sync.WaitGroup
		wg.Add(1)
		go services.LaunchWorker(ctx, &wg, buildProcessor(cfg, conn))

		app := fiber.New(fiber.Config{
			ErrorHandler: errorHandler,
		})
		app.Use(fiberlogger.New())

		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "healthy"})
		})

		jobService := services.NewJobService(
			repos.NewJobRepository(conn),
			repos.NewProgressRepository(conn),
		)
		routes.Register(app, handlers.NewJobHandler(jobService))

		go func() {
			<-ctx.Done()
			logger.Info("Shutting down API server...")
			if err := app.Shutdown(); err != nil {
				logger.Errorf("API server shutdown error: %v", err)
			}
		}()

		logger.Infof("API server listening on %s", cfg.ListenAddr)
		if err := app.Listen(cfg.ListenAddr); err != nil {
			stop()
			wg.Wait()
			return err
		}
		wg.Wait()
		return nil
	},
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
