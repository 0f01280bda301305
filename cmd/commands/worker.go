package commands

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leadsourcer/leadsourcer/config"
	"github.com/leadsourcer/leadsourcer/internal/services"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the job worker without the API server",
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

		<-ctx.Done()
		wg.Wait()
		return nil
	},
}
