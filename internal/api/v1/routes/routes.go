// Package routes wires the v1 API routes to their handlers.
package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leadsourcer/leadsourcer/internal/api/v1/handlers"
)

// SetupRoutes configures all the v1 routes
func SetupRoutes(router fiber.Router, jobs *handlers.JobHandler) {
	group := router.Group("/jobs")
	group.Get("/", jobs.ListJobs)
	group.Post("/", jobs.CreateJob)
	group.Get("/stats/summary", jobs.GetJobStats)
	group.Get("/:id", jobs.GetJob)
	group.Post("/:id/cancel", jobs.CancelJob)
}

// Register registers the v1 routes
func Register(app *fiber.App, jobs *handlers.JobHandler) {
	v1Group := app.Group("/api/v1")
	SetupRoutes(v1Group, jobs)
}
