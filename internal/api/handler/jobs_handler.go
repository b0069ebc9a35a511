package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lastmile/admin-api/internal/infrastructure/jobs"
)

// JobsHandler exposes the state of scheduled maintenance jobs to operators.
type JobsHandler struct {
	scheduler *jobs.Scheduler
}

func NewJobsHandler(scheduler *jobs.Scheduler) *JobsHandler {
	return &JobsHandler{scheduler: scheduler}
}

// List returns every registered job with its last and next run.
//
// @Summary      List scheduled jobs
// @Tags         admin
// @Produce      json
// @Success      200  {array}   jobs.JobStatus
// @Failure      401  {object}  api.Problem
// @Failure      403  {object}  api.Problem
// @Router       /api/admin/jobs [get]
func (h *JobsHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.Snapshot())
}
