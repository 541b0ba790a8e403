package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/spindle/internal/export"
	"github.com/zulandar/spindle/internal/job"
	"github.com/zulandar/spindle/internal/metrics"
	"github.com/zulandar/spindle/internal/models"
	"github.com/zulandar/spindle/internal/store"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type handlers struct {
	jobs    *job.Manager
	log     *slog.Logger
	poll    time.Duration
	metrics *metrics.Metrics
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) dashboard(c *gin.Context) {
	board, err := h.jobs.Dashboard(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"machines": h.jobs.Machines(), "dashboard": board})
}

func (h *handlers) listJobs(c *gin.Context) {
	filter := store.JobFilter{Machine: c.Query("machine")}
	if s := c.Query("stage"); s != "" {
		filter.Stage = models.Stage(s)
		if !filter.Stage.Valid() {
			badRequest(c, fmt.Sprintf("stage %q must be current or next", s))
			return
		}
	}
	order, ok := store.ParseOrder(c.Query("order"))
	if !ok {
		badRequest(c, fmt.Sprintf("order %q must be asc or desc", c.Query("order")))
		return
	}
	filter.Order = order
	jobs, err := h.jobs.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func (h *handlers) createJob(c *gin.Context) {
	var f job.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	j, err := h.jobs.Create(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, j)
}

func (h *handlers) getJob(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}
	j, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (h *handlers) replaceJob(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}
	var f job.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	j, err := h.jobs.Replace(c.Request.Context(), id, f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (h *handlers) finishJob(c *gin.Context) {
	id, ok := jobID(c)
	if !ok {
		return
	}
	res, err := h.jobs.Finish(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) navigate(c *gin.Context) {
	var current uint
	if raw := c.Query("current_job_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, fmt.Sprintf("current_job_id %q must be a positive integer", raw))
			return
		}
		current = uint(n)
	}
	j, err := h.jobs.Navigate(c.Request.Context(), c.Param("machine"), job.Direction(c.Param("direction")), current)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": j})
}

func (h *handlers) listArchive(c *gin.Context) {
	rows, err := h.jobs.ListArchive(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": rows, "count": len(rows)})
}

func (h *handlers) clearArchive(c *gin.Context) {
	n, err := h.jobs.ClearArchive(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *handlers) exportJobs(c *gin.Context) {
	jobs, err := h.jobs.List(c.Request.Context(), store.JobFilter{})
	if err != nil {
		h.writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteJobs(&buf, jobs); err != nil {
		h.writeError(c, err)
		return
	}
	sendWorkbook(c, "jobs.xlsx", buf.Bytes())
}

func (h *handlers) exportArchive(c *gin.Context) {
	rows, err := h.jobs.ListArchive(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteArchive(&buf, rows); err != nil {
		h.writeError(c, err)
		return
	}
	sendWorkbook(c, "archive.xlsx", buf.Bytes())
}

func sendWorkbook(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxMIME, data)
}

// jobID parses the :id path parameter, writing a 400 when it is malformed.
func jobID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		badRequest(c, fmt.Sprintf("job id %q must be a positive integer", c.Param("id")))
		return 0, false
	}
	return uint(n), true
}
