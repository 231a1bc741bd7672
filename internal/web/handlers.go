package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kkandukuri/pricetracker/internal/domain"
	"github.com/kkandukuri/pricetracker/internal/ports"
	"github.com/kkandukuri/pricetracker/internal/siteconfig"
	"github.com/kkandukuri/pricetracker/internal/targets"
)

func (s *Server) listProducts(c *gin.Context) {
	list, err := s.repo.List(c.Request.Context())
	if err != nil {
		s.logger.Error("list products", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch products"})
		return
	}
	if list == nil {
		list = []domain.Product{}
	}
	c.JSON(http.StatusOK, list)
}

type trackRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *Server) trackProduct(c *gin.Context) {
	var input trackRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	product, err := s.tracker.Track(c.Request.Context(), input.URL)
	if err != nil {
		s.logger.Error("track product", "url", input.URL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("failed to track: %v", err)})
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (s *Server) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	p, err := s.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		s.logger.Error("get product", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) getPriceHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	deltas, err := s.ledger.Deltas(c.Request.Context(), id, limit)
	if err != nil {
		s.logger.Error("price history", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}
	if deltas == nil {
		deltas = []domain.PriceDelta{}
	}
	c.JSON(http.StatusOK, deltas)
}

func (s *Server) updateAll(c *gin.Context) {
	result, err := s.tracker.UpdateAll(c.Request.Context())
	if err != nil {
		s.logger.Error("update all", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":   result.Total,
		"updated": result.Updated,
		"failed":  result.Failed,
	})
}

type jobRequest struct {
	URLs         []string `json:"urls" binding:"required"`
	DelaySeconds float64  `json:"delay_seconds"`
}

func (s *Server) createJob(c *gin.Context) {
	var input jobRequest
	if err := c.ShouldBindJSON(&input); err != nil || len(input.URLs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	// Jobs outlive the request, so they run off the background context.
	job, err := s.orchestrator.Submit(context.Background(), input.URLs, input.DelaySeconds)
	if err != nil {
		s.logger.Error("create job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (s *Server) uploadTargets(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".txt" && ext != ".csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file type, use .txt or .csv"})
		return
	}

	delay := 0.0
	if raw := c.PostForm("delay"); raw != "" {
		delay, err = strconv.ParseFloat(raw, 64)
		if err != nil || delay < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delay"})
			return
		}
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		s.logger.Error("create upload dir", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}
	dst := filepath.Join(s.uploadDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		s.logger.Error("save upload", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	list, err := targets.ReadFile(dst)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unreadable target list: %v", err)})
		return
	}
	if len(list) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no targets in file"})
		return
	}

	job, err := s.orchestrator.Submit(context.Background(), targets.URLs(list), delay)
	if err != nil {
		s.logger.Error("create job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (s *Server) listJobs(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.List())
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) cancelJob(c *gin.Context) {
	job, err := s.store.Cancel(c.Param("id"))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) downloadArtifact(c *gin.Context) {
	job, err := s.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if job.Status != domain.JobCompleted || job.ArtifactFile == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "job has no artifact yet"})
		return
	}

	path := s.orchestrator.ArtifactPath(job)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact file missing"})
		return
	}
	c.FileAttachment(path, "products_"+job.ID+".csv")
}

func (s *Server) getSites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sites": s.overrides.Table()})
}

type sitesRequest struct {
	Sites map[string]siteconfig.Override `json:"sites"`
}

func (s *Server) updateSites(c *gin.Context) {
	var input sitesRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.Sites == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	// Persist first so a write failure leaves the live table untouched.
	if err := siteconfig.Save(s.sitesFile, input.Sites); err != nil {
		s.logger.Error("save site overrides", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save site config"})
		return
	}
	s.overrides.Replace(input.Sites)
	c.JSON(http.StatusOK, gin.H{"sites": len(input.Sites)})
}

func (s *Server) stats(c *gin.Context) {
	products, err := s.repo.List(c.Request.Context())
	if err != nil {
		s.logger.Error("stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	byStatus := make(map[domain.JobStatus]int)
	jobsList := s.store.List()
	for _, job := range jobsList {
		byStatus[job.Status]++
	}

	c.JSON(http.StatusOK, gin.H{
		"products": len(products),
		"jobs": gin.H{
			"total":     len(jobsList),
			"queued":    byStatus[domain.JobQueued],
			"running":   byStatus[domain.JobRunning],
			"completed": byStatus[domain.JobCompleted],
			"failed":    byStatus[domain.JobFailed],
			"cancelled": byStatus[domain.JobCancelled],
		},
	})
}
