package statsapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/casperlundberg/omegasim/internal/resultstore"
)

// Server exposes stored run summaries over HTTP.
type Server struct {
	router *gin.Engine
	repo   *resultstore.Repository
	port   string
}

// NewServer builds a Server backed by repo, listening on port.
func NewServer(repo *resultstore.Repository, port string) *Server {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(config))

	s := &Server{router: router, repo: repo, port: port}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")

	api.GET("/runs", s.listRuns)
	api.GET("/runs/:id", s.getRun)
	api.DELETE("/runs/:id", s.deleteRun)

	api.GET("/runs/:id/schedulers", s.getSchedulerSummaries)
	api.GET("/runs/:id/events", s.getEvents)
	api.GET("/runs/:id/daily", s.getDailyOutcomes)
	api.GET("/runs/:id/summary", s.getRunSummary)

	api.GET("/health", s.healthCheck)
}

// Start blocks serving HTTP on the configured port.
func (s *Server) Start() error {
	return s.router.Run(":" + s.port)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now()})
}

func (s *Server) listRuns(c *gin.Context) {
	runs, err := s.repo.ListRuns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.repo.GetRun(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) deleteRun(c *gin.Context) {
	if err := s.repo.DeleteRun(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "run deleted"})
}

func (s *Server) getSchedulerSummaries(c *gin.Context) {
	summaries, err := s.repo.GetSchedulerSummaries(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) getEvents(c *gin.Context) {
	events, err := s.repo.GetEvents(c.Param("id"), c.Query("type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) getDailyOutcomes(c *gin.Context) {
	outcomes, err := s.repo.GetDailyOutcomes(c.Param("id"), c.Query("scheduler"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcomes)
}

func (s *Server) getRunSummary(c *gin.Context) {
	summary, err := s.repo.GetRunSummary(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}
