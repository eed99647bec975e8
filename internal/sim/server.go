package sim

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Server wires the store into the HTTP API the dashboard consumes.
type Server struct {
	store *Store
	cfg   Config
	log   *slog.Logger

	mu         sync.Mutex
	liveStarts map[string]time.Time // (test,system) -> first live poll
	now        func() time.Time
}

// NewServer creates a Server over an open store.
func NewServer(store *Store, cfg Config, log *slog.Logger) *Server {
	return &Server{
		store:      store,
		cfg:        cfg,
		log:        log,
		liveStarts: map[string]time.Time{},
		now:        time.Now,
	}
}

// Routes builds the gin engine with all endpoints registered.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/tests", s.handleTests)
	r.GET("/live_series", s.handleLiveSeries)
	r.GET("/series/:testID", s.handleSeries)
	r.GET("/characterization/:testID", s.handleCharacterization)
	r.POST("/upload", s.handleUpload)

	return r
}

func (s *Server) handleTests(c *gin.Context) {
	runs, err := s.store.Tests()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleLiveSeries(c *gin.Context) {
	testID := c.Query("test_id")
	if testID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "test_id is required"})
		return
	}
	system := intQuery(c, "system", 1)
	fromIdx := intQuery(c, "from_idx", 0)
	limit := intQuery(c, "limit", 500)
	if limit < 1 || limit > 500 {
		limit = 500
	}

	samples, err := s.store.LiveSeries(testID, system, fromIdx, limit)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	// Replay pacing: expose rows only as fast as the configured rate since
	// the session's first poll, so stored runs behave like a live bench.
	if s.cfg.ReplayRate > 0 {
		maxIdx := s.replayCeiling(testID, system)
		cut := len(samples)
		for i, smp := range samples {
			if smp.Idx > maxIdx {
				cut = i
				break
			}
		}
		samples = samples[:cut]
	}

	c.JSON(http.StatusOK, samples)
}

// replayCeiling returns the highest idx visible to a paced live session.
func (s *Server) replayCeiling(testID string, system int) int {
	key := fmt.Sprintf("%s/%d", testID, system)
	s.mu.Lock()
	start, ok := s.liveStarts[key]
	if !ok {
		start = s.now()
		s.liveStarts[key] = start
	}
	s.mu.Unlock()
	elapsed := s.now().Sub(start).Seconds()
	return int(elapsed * s.cfg.ReplayRate)
}

func (s *Server) handleSeries(c *gin.Context) {
	testID := c.Param("testID")
	ok, err := s.store.TestExists(testID)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown test"})
		return
	}

	samples, err := s.store.Series(testID,
		intQuery(c, "system", 1),
		intQuery(c, "step", 0),
		floatQuery(c, "dt_sec", 0),
		floatQuery(c, "t_start_sec", 0),
		floatQuery(c, "t_end_sec", 0))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, samples)
}

func (s *Server) handleCharacterization(c *gin.Context) {
	testID := c.Param("testID")
	ok, err := s.store.TestExists(testID)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown test"})
		return
	}

	rows, err := s.store.Rows(testID, intQuery(c, "system", 1))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	grid := Characterize(rows,
		floatQuery(c, "temp_step", DefaultTempStep),
		floatQuery(c, "current_step", DefaultCurrentStep),
		floatQuery(c, "rpm_step", DefaultRPMStep))
	c.JSON(http.StatusOK, grid)
}

func (s *Server) handleUpload(c *gin.Context) {
	file, hdr, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	defer file.Close()

	rows, err := ParseCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSuffix(hdr.Filename, ".csv")
	id := uuid.NewString()
	if err := s.store.CreateTest(id, name); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if err := s.store.InsertRows(id, rows); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	s.log.Info("test uploaded", "test_id", id, "name", name, "rows", len(rows))
	c.JSON(http.StatusOK, gin.H{"test": name, "rows": len(rows), "test_id": id})
}

func (s *Server) fail(c *gin.Context, code int, err error) {
	s.log.Error("request failed", "path", c.Request.URL.Path, "err", err)
	c.JSON(code, gin.H{"error": err.Error()})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func floatQuery(c *gin.Context, key string, fallback float64) float64 {
	if v := c.Query(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
