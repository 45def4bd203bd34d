package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pbaille/tdconv/internal/convert"
	"github.com/pbaille/tdconv/internal/domain"
	"github.com/pbaille/tdconv/pkg/log"
)

// MaxBodyBytes caps uploaded source documents.
const MaxBodyBytes = 32 << 20

// History is the part of the run store the API uses.
type History interface {
	RecordRun(ctx context.Context, run domain.Run) (domain.Run, error)
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
}

// Server handles HTTP requests for the conversion API
type Server struct {
	l       log.Logger
	history History
	addr    string
	router  *gin.Engine
}

// Config is the dependency bag passed to New.
type Config struct {
	Addr string
	Mode string
	// History is optional; without it /runs returns an empty list.
	History History
}

// New creates a new API server
func New(l log.Logger, cfg Config) *Server {
	if l == nil {
		l = log.NewNop()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{l: l, history: cfg.History, addr: cfg.Addr, router: gin.New()}
	s.router.Use(gin.Recovery(), withCORS())

	s.router.GET("/health", s.health)
	s.router.POST("/convert", s.convert)
	s.router.GET("/runs", s.listRuns)
	return s
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}

	errc := make(chan error, 1)
	go func() {
		s.l.Infof(ctx, "api: listening on %s", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers for frontend development
func withCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var contentTypes = map[convert.Format]string{
	convert.FormatMarkdown:  "text/markdown; charset=utf-8",
	convert.FormatOPML:      "text/x-opml; charset=utf-8",
	convert.FormatTaskPaper: "text/plain; charset=utf-8",
	convert.FormatTodoist:   "text/csv; charset=utf-8",
}

// convert streams the request body through one conversion. Attachments
// stay remote references.
func (s *Server) convert(c *gin.Context) {
	ctx := c.Request.Context()

	f, known := convert.ParseFormat(c.Query("format"))
	if !known {
		s.l.Warnf(ctx, "api: unknown format %q, using %s", c.Query("format"), f)
	}
	name := c.DefaultQuery("name", "export."+f.SourceExt())

	run := domain.Run{
		ID:        uuid.NewString(),
		Source:    name,
		Target:    "-",
		Format:    string(f),
		Status:    domain.RunStatusOK,
		CreatedAt: time.Now(),
	}
	ctx = log.WithRunID(ctx, run.ID)

	body := http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	var out bytes.Buffer
	n, err := convert.Stream(ctx, f, convert.Title(name), body, &out, nil)
	run.Records = n
	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
	}
	s.record(ctx, run)

	if err != nil {
		s.l.Warnf(ctx, "api: convert %s: %v", name, err)
		writeError(c, statusFor(err), err.Error())
		return
	}
	c.Header("X-Run-ID", run.ID)
	c.Data(http.StatusOK, contentTypes[f], out.Bytes())
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrMalformedRecord),
		errors.Is(err, domain.ErrMalformedIndent),
		errors.Is(err, domain.ErrOrphanNote),
		errors.Is(err, domain.ErrInvalidAttachment):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) record(ctx context.Context, run domain.Run) {
	if s.history == nil {
		return
	}
	if _, err := s.history.RecordRun(ctx, run); err != nil {
		s.l.Warnf(ctx, "api: could not record run: %v", err)
	}
}

func (s *Server) listRuns(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	if s.history == nil {
		c.JSON(http.StatusOK, []domain.Run{})
		return
	}
	runs, err := s.history.ListRuns(c.Request.Context(), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []domain.Run{}
	}
	c.JSON(http.StatusOK, runs)
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
