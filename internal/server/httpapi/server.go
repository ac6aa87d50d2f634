// Package httpapi exposes the ingestion pipeline over HTTP. All routes live
// under /api/v1 and require a bearer token naming the owner; submission
// trees arrive as multipart forms whose part filenames are slash-separated
// relative paths.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/croplabs/picstore/internal/logging"
	"github.com/croplabs/picstore/internal/report"
	"github.com/croplabs/picstore/internal/server/config"
	"github.com/croplabs/picstore/internal/server/models"
	"github.com/croplabs/picstore/internal/submission"
)

const shutdownTimeout = 5 * time.Second

// maxSubmissionBytes bounds one multipart submission in memory.
const maxSubmissionBytes = 512 << 20

// Pipeline is the ingestion surface, implemented by controller.Controller.
type Pipeline interface {
	Validate(ctx context.Context, tree submission.Tree) *report.ValidationSummary
	Upload(ctx context.Context, ownerID string, tree submission.Tree) (*report.Outcome, error)
}

// UserRegistry is implemented by services.UserService.
type UserRegistry interface {
	IsRegistered(ctx context.Context, ownerID string) (bool, error)
	Register(ctx context.Context, ownerID, email string) (*models.User, error)
}

// PictureReader is implemented by services.PictureService.
type PictureReader interface {
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*models.Picture, string, error)
	AddFeedback(ctx context.Context, ownerID string, pictureID uuid.UUID, f *models.Feedback) error
	ListFeedback(ctx context.Context, ownerID string, pictureID uuid.UUID) ([]*models.Feedback, error)
}

type Server struct {
	addr       string
	secret     []byte
	log        logging.Logger
	controller Pipeline
	users      UserRegistry
	pictures   PictureReader
}

func NewServer(cfg *config.Config, log logging.Logger, ctrl Pipeline, users UserRegistry, pics PictureReader) *Server {
	return &Server{
		addr:       cfg.EndpointAddr,
		secret:     []byte(cfg.SecretKey),
		log:        log.With("module", "httpapi"),
		controller: ctrl,
		users:      users,
		pictures:   pics,
	}
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = maxSubmissionBytes

	api := r.Group("/api/v1", s.authMiddleware())
	api.GET("/me", s.handleMe)
	api.GET("/users/:owner/registered", s.handleIsRegistered)
	api.POST("/users", s.handleRegister)
	api.POST("/datasets/validate", s.handleValidate)
	api.POST("/datasets/upload", s.handleUpload)
	api.GET("/pictures/:id", s.handleGetPicture)
	api.POST("/pictures/:id/feedback", s.handleAddFeedback)
	api.GET("/pictures/:id/feedback", s.handleListFeedback)

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "http server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info(ctx, "http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
