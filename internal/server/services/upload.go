package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/croplabs/picstore/internal/common"
	"github.com/croplabs/picstore/internal/dbx"
	"github.com/croplabs/picstore/internal/enricher"
	"github.com/croplabs/picstore/internal/logging"
	"github.com/croplabs/picstore/internal/report"
	"github.com/croplabs/picstore/internal/server/config"
	"github.com/croplabs/picstore/internal/server/models"
	"github.com/croplabs/picstore/internal/server/objstore"
	"github.com/croplabs/picstore/internal/server/repositories/repomanager"
	"github.com/croplabs/picstore/internal/submission"
)

// UploadService is the upload orchestrator. It persists an enriched dataset:
// blobs to the object store, then metadata rows in one transaction per
// session. Sessions are independent units; one failing session never rolls
// back its siblings.
type UploadService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	store         objstore.Store
	log           logging.Logger
	maxConcurrent int
	retryDelay    time.Duration
}

func NewUploadService(db *sql.DB, m repomanager.RepositoryManager, store objstore.Store, log logging.Logger, cfg *config.Config) *UploadService {
	return &UploadService{
		db:            db,
		repomanager:   m,
		store:         store,
		log:           log.With("module", "upload"),
		maxConcurrent: cfg.MaxConcurrentUploads,
		retryDelay:    cfg.RetryBaseDelay,
	}
}

// Upload persists the dataset and reports the per-unit outcome. A returned
// error means the whole submission was aborted before any session work
// started (unregistered owner, container provisioning, project row); the
// caller gets a nil outcome then. Session-level and picture-level problems
// never surface as errors, they become exclusions in the outcome.
func (s *UploadService) Upload(ctx context.Context, tree submission.Tree, ds *models.Dataset) (*report.Outcome, error) {
	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByID(ctx, ds.OwnerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: owner %s is not registered", common.ErrorUnauthorized, ds.OwnerID)
		}
		return nil, fmt.Errorf("error loading owner: %w", err)
	}

	if err := s.store.EnsureContainer(ctx, user.Container); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorOwnerProvisioning, err)
	}

	if err := s.adoptOrCreateProject(ctx, ds); err != nil {
		return nil, err
	}

	out := &report.Outcome{Committed: []string{}, Excluded: []report.ExcludedUnit{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for _, bundle := range ds.Sessions {
		g.Go(func() error {
			s.uploadSession(gctx, tree, ds, user, bundle, out, &mu)
			return nil
		})
	}
	_ = g.Wait()

	out.Finalize()
	return out, nil
}

// adoptOrCreateProject reuses the project row when the owner has already
// submitted under the same project name, otherwise inserts a new one. On
// adoption the minted project identifier is replaced, so every dependent
// foreign key and object key is recomputed.
func (s *UploadService) adoptOrCreateProject(ctx context.Context, ds *models.Dataset) error {
	indexRepo := s.repomanager.Indexes(s.db)

	existing, err := indexRepo.GetProjectByName(ctx, ds.OwnerID, ds.Project.Name)
	switch {
	case err == nil:
		s.log.Info(ctx, "adopting existing project", "project", ds.Project.Name, "id", existing.ID)
		ds.Project.ID = existing.ID
		for _, bundle := range ds.Sessions {
			bundle.Index.ProjectID = existing.ID
			for _, pic := range bundle.Pictures {
				pic.ObjectKey = enricher.ObjectKey(existing.ID, bundle.Index.ID, pic.ID, pic.OriginalFilename)
			}
		}
		return nil
	case errors.Is(err, common.ErrorNotFound):
		if err := indexRepo.CreateProject(ctx, ds.Project); err != nil {
			return fmt.Errorf("%w: creating project row: %v", common.ErrorSubmissionAborted, err)
		}
		return nil
	default:
		return fmt.Errorf("error looking up project: %w", err)
	}
}

func (s *UploadService) uploadSession(ctx context.Context, tree submission.Tree, ds *models.Dataset, user *models.User, bundle *models.SessionBundle, out *report.Outcome, mu *sync.Mutex) {
	name := bundle.Index.Name
	log := s.log.With("session", name)

	indexRepo := s.repomanager.Indexes(s.db)
	done, err := indexRepo.SessionCommitted(ctx, ds.Project.ID, name)
	if err != nil {
		mu.Lock()
		out.Exclude(name+"/", report.KindStorage, fmt.Sprintf("checking session state: %v", err))
		mu.Unlock()
		return
	}
	if done {
		// Resubmission of an already committed session is a no-op.
		log.Info(ctx, "session already committed, skipping")
		mu.Lock()
		out.Committed = append(out.Committed, name)
		mu.Unlock()
		return
	}

	excluded := map[uuid.UUID]bool{}
	var survivors []*models.Picture
	for _, pic := range bundle.Pictures {
		if pic.CropParentID != nil && excluded[*pic.CropParentID] {
			mu.Lock()
			out.Exclude(pic.MediaPath, report.KindExclusion, "crop parent was excluded")
			mu.Unlock()
			excluded[pic.ID] = true
			continue
		}

		if !s.resolveCrossLineage(ctx, ds.Project.ID, pic, out, mu) {
			excluded[pic.ID] = true
			continue
		}

		if err := s.putBlob(ctx, tree, user.Container, pic); err != nil {
			log.Warn(ctx, "blob upload failed", "picture", pic.MediaPath, "error", err)
			mu.Lock()
			out.Exclude(pic.MediaPath, report.KindStorage, err.Error())
			mu.Unlock()
			excluded[pic.ID] = true
			continue
		}

		survivors = append(survivors, pic)
	}

	bundle.Index.Partial = int64(len(survivors)) != bundle.Index.PictureCount

	if err := s.commitSession(ctx, bundle.Index, survivors); err != nil {
		log.Error(ctx, "session commit failed", "error", err)
		mu.Lock()
		out.Exclude(name+"/", report.KindStorage, fmt.Sprintf("metadata commit failed: %v", err))
		mu.Unlock()
		return
	}

	log.Info(ctx, "session committed", "pictures", len(survivors), "partial", bundle.Index.Partial)
	mu.Lock()
	out.Committed = append(out.Committed, name)
	mu.Unlock()
}

// resolveCrossLineage resolves a crop reference that points outside the
// session against pictures already committed in the project. An unresolved
// reference excludes the picture.
func (s *UploadService) resolveCrossLineage(ctx context.Context, projectID uuid.UUID, pic *models.Picture, out *report.Outcome, mu *sync.Mutex) bool {
	if pic.CropParentBase == "" || pic.CropParentID != nil {
		return true
	}

	picRepo := s.repomanager.Pictures(s.db)
	id, err := picRepo.ResolveByBase(ctx, projectID, pic.CropParentBase)
	if err != nil {
		reason := fmt.Sprintf("crop parent %q not found in project", pic.CropParentBase)
		kind := report.KindExclusion
		if !errors.Is(err, common.ErrorNotFound) {
			reason = fmt.Sprintf("resolving crop parent: %v", err)
			kind = report.KindStorage
		}
		mu.Lock()
		out.Exclude(pic.MediaPath, kind, reason)
		mu.Unlock()
		return false
	}
	pic.CropParentID = &id
	return true
}

func (s *UploadService) putBlob(ctx context.Context, tree submission.Tree, container string, pic *models.Picture) error {
	f, err := tree.Open(pic.MediaPath)
	if err != nil {
		return fmt.Errorf("opening payload: %w", err)
	}
	defer f.Close()
	return s.store.Put(ctx, container, pic.ObjectKey, f)
}

// commitSession writes the session index and its pictures in one
// transaction. The commit runs detached from the request's cancellation so
// an abandoned request never leaves a half-visible session, and the whole
// transaction is retried once on failure.
func (s *UploadService) commitSession(ctx context.Context, idx *models.SessionIndex, pics []*models.Picture) error {
	commitCtx := context.WithoutCancel(ctx)
	backoff := retry.WithMaxRetries(1, retry.NewConstant(s.retryDelay))

	return retry.Do(commitCtx, backoff, func(ctx context.Context) error {
		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			indexRepo := s.repomanager.Indexes(tx)
			if err := indexRepo.CreateSession(ctx, idx); err != nil {
				return err
			}
			picRepo := s.repomanager.Pictures(tx)
			for _, pic := range pics {
				if err := picRepo.Create(ctx, pic); err != nil {
					return err
				}
			}
			// The committed row count must equal the survivor set before the
			// transaction becomes visible.
			count, err := picRepo.CountBySession(ctx, idx.ID)
			if err != nil {
				return err
			}
			if count != int64(len(pics)) {
				return fmt.Errorf("session %s holds %d picture rows, expected %d", idx.ID, count, len(pics))
			}
			return nil
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
