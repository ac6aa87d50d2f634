package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/croplabs/picstore/internal/common"
	"github.com/croplabs/picstore/internal/dbx"
	"github.com/croplabs/picstore/internal/logging"
	"github.com/croplabs/picstore/internal/server/models"
	"github.com/croplabs/picstore/internal/server/repositories/feedbacks"
	"github.com/croplabs/picstore/internal/server/repositories/indexes"
	"github.com/croplabs/picstore/internal/server/repositories/pictures"
	"github.com/croplabs/picstore/internal/server/repositories/users"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; ok {
		return common.ErrorAlreadyExists
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok, nil
}

type fakeIndexRepo struct {
	mu        sync.Mutex
	projects  map[string]*models.ProjectIndex // ownerID+"/"+name
	sessions  []*models.SessionIndex
	committed map[string]bool // projectID+"/"+sessionName

	failCreateSession bool
}

func newFakeIndexRepo() *fakeIndexRepo {
	return &fakeIndexRepo{
		projects:  map[string]*models.ProjectIndex{},
		committed: map[string]bool{},
	}
}

func (r *fakeIndexRepo) CreateProject(_ context.Context, p *models.ProjectIndex) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.OwnerID+"/"+p.Name] = p
	return nil
}

func (r *fakeIndexRepo) CreateSession(_ context.Context, s *models.SessionIndex) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateSession {
		return errors.New("db unavailable")
	}
	r.sessions = append(r.sessions, s)
	r.committed[s.ProjectID.String()+"/"+s.Name] = true
	return nil
}

func (r *fakeIndexRepo) GetProjectByName(_ context.Context, ownerID, name string) (*models.ProjectIndex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[ownerID+"/"+name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (r *fakeIndexRepo) SessionCommitted(_ context.Context, projectID uuid.UUID, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.committed[projectID.String()+"/"+name], nil
}

type fakePictureRepo struct {
	mu      sync.Mutex
	created []*models.Picture
	byBase  map[string]uuid.UUID
}

func newFakePictureRepo() *fakePictureRepo {
	return &fakePictureRepo{byBase: map[string]uuid.UUID{}}
}

func (r *fakePictureRepo) Create(_ context.Context, p *models.Picture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, p)
	return nil
}

func (r *fakePictureRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Picture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.created {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakePictureRepo) CountBySession(_ context.Context, sessionID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.created {
		if p.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (r *fakePictureRepo) ResolveByBase(_ context.Context, _ uuid.UUID, base string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byBase[base]
	if !ok {
		return uuid.Nil, common.ErrorNotFound
	}
	return id, nil
}

type fakeFeedbackRepo struct {
	mu      sync.Mutex
	created []*models.Feedback
}

func (r *fakeFeedbackRepo) Create(_ context.Context, f *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, f)
	return nil
}

func (r *fakeFeedbackRepo) ListByPicture(_ context.Context, pictureID uuid.UUID) ([]*models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Feedback
	for _, f := range r.created {
		if f.PictureID == pictureID {
			out = append(out, f)
		}
	}
	return out, nil
}

// fakeManager hands out the same fakes regardless of the db handle.
type fakeManager struct {
	userRepo     *fakeUserRepo
	indexRepo    *fakeIndexRepo
	pictureRepo  *fakePictureRepo
	feedbackRepo *fakeFeedbackRepo
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		userRepo:     newFakeUserRepo(),
		indexRepo:    newFakeIndexRepo(),
		pictureRepo:  newFakePictureRepo(),
		feedbackRepo: &fakeFeedbackRepo{},
	}
}

func (m *fakeManager) Users(dbx.DBTX) users.Repository         { return m.userRepo }
func (m *fakeManager) Indexes(dbx.DBTX) indexes.Repository     { return m.indexRepo }
func (m *fakeManager) Pictures(dbx.DBTX) pictures.Repository   { return m.pictureRepo }
func (m *fakeManager) Feedbacks(dbx.DBTX) feedbacks.Repository { return m.feedbackRepo }
func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

type fakeStore struct {
	mu         sync.Mutex
	containers map[string]bool
	objects    map[string][]byte // container/key

	failPutKeys   map[string]bool
	failContainer bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		containers:  map[string]bool{},
		objects:     map[string][]byte{},
		failPutKeys: map[string]bool{},
	}
}

func (s *fakeStore) EnsureContainer(_ context.Context, container string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failContainer {
		return errors.New("backend unavailable")
	}
	s.containers[container] = true
	return nil
}

func (s *fakeStore) Put(_ context.Context, container, key string, body io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPutKeys[key] {
		return errors.New("put failed")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[container+"/"+key] = data
	return nil
}

func (s *fakeStore) Exists(_ context.Context, container, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[container+"/"+key]
	return ok, nil
}

func (s *fakeStore) PresignGet(_ context.Context, container, key string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://store.example/%s/%s?signed", container, key), nil
}
