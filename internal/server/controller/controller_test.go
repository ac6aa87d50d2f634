package controller

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/croplabs/picstore/internal/enricher"
	"github.com/croplabs/picstore/internal/logging"
	"github.com/croplabs/picstore/internal/report"
	"github.com/croplabs/picstore/internal/schema"
	"github.com/croplabs/picstore/internal/server/models"
	"github.com/croplabs/picstore/internal/submission"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

// commitAllUploader pretends every session persists cleanly.
type commitAllUploader struct {
	ds *models.Dataset
}

func (u *commitAllUploader) Upload(_ context.Context, _ submission.Tree, ds *models.Dataset) (*report.Outcome, error) {
	u.ds = ds
	out := &report.Outcome{Committed: []string{}, Excluded: []report.ExcludedUnit{}}
	for _, b := range ds.Sessions {
		out.Committed = append(out.Committed, b.Index.Name)
	}
	out.Finalize()
	return out, nil
}

func newTestController(up Uploader) *Controller {
	rules := schema.Default().Latest()
	return New(rules, submission.Policy{}, enricher.New(nil), up, nopLogger{})
}

func validTree() *submission.MapTree {
	tree := submission.NewMapTree()
	tree.Add("index.yaml", []byte("projectName: pollinators\nsessions:\n  - s1\n"))
	tree.Add("pictures/s1/index.yaml", []byte("sessionName: s1\npictureCount: 1\n"))
	tree.Add("pictures/s1/1.tiff", []byte("img-1"))
	tree.Add("pictures/s1/1.yaml", []byte("species: bombus terrestris\nzoom: 4\n"))
	return tree
}

func TestUpload_Success(t *testing.T) {
	up := &commitAllUploader{}
	c := newTestController(up)

	out, err := c.Upload(context.Background(), "owner-1", validTree())
	require.NoError(t, err)

	assert.Equal(t, report.StatusSuccess, out.Status)
	assert.Equal(t, []string{"s1"}, out.Committed)
	assert.Empty(t, out.Excluded)

	require.NotNil(t, up.ds)
	assert.Equal(t, "owner-1", up.ds.OwnerID)
	assert.Equal(t, "pollinators", up.ds.Project.Name)
	require.Len(t, up.ds.Sessions, 1)

	// Enrichment ran: identifiers minted, object key derived from them.
	pic := up.ds.Sessions[0].Pictures[0]
	assert.NotEqual(t, uuid.Nil, pic.ID)
	assert.Contains(t, pic.ObjectKey, pic.ID.String())
	assert.NotContains(t, pic.ObjectKey, "1.tiff")
	assert.Equal(t, "pictures/s1/1.tiff", pic.MediaPath)
}

func TestUpload_MissingPictureMetaIsPartial(t *testing.T) {
	tree := validTree()
	tree.Add("pictures/s1/index.yaml", []byte("sessionName: s1\npictureCount: 2\n"))
	tree.Add("pictures/s1/2.tiff", []byte("img-2"))

	up := &commitAllUploader{}
	c := newTestController(up)

	out, err := c.Upload(context.Background(), "owner-1", tree)
	require.NoError(t, err)

	assert.Equal(t, report.StatusPartial, out.Status)
	assert.Equal(t, []string{"s1"}, out.Committed)
	require.Len(t, out.Excluded, 1)
	assert.Equal(t, "pictures/s1/2.tiff", out.Excluded[0].Path)

	// Only the complete picture reached the orchestrator.
	require.Len(t, up.ds.Sessions, 1)
	assert.Len(t, up.ds.Sessions[0].Pictures, 1)
}

func TestUpload_MissingPictureMetaFatalPolicy(t *testing.T) {
	tree := validTree()
	tree.Add("pictures/s1/2.tiff", []byte("img-2"))

	rules := schema.Default().Latest()
	c := New(rules, submission.Policy{HaltOnMissingPictureMeta: true}, enricher.New(nil), &commitAllUploader{}, nopLogger{})

	out, err := c.Upload(context.Background(), "owner-1", tree)
	require.NoError(t, err)
	assert.Equal(t, report.StatusFailure, out.Status)
	assert.Empty(t, out.Committed)
}

func TestUpload_MissingProjectIndexAborts(t *testing.T) {
	tree := submission.NewMapTree()
	tree.Add("pictures/s1/1.tiff", []byte("img-1"))

	c := newTestController(&commitAllUploader{})
	out, err := c.Upload(context.Background(), "owner-1", tree)
	require.NoError(t, err)

	assert.Equal(t, report.StatusFailure, out.Status)
	assert.Empty(t, out.Committed)
	assert.NotEmpty(t, out.Violations)
}

func TestUpload_InvalidProjectIndexAborts(t *testing.T) {
	tree := validTree()
	tree.Add("index.yaml", []byte("description: no name or sessions\n"))

	c := newTestController(&commitAllUploader{})
	out, err := c.Upload(context.Background(), "owner-1", tree)
	require.NoError(t, err)

	assert.Equal(t, report.StatusFailure, out.Status)
	require.NotEmpty(t, out.Violations)
	assert.Equal(t, report.KindField, out.Violations[0].Kind)
}

func TestUpload_InvalidSessionIndexExcludesSession(t *testing.T) {
	tree := validTree()
	tree.Add("index.yaml", []byte("projectName: pollinators\nsessions:\n  - s1\n  - s2\n"))
	tree.Add("pictures/s2/index.yaml", []byte("notes: missing required fields\n"))
	tree.Add("pictures/s2/1.tiff", []byte("img"))
	tree.Add("pictures/s2/1.yaml", []byte("species: apis mellifera\n"))

	up := &commitAllUploader{}
	c := newTestController(up)

	out, err := c.Upload(context.Background(), "owner-1", tree)
	require.NoError(t, err)

	assert.Equal(t, report.StatusPartial, out.Status)
	assert.Equal(t, []string{"s1"}, out.Committed)
	require.Len(t, up.ds.Sessions, 1)
	assert.Equal(t, "s1", up.ds.Sessions[0].Index.Name)
}

func TestUpload_MissingSessionIndexExcludesSession(t *testing.T) {
	tree := validTree()
	tree.Add("index.yaml", []byte("projectName: pollinators\nsessions:\n  - s1\n  - s2\n"))
	tree.Add("pictures/s2/1.tiff", []byte("img"))
	tree.Add("pictures/s2/1.yaml", []byte("species: apis mellifera\nzoom: 2\n"))

	up := &commitAllUploader{}
	c := newTestController(up)

	out, err := c.Upload(context.Background(), "owner-1", tree)
	require.NoError(t, err)

	// The dead session must be enumerated, not silently dropped.
	assert.Equal(t, report.StatusPartial, out.Status)
	assert.Equal(t, []string{"s1"}, out.Committed)
	require.Len(t, out.Excluded, 1)
	assert.Equal(t, "pictures/s2", out.Excluded[0].Path)
	assert.Equal(t, report.KindStructural, out.Excluded[0].Kind)

	found := false
	for _, v := range out.Violations {
		if v.Path == "pictures/s2" && v.Kind == report.KindStructural {
			found = true
		}
	}
	assert.True(t, found, "missing session index must be reported, got %+v", out.Violations)
}

func TestUpload_DuplicateBaseExcludesSession(t *testing.T) {
	tree := validTree()
	tree.Add("index.yaml", []byte("projectName: pollinators\nsessions:\n  - s1\n  - s2\n"))
	tree.Add("pictures/s2/index.yaml", []byte("sessionName: s2\npictureCount: 1\n"))
	tree.Add("pictures/s2/1.tiff", []byte("img"))
	tree.Add("pictures/s2/1.png", []byte("img"))
	tree.Add("pictures/s2/1.yaml", []byte("species: apis mellifera\nzoom: 2\n"))

	up := &commitAllUploader{}
	c := newTestController(up)

	out, err := c.Upload(context.Background(), "owner-1", tree)
	require.NoError(t, err)

	assert.Equal(t, report.StatusPartial, out.Status)
	assert.Equal(t, []string{"s1"}, out.Committed)
	require.NotEmpty(t, out.Excluded)
	assert.Contains(t, out.Excluded[0].Path, "pictures/s2/")
}

func TestUpload_EmptySessionCommitsAsSuccess(t *testing.T) {
	tree := submission.NewMapTree()
	tree.Add("index.yaml", []byte("projectName: pollinators\nsessions:\n  - s1\n"))
	tree.Add("pictures/s1/index.yaml", []byte("sessionName: s1\npictureCount: 0\n"))

	up := &commitAllUploader{}
	c := newTestController(up)

	out, err := c.Upload(context.Background(), "owner-1", tree)
	require.NoError(t, err)

	// Declared count matches usable count; the empty session is a warning,
	// never an exclusion.
	assert.Equal(t, report.StatusSuccess, out.Status)
	assert.Equal(t, []string{"s1"}, out.Committed)
	assert.Empty(t, out.Excluded)

	found := false
	for _, v := range out.Violations {
		if v.Path == "pictures/s1" && v.Warning {
			found = true
		}
	}
	assert.True(t, found, "empty session warning must be reported, got %+v", out.Violations)
}

func TestUpload_InvalidPictureMetaExcludesPicture(t *testing.T) {
	tree := validTree()
	tree.Add("pictures/s1/index.yaml", []byte("sessionName: s1\npictureCount: 2\n"))
	tree.Add("pictures/s1/2.tiff", []byte("img-2"))
	tree.Add("pictures/s1/2.yaml", []byte("lighting: natural\n"))

	up := &commitAllUploader{}
	c := newTestController(up)

	out, err := c.Upload(context.Background(), "owner-1", tree)
	require.NoError(t, err)

	assert.Equal(t, report.StatusPartial, out.Status)
	require.Len(t, up.ds.Sessions, 1)
	require.Len(t, up.ds.Sessions[0].Pictures, 1)
	assert.Equal(t, "1", up.ds.Sessions[0].Pictures[0].Base)
}

func TestValidate_OK(t *testing.T) {
	c := newTestController(&commitAllUploader{})
	summary := c.Validate(context.Background(), validTree())

	assert.True(t, summary.OK)
	assert.True(t, summary.Shape.OK)
	// Project index, session index, one picture metadata.
	assert.Len(t, summary.Fields, 3)
}

func TestValidate_FieldErrors(t *testing.T) {
	tree := validTree()
	tree.Add("pictures/s1/1.yaml", []byte("lighting: underwater\n"))

	c := newTestController(&commitAllUploader{})
	summary := c.Validate(context.Background(), tree)

	assert.False(t, summary.OK)
	assert.True(t, summary.Shape.OK)

	var failed report.FieldReport
	for _, fr := range summary.Fields {
		if !fr.OK {
			failed = fr
		}
	}
	assert.Equal(t, "pictures/s1/1.yaml", failed.File)
	assert.NotEmpty(t, failed.Errors)
}

func TestValidate_InvalidProjectIndexStopsSessions(t *testing.T) {
	tree := validTree()
	tree.Add("index.yaml", []byte("description: no name or sessions\n"))

	c := newTestController(&commitAllUploader{})
	summary := c.Validate(context.Background(), tree)

	assert.False(t, summary.OK)
	// No per-session reports behind an unusable project index.
	require.Len(t, summary.Fields, 1)
	assert.Equal(t, "index.yaml", summary.Fields[0].File)
	assert.False(t, summary.Fields[0].OK)
}

func TestValidate_DoesNotTouchUploader(t *testing.T) {
	up := &commitAllUploader{}
	c := newTestController(up)
	c.Validate(context.Background(), validTree())
	assert.Nil(t, up.ds)
}
