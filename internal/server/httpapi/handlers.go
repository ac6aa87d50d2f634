package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/croplabs/picstore/internal/common"
	"github.com/croplabs/picstore/internal/document"
	"github.com/croplabs/picstore/internal/server/models"
	"github.com/croplabs/picstore/internal/submission"
)

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ownerId": owner(c)})
}

func (s *Server) handleIsRegistered(c *gin.Context) {
	ok, err := s.users.IsRegistered(c.Request.Context(), c.Param("owner"))
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registered": ok})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.Register(c.Request.Context(), owner(c), req.Email)
	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "owner already registered"})
	case errors.Is(err, common.ErrorOwnerProvisioning):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage backend unavailable"})
	case err != nil:
		s.internalError(c, err)
	default:
		c.JSON(http.StatusCreated, gin.H{"ownerId": user.ID, "container": user.Container})
	}
}

func (s *Server) handleValidate(c *gin.Context) {
	tree, err := s.submissionTree(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.controller.Validate(c.Request.Context(), tree))
}

func (s *Server) handleUpload(c *gin.Context) {
	tree, err := s.submissionTree(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := s.controller.Upload(c.Request.Context(), owner(c), tree)
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "owner is not registered"})
	case errors.Is(err, common.ErrorOwnerProvisioning):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage backend unavailable"})
	case err != nil:
		s.internalError(c, err)
	default:
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) handleGetPicture(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid picture id"})
		return
	}

	pic, url, err := s.pictures.Get(c.Request.Context(), owner(c), id)
	if s.pictureError(c, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"picture": pic, "downloadUrl": url})
}

func (s *Server) handleAddFeedback(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid picture id"})
		return
	}

	var doc document.Value
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fb := &models.Feedback{Document: doc}
	err = s.pictures.AddFeedback(c.Request.Context(), owner(c), id, fb)
	if s.pictureError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (s *Server) handleListFeedback(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid picture id"})
		return
	}

	list, err := s.pictures.ListFeedback(c.Request.Context(), owner(c), id)
	if s.pictureError(c, err) {
		return
	}
	if list == nil {
		list = []*models.Feedback{}
	}
	c.JSON(http.StatusOK, list)
}

// submissionTree rebuilds the submitted folder from the multipart form. Each
// file part's filename is its slash-separated path relative to the folder
// root.
func (s *Server) submissionTree(c *gin.Context) (submission.Tree, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("reading multipart form: %w", err)
	}

	tree := submission.NewMapTree()
	for _, headers := range form.File {
		for _, fh := range headers {
			data, err := readPart(fh)
			if err != nil {
				return nil, err
			}
			tree.Add(fh.Filename, data)
		}
	}
	if tree.Len() == 0 {
		return nil, errors.New("submission contains no files")
	}
	return tree, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening part %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data := make([]byte, fh.Size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("reading part %s: %w", fh.Filename, err)
	}
	return data, nil
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.Error(c.Request.Context(), "request failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// pictureError maps picture service errors onto HTTP codes. Returns true
// when the request is already answered.
func (s *Server) pictureError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "picture not found"})
	case errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "picture belongs to another owner"})
	default:
		s.internalError(c, err)
	}
	return true
}
