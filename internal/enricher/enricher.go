// Package enricher appends system-generated fields to canonical records:
// stable identifiers, ownership foreign keys, and the deterministic object
// store key for each picture. It is a pure in-memory transform; no store
// writes happen here, and re-running it with the same identifier source
// yields the same output.
package enricher

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/croplabs/picstore/internal/report"
	"github.com/croplabs/picstore/internal/server/models"
	"github.com/google/uuid"
)

// IDSource mints picture/session/project identifiers. Production uses
// uuid.New; tests substitute a deterministic sequence.
type IDSource func() uuid.UUID

type Enricher struct {
	newID IDSource
}

func New(src IDSource) *Enricher {
	if src == nil {
		src = uuid.New
	}
	return &Enricher{newID: src}
}

// Enrich mints identifiers, wires ownership, computes object keys, and
// resolves same-session crop lineage. Pictures whose lineage forms a cycle
// are removed from the dataset; the returned violations name them. Lineage
// pointing outside the session is left as a base-name reference for the
// orchestrator to resolve against committed pictures.
func (e *Enricher) Enrich(ds *models.Dataset, now time.Time) []report.Violation {
	var violations []report.Violation

	ds.Project.ID = e.newID()
	ds.Project.OwnerID = ds.OwnerID
	ds.Project.UploadedAt = now

	for _, bundle := range ds.Sessions {
		bundle.Index.ID = e.newID()
		bundle.Index.ProjectID = ds.Project.ID
		bundle.Index.OwnerID = ds.OwnerID
		bundle.Index.UploadedAt = now

		for _, pic := range bundle.Pictures {
			pic.ID = e.newID()
			pic.SessionID = bundle.Index.ID
			pic.OwnerID = ds.OwnerID
			pic.UploadedAt = now
			pic.ObjectKey = ObjectKey(ds.Project.ID, bundle.Index.ID, pic.ID, pic.OriginalFilename)
		}

		violations = append(violations, e.resolveLineage(bundle)...)
	}

	return violations
}

// ObjectKey computes the deterministic storage key for one picture. The
// key is built purely from system identifiers; the user filename only
// contributes the media extension.
func ObjectKey(projectID, sessionID, pictureID uuid.UUID, originalFilename string) string {
	ext := strings.ToLower(path.Ext(originalFilename))
	return fmt.Sprintf("%s/%s/%s%s", projectID, sessionID, pictureID, ext)
}

const (
	colorWhite = iota
	colorGray
	colorBlack
)

// resolveLineage links cropParent references to sibling pictures in the
// same session and rejects cycles, keeping lineage a strict forest.
func (e *Enricher) resolveLineage(bundle *models.SessionBundle) []report.Violation {
	byBase := make(map[string]*models.Picture, len(bundle.Pictures))
	for _, pic := range bundle.Pictures {
		byBase[pic.Base] = pic
	}

	color := map[string]int{}
	cyclic := map[string]bool{}

	var walk func(pic *models.Picture) bool
	walk = func(pic *models.Picture) bool {
		switch color[pic.Base] {
		case colorGray:
			return true // back-edge: pic is on a cycle
		case colorBlack:
			return cyclic[pic.Base]
		}
		color[pic.Base] = colorGray
		bad := false
		if pic.CropParentBase != "" {
			if parent, ok := byBase[pic.CropParentBase]; ok {
				if pic.CropParentBase == pic.Base || walk(parent) {
					bad = true
				}
			}
		}
		color[pic.Base] = colorBlack
		cyclic[pic.Base] = bad
		return bad
	}

	var violations []report.Violation
	kept := bundle.Pictures[:0]
	for _, pic := range bundle.Pictures {
		if walk(pic) {
			violations = append(violations, report.Violation{
				Kind:    report.KindField,
				Path:    pic.MediaPath,
				Field:   "cropParent",
				Message: "crop lineage forms a cycle",
			})
			continue
		}
		kept = append(kept, pic)
	}
	bundle.Pictures = kept

	// Link survivors and order parents before children so the session
	// commit can insert rows without violating the self-reference.
	for _, pic := range bundle.Pictures {
		if pic.CropParentBase == "" {
			continue
		}
		if parent, ok := byBase[pic.CropParentBase]; ok && !cyclic[parent.Base] {
			id := parent.ID
			pic.CropParentID = &id
		}
	}
	bundle.Pictures = topoSort(bundle.Pictures, byBase)

	return violations
}

// topoSort orders pictures so every in-session crop parent precedes its
// children. Lineage is acyclic at this point.
func topoSort(pics []*models.Picture, byBase map[string]*models.Picture) []*models.Picture {
	placed := map[string]bool{}
	out := make([]*models.Picture, 0, len(pics))

	var place func(pic *models.Picture)
	place = func(pic *models.Picture) {
		if placed[pic.Base] {
			return
		}
		placed[pic.Base] = true
		if pic.CropParentID != nil {
			if parent, ok := byBase[pic.CropParentBase]; ok {
				place(parent)
			}
		}
		out = append(out, pic)
	}

	for _, pic := range pics {
		place(pic)
	}
	return out
}
