// Package normalizer converts user-authored structured files into canonical
// records. Files are parsed into the generic document model, checked against
// the schema registry, and only then promoted; the original serialization
// never leaks past this package.
package normalizer

import (
	"io"

	"github.com/croplabs/picstore/internal/document"
	"github.com/croplabs/picstore/internal/report"
	"github.com/croplabs/picstore/internal/schema"
	"github.com/croplabs/picstore/internal/server/models"
)

// systemKeys are record fields the system always derives itself. User input
// carrying them is never trusted; such keys are dropped from the extension
// bag and surfaced as a warning, which prevents identifier spoofing.
var systemKeys = map[string]bool{
	"id":            true,
	"kind":          true,
	"ownerId":       true,
	"projectId":     true,
	"sessionId":     true,
	"pictureId":     true,
	"cropParentId":  true,
	"objectKey":     true,
	"container":     true,
	"schemaVersion": true,
	"uploadedAt":    true,
	"partial":       true,
	"baseName":      true,
}

// Normalizer validates and converts structured files using one rule-set
// version.
type Normalizer struct {
	rules *schema.RuleSet
}

func New(rules *schema.RuleSet) *Normalizer {
	return &Normalizer{rules: rules}
}

// ProjectIndex normalizes the project-level index file. A nil record means
// the file failed validation; the report explains every violated field.
func (n *Normalizer) ProjectIndex(r io.Reader, file string) (*models.ProjectIndex, report.FieldReport) {
	doc, fr := n.parse(r, file, schema.KindProjectIndex)
	if !fr.OK {
		return nil, fr
	}

	p := &models.ProjectIndex{
		Kind:          models.DocKindProjectIndex,
		SchemaVersion: n.rules.Version,
	}
	p.Name, _ = n.stringField(doc, schema.KindProjectIndex, "projectName")
	p.OwnerEmail, _ = n.stringField(doc, schema.KindProjectIndex, "ownerEmail")
	p.Description, _ = n.stringField(doc, schema.KindProjectIndex, "description")

	if sessions, ok := n.coerced(doc, schema.KindProjectIndex, "sessions"); ok {
		for _, item := range sessions.Items() {
			s, ok := item.AsString()
			if !ok {
				fr.AddError("sessions", "session list entries must be strings")
				return nil, fr
			}
			p.Sessions = append(p.Sessions, s)
		}
	}

	p.Extra = n.extension(doc, schema.KindProjectIndex, &fr)
	return p, fr
}

// SessionIndex normalizes one per-session index file.
func (n *Normalizer) SessionIndex(r io.Reader, file string) (*models.SessionIndex, report.FieldReport) {
	doc, fr := n.parse(r, file, schema.KindSessionIndex)
	if !fr.OK {
		return nil, fr
	}

	s := &models.SessionIndex{
		Kind:          models.DocKindSessionIndex,
		SchemaVersion: n.rules.Version,
	}
	s.Name, _ = n.stringField(doc, schema.KindSessionIndex, "sessionName")
	s.Notes, _ = n.stringField(doc, schema.KindSessionIndex, "notes")

	if v, ok := n.coerced(doc, schema.KindSessionIndex, "pictureCount"); ok {
		s.PictureCount, _ = v.AsInt()
	}
	if v, ok := n.coerced(doc, schema.KindSessionIndex, "capturedAt"); ok {
		if d, dok := v.AsDate(); dok {
			s.CapturedAt = &d
		}
	}
	if v, ok := n.coerced(doc, schema.KindSessionIndex, "camera"); ok {
		s.Camera = v
	}

	s.Extra = n.extension(doc, schema.KindSessionIndex, &fr)
	return s, fr
}

// Picture normalizes one per-picture metadata file.
func (n *Normalizer) Picture(r io.Reader, file string) (*models.Picture, report.FieldReport) {
	doc, fr := n.parse(r, file, schema.KindPictureMetadata)
	if !fr.OK {
		return nil, fr
	}

	p := &models.Picture{
		Kind:          models.DocKindPictureMetadata,
		SchemaVersion: n.rules.Version,
	}
	p.Species, _ = n.stringField(doc, schema.KindPictureMetadata, "species")
	p.Lighting, _ = n.stringField(doc, schema.KindPictureMetadata, "lighting")
	p.CropParentBase, _ = n.stringField(doc, schema.KindPictureMetadata, "cropParent")

	if v, ok := n.coerced(doc, schema.KindPictureMetadata, "zoom"); ok {
		p.Zoom, _ = v.AsInt()
	}
	if v, ok := n.coerced(doc, schema.KindPictureMetadata, "capturedAt"); ok {
		if d, dok := v.AsDate(); dok {
			p.CapturedAt = &d
		}
	}

	p.Extra = n.extension(doc, schema.KindPictureMetadata, &fr)
	return p, fr
}

// parse decodes the serialization and runs field validation.
func (n *Normalizer) parse(r io.Reader, file string, kind schema.FileKind) (document.Value, report.FieldReport) {
	doc, err := document.DecodeYAML(r)
	if err != nil {
		fr := report.FieldReport{File: file, Kind: string(kind)}
		fr.AddError("", err.Error())
		return document.Value{}, fr
	}
	return doc, n.rules.ValidateFields(kind, file, doc)
}

// coerced returns the coerced value of a declared field if it is present
// and valid. Validation already ran, so coercion failures mean absence.
func (n *Normalizer) coerced(doc document.Value, kind schema.FileKind, name string) (document.Value, bool) {
	spec, ok := n.rules.FieldSpec(kind, name)
	if !ok {
		return document.Value{}, false
	}
	v, present := doc.Field(name)
	if !present || v.IsNull() {
		return document.Value{}, false
	}
	c, err := schema.Coerce(spec, v)
	if err != nil {
		return document.Value{}, false
	}
	return c, true
}

func (n *Normalizer) stringField(doc document.Value, kind schema.FileKind, name string) (string, bool) {
	v, ok := n.coerced(doc, kind, name)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// extension collects unknown fields into the record's extension bag,
// preserving them for forward compatibility. System-assigned keys are
// dropped with a warning instead.
func (n *Normalizer) extension(doc document.Value, kind schema.FileKind, fr *report.FieldReport) document.Value {
	extra := map[string]document.Value{}
	for _, key := range doc.Keys() {
		if _, declared := n.rules.FieldSpec(kind, key); declared {
			continue
		}
		if systemKeys[key] {
			fr.AddWarning(key, "system-assigned field ignored")
			continue
		}
		v, _ := doc.Field(key)
		extra[key] = v
	}
	if len(extra) == 0 {
		return document.Null()
	}
	return document.Mapping(extra)
}
