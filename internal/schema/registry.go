// Package schema is the registry of validation rules for submitted trees:
// the required directory shape and the per-kind field schemas for the
// structured files. The registry is pure data plus deterministic checks;
// it performs no I/O.
//
// Rule sets are versioned so historical submissions stay re-validatable
// against the rules that were active when they were uploaded.
package schema

import "fmt"

// FileKind names one structured-file kind.
type FileKind string

const (
	KindProjectIndex    FileKind = "project-index"
	KindSessionIndex    FileKind = "session-index"
	KindPictureMetadata FileKind = "picture-metadata"
)

// FieldType is the declared type of a schema field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "integer"
	TypeDate    FieldType = "date"
	TypeEnum    FieldType = "enum"
	TypeMapping FieldType = "mapping"
	TypeList    FieldType = "list"
)

// FieldSpec declares one field of a structured file.
type FieldSpec struct {
	Name     string
	Type     FieldType
	Required bool
	// Enum lists the accepted values when Type is TypeEnum.
	Enum []string
}

// ShapeRules describes the required directory layout of a submission.
type ShapeRules struct {
	// IndexFileName is the structured index file expected once at the root
	// and once per session directory.
	IndexFileName string
	// PicturesDirName is the single container directory for sessions.
	PicturesDirName string
	// MetadataExt is the extension of per-picture metadata counterparts.
	MetadataExt string
	// MediaExts lists accepted media file extensions, lower-case with dot.
	MediaExts []string
}

// MediaExt reports whether ext (lower-case, with dot) is an accepted media
// extension.
func (s ShapeRules) MediaExt(ext string) bool {
	for _, e := range s.MediaExts {
		if e == ext {
			return true
		}
	}
	return false
}

// RuleSet is one versioned snapshot of all validation rules.
type RuleSet struct {
	Version int
	Shape   ShapeRules
	fields  map[FileKind][]FieldSpec
}

// Fields returns the field specs for a file kind.
func (rs *RuleSet) Fields(kind FileKind) []FieldSpec {
	return rs.fields[kind]
}

// FieldSpec looks up one declared field of a kind.
func (rs *RuleSet) FieldSpec(kind FileKind, name string) (FieldSpec, bool) {
	for _, f := range rs.fields[kind] {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Registry holds every known rule-set version.
type Registry struct {
	latest   int
	versions map[int]*RuleSet
}

// Version returns the rule set for version n.
func (r *Registry) Version(n int) (*RuleSet, error) {
	rs, ok := r.versions[n]
	if !ok {
		return nil, fmt.Errorf("unknown schema version %d", n)
	}
	return rs, nil
}

// Latest returns the most recent rule set.
func (r *Registry) Latest() *RuleSet {
	return r.versions[r.latest]
}

// Default builds the registry with every shipped rule-set version.
func Default() *Registry {
	v1 := &RuleSet{
		Version: 1,
		Shape: ShapeRules{
			IndexFileName:   "index.yaml",
			PicturesDirName: "pictures",
			MetadataExt:     ".yaml",
			MediaExts:       []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"},
		},
		fields: map[FileKind][]FieldSpec{
			KindProjectIndex: {
				{Name: "projectName", Type: TypeString, Required: true},
				{Name: "sessions", Type: TypeList, Required: true},
				{Name: "ownerEmail", Type: TypeString},
				{Name: "description", Type: TypeString},
				{Name: "createdAt", Type: TypeDate},
			},
			KindSessionIndex: {
				{Name: "sessionName", Type: TypeString, Required: true},
				{Name: "pictureCount", Type: TypeInt, Required: true},
				{Name: "capturedAt", Type: TypeDate},
				{Name: "camera", Type: TypeMapping},
				{Name: "notes", Type: TypeString},
			},
			KindPictureMetadata: {
				{Name: "species", Type: TypeString, Required: true},
				{Name: "capturedAt", Type: TypeDate},
				{Name: "lighting", Type: TypeEnum, Enum: []string{"natural", "artificial", "mixed"}},
				{Name: "zoom", Type: TypeInt},
				{Name: "cropParent", Type: TypeString},
			},
		},
	}

	return &Registry{
		latest:   1,
		versions: map[int]*RuleSet{1: v1},
	}
}
