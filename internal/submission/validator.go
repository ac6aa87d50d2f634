package submission

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/croplabs/picstore/internal/report"
	"github.com/croplabs/picstore/internal/schema"
)

// Layout is the validated portion of a submission: every unit listed here
// passed shape validation and is promotable to field validation. Everything
// rejected or excluded is described by the accompanying ShapeReport.
type Layout struct {
	IndexPath string
	Sessions  []SessionLayout
}

// SessionLayout is one structurally valid session directory.
type SessionLayout struct {
	Name      string
	Dir       string
	IndexPath string
	Pictures  []PictureLayout
}

// PictureLayout is one media file with its metadata counterpart.
type PictureLayout struct {
	Base      string
	MediaPath string
	MetaPath  string
	MediaExt  string
}

// Policy carries the configurable partial-failure switches.
type Policy struct {
	// HaltOnMissingPictureMeta escalates a missing metadata counterpart
	// from a per-picture exclusion to a submission-fatal violation.
	HaltOnMissingPictureMeta bool
}

// Validator checks a submission tree against the shape rules of one
// rule-set version.
type Validator struct {
	rules  *schema.RuleSet
	policy Policy
}

func NewValidator(rules *schema.RuleSet, policy Policy) *Validator {
	return &Validator{rules: rules, policy: policy}
}

// Validate walks the tree and produces the promotable layout plus the full
// shape report. A nil layout means the submission is structurally unusable
// (missing project index or pictures container).
func (v *Validator) Validate(tree Tree) (*Layout, report.ShapeReport) {
	shape := v.rules.Shape
	rep := report.ShapeReport{OK: true}

	root, err := tree.Entries("")
	if err != nil {
		rep.Add(report.Violation{
			Kind: report.KindStructural, Path: ".", Fatal: true,
			Message: fmt.Sprintf("unreadable submission root: %v", err),
		})
		return nil, rep
	}

	var haveIndex, havePictures bool
	for _, e := range root {
		switch {
		case !e.Dir && e.Name == shape.IndexFileName:
			haveIndex = true
		case e.Dir && e.Name == shape.PicturesDirName:
			havePictures = true
		default:
			rep.Add(report.Violation{
				Kind: report.KindExclusion, Path: e.Name,
				Message: "unexpected entry at submission root",
			})
		}
	}

	if !haveIndex {
		rep.Add(report.Violation{
			Kind: report.KindStructural, Path: ".", Fatal: true,
			Expected: shape.IndexFileName,
			Message:  "missing project index file",
		})
	}
	if !havePictures {
		rep.Add(report.Violation{
			Kind: report.KindStructural, Path: ".", Fatal: true,
			Expected: shape.PicturesDirName + "/",
			Message:  "missing pictures container directory",
		})
	}
	if !rep.OK {
		return nil, rep
	}

	layout := &Layout{IndexPath: shape.IndexFileName}

	picEntries, err := tree.Entries(shape.PicturesDirName)
	if err != nil {
		rep.Add(report.Violation{
			Kind: report.KindStructural, Path: shape.PicturesDirName, Fatal: true,
			Message: fmt.Sprintf("unreadable pictures directory: %v", err),
		})
		return nil, rep
	}

	for _, e := range picEntries {
		if !e.Dir {
			rep.Add(report.Violation{
				Kind: report.KindExclusion, Path: path.Join(shape.PicturesDirName, e.Name),
				Message: "stray file in pictures container",
			})
			continue
		}
		sess, ok := v.validateSession(tree, e.Name, &rep)
		if ok {
			layout.Sessions = append(layout.Sessions, sess)
		}
	}

	return layout, rep
}

// validateSession checks one session directory. A false return means the
// session is excluded; violations explaining why are already recorded.
func (v *Validator) validateSession(tree Tree, name string, rep *report.ShapeReport) (SessionLayout, bool) {
	shape := v.rules.Shape
	dir := path.Join(shape.PicturesDirName, name)

	entries, err := tree.Entries(dir)
	if err != nil {
		rep.Add(report.Violation{
			Kind: report.KindStructural, Path: dir,
			Message: fmt.Sprintf("unreadable session directory: %v", err),
		})
		return SessionLayout{}, false
	}

	sess := SessionLayout{Name: name, Dir: dir}
	media := map[string]string{} // base -> media file name
	meta := map[string]bool{}    // base of metadata counterparts
	duplicate := false

	for _, e := range entries {
		if e.Dir {
			rep.Add(report.Violation{
				Kind: report.KindExclusion, Path: path.Join(dir, e.Name),
				Message: "unexpected subdirectory inside session",
			})
			continue
		}
		if e.Name == shape.IndexFileName {
			sess.IndexPath = path.Join(dir, e.Name)
			continue
		}

		ext := strings.ToLower(path.Ext(e.Name))
		base := strings.TrimSuffix(e.Name, path.Ext(e.Name))
		switch {
		case shape.MediaExt(ext):
			if prev, seen := media[base]; seen {
				rep.Add(report.Violation{
					Kind: report.KindStructural, Path: path.Join(dir, e.Name),
					Message: fmt.Sprintf("duplicate picture base name (conflicts with %s)", prev),
				})
				duplicate = true
				continue
			}
			media[base] = e.Name
		case ext == shape.MetadataExt:
			meta[base] = true
		default:
			rep.Add(report.Violation{
				Kind: report.KindExclusion, Path: path.Join(dir, e.Name),
				Message: fmt.Sprintf("unrecognized file extension %q", ext),
			})
		}
	}

	if sess.IndexPath == "" {
		// Fatal for this session only; sibling sessions continue.
		rep.Add(report.Violation{
			Kind: report.KindStructural, Path: dir,
			Expected: shape.IndexFileName,
			Message:  "missing session index file",
		})
		return SessionLayout{}, false
	}
	if duplicate {
		// Ambiguous metadata correspondence poisons the whole session.
		return SessionLayout{}, false
	}

	bases := make([]string, 0, len(media))
	for base := range media {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	for _, base := range bases {
		mediaName := media[base]
		mediaPath := path.Join(dir, mediaName)
		if !meta[base] {
			rep.Add(report.Violation{
				Kind: report.KindExclusion, Path: mediaPath, Fatal: v.policy.HaltOnMissingPictureMeta,
				Expected: base + shape.MetadataExt,
				Message:  "picture has no metadata counterpart",
			})
			continue
		}
		sess.Pictures = append(sess.Pictures, PictureLayout{
			Base:      base,
			MediaPath: mediaPath,
			MetaPath:  path.Join(dir, base+shape.MetadataExt),
			MediaExt:  strings.ToLower(path.Ext(mediaName)),
		})
		delete(meta, base)
	}

	for base := range meta {
		rep.Add(report.Violation{
			Kind: report.KindExclusion, Path: path.Join(dir, base+shape.MetadataExt),
			Message: "metadata file has no picture counterpart",
		})
	}

	if len(sess.Pictures) == 0 {
		// The session is still committable; an empty one is only unusual.
		rep.Add(report.Violation{
			Kind: report.KindStructural, Path: dir, Warning: true,
			Message: "session contains no pictures",
		})
	}

	return sess, true
}
