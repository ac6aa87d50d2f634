// Package controller is the ingestion façade: it drives one submission
// through shape validation, field validation, enrichment and upload, and
// shapes the single reply the caller gets. Validation never mutates stores;
// only the final upload stage persists anything.
package controller

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/croplabs/picstore/internal/enricher"
	"github.com/croplabs/picstore/internal/logging"
	"github.com/croplabs/picstore/internal/normalizer"
	"github.com/croplabs/picstore/internal/report"
	"github.com/croplabs/picstore/internal/schema"
	"github.com/croplabs/picstore/internal/server/models"
	"github.com/croplabs/picstore/internal/submission"
)

// State names one stage of the submission lifecycle, for logging.
type State string

const (
	StateReceived      State = "received"
	StateShapeChecked  State = "shape-checked"
	StateFieldsChecked State = "fields-checked"
	StateEnriched      State = "enriched"
	StateUploaded      State = "uploaded"
	StateAborted       State = "aborted"
)

// Uploader persists a validated, enriched dataset. Implemented by
// services.UploadService; tests substitute a fake.
type Uploader interface {
	Upload(ctx context.Context, tree submission.Tree, ds *models.Dataset) (*report.Outcome, error)
}

type Controller struct {
	rules    *schema.RuleSet
	policy   submission.Policy
	enricher *enricher.Enricher
	uploader Uploader
	log      logging.Logger
	now      func() time.Time
}

func New(rules *schema.RuleSet, policy submission.Policy, e *enricher.Enricher, up Uploader, log logging.Logger) *Controller {
	return &Controller{
		rules:    rules,
		policy:   policy,
		enricher: e,
		uploader: up,
		log:      log.With("module", "controller"),
		now:      time.Now,
	}
}

// Validate runs shape and field validation without touching any store and
// returns the full set of violations.
func (c *Controller) Validate(ctx context.Context, tree submission.Tree) *report.ValidationSummary {
	layout, shape := c.validateShape(tree)
	summary := &report.ValidationSummary{OK: shape.OK, Shape: shape}
	if layout == nil {
		return summary
	}

	norm := normalizer.New(c.rules)
	collect := func(fr report.FieldReport) {
		summary.Fields = append(summary.Fields, fr)
		if !fr.OK {
			summary.OK = false
		}
	}

	fr, _ := c.readFile(tree, layout.IndexPath, func(r io.Reader) report.FieldReport {
		_, fr := norm.ProjectIndex(r, layout.IndexPath)
		return fr
	})
	collect(fr)
	if !fr.OK {
		// An unusable project index stops the walk; no session is reported
		// against a project that cannot be committed.
		return summary
	}

	for _, sess := range layout.Sessions {
		fr, _ := c.readFile(tree, sess.IndexPath, func(r io.Reader) report.FieldReport {
			_, fr := norm.SessionIndex(r, sess.IndexPath)
			return fr
		})
		collect(fr)
		for _, pic := range sess.Pictures {
			fr, _ := c.readFile(tree, pic.MetaPath, func(r io.Reader) report.FieldReport {
				_, fr := norm.Picture(r, pic.MetaPath)
				return fr
			})
			collect(fr)
		}
	}

	return summary
}

// Upload runs the full pipeline. A non-nil error means the submission could
// not be processed at all (unregistered owner, store provisioning); every
// validation problem is reported through the outcome instead.
func (c *Controller) Upload(ctx context.Context, ownerID string, tree submission.Tree) (*report.Outcome, error) {
	log := c.log.With("owner", ownerID)
	log.Debug(ctx, "submission received", "state", StateReceived)

	layout, shape := c.validateShape(tree)
	if layout == nil || !shape.OK {
		log.Info(ctx, "submission aborted on shape", "state", StateAborted, "violations", len(shape.Violations))
		return abortedOutcome("submission tree is structurally invalid", shape.Violations), nil
	}
	log.Debug(ctx, "shape validated", "state", StateShapeChecked, "sessions", len(layout.Sessions))

	ds, pre, ok := c.normalize(tree, ownerID, layout)
	if !ok {
		log.Info(ctx, "submission aborted on fields", "state", StateAborted)
		return abortedOutcome("project index failed field validation", pre.violations), nil
	}
	log.Debug(ctx, "fields validated", "state", StateFieldsChecked, "sessions", len(ds.Sessions))

	for _, v := range c.enricher.Enrich(ds, c.now()) {
		pre.exclude(v.Path, v.Kind, v.Message)
	}
	log.Debug(ctx, "dataset enriched", "state", StateEnriched, "project", ds.Project.ID)

	out, err := c.uploader.Upload(ctx, tree, ds)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	// Fold shape- and field-stage results into the final reply so the
	// caller sees every dropped unit in one place. Every non-warning shape
	// violation names a unit that never reached the orchestrator, including
	// sessions rejected for a missing index or ambiguous base names.
	for _, v := range shape.Violations {
		if !v.Fatal && !v.Warning {
			out.Exclude(v.Path, v.Kind, v.Message)
		}
	}
	for _, e := range pre.excluded {
		out.Exclude(e.Path, e.Kind, e.Reason)
	}
	out.Violations = append(out.Violations, shape.Violations...)
	out.Violations = append(out.Violations, pre.violations...)
	out.Finalize()

	log.Info(ctx, "submission finished", "state", StateUploaded,
		"status", out.Status, "committed", len(out.Committed), "excluded", len(out.Excluded))
	return out, nil
}

// preUpload accumulates exclusions and violations raised before the
// orchestrator runs.
type preUpload struct {
	excluded   []report.ExcludedUnit
	violations []report.Violation
}

func (p *preUpload) exclude(path string, kind report.ViolationKind, reason string) {
	p.excluded = append(p.excluded, report.ExcludedUnit{Path: path, Kind: kind, Reason: reason})
}

func (c *Controller) validateShape(tree submission.Tree) (*submission.Layout, report.ShapeReport) {
	v := submission.NewValidator(c.rules, c.policy)
	return v.Validate(tree)
}

// normalize converts every structured file of the layout into canonical
// records. A false return means the project index itself is unusable.
func (c *Controller) normalize(tree submission.Tree, ownerID string, layout *submission.Layout) (*models.Dataset, *preUpload, bool) {
	norm := normalizer.New(c.rules)
	pre := &preUpload{}

	var project *models.ProjectIndex
	fr, ok := c.readFile(tree, layout.IndexPath, func(r io.Reader) report.FieldReport {
		var rep report.FieldReport
		project, rep = norm.ProjectIndex(r, layout.IndexPath)
		return rep
	})
	if !ok || project == nil {
		pre.violations = append(pre.violations, fieldViolations(fr)...)
		return nil, pre, false
	}
	pre.violations = append(pre.violations, warningViolations(fr)...)

	ds := &models.Dataset{OwnerID: ownerID, Project: project}

	declared := map[string]bool{}
	for _, name := range project.Sessions {
		declared[name] = true
	}

	for _, sess := range layout.Sessions {
		bundle, sessPre := c.normalizeSession(tree, norm, sess)
		pre.excluded = append(pre.excluded, sessPre.excluded...)
		pre.violations = append(pre.violations, sessPre.violations...)
		if bundle == nil {
			continue
		}
		if !declared[sess.Name] {
			pre.violations = append(pre.violations, report.Violation{
				Kind: report.KindStructural, Path: sess.Dir, Warning: true,
				Message: "session not declared in the project index",
			})
		}
		ds.Sessions = append(ds.Sessions, bundle)
	}

	return ds, pre, true
}

// normalizeSession converts one session's files. A nil bundle means the
// session index failed validation and the whole session is excluded.
func (c *Controller) normalizeSession(tree submission.Tree, norm *normalizer.Normalizer, sess submission.SessionLayout) (*models.SessionBundle, *preUpload) {
	pre := &preUpload{}

	var index *models.SessionIndex
	fr, ok := c.readFile(tree, sess.IndexPath, func(r io.Reader) report.FieldReport {
		var rep report.FieldReport
		index, rep = norm.SessionIndex(r, sess.IndexPath)
		return rep
	})
	if !ok || index == nil {
		pre.violations = append(pre.violations, fieldViolations(fr)...)
		pre.exclude(sess.Dir, report.KindField, "session index failed field validation")
		return nil, pre
	}
	pre.violations = append(pre.violations, warningViolations(fr)...)

	// The directory name is authoritative for identity; a diverging declared
	// name is reported but does not exclude the session.
	if index.Name != sess.Name {
		pre.violations = append(pre.violations, report.Violation{
			Kind: report.KindField, Path: sess.IndexPath, Field: "sessionName", Warning: true,
			Message: fmt.Sprintf("declared name %q differs from directory %q", index.Name, sess.Name),
		})
		index.Name = sess.Name
	}

	bundle := &models.SessionBundle{Index: index}
	for _, pl := range sess.Pictures {
		var pic *models.Picture
		fr, ok := c.readFile(tree, pl.MetaPath, func(r io.Reader) report.FieldReport {
			var rep report.FieldReport
			pic, rep = norm.Picture(r, pl.MetaPath)
			return rep
		})
		if !ok || pic == nil {
			pre.violations = append(pre.violations, fieldViolations(fr)...)
			pre.exclude(pl.MediaPath, report.KindField, "picture metadata failed field validation")
			continue
		}
		pre.violations = append(pre.violations, warningViolations(fr)...)

		pic.Base = pl.Base
		pic.OriginalFilename = pl.Base + pl.MediaExt
		pic.MediaPath = pl.MediaPath
		bundle.Pictures = append(bundle.Pictures, pic)
	}

	if index.PictureCount != int64(len(bundle.Pictures)) {
		pre.violations = append(pre.violations, report.Violation{
			Kind: report.KindField, Path: sess.IndexPath, Field: "pictureCount", Warning: true,
			Message: fmt.Sprintf("declares %d pictures, %d are usable", index.PictureCount, len(bundle.Pictures)),
		})
	}

	return bundle, pre
}

// readFile opens one structured file and hands it to fn. Unreadable files
// produce a failed report instead of an error.
func (c *Controller) readFile(tree submission.Tree, path string, fn func(io.Reader) report.FieldReport) (report.FieldReport, bool) {
	f, err := tree.Open(path)
	if err != nil {
		fr := report.FieldReport{File: path}
		fr.AddError("", fmt.Sprintf("unreadable file: %v", err))
		return fr, false
	}
	defer f.Close()
	fr := fn(f)
	return fr, fr.OK
}

func abortedOutcome(reason string, violations []report.Violation) *report.Outcome {
	return &report.Outcome{
		Status:     report.StatusFailure,
		Reason:     reason,
		Committed:  []string{},
		Excluded:   []report.ExcludedUnit{},
		Violations: violations,
	}
}

func fieldViolations(fr report.FieldReport) []report.Violation {
	var out []report.Violation
	for _, e := range fr.Errors {
		out = append(out, report.Violation{
			Kind: report.KindField, Path: fr.File, Field: e.Field, Message: e.Message,
		})
	}
	return append(out, warningViolations(fr)...)
}

func warningViolations(fr report.FieldReport) []report.Violation {
	var out []report.Violation
	for _, w := range fr.Warnings {
		out = append(out, report.Violation{
			Kind: report.KindField, Path: fr.File, Field: w.Field, Message: w.Message, Warning: true,
		})
	}
	return out
}
