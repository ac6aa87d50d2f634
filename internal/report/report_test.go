package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShapeReport_FatalClearsOK(t *testing.T) {
	r := ShapeReport{OK: true}
	r.Add(Violation{Kind: KindExclusion, Path: "pictures/s1/2.tiff", Message: "no metadata counterpart"})
	assert.True(t, r.OK, "warning-class violations keep the report ok")

	r.Add(Violation{Kind: KindStructural, Path: ".", Message: "missing project index", Fatal: true})
	assert.False(t, r.OK)
	assert.Len(t, r.Violations, 2, "all violations are collected in order")
}

func TestFieldReport_AddError(t *testing.T) {
	r := FieldReport{File: "index.yaml", Kind: "project-index", OK: true}
	r.AddError("projectName", "required field missing")
	assert.False(t, r.OK)
	assert.Equal(t, "projectName", r.Errors[0].Field)
}

func TestOutcome_Finalize(t *testing.T) {
	o := &Outcome{Committed: []string{"s1"}}
	o.Finalize()
	assert.Equal(t, StatusSuccess, o.Status)

	o = &Outcome{Committed: []string{"s1"}}
	o.Exclude("pictures/s1/2.tiff", KindExclusion, "no metadata counterpart")
	o.Finalize()
	assert.Equal(t, StatusPartial, o.Status)

	o = &Outcome{}
	o.Exclude("s1", KindStorage, "commit failed")
	o.Finalize()
	assert.Equal(t, StatusFailure, o.Status)
	assert.NotEmpty(t, o.Reason)
}
