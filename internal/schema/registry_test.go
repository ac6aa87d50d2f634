package schema

import (
	"strings"
	"testing"

	"github.com/croplabs/picstore/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Versions(t *testing.T) {
	r := Default()

	latest := r.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, 1, latest.Version)

	v1, err := r.Version(1)
	require.NoError(t, err)
	assert.Same(t, latest, v1)

	_, err = r.Version(99)
	assert.Error(t, err)
}

func TestValidateFields_ProjectIndex(t *testing.T) {
	rs := Default().Latest()

	doc, err := document.DecodeYAML(strings.NewReader(`
projectName: P1
sessions:
  - S1
  - S2
`))
	require.NoError(t, err)

	fr := rs.ValidateFields(KindProjectIndex, "index.yaml", doc)
	assert.True(t, fr.OK)
	assert.Empty(t, fr.Errors)
}

func TestValidateFields_MissingRequired(t *testing.T) {
	rs := Default().Latest()

	doc, err := document.DecodeYAML(strings.NewReader("sessions: [S1]\n"))
	require.NoError(t, err)

	fr := rs.ValidateFields(KindProjectIndex, "index.yaml", doc)
	require.False(t, fr.OK)
	require.Len(t, fr.Errors, 1)
	assert.Equal(t, "projectName", fr.Errors[0].Field)
	assert.Equal(t, "index.yaml", fr.File)
}

func TestValidateFields_CollectsAllErrors(t *testing.T) {
	rs := Default().Latest()

	doc, err := document.DecodeYAML(strings.NewReader(`
pictureCount: many
capturedAt: not-a-date
`))
	require.NoError(t, err)

	fr := rs.ValidateFields(KindSessionIndex, "pictures/S1/index.yaml", doc)
	require.False(t, fr.OK)
	fields := []string{}
	for _, e := range fr.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"sessionName", "pictureCount", "capturedAt"}, fields)
}

func TestCoerce(t *testing.T) {
	intSpec := FieldSpec{Name: "pictureCount", Type: TypeInt}
	v, err := Coerce(intSpec, document.String("3"))
	require.NoError(t, err)
	n, _ := v.AsInt()
	assert.Equal(t, int64(3), n)

	_, err = Coerce(intSpec, document.String("three"))
	assert.Error(t, err)

	dateSpec := FieldSpec{Name: "capturedAt", Type: TypeDate}
	v, err = Coerce(dateSpec, document.String("2024-05-01"))
	require.NoError(t, err)
	d, _ := v.AsDate()
	assert.Equal(t, 2024, d.Year())

	enumSpec := FieldSpec{Name: "lighting", Type: TypeEnum, Enum: []string{"natural", "artificial"}}
	_, err = Coerce(enumSpec, document.String("neon"))
	assert.Error(t, err)
	_, err = Coerce(enumSpec, document.String("natural"))
	assert.NoError(t, err)
}

func TestShapeRules_MediaExt(t *testing.T) {
	shape := Default().Latest().Shape
	assert.True(t, shape.MediaExt(".tiff"))
	assert.True(t, shape.MediaExt(".jpg"))
	assert.False(t, shape.MediaExt(".yaml"))
	assert.False(t, shape.MediaExt(".exe"))
}
