package model

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/pspline/basis"
	scigoErrors "github.com/YuminosukeSato/pspline/pkg/errors"
)

func sampleWeights() *ModelWeights {
	return &ModelWeights{
		ModelType:    "PSplines",
		Version:      FormatVersion,
		Bases:        []basis.Params{{DomainMin: 0, DomainMax: 1, Segments: 2, Degree: 1}},
		Penalty:      []float64{0.5},
		PenaltyOrder: 2,
		Coefficients: []float64{1, -2, 3},
		Shape:        []int{3},
		EffDim:       2.5,
		InvMat:       []float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Metadata:     map[string]string{"estimator_id": "abc"},
		IsFitted:     true,
	}
}

func TestStateManager(t *testing.T) {
	s := NewStateManager("Regressor")
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("Predict")
	require.Error(t, err)
	var nf *scigoErrors.NotFittedError
	assert.True(t, scigoErrors.As(err, &nf))

	s.SetFitted(2, 100)
	require.NoError(t, s.RequireFitted("Predict"))
	f, n := s.GetDimensions()
	assert.Equal(t, 2, f)
	assert.Equal(t, 100, n)
	assert.Equal(t, ModelState{Fitted: true, NFeatures: 2, NSamples: 100}, s.GetState())

	s.Reset()
	assert.False(t, s.IsFitted())
}

func TestModelWeightsJSONRoundTrip(t *testing.T) {
	w := sampleWeights()
	data, err := w.ToJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, w.Checksum)

	var got ModelWeights
	require.NoError(t, got.FromJSON(data))
	assert.Equal(t, w.Coefficients, got.Coefficients)
	assert.Equal(t, w.Bases, got.Bases)
	assert.Equal(t, w.Checksum, got.Checksum)
}

func TestModelWeightsChecksumMismatch(t *testing.T) {
	w := sampleWeights()
	w.Seal()
	w.Coefficients[1] = 7
	err := w.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestModelWeightsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ModelWeights)
	}{
		{"missing type", func(w *ModelWeights) { w.ModelType = "" }},
		{"missing version", func(w *ModelWeights) { w.Version = "" }},
		{"bad version", func(w *ModelWeights) { w.Version = "one" }},
		{"newer major", func(w *ModelWeights) { w.Version = "2.0.0" }},
		{"coefficient count", func(w *ModelWeights) { w.Coefficients = []float64{1, 2} }},
		{"shape vs basis", func(w *ModelWeights) { w.Shape = []int{4}; w.Coefficients = []float64{1, 2, 3, 4} }},
		{"inverse size", func(w *ModelWeights) { w.InvMat = []float64{1} }},
		{"unfitted with coefficients", func(w *ModelWeights) { w.IsFitted = false }},
		{"fitted without coefficients", func(w *ModelWeights) { w.Coefficients = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := sampleWeights()
			tt.mutate(w)
			assert.Error(t, w.Validate())
		})
	}

	w := sampleWeights()
	w.Version = "1.4.2"
	assert.NoError(t, w.Validate())
}

func TestModelWeightsClone(t *testing.T) {
	w := sampleWeights()
	c := w.Clone()
	c.Coefficients[0] = 42
	c.Metadata["estimator_id"] = "other"
	assert.Equal(t, 1.0, w.Coefficients[0])
	assert.Equal(t, "abc", w.Metadata["estimator_id"])
}

func TestSaveLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob.zst")
	w := sampleWeights()
	require.NoError(t, SaveModel(w, path))

	var got ModelWeights
	require.NoError(t, LoadModel(&got, path))
	assert.Equal(t, w.Coefficients, got.Coefficients)
	assert.Equal(t, w.InvMat, got.InvMat)
	assert.Equal(t, w.Metadata, got.Metadata)

	assert.Error(t, LoadModel(&got, filepath.Join(t.TempDir(), "missing")))
}

func TestLoadModelFromReaderRejectsGarbage(t *testing.T) {
	var got ModelWeights
	err := LoadModelFromReader(&got, bytes.NewReader([]byte("not zstd")))
	assert.Error(t, err)
}

func TestSaveModelToWriterValidatesOnLoad(t *testing.T) {
	var buf bytes.Buffer
	w := sampleWeights()
	w.Version = "3.0.0"
	require.NoError(t, SaveModelToWriter(w, &buf))

	var got ModelWeights
	assert.Error(t, LoadModelFromReader(&got, &buf))
}

func TestSaveLoadModelLZ4(t *testing.T) {
	assert.Equal(t, CodecLZ4, CodecForPath("model.gob.LZ4"))
	assert.Equal(t, CodecZstd, CodecForPath("model.gob.zst"))
	assert.Equal(t, CodecZstd, CodecForPath("model"))

	path := filepath.Join(t.TempDir(), "model.gob.lz4")
	w := sampleWeights()
	require.NoError(t, SaveModel(w, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, lz4Magic, raw[:4])

	var got ModelWeights
	require.NoError(t, LoadModel(&got, path))
	assert.Equal(t, w.Coefficients, got.Coefficients)
	assert.Equal(t, w.Checksum, got.Checksum)
}

func TestSaveModelToWriterWithCodecs(t *testing.T) {
	for _, codec := range []Codec{CodecZstd, CodecLZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, SaveModelToWriterWith(sampleWeights(), &buf, codec))

			var got ModelWeights
			require.NoError(t, LoadModelFromReader(&got, &buf))
			assert.True(t, got.IsFitted)
		})
	}

	assert.Error(t, SaveModelToWriterWith(sampleWeights(), io.Discard, Codec(9)))
}
