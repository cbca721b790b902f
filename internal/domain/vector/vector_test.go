package vector

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/jobmatch/internal/domain"
)

const eps = 1e-9

// --- Mocks ---

// stubEmbedder maps texts to fixed vectors.
type stubEmbedder struct {
	vecs map[string][]float64
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	v, ok := s.vecs[text]
	if !ok {
		return domain.EmbeddingResult{}, errors.New("unknown text: " + text)
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

// --- Cosine ---

func TestCosine_SelfSimilarity(t *testing.T) {
	v := []float64{0.3, -1.7, 2.5, 0.01}
	got, err := Cosine(v, v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-1) > eps {
		t.Errorf("expected 1.0, got %v", got)
	}
}

func TestCosine_Orthogonal(t *testing.T) {
	got, err := Cosine([]float64{1, 0}, []float64{0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got) > eps {
		t.Errorf("expected 0.0, got %v", got)
	}
}

func TestCosine_Opposite(t *testing.T) {
	got, err := Cosine([]float64{2, -1}, []float64{-2, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got+1) > eps {
		t.Errorf("expected -1.0, got %v", got)
	}
}

func TestCosine_ScaleInvariant(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{10, 20, 30}
	got, err := Cosine(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-1) > eps {
		t.Errorf("expected 1.0 for scaled vector, got %v", got)
	}
}

func TestCosine_ZeroNormFallback(t *testing.T) {
	got, err := Cosine([]float64{0, 0, 0}, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("zero norm must not error, got: %v", err)
	}
	if got != 0 {
		t.Errorf("expected exactly 0.0 for zero-norm vector, got %v", got)
	}
}

func TestCosine_DimensionMismatch(t *testing.T) {
	_, err := Cosine([]float64{1, 2}, []float64{1, 2, 3})
	if !errors.Is(err, domain.ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
	var se *domain.ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected ShapeError, got %T", err)
	}
	if se.Want != 2 || se.Got != 3 {
		t.Errorf("expected dims (2, 3), got (%d, %d)", se.Want, se.Got)
	}
}

func TestCosine_EmptyInput(t *testing.T) {
	if _, err := Cosine(nil, []float64{1}); !errors.Is(err, domain.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := Cosine([]float64{1}, nil); !errors.Is(err, domain.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

// --- CosineMatrix ---

func TestCosineMatrix_MatchesPairwise(t *testing.T) {
	a := [][]float64{
		{1, 0, 0},
		{0.5, 0.5, 0},
		{-1, 2, 0.25},
	}
	b := [][]float64{
		{0, 1, 0},
		{3, -2, 1},
	}

	m, err := CosineMatrix(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != len(a) || len(m[0]) != len(b) {
		t.Fatalf("expected %dx%d matrix, got %dx%d", len(a), len(b), len(m), len(m[0]))
	}

	for i := range a {
		for j := range b {
			want, err := Cosine(a[i], b[j])
			if err != nil {
				t.Fatalf("pairwise cosine: %v", err)
			}
			if math.Abs(m[i][j]-want) > eps {
				t.Errorf("m[%d][%d] = %v, pairwise = %v", i, j, m[i][j], want)
			}
		}
	}
}

func TestCosineMatrix_ZeroRow(t *testing.T) {
	m, err := CosineMatrix(
		[][]float64{{0, 0}},
		[][]float64{{1, 2}, {3, 4}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for j, v := range m[0] {
		if v != 0 {
			t.Errorf("m[0][%d] = %v, expected 0.0 for zero-norm row", j, v)
		}
	}
}

func TestCosineMatrix_RaggedRows(t *testing.T) {
	_, err := CosineMatrix(
		[][]float64{{1, 2}, {1, 2, 3}},
		[][]float64{{1, 2}},
	)
	if !errors.Is(err, domain.ErrShape) {
		t.Errorf("expected ErrShape for ragged rows, got %v", err)
	}
}

func TestCosineMatrix_EmptyInput(t *testing.T) {
	_, err := CosineMatrix(nil, [][]float64{{1}})
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

// --- JointSimilarity ---

func TestJointSimilarity_SelfIsOne(t *testing.T) {
	emb := &stubEmbedder{vecs: map[string][]float64{
		"go":    {1, 0.5, 0},
		"redis": {0, 1, 2},
	}}
	texts := []string{"go", "redis"}

	got, err := JointSimilarity(context.Background(), emb, texts, texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-1) > eps {
		t.Errorf("expected self similarity 1.0, got %v", got)
	}
}

func TestJointSimilarity_Symmetric(t *testing.T) {
	emb := &stubEmbedder{vecs: map[string][]float64{
		"a": {1, 0},
		"b": {0.7, 0.7},
		"c": {0, 1},
	}}
	setA := []string{"a", "b"}
	setB := []string{"c"}

	ab, err := JointSimilarity(context.Background(), emb, setA, setB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := JointSimilarity(context.Background(), emb, setB, setA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(ab-ba) > eps {
		t.Errorf("expected symmetric score, got %v vs %v", ab, ba)
	}
}

func TestJointSimilarity_KnownValue(t *testing.T) {
	// A = {e1, e2}, B = {e1}. Forward best matches: 1 and 0, mean 0.5.
	// Backward best match: 1. Symmetric score: (0.5 + 1) / 2 = 0.75.
	emb := &stubEmbedder{vecs: map[string][]float64{
		"e1": {1, 0},
		"e2": {0, 1},
	}}

	got, err := JointSimilarity(context.Background(), emb, []string{"e1", "e2"}, []string{"e1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.75) > eps {
		t.Errorf("expected 0.75, got %v", got)
	}
}

func TestJointSimilarity_EmptySet(t *testing.T) {
	emb := &stubEmbedder{vecs: map[string][]float64{"x": {1}}}
	if _, err := JointSimilarity(context.Background(), emb, nil, []string{"x"}); !errors.Is(err, domain.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestJointSimilarity_EmbedderFailure(t *testing.T) {
	emb := &stubEmbedder{vecs: map[string][]float64{"x": {1}}}
	if _, err := JointSimilarity(context.Background(), emb, []string{"x"}, []string{"unknown"}); err == nil {
		t.Error("expected error for unknown text")
	}
}

// --- ScoreFromDistance ---

func TestScoreFromDistance(t *testing.T) {
	cases := []struct {
		dist float64
		want float64
	}{
		{0, 1},
		{1, 0.5},
		{2, 0},
		{-0.1, 1},  // clamped
		{2.5, 0},   // clamped
		{0.5, 0.75},
	}
	for _, tc := range cases {
		if got := ScoreFromDistance(tc.dist); math.Abs(got-tc.want) > eps {
			t.Errorf("ScoreFromDistance(%v) = %v, expected %v", tc.dist, got, tc.want)
		}
	}
}
