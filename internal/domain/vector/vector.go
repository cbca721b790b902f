// Package vector implements the cosine similarity primitives used by the
// matching engine. All functions are pure and stateless.
package vector

import (
	"context"
	"fmt"
	"math"

	"github.com/kailas-cloud/jobmatch/internal/domain"
)

// Cosine returns the cosine similarity of two vectors of equal dimension.
// Returns exactly 0.0 when either vector has zero norm: the degenerate case
// is a defined fallback, not an error.
func Cosine(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("cosine: %w", domain.ErrEmptyInput)
	}
	if len(a) != len(b) {
		return 0, domain.NewShapeError(len(a), len(b))
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// CosineMatrix returns the full n×m cosine similarity matrix between the rows
// of a and the rows of b. Both inputs are row-normalized independently; rows
// with zero norm contribute 0.0 similarities.
func CosineMatrix(a, b [][]float64) ([][]float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, fmt.Errorf("cosine matrix: %w", domain.ErrEmptyInput)
	}

	dim := len(a[0])
	if err := checkRows(a, dim); err != nil {
		return nil, err
	}
	if err := checkRows(b, dim); err != nil {
		return nil, err
	}

	an := normalizeRows(a)
	bn := normalizeRows(b)

	out := make([][]float64, len(an))
	for i, row := range an {
		out[i] = make([]float64, len(bn))
		for j, col := range bn {
			var dot float64
			for k := range row {
				dot += row[k] * col[k]
			}
			out[i][j] = dot
		}
	}
	return out, nil
}

// JointSimilarity embeds both text sets and returns the symmetric
// best-alignment score: the mean of the two directional best-match averages.
//
// This is a set similarity heuristic, not a bipartite-matching optimum:
// several items of one set may share the same best match in the other
// (no exclusivity). Swapping in an assignment-optimal algorithm only
// requires replacing this function.
func JointSimilarity(
	ctx context.Context, embedder domain.Embedder, textsA, textsB []string,
) (float64, error) {
	if len(textsA) == 0 || len(textsB) == 0 {
		return 0, fmt.Errorf("joint similarity: %w", domain.ErrEmptyInput)
	}

	resA, err := domain.BatchEmbed(ctx, embedder, textsA)
	if err != nil {
		return 0, fmt.Errorf("embed set a: %w", err)
	}
	resB, err := domain.BatchEmbed(ctx, embedder, textsB)
	if err != nil {
		return 0, fmt.Errorf("embed set b: %w", err)
	}

	sim, err := CosineMatrix(resA.Embeddings, resB.Embeddings)
	if err != nil {
		return 0, fmt.Errorf("similarity matrix: %w", err)
	}

	return (bestMatchMean(sim) + bestMatchMean(transpose(sim))) / 2, nil
}

// ScoreFromDistance converts a cosine distance in [0,2] into a similarity
// score in [0,1]: identical direction maps to 1, opposite direction to 0.
func ScoreFromDistance(dist float64) float64 {
	s := 1 - dist/2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// bestMatchMean averages, over each row, the maximum value in that row.
func bestMatchMean(m [][]float64) float64 {
	var sum float64
	for _, row := range m {
		best := row[0]
		for _, v := range row[1:] {
			if v > best {
				best = v
			}
		}
		sum += best
	}
	return sum / float64(len(m))
}

func transpose(m [][]float64) [][]float64 {
	out := make([][]float64, len(m[0]))
	for j := range out {
		out[j] = make([]float64, len(m))
		for i := range m {
			out[j][i] = m[i][j]
		}
	}
	return out
}

func checkRows(m [][]float64, dim int) error {
	if dim == 0 {
		return fmt.Errorf("zero-width matrix: %w", domain.ErrShape)
	}
	for _, row := range m {
		if len(row) != dim {
			return domain.NewShapeError(dim, len(row))
		}
	}
	return nil
}

// normalizeRows returns a copy of m with each row scaled to unit L2 norm.
// Zero-norm rows are left as zeros.
func normalizeRows(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		var n float64
		for _, v := range row {
			n += v * v
		}
		dst := make([]float64, len(row))
		if n > 0 {
			inv := 1 / math.Sqrt(n)
			for j, v := range row {
				dst[j] = v * inv
			}
		}
		out[i] = dst
	}
	return out
}
