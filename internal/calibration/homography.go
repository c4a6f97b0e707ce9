package calibration

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// RANSAC parameters for the robust fit. Distances are in normalized screen
// units, so 0.02 corresponds to 2% of the screen diagonal-ish scale.
const (
	ransacIterations      = 256
	ransacInlierThreshold = 0.02
	rankTolerance         = 1e-9
)

// fitHomography estimates a 3x3 projective transform from raw points to
// screen points, robust to outlier pairs. With exactly the minimum number of
// pairs it degenerates to a direct fit.
func fitHomography(pairs []PointPair, rng *rand.Rand) (*mat.Dense, error) {
	if len(pairs) == MinPoints {
		return solveDLT(pairs)
	}

	var bestInliers []PointPair
	sample := make([]PointPair, MinPoints)

	for iter := 0; iter < ransacIterations; iter++ {
		sampleInto(sample, pairs, rng)
		h, err := solveDLT(sample)
		if err != nil {
			continue
		}

		var inliers []PointPair
		for _, p := range pairs {
			mapped := applyHomography(h, p.RawGaze.X, p.RawGaze.Y)
			dx := mapped[0] - p.ScreenTarget.X
			dy := mapped[1] - p.ScreenTarget.Y
			if math.Hypot(dx, dy) <= ransacInlierThreshold {
				inliers = append(inliers, p)
			}
		}
		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
		}
	}

	if len(bestInliers) < MinPoints {
		return nil, ErrCalibrationFit
	}

	// Refit on the consensus set for a least-squares solution over all
	// inliers rather than the minimal sample.
	h, err := solveDLT(bestInliers)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// sampleInto fills dst with distinct random pairs from src.
func sampleInto(dst, src []PointPair, rng *rand.Rand) {
	perm := rng.Perm(len(src))
	for i := range dst {
		dst[i] = src[perm[i]]
	}
}

// solveDLT computes the homography via the direct linear transform: stack
// two constraint rows per pair and take the right singular vector of the
// smallest singular value. Degenerate geometry (e.g. collinear points)
// leaves the system rank-deficient and fails explicitly.
func solveDLT(pairs []PointPair) (*mat.Dense, error) {
	n := len(pairs)
	a := mat.NewDense(2*n, 9, nil)
	for i, p := range pairs {
		x, y := p.RawGaze.X, p.RawGaze.Y
		u, v := p.ScreenTarget.X, p.ScreenTarget.Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return nil, ErrCalibrationFit
	}

	values := svd.Values(nil)
	// A unique solution needs rank 8; values[7] collapsing toward zero
	// means the null space has dimension > 1.
	if values[0] == 0 || values[7]/values[0] < rankTolerance {
		return nil, ErrCalibrationFit
	}

	var v mat.Dense
	svd.VTo(&v)

	h := mat.NewDense(3, 3, nil)
	for i := 0; i < 9; i++ {
		h.Set(i/3, i%3, v.At(i, 8))
	}

	// Fix the projective scale so stored matrices are comparable.
	if s := h.At(2, 2); math.Abs(s) > rankTolerance {
		h.Scale(1/s, h)
	}
	return h, nil
}

// applyHomography maps (x, y) through h with homogeneous normalization.
func applyHomography(h *mat.Dense, x, y float64) [2]float64 {
	w := h.At(2, 0)*x + h.At(2, 1)*y + h.At(2, 2)
	if w == 0 {
		return [2]float64{x, y}
	}
	return [2]float64{
		(h.At(0, 0)*x + h.At(0, 1)*y + h.At(0, 2)) / w,
		(h.At(1, 0)*x + h.At(1, 1)*y + h.At(1, 2)) / w,
	}
}
