package analysis

import "fmt"

// ClampPolicy bounds the fractional delta a single feature can contribute.
type ClampPolicy string

const (
	// ClampAsymmetric caps the delta at 1 and leaves the negative side open.
	// This matches the scores the service has always produced.
	ClampAsymmetric ClampPolicy = "asymmetric"
	// ClampSymmetric bounds the delta to [-1, 1].
	ClampSymmetric ClampPolicy = "symmetric"
)

// ParseClampPolicy accepts "asymmetric", "symmetric" or "" (asymmetric).
func ParseClampPolicy(s string) (ClampPolicy, error) {
	switch ClampPolicy(s) {
	case "", ClampAsymmetric:
		return ClampAsymmetric, nil
	case ClampSymmetric:
		return ClampSymmetric, nil
	}
	return "", fmt.Errorf("unknown clamp policy %q", s)
}

func (p ClampPolicy) apply(delta float64) float64 {
	if p == ClampSymmetric {
		return clip(delta, -1, 1)
	}
	if delta > 1 {
		return 1
	}
	return delta
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
