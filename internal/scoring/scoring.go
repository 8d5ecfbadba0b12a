// Package scoring ranks memories by relevance, recency and importance.
package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/rcliao/memory-stream/internal/model"
)

const (
	// DefaultDecayRate is the per-second exponential decay applied to recency.
	DefaultDecayRate = 0.99

	// MinRating and MaxRating bound the importance rating scale.
	MinRating = 1
	MaxRating = 10
)

// Weights scales each component of the composite score.
type Weights struct {
	Alpha float64 `mapstructure:"alpha" yaml:"alpha"`
	Beta  float64 `mapstructure:"beta" yaml:"beta"`
	Gamma float64 `mapstructure:"gamma" yaml:"gamma"`
}

// DefaultWeights weighs relevance, recency and importance equally.
func DefaultWeights() Weights {
	return Weights{Alpha: 1.0, Beta: 1.0, Gamma: 1.0}
}

// Score is alpha*relevance + beta*recency + gamma*importance.
func (w Weights) Score(relevance, recency, importance float64) float64 {
	return w.Alpha*relevance + w.Beta*recency + w.Gamma*importance
}

// Score combines the three components with the default weights.
func Score(relevance, recency, importance float64) float64 {
	return DefaultWeights().Score(relevance, recency, importance)
}

// Relevance converts an angular distance in [0,2] to a similarity score.
// Very dissimilar vectors yield a negative relevance; it is not clamped.
func Relevance(distance float64) float64 {
	return 1 - distance
}

// Recency is exp(-decayRate * seconds elapsed since lastAccess).
func Recency(now, lastAccess time.Time, decayRate float64) (float64, error) {
	if decayRate < 0 || math.IsNaN(decayRate) || math.IsInf(decayRate, 0) {
		return 0, fmt.Errorf("decay rate %v: %w", decayRate, model.ErrRange)
	}
	if now.Before(lastAccess) {
		return 0, fmt.Errorf("now %s is before last access %s: %w",
			now.Format(time.RFC3339Nano), lastAccess.Format(time.RFC3339Nano), model.ErrOutOfOrder)
	}
	elapsed := now.Sub(lastAccess).Seconds()
	return math.Exp(-decayRate * elapsed), nil
}

// NormalizeImportance maps a rating in 1..10 onto [0,1].
func NormalizeImportance(rating int) (float64, error) {
	if rating < MinRating || rating > MaxRating {
		return 0, fmt.Errorf("importance rating %d not in %d..%d: %w", rating, MinRating, MaxRating, model.ErrRange)
	}
	return float64(rating-MinRating) / float64(MaxRating-MinRating), nil
}
