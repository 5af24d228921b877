package hashmodel

import "github.com/hupe1980/hashmodel/feature"

// Example is one input to score. Features and Valid are provided by the
// caller; scorers write only Scores.
type Example struct {
	// Features are the hashed features with their values.
	Features []feature.Feature
	// Valid masks classes that may be predicted. A nil mask allows every class.
	Valid []bool
	// NumClasses is the expected class count. Zero means "use the model's".
	NumClasses int
	// Scores receives one score per class. It is allocated on first use.
	Scores []float32
}

func (ex *Example) prepare(numClasses int) error {
	if ex.NumClasses != 0 && ex.NumClasses != numClasses {
		return &ErrDimensionMismatch{Expected: numClasses, Actual: ex.NumClasses, cause: ErrClassCountMismatch}
	}
	switch {
	case ex.Scores == nil:
		ex.Scores = make([]float32, numClasses)
	case len(ex.Scores) != numClasses:
		return &ErrDimensionMismatch{Expected: numClasses, Actual: len(ex.Scores)}
	default:
		clear(ex.Scores)
	}
	return nil
}

// Argmax returns the valid class with the highest score. Ties go to the
// lowest class id. It returns -1 when no class is valid. A nil valid mask
// allows every class; classes beyond a short mask are invalid.
func Argmax(scores []float32, valid []bool) int {
	best := -1
	for i, s := range scores {
		if valid != nil && (i >= len(valid) || !valid[i]) {
			continue
		}
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	return best
}
