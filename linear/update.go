package linear

import (
	"github.com/hupe1980/hashmodel/feature"
	"github.com/hupe1980/hashmodel/weights"
)

// Update adds delta*value to class for every feature.
func Update(store *weights.Store, features []feature.Feature, class int32, delta float32) error {
	for _, f := range features {
		if f.Value == 0 {
			continue
		}
		if err := store.Add(f.Key, class, delta*f.Value); err != nil {
			return err
		}
	}
	return nil
}

// Perceptron applies the multi-class perceptron rule: when predicted differs
// from gold, gold's weights move up by rate and predicted's move down.
// It reports whether an update was made. A negative predicted class (no
// valid prediction) only promotes gold.
func Perceptron(store *weights.Store, features []feature.Feature, gold, predicted int32, rate float32) (bool, error) {
	if gold == predicted {
		return false, nil
	}
	if err := Update(store, features, gold, rate); err != nil {
		return false, err
	}
	if predicted >= 0 {
		if err := Update(store, features, predicted, -rate); err != nil {
			return false, err
		}
	}
	return true, nil
}
