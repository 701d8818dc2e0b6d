// ABOUTME: Mood set used to classify which labels count as negative.
// ABOUTME: Built from configuration so severity rules stay tunable.
package mood

import "github.com/harperreed/vigil/internal/models"

// Set is an unordered set of mood labels.
type Set map[models.Mood]struct{}

// NewSet builds a Set from moods.
func NewSet(moods ...models.Mood) Set {
	s := make(Set, len(moods))
	for _, m := range moods {
		s[m] = struct{}{}
	}
	return s
}

// DefaultNegative returns the default negative set {sad, angry, anxious}.
func DefaultNegative() Set {
	return NewSet(models.DefaultNegativeMoods...)
}

// Has reports whether m is in the set.
func (s Set) Has(m models.Mood) bool {
	_, ok := s[m]
	return ok
}

// Moods returns the members in canonical order.
func (s Set) Moods() []models.Mood {
	var out []models.Mood
	for _, m := range models.AllMoods {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}
