package dynconfig

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomValue builds a JSON-shaped value. Keys come from a small alphabet so that
// defaults and overrides collide often.
func randomValue(r *rand.Rand, depth int) any {
	kind := r.Intn(7)
	if depth <= 0 && kind >= 5 {
		kind = r.Intn(5)
	}
	switch kind {
	case 0:
		return nil
	case 1:
		return fmt.Sprintf("s%d", r.Intn(5))
	case 2:
		return float64(r.Intn(100))
	case 3:
		return r.Intn(2) == 0
	case 4, 5:
		n := r.Intn(3)
		out := make([]any, n)
		for i := range out {
			out[i] = randomValue(r, depth-1)
		}
		return out
	default:
		return randomMap(r, depth-1)
	}
}

func randomMap(r *rand.Rand, depth int) map[string]any {
	n := r.Intn(6)
	out := make(map[string]any, n)
	for i := 0; i < n; i++ {
		out[fmt.Sprintf("k%d", r.Intn(8))] = randomValue(r, depth)
	}
	return out
}

func TestProperty_MergeIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("merge(d, merge(d, o)) == merge(d, o)", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			d, o := randomMap(r, 3), randomMap(r, 3)
			once := MergeMaps(d, o)
			return reflect.DeepEqual(MergeMaps(d, once), once)
		},
		gen.Int64(),
	))

	properties.Property("every default key survives", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			d, o := randomMap(r, 3), randomMap(r, 3)
			merged := MergeMaps(d, o)
			for k, dv := range d {
				mv, ok := merged[k]
				if !ok {
					return false
				}
				dm, dIsMap := dv.(map[string]any)
				mm, mIsMap := mv.(map[string]any)
				if dIsMap {
					if !mIsMap {
						return false
					}
					for nk := range dm {
						if _, ok := mm[nk]; !ok {
							return false
						}
					}
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("keyed merge is idempotent", prop.ForAll(
		func(seed int64, keepUnmatched bool) bool {
			r := rand.New(rand.NewSource(seed))
			categories := []string{"accounts", "payments", "cards", "crypto", "loans"}
			var records []any
			for i := r.Intn(5); i > 0; i-- {
				rec := map[string]any{"category": categories[r.Intn(len(categories))]}
				if r.Intn(2) == 0 {
					rec["color"] = fmt.Sprintf("#%06d", r.Intn(999999))
				}
				if r.Intn(2) == 0 {
					rec["icon"] = float64(r.Intn(3))
				}
				records = append(records, rec)
			}

			m := NewMerger(keepUnmatched, nil)
			once := mergeKeyed(m, "category-style", DefaultCategoryStyles(), categoryStyleKey, records)

			var again []any
			for _, s := range once {
				sm, err := toMap(s)
				if err != nil {
					return false
				}
				again = append(again, sm)
			}
			twice := mergeKeyed(m, "category-style", DefaultCategoryStyles(), categoryStyleKey, again)
			return reflect.DeepEqual(once, twice)
		},
		gen.Int64(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
