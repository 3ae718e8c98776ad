package plan

import (
	"github.com/matzehuels/factoryflow/pkg/calc"
	"github.com/matzehuels/factoryflow/pkg/item"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// Level is a group of required items recorded at the same depth.
type Level struct {
	Depth int
	Items []item.Amount
}

// RequiredGroups returns items with a positive requirement grouped by
// recorded depth. Levels are in increasing depth and items within a level in
// ascending item ID. Empty levels are omitted.
func RequiredGroups(st *calc.State) []Level {
	return groupByDepth(st.Required, st.Depth)
}

// SurplusItems returns items with leftover credit in ascending item ID.
func SurplusItems(st *calc.State) []item.Amount {
	var out []item.Amount
	for id, v := range st.Surplus {
		if v > 0 {
			out = append(out, item.Amount{Amount: v, Item: item.ID(id)})
		}
	}
	return out
}

func groupByDepth(amounts []float64, depth []int) []Level {
	maxDepth := -1
	for id, v := range amounts {
		if v > 0 {
			maxDepth = max(maxDepth, depth[id])
		}
	}
	buckets := make([][]item.Amount, maxDepth+1)
	for id, v := range amounts {
		if v > 0 {
			d := depth[id]
			buckets[d] = append(buckets[d], item.Amount{Amount: v, Item: item.ID(id)})
		}
	}

	var levels []Level
	for d, items := range buckets {
		if len(items) > 0 {
			levels = append(levels, Level{Depth: d, Items: items})
		}
	}
	return levels
}

// FactoryCount is the number of factories of one type needed by a plan.
// Counts are fractional; rounding up is left to the reader.
type FactoryCount struct {
	Factory string  `json:"factory" csv:"factory"`
	Count   float64 `json:"count" csv:"count"`
}

// FactoriesFor returns how many factories running id's selected recipe
// produce rate per unit time, and the factory name. ok is false for raw
// materials.
func FactoriesFor(db *recipe.Database, id item.ID, rate float64) (count float64, factory string, ok bool) {
	r, ok := db.Recipe(id)
	if !ok {
		return 0, "", false
	}
	return rate / r.RatePerFactory(id), r.Factory, true
}

// Factories aggregates factory counts by factory name over every required
// item with a selected recipe. Factory types appear in first-seen order,
// walking levels by depth and items by ID.
func Factories(db *recipe.Database, st *calc.State) []FactoryCount {
	var out []FactoryCount
	index := make(map[string]int)
	for _, lvl := range RequiredGroups(st) {
		for _, a := range lvl.Items {
			n, factory, ok := FactoriesFor(db, a.Item, a.Amount)
			if !ok {
				continue
			}
			i, seen := index[factory]
			if !seen {
				i = len(out)
				index[factory] = i
				out = append(out, FactoryCount{Factory: factory})
			}
			out[i].Count += n
		}
	}
	return out
}
