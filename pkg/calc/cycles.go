package calc

import (
	"slices"

	"github.com/matzehuels/factoryflow/pkg/item"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// FindCycle looks for a cycle through the currently selected recipes and
// returns the items on it, starting and ending with the same item. It returns
// nil when the selected recipe graph is acyclic.
//
// The engine itself does not detect cycles; it stops at Options.MaxDepth.
// FindCycle is a diagnostic for callers that want to warn early.
func FindCycle(db *recipe.Database) []item.ID {
	const (
		white = iota
		gray
		black
	)

	n := db.Items().Len()
	color := make([]int, n)
	var stack []item.ID
	var cycle []item.ID

	var dfs func(id item.ID) bool
	dfs = func(id item.ID) bool {
		color[id] = gray
		stack = append(stack, id)
		if r, ok := db.Recipe(id); ok {
			for _, ing := range r.Ingredients {
				switch color[ing.Item] {
				case white:
					if dfs(ing.Item) {
						return true
					}
				case gray:
					start := slices.Index(stack, ing.Item)
					cycle = append(slices.Clone(stack[start:]), ing.Item)
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for id := range n {
		if color[id] == white && dfs(item.ID(id)) {
			return cycle
		}
	}
	return nil
}
