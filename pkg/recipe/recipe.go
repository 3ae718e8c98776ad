package recipe

import (
	"errors"
	"fmt"
	"strings"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/item"
)

// Sentinel errors. They are returned wrapped in a [ferrors.Error] carrying a
// code, so both errors.Is and ferrors.Is work on the result.
var (
	// ErrMalformedRecipe marks a recipe that cannot be used by the engine:
	// no results, a duplicated or non-positive result, bad time or factory.
	ErrMalformedRecipe = errors.New("malformed recipe")

	// ErrParse is returned for syntax errors in recipe files and request specs.
	ErrParse = errors.New("parse error")

	// ErrUnknownItem is returned when a name is not in the registry.
	ErrUnknownItem = errors.New("unknown item")

	// ErrNoRecipe is returned when selecting a recipe for a raw material.
	ErrNoRecipe = errors.New("item has no recipe")

	// ErrSelectionRange is returned by [Database.Select] for an index outside
	// the candidate list.
	ErrSelectionRange = errors.New("recipe selection out of range")
)

// Recipe consumes Ingredients over Time seconds in a Factory and yields Results.
//
// Results is non-empty and lists every item at most once. Ingredients may be
// empty for extraction recipes (mines, pumps) that turn nothing into a raw
// resource.
type Recipe struct {
	Results     []item.Amount
	Ingredients []item.Amount
	Time        float64
	Factory     string
}

// AmountOf returns the yield of id per run, and false if the recipe does not
// produce id.
func (r *Recipe) AmountOf(id item.ID) (float64, bool) {
	for _, res := range r.Results {
		if res.Item == id {
			return res.Amount, true
		}
	}
	return 0, false
}

// Produces reports whether id is among the recipe's results.
func (r *Recipe) Produces(id item.ID) bool {
	_, ok := r.AmountOf(id)
	return ok
}

// RatePerFactory returns how many units of id one factory running this
// recipe produces per time unit. It is zero when id is not a result.
func (r *Recipe) RatePerFactory(id item.ID) float64 {
	y, ok := r.AmountOf(id)
	if !ok || r.Time <= 0 {
		return 0
	}
	return y / r.Time
}

// Validate checks the invariants the engine relies on.
func (r *Recipe) Validate() error {
	if len(r.Results) == 0 {
		return malformed("recipe has no results")
	}
	if r.Time <= 0 {
		return malformed("time must be positive (got %g)", r.Time)
	}
	if strings.TrimSpace(r.Factory) == "" {
		return malformed("factory name is empty")
	}
	seen := make(map[item.ID]bool, len(r.Results))
	for _, res := range r.Results {
		if seen[res.Item] {
			return malformed("result item %d listed twice", res.Item)
		}
		seen[res.Item] = true
		if res.Amount <= 0 {
			return malformed("result item %d has non-positive yield %g", res.Item, res.Amount)
		}
	}
	for _, ing := range r.Ingredients {
		if err := ferrors.ValidateAmount(ing.Amount); err != nil {
			return malformed("ingredient item %d: %s", ing.Item, ferrors.UserMessage(err))
		}
	}
	return nil
}

func malformed(format string, args ...any) error {
	return ferrors.Wrap(ferrors.ErrCodeInvalidRecipe, ErrMalformedRecipe, format, args...)
}

// FormatRecipe renders a recipe as "2 iron plate + coal -> steel (furnace)".
// Amounts of exactly one are omitted.
func FormatRecipe(reg *item.Registry, r *Recipe) string {
	var b strings.Builder
	if len(r.Ingredients) > 0 {
		b.WriteString(formatAmounts(reg, r.Ingredients))
		b.WriteString(" -> ")
	}
	b.WriteString(formatAmounts(reg, r.Results))
	fmt.Fprintf(&b, " (%s)", r.Factory)
	return b.String()
}

func formatAmounts(reg *item.Registry, amounts []item.Amount) string {
	parts := make([]string, len(amounts))
	for i, a := range amounts {
		if a.Amount != 1 {
			parts[i] = reg.Format(a)
		} else {
			parts[i] = reg.Name(a.Item)
		}
	}
	return strings.Join(parts, " + ")
}
