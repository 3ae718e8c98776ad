package recipe

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/item"
)

// Database maps every producible item to its candidate recipes and the one
// currently selected for expansion.
//
// Items without candidates are raw materials. The first candidate in load
// order is selected by default; [Database.Select] changes the choice for
// future expansions only.
//
// Database is not safe for concurrent use when Select is called; callers that
// share a database across goroutines must guard it (see internal/server).
type Database struct {
	items      *item.Registry
	recipes    []*Recipe
	candidates [][]*Recipe // indexed by item.ID
	selected   []int       // indexed by item.ID, -1 for raw materials
}

// NewDatabase validates recipes and indexes them by result item.
//
// Every item referenced by a recipe must already be interned in reg. The
// registry is frozen on success so the ID space stays fixed for the engine.
// Construction fails on the first malformed recipe.
func NewDatabase(reg *item.Registry, recipes []*Recipe) (*Database, error) {
	n := reg.Len()
	db := &Database{
		items:      reg,
		recipes:    recipes,
		candidates: make([][]*Recipe, n),
		selected:   make([]int, n),
	}
	for i := range db.selected {
		db.selected[i] = -1
	}

	for i, r := range recipes {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("recipe %d: %w", i+1, err)
		}
		for _, a := range slices.Concat(r.Results, r.Ingredients) {
			if !reg.Valid(a.Item) {
				return nil, fmt.Errorf("recipe %d: %w", i+1,
					ferrors.Wrap(ferrors.ErrCodeInvalidRecipe, ErrUnknownItem, "item id %d not registered", a.Item))
			}
		}
		for _, res := range r.Results {
			db.candidates[res.Item] = append(db.candidates[res.Item], r)
			if db.selected[res.Item] < 0 {
				db.selected[res.Item] = 0
			}
		}
	}

	reg.Freeze()
	return db, nil
}

// Items returns the registry the database was built from.
func (db *Database) Items() *item.Registry { return db.items }

// Recipes returns all recipes in load order.
func (db *Database) Recipes() []*Recipe { return db.recipes }

// Recipe returns the selected recipe for id. ok is false for raw materials.
func (db *Database) Recipe(id item.ID) (r *Recipe, ok bool) {
	if !db.items.Valid(id) || db.selected[id] < 0 {
		return nil, false
	}
	return db.candidates[id][db.selected[id]], true
}

// Candidates returns every recipe producing id, in load order.
func (db *Database) Candidates(id item.ID) []*Recipe {
	if !db.items.Valid(id) {
		return nil
	}
	return db.candidates[id]
}

// Selected returns the index of the selected candidate for id, or -1.
func (db *Database) Selected(id item.ID) int {
	if !db.items.Valid(id) {
		return -1
	}
	return db.selected[id]
}

// Select makes candidate index the active recipe for id.
// On error the selection is left unchanged.
func (db *Database) Select(id item.ID, index int) error {
	if !db.items.Valid(id) {
		return ferrors.Wrap(ferrors.ErrCodeNotFound, ErrUnknownItem, "item id %d", id)
	}
	cands := db.candidates[id]
	if len(cands) == 0 {
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, ErrNoRecipe, "%s is a raw material", db.items.Name(id))
	}
	if index < 0 || index >= len(cands) {
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, ErrSelectionRange,
			"%s has %d recipes, index %d", db.items.Name(id), len(cands), index)
	}
	db.selected[id] = index
	return nil
}

// SelectRecipe selects r for id. r must be one of id's candidates.
func (db *Database) SelectRecipe(id item.ID, r *Recipe) error {
	idx := slices.Index(db.Candidates(id), r)
	if idx < 0 {
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, ErrSelectionRange,
			"recipe is not a candidate for %s", db.items.Name(id))
	}
	return db.Select(id, idx)
}

// SelectByName resolves name and selects candidate index for it.
func (db *Database) SelectByName(name string, index int) error {
	id, ok := db.items.Lookup(name)
	if !ok {
		return ferrors.Wrap(ferrors.ErrCodeNotFound, ErrUnknownItem, "%q", item.Normalize(name))
	}
	return db.Select(id, index)
}

// SelectionError reports one entry of a saved selection that could not be
// applied.
type SelectionError struct {
	Item  string
	Index int
	Err   error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("select %s=%d: %v", e.Item, e.Index, e.Err)
}

func (e *SelectionError) Unwrap() error { return e.Err }

// ApplySelection selects recipes by item name, e.g. from a config file.
// Entries are applied in name order. Failing entries are skipped and
// returned joined as *SelectionError values; the rest stay applied.
func (db *Database) ApplySelection(sel map[string]int) error {
	names := make([]string, 0, len(sel))
	for name := range sel {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs []error
	for _, name := range names {
		if err := db.SelectByName(name, sel[name]); err != nil {
			errs = append(errs, &SelectionError{Item: name, Index: sel[name], Err: err})
		}
	}
	return errors.Join(errs...)
}

// Optional returns the items that have more than one candidate recipe,
// in ID order.
func (db *Database) Optional() []item.ID {
	var ids []item.ID
	for id, cands := range db.candidates {
		if len(cands) > 1 {
			ids = append(ids, item.ID(id))
		}
	}
	return ids
}

// Selection returns the selected index of every optional item keyed by name.
func (db *Database) Selection() map[string]int {
	sel := make(map[string]int)
	for _, id := range db.Optional() {
		sel[db.items.Name(id)] = db.selected[id]
	}
	return sel
}

// Fingerprint returns a stable hex digest of the recipe set and the current
// selection. Two databases with equal fingerprints expand every request to
// the same result.
func (db *Database) Fingerprint() string {
	h := sha256.New()
	_ = WriteText(h, db.items, db.recipes)
	for id, s := range db.selected {
		fmt.Fprintf(h, "%d=%d\n", id, s)
	}
	return hex.EncodeToString(h.Sum(nil))
}
