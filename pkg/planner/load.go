package planner

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/factoryflow/pkg/calc"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// LoadDatabase loads a recipe file, applies a saved recipe selection and
// warns about cycles through the selected recipes. Selection entries that no
// longer apply (renamed items, shrunk candidate lists) are logged and skipped
// rather than failing the load.
func LoadDatabase(path string, selection map[string]int, logger *log.Logger) (*recipe.Database, error) {
	if logger == nil {
		logger = log.Default()
	}
	db, err := recipe.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := db.ApplySelection(selection); err != nil {
		for _, e := range skippedSelections(err) {
			logger.Warn("ignoring saved recipe selection", "item", e.Item, "index", e.Index, "error", e.Err)
		}
	}

	if cycle := calc.FindCycle(db); cycle != nil {
		names := make([]string, len(cycle))
		for i, id := range cycle {
			names[i] = db.Items().Name(id)
		}
		logger.Warn("selected recipes form a cycle, expansion through it will fail",
			"cycle", strings.Join(names, " -> "))
	}

	logger.Debug("loaded recipes",
		"path", path,
		"recipes", len(db.Recipes()),
		"items", db.Items().Len(),
		"optional", len(db.Optional()))
	return db, nil
}

// skippedSelections flattens the joined error of [recipe.Database.ApplySelection].
func skippedSelections(err error) []*recipe.SelectionError {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	var out []*recipe.SelectionError
	for _, e := range errs {
		var se *recipe.SelectionError
		if errors.As(e, &se) {
			out = append(out, se)
		}
	}
	return out
}
