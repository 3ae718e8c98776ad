package planner

import (
	"fmt"
	"strconv"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/item"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// Format is an output format for a plan.
type Format string

// Supported output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[Format]bool{
	FormatText: true,
	FormatJSON: true,
	FormatCSV:  true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(f Format) error {
	if !ValidFormats[f] {
		return ferrors.New(ferrors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: text, json, csv, dot, svg, png, pdf)", f)
	}
	return nil
}

// Graphical reports whether the format is drawn from the expansion tree.
func (f Format) Graphical() bool {
	switch f {
	case FormatDOT, FormatSVG, FormatPNG, FormatPDF:
		return true
	}
	return false
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

// Request is one production request: targets demanded in order and stock
// already owned.
type Request struct {
	Targets []item.Amount
	Owned   []item.Amount

	// Tree records the expansion tree in the plan.
	Tree bool

	// Refresh bypasses the cache lookup (the result is still stored).
	Refresh bool
}

// ParseRequest parses a "targets[;owned]" spec against db.
func ParseRequest(db *recipe.Database, spec string) (Request, error) {
	targets, owned, err := recipe.ParseSpec(spec, db.Items())
	if err != nil {
		return Request{}, err
	}
	return Request{Targets: targets, Owned: owned}, nil
}

// Validate checks the request against db's registry.
func (r Request) Validate(db *recipe.Database) error {
	if len(r.Targets) == 0 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "no targets requested")
	}
	reg := db.Items()
	for _, list := range [][]item.Amount{r.Targets, r.Owned} {
		for _, a := range list {
			if !reg.Valid(a.Item) {
				return ferrors.Wrap(ferrors.ErrCodeNotFound, recipe.ErrUnknownItem, "item id %d", a.Item)
			}
			if err := ferrors.ValidateAmount(a.Amount); err != nil {
				return fmt.Errorf("%s: %w", reg.Name(a.Item), err)
			}
		}
	}
	return nil
}

func tokens(reg *item.Registry, amounts []item.Amount) []string {
	out := make([]string, len(amounts))
	for i, a := range amounts {
		out[i] = strconv.FormatFloat(a.Amount, 'g', -1, 64) + "," + reg.Name(a.Item)
	}
	return out
}
