package recipe

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/item"
)

// ParseText reads recipes in the line-oriented text format:
//
//	# results;time;factory;ingredient;ingredient...
//	gear;0.5;assembler;2,iron plate
//	2,petroleum gas + 1,light oil;5;refinery;10,crude oil;5,water
//
// Results are separated by "+", ingredients by ";". Each item token is either
// "amount,name" or "name" (amount 1). Blank lines and lines starting with "#"
// are skipped. Item names are interned into reg as they are encountered.
//
// Errors carry the 1-based line number and wrap [ErrParse].
func ParseText(r io.Reader, reg *item.Registry) ([]*Recipe, error) {
	var recipes []*Recipe
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		rec, err := parseLine(line, reg)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		recipes = append(recipes, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read recipes: %w", err)
	}
	return recipes, nil
}

func parseLine(line string, reg *item.Registry) (*Recipe, error) {
	tokens := strings.Split(line, ";")
	if len(tokens) < 3 {
		return nil, parseErr("too few entries in %q, want results;time;factory[;ingredients]", line)
	}

	var results []item.Amount
	for _, tok := range strings.Split(tokens[0], "+") {
		a, err := parseAmount(tok, reg.Intern)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}

	t, err := strconv.ParseFloat(strings.TrimSpace(tokens[1]), 64)
	if err != nil {
		return nil, parseErr("time %q is not a number", strings.TrimSpace(tokens[1]))
	}

	factory := strings.TrimSpace(tokens[2])
	if factory == "" {
		return nil, parseErr("factory name is empty")
	}

	var ingredients []item.Amount
	for _, tok := range tokens[3:] {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		a, err := parseAmount(tok, reg.Intern)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, a)
	}

	return &Recipe{Results: results, Ingredients: ingredients, Time: t, Factory: factory}, nil
}

// parseAmount parses "amount,name" or "name". resolve maps the name to an ID,
// either interning it (recipe files) or looking it up (request specs).
func parseAmount(tok string, resolve func(string) (item.ID, error)) (item.Amount, error) {
	parts := strings.Split(tok, ",")
	amount := 1.0
	var name string
	switch len(parts) {
	case 1:
		name = parts[0]
	case 2:
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return item.Amount{}, parseErr("amount %q is not a number", strings.TrimSpace(parts[0]))
		}
		if err := ferrors.ValidateAmount(v); err != nil {
			return item.Amount{}, parseErr("%s", ferrors.UserMessage(err))
		}
		amount, name = v, parts[1]
	default:
		return item.Amount{}, parseErr("item token %q needs amount and name", strings.TrimSpace(tok))
	}

	if item.Normalize(name) == "" {
		return item.Amount{}, parseErr("item name is empty in %q", strings.TrimSpace(tok))
	}
	id, err := resolve(name)
	if err != nil {
		return item.Amount{}, err
	}
	return item.Amount{Amount: amount, Item: id}, nil
}

// ParseAmounts parses a "+"-separated list of item tokens against an existing
// registry. Unknown names yield [ErrUnknownItem].
func ParseAmounts(s string, reg *item.Registry) ([]item.Amount, error) {
	lookup := func(name string) (item.ID, error) {
		id, ok := reg.Lookup(name)
		if !ok {
			return 0, ferrors.Wrap(ferrors.ErrCodeNotFound, ErrUnknownItem, "%q", item.Normalize(name))
		}
		return id, nil
	}

	var out []item.Amount
	for _, tok := range strings.Split(s, "+") {
		a, err := parseAmount(tok, lookup)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// ParseSpec parses a production request of the form
//
//	targets[;owned]
//
// where both halves are [ParseAmounts] lists, e.g. "2,circuit + gear;4,iron plate".
// The optional owned half lists stock that already exists and is credited
// before expansion.
func ParseSpec(s string, reg *item.Registry) (targets, owned []item.Amount, err error) {
	parts := strings.Split(s, ";")
	if len(parts) > 2 {
		return nil, nil, parseErr("only one ';' allowed in %q", s)
	}
	targets, err = ParseAmounts(parts[0], reg)
	if err != nil {
		return nil, nil, err
	}
	if len(parts) == 2 {
		owned, err = ParseAmounts(parts[1], reg)
		if err != nil {
			return nil, nil, err
		}
	}
	return targets, owned, nil
}

func parseErr(format string, args ...any) error {
	return ferrors.Wrap(ferrors.ErrCodeInvalidFormat, ErrParse, format, args...)
}
