package recipe

import (
	"bytes"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/factoryflow/pkg/item"
)

// document is the structured recipe file layout shared by TOML and YAML:
//
//	[[recipe]]
//	factory = "assembler"
//	time = 0.5
//	results = [{ item = "gear" }]
//	ingredients = [{ item = "iron plate", amount = 2 }]
//
// The YAML form uses a top-level "recipes" list with the same fields.
type document struct {
	Recipes []recipeDoc `toml:"recipe" yaml:"recipes"`
}

type recipeDoc struct {
	Factory     string      `toml:"factory" yaml:"factory"`
	Time        float64     `toml:"time" yaml:"time"`
	Results     []amountDoc `toml:"results" yaml:"results"`
	Ingredients []amountDoc `toml:"ingredients" yaml:"ingredients"`
}

type amountDoc struct {
	Item   string   `toml:"item" yaml:"item"`
	Amount *float64 `toml:"amount" yaml:"amount"`
}

// DecodeTOML reads a TOML recipe document and interns its items into reg.
func DecodeTOML(r io.Reader, reg *item.Registry) ([]*Recipe, error) {
	var doc document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, parseErr("decode toml: %v", err)
	}
	return doc.build(reg)
}

// DecodeYAML reads a YAML recipe document and interns its items into reg.
func DecodeYAML(r io.Reader, reg *item.Registry) ([]*Recipe, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, parseErr("decode yaml: %v", err)
	}
	return doc.build(reg)
}

func (d document) build(reg *item.Registry) ([]*Recipe, error) {
	recipes := make([]*Recipe, 0, len(d.Recipes))
	for i, rd := range d.Recipes {
		results, err := rd.amounts(rd.Results, reg)
		if err != nil {
			return nil, fmt.Errorf("recipe %d: %w", i+1, err)
		}
		ingredients, err := rd.amounts(rd.Ingredients, reg)
		if err != nil {
			return nil, fmt.Errorf("recipe %d: %w", i+1, err)
		}
		recipes = append(recipes, &Recipe{
			Results:     results,
			Ingredients: ingredients,
			Time:        rd.Time,
			Factory:     rd.Factory,
		})
	}
	return recipes, nil
}

func (recipeDoc) amounts(docs []amountDoc, reg *item.Registry) ([]item.Amount, error) {
	out := make([]item.Amount, 0, len(docs))
	for _, ad := range docs {
		id, err := reg.Intern(ad.Item)
		if err != nil {
			return nil, parseErr("item %q: %v", ad.Item, err)
		}
		amount := 1.0
		if ad.Amount != nil {
			amount = *ad.Amount
		}
		out = append(out, item.Amount{Amount: amount, Item: id})
	}
	return out, nil
}

// EncodeTOML writes recipes in the TOML document layout.
func EncodeTOML(w io.Writer, reg *item.Registry, recipes []*Recipe) error {
	doc := toDocument(reg, recipes)
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func toDocument(reg *item.Registry, recipes []*Recipe) document {
	doc := document{Recipes: make([]recipeDoc, len(recipes))}
	conv := func(as []item.Amount) []amountDoc {
		out := make([]amountDoc, len(as))
		for i, a := range as {
			v := a.Amount
			out[i] = amountDoc{Item: reg.Name(a.Item), Amount: &v}
		}
		return out
	}
	for i, r := range recipes {
		doc.Recipes[i] = recipeDoc{
			Factory:     r.Factory,
			Time:        r.Time,
			Results:     conv(r.Results),
			Ingredients: conv(r.Ingredients),
		}
	}
	return doc
}
