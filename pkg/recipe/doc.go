// Package recipe holds recipes and the database the expansion engine reads.
//
// # Recipes
//
// A [Recipe] turns a list of ingredient amounts into one or more result
// amounts in a named factory over a fixed time. A recipe with several results
// produces co-products: demanding one result credits the others as surplus
// (see package calc).
//
// # Database
//
// [NewDatabase] indexes recipes by each of their results. Items with several
// candidate recipes are "optional"; the first candidate in load order is
// selected until [Database.Select] picks another. Items that no recipe
// produces are raw materials and end the expansion.
//
// Construction validates every recipe ([Recipe.Validate]) and freezes the
// item registry. A malformed recipe is a load-time defect and is reported as
// [ErrMalformedRecipe]; the engine never sees it.
//
// # File Formats
//
// [LoadFile] accepts three formats, chosen by extension:
//
//   - text (default): one recipe per line, "results;time;factory;ingredients..."
//   - TOML (.toml): [[recipe]] tables
//   - YAML (.yaml, .yml): a "recipes" list
//
// Request specs ("2,gear + circuit;4,iron plate") are parsed with [ParseSpec]
// against the frozen registry, so unknown item names are rejected up front.
package recipe
