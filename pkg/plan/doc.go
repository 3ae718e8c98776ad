// Package plan projects a finished expansion into reportable results.
//
// The projections read a [calc.State] and never mutate it:
//
//   - [RequiredGroups] groups required items by their deepest demand level;
//   - [SurplusItems] lists leftover credit (owned stock and co-products);
//   - [Factories] aggregates factory counts per factory type;
//   - [Build] assembles all of the above, plus the flattened expansion tree,
//     into a self-contained [Plan] keyed by item names.
//
// A Plan can be written as text, JSON or CSV and is what the planner caches.
package plan
