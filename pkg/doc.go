// Package pkg provides the core libraries for factoryflow production planning.
//
// # Overview
//
// factoryflow expands target output rates through a recipe graph and reports
// the rate of every intermediate and raw item, the factories needed to sustain
// them and any leftover co-products. The pkg directory is organized into three
// areas:
//
//  1. Domain: [item], [recipe], [calc] and [plan]
//  2. Orchestration: [planner]
//  3. Infrastructure: [cache], [render], [observability], [errors], [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	Recipe file (.txt, .toml, .yaml)
//	         ↓
//	    [recipe] package (items, candidate recipes, selection)
//	         ↓
//	    [calc] package (demand expansion with surplus netting)
//	         ↓
//	    [plan] package (tiers, factory counts, leftovers, tree)
//	         ↓
//	    text / JSON / CSV / DOT / SVG / PNG / PDF
//
// # Quick Start
//
//	db, _ := recipe.LoadFile("recipes.txt")
//	req, _ := planner.ParseRequest(db, "2,circuit + gear;4,iron plate")
//	runner := planner.NewRunner(cache.NewMemoryCache(128, time.Hour), nil, nil)
//	p, _ := runner.Plan(ctx, db, req)
//	_ = plan.WriteText(os.Stdout, p)
//
// # Main Packages
//
// [item] - Item identities. A [item.Registry] interns normalized names to
// dense IDs so the engine works on slices instead of maps.
//
// [recipe] - Recipes and the recipe database. Parses the line-based text
// format as well as TOML and YAML documents, indexes candidate recipes per
// result item and tracks which candidate is selected.
//
// [calc] - The expansion engine. A single depth-first pass nets every demand
// against surplus, credits co-products and records the tier of each item.
// Recursion past the depth ceiling is reported as a cycle.
//
// [plan] - Self-contained plans built from an expansion, with text, JSON and
// CSV writers.
//
// [planner] - Request parsing and a cached Runner shared by the CLI and the
// HTTP server.
//
// [cache] - Plan and rendering caches: memory (LRU), file, Redis and null
// backends behind one interface, with deterministic key construction.
//
// [render] - Graphviz DOT for plan trees and recipe graphs, SVG rendering and
// PDF/PNG conversion.
//
// [observability] - Hook interfaces for expansion, planning and cache events.
// The server registers Prometheus implementations.
//
// [errors] - Structured errors with machine-readable codes.
package pkg
