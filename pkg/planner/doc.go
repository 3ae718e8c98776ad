// Package planner runs production requests end to end.
//
// A [Runner] is the single entry point shared by the CLI and the HTTP server:
// it validates a [Request], looks the plan up in the cache, otherwise runs a
// fresh [calc.Engine] over the recipe database and projects the result with
// [plan.Build], then stores it. [Runner.Render] turns a plan into any output
// [Format], caching the Graphviz-backed ones.
//
// The Runner holds no per-request state. Every request gets its own engine,
// so one Runner can serve concurrent requests as long as the database is not
// reselected at the same time.
package planner
