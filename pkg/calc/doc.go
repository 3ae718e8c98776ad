// Package calc expands production demand through a recipe database.
//
// # Algorithm
//
// [Engine.Expand] first credits owned stock as surplus, then demands every
// target at depth 0, in order. Demanding amount A of item X:
//
//  1. adds A to Required[X] (gross demand, never netted);
//  2. raises Depth[X] to the current depth if it is deeper;
//  3. nets A against Surplus[X]; any excess surplus stays, and only the
//     uncovered remainder is produced;
//  4. stops if X has no recipe (raw material);
//  5. otherwise runs the selected recipe remainder/yield times, demands each
//     ingredient at depth+1 and credits every co-product as surplus.
//
// This is a single depth-first pass, not a fixed-point solve. Co-product
// credit only offsets demand processed after it was earned, so the order of
// targets (and of ingredients within a recipe) can change the result. That
// order dependence is part of the contract and is covered by tests.
//
// # State
//
// An [Engine] owns one [State]: Required, Surplus and Depth slices indexed by
// item ID, plus an optional expansion [Tree]. Expand accumulates onto the
// existing state; [Engine.Reset] zeroes it between independent requests. An
// engine is not safe for concurrent use. Servers create one per request.
//
// # Cycles
//
// A recipe graph with a cycle (A needs B, B needs A) would recurse forever.
// The engine bounds recursion with Options.MaxDepth and fails the run with
// [ErrDepthExceeded] when the ceiling is crossed. [FindCycle] reports the
// cycle through the selected recipes up front.
package calc
