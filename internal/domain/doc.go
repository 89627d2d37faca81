// Package domain models flood-risk dashboards: catalogs of named geographic
// regions, their river gauges, and the scoring functions the dashboards derive
// from them.
//
// # Catalogs
//
// A catalog is a fixed, insertion-ordered table of regions (world regions, US
// states, or Washington counties) built once at startup. Region IDs are unique
// within a catalog. Only the numeric counters of a region change after
// construction; ID, name and center are identity.
//
// # Risk scores
//
// Scores are integers in [0,100]. A region's score is derived from its base
// risk, a storm-season boost, and bounded noise:
//
//	score = clamp(round(base + 15·storm + U(-10,10)), 0, 100)
//
// Storm season covers November through March. The level label is a 4-way
// partition of the score range:
//
//	score ≤ Low       → first label   (e.g. "low" / "minimal")
//	score ≤ Moderate  → second label  ("moderate")
//	score ≤ High      → third label   ("high")
//	otherwise         → fourth label  ("extreme" / "critical")
//
// Bounds and labels are configured per dashboard. All dashboards shipped today
// use 25/50/75.
//
// # Forecasts
//
// Forecasts are a bounded random walk: each day the running risk moves by
// U(-10,10) and is clamped to [10,90]. Precipitation is an independent draw in
// [0,2.5] inches.
//
// # Randomness
//
// Every function that draws random numbers takes a [RandomSource]. Nothing in
// this package reads a global generator, so tests can replay exact sequences
// with [NewSequenceSource].
package domain
