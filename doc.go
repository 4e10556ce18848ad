// Package hyptile generates regular tilings of the hyperbolic plane
// (Poincaré disk model), extracts discrete triangle or quad meshes from
// them, and computes collision-free 3-D embeddings that approximately
// preserve the hyperbolic edge lengths — a physically simulated "flop"
// of a non-Euclidean lattice into Euclidean space.
//
// The module is organized as small, composable packages, leaves first:
//
//	mobius/  — Möbius transforms of the unit disk: the isometry group
//	hyper/   — hyperbolic distance and geodesic interpolation
//	dedup/   — tolerance-based point clustering and nearest-point index
//	lattice/ — tiling expansion, edge discovery, face extraction
//	mesh/    — face meshes, subdivision, JSON persistence
//	collide/ — proximity queries, penetration energy, strain limiting
//	flop/    — the embedding solver (jitter / limit / gradient methods)
//	config/  — the option surface shared by all of the above
//	render/  — plotting sinks for the disk and the embedded mesh
//
// The cmd/hyptile binary wires the pipeline together: disk mode renders
// the 2-D lattice, flop mode runs the embedding solver with optional
// checkpoint/restart, test mode runs the numeric self-checks.
//
// Everything is deterministic given a fixed seed; the core is
// single-threaded and allocates no global state.
package hyptile
