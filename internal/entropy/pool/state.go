package pool

// healthThresholdBits is the minimum last-collection Shannon entropy
// (bits/byte) a source would need to count as healthy under the
// stricter, entropy-threshold reading of "healthy" that spec.md leaves
// open. Unused under the narrow reading currently implemented in
// source.State.RecordCollection (three-consecutive-empties only); kept
// here as the one constant a future tightened implementation would
// need, rather than scattering a magic number once that variant is
// built.
//
// TODO: if the tightened reading is ever wanted, gate RecordCollection's
// health=true transition on SetQuality's LastShannon exceeding this,
// not just on len(data) > 0.
const healthThresholdBits = 1.0
