// Package harness runs scenario-driven conformance tests against the
// full webhook pipeline: payload mapping, reconciliation, the reply
// decision and the delivery log, wired to a real SQLite store.
//
// Scenarios are YAML files describing a sequence of deliveries and the
// expected outcome of each. After the run, the final issue rows and
// the delivery log are snapshotted and compared against a golden file,
// so a behavior change in any layer of the pipeline shows up as a
// golden diff.
//
// Wall-clock timestamps are excluded from snapshots. Ordering is
// asserted through delivery log seq values, which come from the
// logical clock and are deterministic per scenario.
package harness
