// Package webhook receives issue-tracker webhook events and drives
// them through the reconciliation core.
//
// The Handler is the per-event entry point: map payload, reconcile,
// then (when the label rule fires) best-effort similarity search and
// comment posting. Anything up to and including reconciliation
// surfaces as an error outcome; anything after it is swallowed into a
// success outcome with reduced side effects, because the canonical
// record is already durable by then.
//
// NewServer adds the HTTP transport skin: HMAC-SHA256 signature
// verification, "issues" event filtering, and outcome-to-status-code
// mapping. The core handler never sees transport concerns.
package webhook
