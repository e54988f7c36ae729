// Package diligence implements an approval-gated due-diligence engine: PDF
// data rooms are ingested into per-page summaries with significance analysis,
// and agent sessions review them through a tool-call loop that pauses on
// sensitive tools until a human reviewer approves, edits or rejects the call.
package diligence
