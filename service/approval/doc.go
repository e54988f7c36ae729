// Package approval holds the human-in-the-loop review layer: the reviewer
// context packet built for each gated tool call, and the pending-slot
// service that blocks an agent until a decision arrives.
package approval
