// Package model defines the persistent domain entities of the diligence
// engine: documents with their pages, sessions, agent scratch files and the
// conversation structures exchanged with the planner.
package model
