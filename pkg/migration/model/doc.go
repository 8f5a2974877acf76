// Package model provides the data structures shared by the migration package and its options.
// It defines the record describing one pipeline migration, the result reported for it,
// and the hook interface options implement to observe a run.
package model
