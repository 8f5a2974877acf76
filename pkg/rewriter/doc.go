// Package rewriter replaces stages of a pipeline definition according to a stage mapping.
//
// A rewrite keeps every replaced stage at its position and hands the new stage the exact input
// and output lanes of the stage it replaces, so the data flow of the pipeline is unchanged. The
// work happens in three passes over the stage list:
//
//  1. Plan records, in order, every stage whose label is a key of the mapping.
//  2. Strip deletes those stages starting from the highest index, so a deletion never shifts a
//     stage that is still waiting to be deleted.
//  3. Splice asks a StageBuilder for each new stage, then has the builder remove it from wherever
//     it was placed and insert it at the recorded index, in ascending order, with the recorded
//     lanes.
package rewriter
