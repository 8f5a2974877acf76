// Package migration republishes control plane pipelines with some of their stages replaced.
//
// A Migrator handles the names it is given one at a time and in order. For each name it fetches
// the pipeline, plans and strips the mapped stages, imports what is left into a builder bound to
// the Data Collector that authored the pipeline, splices the new stages back at the positions of
// the old ones and checks the lanes still connect the same positions. The result is published
// under a new name, the original name plus a suffix, with a commit message naming the original.
//
// By default the first failure stops the run. With KeepGoing, failures are collected and the
// remaining names are still migrated; the run then returns a *RunError listing every failure.
//
// Options implementing model.MigrationOption observe every migration; the drawer and measure
// sub-packages provide options that render the stage graphs and record metrics.
package migration
