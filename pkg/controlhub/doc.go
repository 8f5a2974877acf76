// Package controlhub is a small client for the REST API of StreamSets Control Hub.
//
// It covers what a stage migration needs: looking a pipeline up by name, looking up the Data
// Collector that authored it together with the stages that collector offers, building a new
// pipeline from an imported definition and publishing it. Requests are authenticated with the
// session token returned by the login endpoint; the client logs in on first use. There is no retry
// policy, a failed call is returned to the caller as is.
package controlhub
