// Package definition models the serialized description of a control plane pipeline.
//
// Only the parts of a definition that the migration touches are typed: the ordered stage list and,
// for every stage, its instance name and its input and output lanes. Every other field is kept as
// raw JSON and written back unchanged, so a definition survives a decode/encode cycle intact.
package definition
