// Package searchguard models the Search Guard configuration documents a
// migration produces.
//
// Each document type implements Config: it knows its file name and renders
// itself into an ordered Document, which marshals to YAML with keys in
// insertion order. The same input therefore always yields byte-identical
// output.
package searchguard
