// Package trace provides provenance-aware access to configuration documents.
//
// Every value read through a Reader is returned as a Traceable, which remembers
// the file, attribute path and list index it came from, and whether it is a
// secret. Structural problems are collected instead of returned one by one:
//
//   - a required attribute that is missing
//   - a value of the wrong shape
//   - a shortcut key ("a.b: v") clashing with a nested definition
//
// Callers read all attributes of a record and then call Reader.Err once.
package trace
