// Package luceneregex converts Lucene-dialect regular expressions, as used in
// index patterns and role mapping rules, into standard regular expressions.
//
// Only patterns delimited by slashes are treated as regular expressions. The
// complement operator has no safe equivalent and is rejected with ErrComplement.
package luceneregex
