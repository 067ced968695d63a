// Package migrate turns parsed X-Pack configuration into Search Guard
// configuration documents.
//
// A Context holds the parsed inputs. Every Translator in a Registry reads the
// Context, reports what it cannot convert, and returns the documents it
// produced. The Migrator runs the translators in registration order and
// collects their documents into a Result.
//
// Translation never stops at the first issue: every finding goes to the
// diagnostic reporter, and the caller decides what to do with critical ones.
package migrate
