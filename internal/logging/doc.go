// Package logging builds the zap logger used by the command line tool.
package logging
