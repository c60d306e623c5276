// Package logging builds the slog loggers used across tutord.
//
// Two output formats are supported: a human-oriented console format for
// interactive use and JSON for log aggregation. Components attach a
// standardized "component" attribute via NewComponentLogger so console
// output reads as "component: message".
package logging
