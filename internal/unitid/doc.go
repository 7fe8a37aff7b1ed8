/*
Package unitid provides a structured representation for the qualified names
of checkable units, based on the canonical format `path`.

The format is a dot-separated sequence of segments, e.g. `Nat.plus` or
`plus.example[0]`. The leading segments name the module the unit lives in,
the last one names the unit itself.

All formatting and parsing of unit names goes through this package so the
scheduler, the loaders and the diagnostics agree on one spelling.
*/
package unitid
