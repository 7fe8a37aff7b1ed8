// Package config defines the format-agnostic program model, along with the
// Loader interface for reading programs from various sources.
//
// The `config.Model` is the single source of truth for the `program`
// package, which turns it into units, references and the scripted checker.
// Concrete implementations of the Loader interface, such as for HCL and
// YAML, are provided in separate packages.
package config
