// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle: load the
// program, check it, optionally re-check changed files, and render the
// report. It is decoupled from any specific entrypoint like a CLI.
package app
