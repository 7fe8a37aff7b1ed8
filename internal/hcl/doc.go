// Package hcl provides the HCL implementation of the program loading
// interface defined in the `config` package. It is responsible for file
// discovery, parsing, and HCL-to-model translation.
package hcl
