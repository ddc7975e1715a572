// Package config defines the format-agnostic pipeline model, along with the
// Loader and Converter interfaces used to read it from disk and bind task
// arguments to Go structs.
//
// The `config.Model` is the single source of truth for the `builder`
// package. Concrete implementations of the interfaces, such as for HCL, are
// provided in separate packages.
package config
