// Package passes provides the built-in render passes. They draw nothing:
// every pass records a textual command into its output surface, which makes
// the order of execution visible in logs and tests.
package passes
