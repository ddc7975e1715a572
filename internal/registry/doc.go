// Package registry provides the central "glue" for the module system.
//
// The Registry maps the kind names used in pipeline files (e.g. "tonemap" or
// "surface") to the compiled Go constructors that implement them. Every
// kind may also declare an arguments struct whose `cty`-tagged fields receive
// the values of the pipeline's `arguments` blocks.
//
// During application startup, the registry is populated by the core modules
// and then validated, so a module whose arguments cannot be decoded fails
// fast instead of at the first rebuild.
package registry
