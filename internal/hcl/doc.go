// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for file discovery, parsing, variable
// evaluation and the translation of decoded blocks into the format-agnostic
// config.Model.
//
// Loading happens in two passes. The first pass decodes only the variable
// blocks of every file, without an evaluation context. Their defaults,
// overridden by the values given on the command line, become the `var`
// object. The second pass decodes the remaining blocks with that object in
// scope, so any attribute may be computed from variables.
package hcl
