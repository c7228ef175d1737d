// Package config defines the scheduler options and the format-agnostic model
// of a bundle description, along with the Loader interface that reads such
// descriptions from a concrete format.
//
// Options are built once at the program boundary and handed to the scheduler
// constructors; nothing in the scheduler reads process-wide settings. The
// Model is the single source the app package turns into bundle.Data.
// Concrete loaders, such as the HCL one, live in separate packages.
package config
