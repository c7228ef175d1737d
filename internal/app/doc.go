// Package app contains the core application logic. It wires the logger, the
// bundle description loader and the scheduler, and runs one scheduling pass
// over every bundle of a description, decoupled from any specific entrypoint
// like a CLI.
//
// A run has two phases. Planning is read-only and runs for all bundles
// concurrently, so every invalid bundle is reported before anything is
// written. Scheduling then walks the bundles in index order against one
// shared annotation store, which keeps operation indices increasing across
// bundles.
package app
