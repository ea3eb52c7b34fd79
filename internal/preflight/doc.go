// Package preflight checks the filesystem paths and external tools a run
// depends on before any file is converted.
//
// Failures here are reported, not fatal: the CLI warns about missing
// decoders up front, and the jobs that need them fail individually.
package preflight
