// Package pipeline runs the external decoder, encoder and splitter binaries.
//
// An Invocation describes one process. Executor.Run runs it alone, while
// Executor.Piped connects a producer's stdout to a consumer's stdin through
// an OS pipe and supervises both. Failures come back as
// *faults.ConversionError carrying the stage, exit status and the tail of
// the failing tool's stderr.
package pipeline
