// Package faults defines the error taxonomy shared by the conversion
// pipeline.
//
// Sentinel markers classify failures (unsupported input, missing tools,
// failed subprocesses, tag transfer problems, exhausted output names) so the
// batch layer can decide whether a job failed, was skipped, or merely logged
// a warning. ConversionError carries the pipeline stage and the external
// tool's exit details for failed subprocesses.
package faults
