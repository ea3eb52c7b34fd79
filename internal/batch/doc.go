// Package batch expands command-line paths into conversion jobs and runs
// them, sequentially by default or on a bounded worker pool.
//
// Every job is independent: an unsupported or failing file is recorded in
// the Summary and the run moves on. A per-output-directory file lock keeps
// two concurrent runs from racing for the same output names.
package batch
