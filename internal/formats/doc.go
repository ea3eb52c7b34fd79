// Package formats maps input files to the source formats audioconv can
// decode and describes how each format is decoded and each target encoded.
//
// Format is a closed enumeration. Table is built once at startup from the
// configured tool names and is read-only afterwards; Table.Entry switches over
// every Format so adding a new one without a decoder is caught by the table
// tests. Dispatcher resolves a path to a Format by extension and probes the
// container only for extensions that are ambiguous (.mp4, .m4a, .m4b, .oga).
package formats
