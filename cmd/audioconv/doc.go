// Package main hosts the audioconv CLI entrypoint and command graph.
//
// The root command converts the files and directories named on the command
// line. Subcommands report tool availability and the format table, probe a
// single file, and scaffold or validate the configuration file. All real
// work lives in the internal packages; this package only resolves
// configuration, applies flag overrides and renders results.
package main
