// Package cmd implements the command-line interface for the SimpleRPC remote
// object RPC system. It provides a hierarchical command structure with
// operations for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the SimpleRPC server
//   - call: Commands for resolving, calling and materializing remote objects
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See simplerpc -help for a list of all commands.
package cmd
