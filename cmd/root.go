package cmd

import (
	"fmt"
	"os"

	"github.com/MilkClouds/SimpleRPyC/cmd/call"
	"github.com/MilkClouds/SimpleRPyC/cmd/serve"
	"github.com/MilkClouds/SimpleRPyC/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "simplerpc",
		Short: "remote object RPC server and client",
		Long: fmt.Sprintf(`SimpleRPC (v%s)

A remote object RPC system written in Go. A server exposes objects
behind an allow-listed namespace; clients operate on them through lazy
references and fetch values only on demand.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of SimpleRPC",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("SimpleRPC v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(call.ClientCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
