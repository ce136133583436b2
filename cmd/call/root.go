package call

import (
	"github.com/MilkClouds/SimpleRPyC/cmd/util"
	"github.com/MilkClouds/SimpleRPyC/rpc/client"
	"github.com/spf13/cobra"
)

var (
	conn *client.Connection

	// ClientCommands represents the client command group
	ClientCommands = &cobra.Command{
		Use:               "client",
		Short:             "Interact with a SimpleRPC server",
		PersistentPreRunE: setupClient,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if conn != nil {
				return conn.Close()
			}
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the client command
	util.SetupRPCClientFlags(ClientCommands)

	// Add subcommands
	ClientCommands.AddCommand(callCmd)
	ClientCommands.AddCommand(getCmd)
	ClientCommands.AddCommand(indexCmd)
	ClientCommands.AddCommand(perfTestCmd)
}

// setupClient establishes the RPC connection
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetClientTransport()
	if err != nil {
		return err
	}

	// Connect to the server
	conn, err = client.Connect(
		*config,
		t,
		s,
	)

	return err
}
