package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DeanoC/AIWhisperer-sub003/internal/command"
	"github.com/DeanoC/AIWhisperer-sub003/internal/rpc"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the commands the backend accepts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := rpc.NewClient(cfg.Server)
		dispatcher := command.NewDispatcher(client)
		names := dispatcher.Discover(cmd.Context())

		if dispatcher.Degraded() {
			fmt.Println("backend unreachable, showing built-in commands:")
		}
		for _, name := range names {
			fmt.Printf("/%s\n", name)
		}
		return nil
	},
}
