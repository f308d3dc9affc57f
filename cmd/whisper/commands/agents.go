package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DeanoC/AIWhisperer-sub003/internal/rpc"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the agents the backend exposes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := rpc.NewClient(cfg.Server)
		agents, err := client.ListAgents(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing agents: %w", err)
		}

		if len(agents) == 0 {
			fmt.Println("no agents available")
			return nil
		}

		for _, a := range agents {
			shortcut := ""
			if a.Shortcut != "" {
				shortcut = fmt.Sprintf(" (@%s)", a.Shortcut)
			}
			fmt.Printf("%-12s %s%s\n", a.ID, a.Name, shortcut)
			if a.Description != "" {
				fmt.Printf("             %s\n", a.Description)
			}
		}
		return nil
	},
}
