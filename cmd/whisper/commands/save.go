package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/DeanoC/AIWhisperer-sub003/internal/event"
	"github.com/DeanoC/AIWhisperer-sub003/internal/rpc"
	"github.com/DeanoC/AIWhisperer-sub003/internal/workspace"
)

var saveDirect bool

var saveCmd = &cobra.Command{
	Use:   "save <path> [content-file]",
	Short: "Save a file through the backend",
	Long: `Save a file through the backend.

Content is read from content-file when given, otherwise from stdin.
Saves go through the active agent conversation when available unless
--direct or a configured force-direct pattern applies.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		path := args[0]
		var content []byte
		if len(args) == 2 {
			content, err = os.ReadFile(args[1])
		} else {
			content, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("reading content: %w", err)
		}

		saveCfg := cfg.Save
		if saveDirect {
			saveCfg.ForceDirect = true
		}

		client := rpc.NewClient(cfg.Server)
		bus := event.NewBus()
		defer bus.Close()

		coord := workspace.NewCoordinator(client, nil, saveCfg, bus)
		coord.MarkDirty(path)
		if err := coord.Save(cmd.Context(), path, string(content)); err != nil {
			return err
		}
		fmt.Printf("saved %s\n", path)
		return nil
	},
}

func init() {
	saveCmd.Flags().BoolVar(&saveDirect, "direct", false, "Bypass the agent and write through the file API")
}
