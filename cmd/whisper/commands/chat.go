package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DeanoC/AIWhisperer-sub003/internal/agent"
	"github.com/DeanoC/AIWhisperer-sub003/internal/command"
	"github.com/DeanoC/AIWhisperer-sub003/internal/event"
	"github.com/DeanoC/AIWhisperer-sub003/internal/logging"
	"github.com/DeanoC/AIWhisperer-sub003/internal/render"
	"github.com/DeanoC/AIWhisperer-sub003/internal/rpc"
	"github.com/DeanoC/AIWhisperer-sub003/internal/session"
	"github.com/DeanoC/AIWhisperer-sub003/pkg/types"
)

var chatAgent string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session against the configured backend.

Input forms:
  plain text          send a message to the current agent
  /name args          dispatch a slash command
  {"command": ...}    dispatch a structured command
  @agent-id           switch to another agent`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatAgent, "agent", "", "Agent to activate on startup")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client := rpc.NewClient(cfg.Server)
	bus := event.NewBus()
	defer bus.Close()

	roster := agent.NewRegistry()
	agents, err := client.ListAgents(ctx)
	if err != nil {
		// The roster listing failing is inline-status territory, not a
		// hard stop; switching just won't resolve names until it loads.
		logging.Warn().Err(err).Msg("agent roster unavailable")
	}
	roster.Replace(agents)

	sess := agent.NewSession(roster, client, bus)
	svc := session.NewService(sess, roster, client, bus)
	svc.Start()
	defer svc.Stop()

	dispatcher := command.NewDispatcher(client)
	dispatcher.Discover(ctx)

	// Bridge transport push events onto the bus.
	msgs, errs := client.Events(ctx)
	go func() {
		for msg := range msgs {
			bus.PublishSync(event.Event{
				Type: event.ChannelMessage,
				Data: event.ChannelMessageData{Message: msg},
			})
		}
		if err, ok := <-errs; ok && err != nil {
			fmt.Fprintf(os.Stderr, "! event stream closed: %v\n", err)
		}
	}()

	renderer := render.NewRenderer(os.Stdout, func(m types.ChatMessage) string {
		if attr, ok := svc.Attribution(m); ok {
			return attr.Name
		}
		return string(m.Sender)
	})

	// Render channel updates as they land.
	bus.Subscribe(event.ChannelMessage, func(event.Event) {
		printTimeline(renderer, svc, cfg.Visibility)
	})

	if chatAgent != "" {
		if _, err := sess.Select(ctx, chatAgent); err != nil {
			fmt.Fprintf(os.Stderr, "! %v\n", err)
		}
	}

	fmt.Printf("connected to %s (%d agents)\n", cfg.Server, roster.Count())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return nil

		case strings.HasPrefix(line, "@"):
			if _, err := sess.Switch(ctx, strings.TrimPrefix(line, "@")); err != nil {
				fmt.Fprintf(os.Stderr, "! %v\n", err)
			}

		case strings.HasPrefix(line, "/") || strings.HasPrefix(line, "{"):
			result, err := dispatcher.Dispatch(ctx, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "! %v\n", err)
				continue
			}
			fmt.Println(result.Output)

		default:
			if _, err := svc.SendUserMessage(ctx, line); err != nil {
				fmt.Fprintf(os.Stderr, "! %v\n", err)
			}
		}
	}
}

// printTimeline renders the merged view plus channel badge counts.
func printTimeline(r *render.Renderer, svc *session.Service, prefs types.VisibilityPreferences) {
	r.Timeline(svc.Timeline(), svc.Visible(prefs))
}
