package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/skybot/internal/bootstrap"
	"github.com/Harshitk-cp/skybot/internal/config"
	"github.com/Harshitk-cp/skybot/internal/domain"
	"github.com/Harshitk-cp/skybot/internal/logger"
	"github.com/Harshitk-cp/skybot/internal/service"
)

var chatFlags struct {
	dataset  string
	airports string
	verbose  bool
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant on the terminal",
	Long: "Starts a conversation on stdin/stdout. Type /good or /bad to rate the last\n" +
		"state update, /state to show what the assistant knows, /quit to leave.",
	RunE: runChat,
}

func init() {
	f := chatCmd.Flags()
	f.StringVar(&chatFlags.dataset, "dataset", "", "Flights JSON file (default FLIGHTS_DATASET_PATH)")
	f.StringVar(&chatFlags.airports, "airports", "", "Airports JSON file (default AIRPORTS_PATH)")
	f.BoolVarP(&chatFlags.verbose, "verbose", "v", false, "Log dialogue decisions to stderr")
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatFlags.dataset != "" {
		_ = os.Setenv("FLIGHTS_DATASET_PATH", chatFlags.dataset)
	}
	if chatFlags.airports != "" {
		_ = os.Setenv("AIRPORTS_PATH", chatFlags.airports)
	}

	log := zap.NewNop()
	if chatFlags.verbose {
		l, err := logger.New("dev", "debug")
		if err != nil {
			return err
		}
		log = l
	}

	cfg, err := bootstrap.SessionConfig(nil, log)
	if err != nil {
		return err
	}
	registry := service.NewRegistry(cfg, config.SessionIdleTimeout(), log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	session, events, err := registry.Create(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = registry.Remove(session.ID) }()

	return converse(ctx, session, events, cmd.InOrStdin(), cmd.OutOrStdout())
}

func converse(ctx context.Context, s *service.Session, opening []domain.Event, in io.Reader, out io.Writer) error {
	printEvents(out, opening)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/good", "/bad":
			printEvents(out, []domain.Event{s.RateStateUpdate(ctx, line == "/good")})
		case "/state":
			st := s.State()
			fmt.Fprintf(out, "state: %s, %d possible flights, %d questions asked\n", st.State, st.Possible, st.Questions)
			printUserState(out, st.UserState)
		default:
			events := s.Step(ctx, line)
			printEvents(out, events)
			if events[len(events)-1].Type == domain.EventFinish {
				return nil
			}
		}
	}
}

func printEvents(out io.Writer, events []domain.Event) {
	for _, ev := range events {
		switch ev.Type {
		case domain.EventState:
			printUserState(out, ev.State)
		case domain.EventAccuracy:
			if ev.Accuracy != nil {
				fmt.Fprintf(out, "  (accuracy so far: %.0f%%)\n", *ev.Accuracy*100)
			}
		case domain.EventProgress:
			for _, l := range ev.Lines {
				fmt.Fprintf(out, "  ... %s\n", l)
			}
		default:
			for _, l := range ev.Lines {
				fmt.Fprintf(out, "skybot: %s\n", l)
			}
		}
	}
}

func printUserState(out io.Writer, state domain.UserState) {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var parts []string
		for _, c := range state[name].Sorted() {
			parts = append(parts, fmt.Sprintf("%s (%.2f)", c.Value, c.Confidence))
		}
		fmt.Fprintf(out, "  [%s: %s]\n", name, strings.Join(parts, ", "))
	}
}
