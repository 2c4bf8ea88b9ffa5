package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Harshitk-cp/skybot/internal/airport"
	"github.com/Harshitk-cp/skybot/internal/config"
)

var resolveFlags struct {
	airports string
	limit    int
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <place>",
	Short: "Fuzzy-match a place name against the airport list",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

func init() {
	f := resolveCmd.Flags()
	f.StringVar(&resolveFlags.airports, "airports", "", "Airports JSON file (default AIRPORTS_PATH)")
	f.IntVar(&resolveFlags.limit, "limit", 5, "Maximum matches to print")
}

func runResolve(cmd *cobra.Command, args []string) error {
	path := resolveFlags.airports
	if path == "" {
		path = config.AirportsPath()
	}
	r, err := airport.Load(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	matches := r.FindMatches(strings.Join(args, " "))
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matching airports.")
		return nil
	}
	if resolveFlags.limit > 0 && len(matches) > resolveFlags.limit {
		matches = matches[:resolveFlags.limit]
	}
	for _, m := range matches {
		code := m.Airport.Code()
		if code == "" {
			code = "---"
		}
		fmt.Fprintf(out, "%-4s %.3f  %s, %s, %s\n", code, m.Confidence, m.Airport.Name, m.Airport.City, m.Airport.Country)
	}
	return nil
}
