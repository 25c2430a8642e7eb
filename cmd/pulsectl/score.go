package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/nadmax/pulse/internal/pulse"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var componentOrder = []string{
	pulse.ComponentYTGrowth,
	pulse.ComponentYTEngagement,
	pulse.ComponentYTReach,
	pulse.ComponentGAGrowth,
	pulse.ComponentGAEngagement,
	pulse.ComponentGAReach,
}

func newScoreCmd() *cobra.Command {
	var (
		yt pulse.YouTube
		ga pulse.GA4
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute a Pulse Score and its weighted breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if yt.SubscribersGained < 0 || yt.Views < 0 || yt.WatchTimeMinutes < 0 ||
				ga.NewUsers < 0 || ga.Sessions < 0 {
				return errors.New("metrics must not be negative")
			}
			if ga.BounceRate < 0 || ga.BounceRate > 1 {
				return errors.New("--bounce-rate must be between 0 and 1")
			}

			return writeScore(cmd.OutOrStdout(), yt, ga)
		},
	}

	f := cmd.Flags()
	f.Int64Var(&yt.SubscribersGained, "subscribers", 0, "YouTube subscribers gained")
	f.Int64Var(&yt.Views, "views", 0, "YouTube views")
	f.Int64Var(&yt.WatchTimeMinutes, "watch-minutes", 0, "YouTube watch time in minutes")
	f.Int64Var(&ga.NewUsers, "new-users", 0, "GA4 new users")
	f.Float64Var(&ga.BounceRate, "bounce-rate", 0, "GA4 bounce rate in [0,1]")
	f.Int64Var(&ga.Sessions, "sessions", 0, "GA4 sessions")
	return cmd
}

func writeScore(w io.Writer, yt pulse.YouTube, ga pulse.GA4) error {
	breakdown := pulse.Breakdown(yt, ga)

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Component", "Weight", "Contribution"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(componentOrder))
	for _, name := range componentOrder {
		data = append(data, []string{
			name,
			strconv.FormatFloat(pulse.Weights[name], 'f', 2, 64),
			strconv.FormatFloat(breakdown[name], 'f', 4, 64),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	_, err := fmt.Fprintf(w, "\nPulse Score: %s\n", bold(pulse.Compute(yt, ga)))
	return err
}
