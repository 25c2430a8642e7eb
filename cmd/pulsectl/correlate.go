package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/nadmax/pulse/internal/correlation"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

func newCorrelateCmd() *cobra.Command {
	var maxLag int

	cmd := &cobra.Command{
		Use:   "correlate FILE",
		Short: "Correlate daily YouTube views with web sessions from a CSV file",
		Long: "Reads a CSV with the header date,youtube_views,web_sessions and prints the\n" +
			"correlation for every lag in [-max-lag, max-lag] followed by the insight.\n" +
			"Use - to read from standard input.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxLag < 0 {
				return errors.New("--max-lag must not be negative")
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				in = f
			}

			points, err := readSeries(in)
			if err != nil {
				return err
			}

			return writeCorrelation(cmd.OutOrStdout(), points, maxLag)
		},
	}

	cmd.Flags().IntVar(&maxLag, "max-lag", correlation.DefaultMaxLagDays, "largest lag in days to scan in both directions")
	return cmd
}

func writeCorrelation(w io.Writer, points []correlation.Point, maxLag int) error {
	res := correlation.Analyze(points, maxLag)

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Lag", "Score", "Best"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, 2*maxLag+1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		best := ""
		if lag == res.LagDays {
			best = "*"
		}
		data = append(data, []string{
			strconv.Itoa(lag),
			strconv.FormatFloat(correlation.ComputeForLag(points, lag), 'f', 3, 64),
			best,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d days, best lag %+d, score %.3f\n%s\n",
		len(points), res.LagDays, res.Score, insightColor(res.Score)(res.Insight))
	return err
}

func insightColor(score float64) func(...any) string {
	switch {
	case math.Abs(score) < 0.2:
		return color.New(color.FgYellow).SprintFunc()
	case score > 0:
		return color.New(color.FgGreen).SprintFunc()
	default:
		return color.New(color.FgRed).SprintFunc()
	}
}
