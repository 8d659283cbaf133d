package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lineplan/app"
	"github.com/kilianp07/lineplan/core/capacity"
)

var capacityOpts struct {
	start, end string
	line       int64
}

var capacityCmd = &cobra.Command{
	Use:   "capacity",
	Short: "Report line capacity, bottlenecks and free slots over a window",
	RunE:  runCapacity,
}

var estimateQty int

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate when a production run could be completed",
	RunE:  runEstimate,
}

func init() {
	f := capacityCmd.Flags()
	f.StringVar(&capacityOpts.start, "start", "", "window start (ISO-8601, default now)")
	f.StringVar(&capacityOpts.end, "end", "", "window end (ISO-8601, default start plus 7 days)")
	f.Int64Var(&capacityOpts.line, "line", 0, "restrict to one production line")
	estimateCmd.Flags().IntVarP(&estimateQty, "quantity", "q", 0, "units to produce")
	_ = estimateCmd.MarkFlagRequired("quantity")
	rootCmd.AddCommand(capacityCmd, estimateCmd)
}

func runCapacity(cmd *cobra.Command, _ []string) error {
	start, err := parseTime("start", capacityOpts.start)
	if err != nil {
		return err
	}
	end, err := parseTime("end", capacityOpts.end)
	if err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		from := time.Now()
		if start != nil {
			from = *start
		}
		to := from.AddDate(0, 0, 7)
		if end != nil {
			to = *end
		}
		r, err := svc.CheckCapacity(ctx, from, to, capacityOpts.line)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, r)
		}
		printCapacity(cmd, r)
		return nil
	})
}

func printCapacity(cmd *cobra.Command, r capacity.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Capacity"))
	fmt.Fprintln(out, renderFields(
		"window", fmtTime(r.Window.Start)+" → "+fmtTime(r.Window.End),
		"total capacity", fmtHours(r.TotalCapacityHours),
		"booked", fmtHours(r.BookedHours),
		"available", fmt.Sprintf("%s (%.1f%%)", fmtHours(r.AvailableHours), r.AvailablePercentage),
	))
	if len(r.Bottlenecks) > 0 {
		rows := make([][]string, 0, len(r.Bottlenecks))
		for _, b := range r.Bottlenecks {
			rows = append(rows, []string{b.Date, b.LineName, fmt.Sprintf("%.1f%%", b.Utilization), fmtHours(b.BookedHours), fmtHours(b.CapacityHours)})
		}
		fmt.Fprintln(out, titleStyle.Render("Bottlenecks"))
		fmt.Fprintln(out, renderTable([]string{"Date", "Line", "Utilization", "Booked", "Capacity"}, rows))
	}
	rows := make([][]string, 0, len(r.AvailableSlots))
	for _, s := range r.AvailableSlots {
		rows = append(rows, []string{s.LineName, fmtTime(s.Start), fmtTime(s.End), fmtHours(s.DurationHours)})
	}
	fmt.Fprintln(out, titleStyle.Render("Available slots"))
	fmt.Fprintln(out, renderTable([]string{"Line", "Start", "End", "Duration"}, rows))
}

func runEstimate(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		est, err := svc.Estimate(ctx, estimateQty)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, est)
		}
		slot := successStyle.Render("line " + strconv.FormatInt(est.LineID, 10))
		if !est.SlotFound {
			slot = warnStyle.Render("no slot within 30 days")
		}
		fmt.Fprintln(out, titleStyle.Render("Estimate"))
		fmt.Fprintln(out, renderFields(
			"quantity", strconv.Itoa(est.Quantity),
			"estimated hours", fmtHours(est.EstimatedHours),
			"earliest start", fmtTime(est.EarliestStart),
			"completion", fmtTime(est.EstimatedCompletion),
			"slot", slot,
		))
		return nil
	})
}
