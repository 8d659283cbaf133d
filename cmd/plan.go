package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lineplan/app"
	"github.com/kilianp07/lineplan/core/fulfillment"
	"github.com/kilianp07/lineplan/core/planerr"
	"github.com/kilianp07/lineplan/pkg/export"
)

var planOpts struct {
	orders     []int64
	start, end string
	exportFmt  string
	exportPath string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Schedule and staff a batch of orders",
	Example: `  lineplan plan -d plant.yaml --orders 100,101 --start 2026-03-02T08:00:00Z --end 2026-03-09T08:00:00Z
  lineplan plan -c lineplan.yaml --orders 100 --export csv --out plan.csv`,
	RunE: runPlan,
}

func init() {
	f := planCmd.Flags()
	f.Int64SliceVar(&planOpts.orders, "orders", nil, "order ids to fulfill")
	f.StringVar(&planOpts.start, "start", "", "window start (ISO-8601, default now)")
	f.StringVar(&planOpts.end, "end", "", "window end (ISO-8601, default start plus the configured window)")
	f.StringVar(&planOpts.exportFmt, "export", "", "also export the plan: json or csv")
	f.StringVar(&planOpts.exportPath, "out", "", "export file (default stdout)")
	_ = planCmd.MarkFlagRequired("orders")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	start, err := parseTime("start", planOpts.start)
	if err != nil {
		return err
	}
	end, err := parseTime("end", planOpts.end)
	if err != nil {
		return err
	}
	req := fulfillment.Request{OrderIDs: planOpts.orders, Start: start, End: end}

	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		out := cmd.OutOrStdout()
		plan, err := svc.Fulfill(ctx, req)
		if err != nil {
			if d, ok := planerr.DiagnosticsOf(err); ok && !jsonOutput() {
				fmt.Fprintln(out, titleStyle.Render("Diagnostics"))
				fmt.Fprintln(out, renderFields(
					"hours needed", fmtHours(d.TotalHoursNeeded),
					"hours available", fmtHours(d.AvailableHours),
					"window days", strconv.Itoa(d.TimeWindowDays),
					"orders", strconv.Itoa(d.NumOrders),
					"production lines", strconv.Itoa(d.NumProductionLines),
					"tasks", strconv.Itoa(d.NumTasks),
				))
			}
			return err
		}
		if planOpts.exportFmt != "" {
			if err := exportPlan(out, plan); err != nil {
				return err
			}
			if planOpts.exportPath == "" {
				return nil
			}
		}
		if jsonOutput() {
			return printJSON(out, plan)
		}
		printPlan(out, plan)
		return nil
	})
}

func exportPlan(stdout io.Writer, plan *fulfillment.Plan) error {
	w := stdout
	if planOpts.exportPath != "" {
		f, err := os.Create(planOpts.exportPath)
		if err != nil {
			return fmt.Errorf("create export: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return export.Write(w, export.Format(planOpts.exportFmt), plan)
}

func printPlan(w io.Writer, p *fulfillment.Plan) {
	status := successStyle.Render(p.Status)
	if p.Status == "FALLBACK" {
		status = warnStyle.Render(p.Status)
	}
	fmt.Fprintln(w, titleStyle.Render("Plan "+p.PlanID))
	fmt.Fprintln(w, renderFields(
		"status", status,
		"window", fmtTime(p.Window.Start)+" → "+fmtTime(p.Window.End),
		"orders optimized", strconv.Itoa(p.OrdersOptimized),
		"makespan", fmt.Sprintf("%s (%.2f days)", fmtHours(p.MakespanHours), p.MakespanDays),
		"total cost", fmt.Sprintf("%.2f", p.TotalCost),
		"duration", p.Duration.String(),
	))

	rows := make([][]string, 0, len(p.Items))
	for _, it := range p.Items {
		var staff []string
		for _, a := range p.AssignmentsFor(it.ScheduleID) {
			staff = append(staff, a.StaffName+" ("+string(a.TaskType)+")")
		}
		rows = append(rows, []string{
			fmtInt(it.ScheduleID), fmtInt(it.OrderID), it.ProductName, strconv.Itoa(it.Quantity),
			it.LineName, fmtTime(it.Start), fmtTime(it.End), fmtHours(it.DurationHours),
			strings.Join(staff, ", "),
		})
	}
	fmt.Fprintln(w, titleStyle.Render("Production schedule"))
	fmt.Fprintln(w, renderTable([]string{"Schedule", "Order", "Product", "Qty", "Line", "Start", "End", "Duration", "Staff"}, rows))

	if len(p.Skipped) > 0 {
		rows = rows[:0]
		for _, t := range p.Skipped {
			rows = append(rows, []string{fmtInt(t.OrderID), fmtInt(t.ItemID), t.ProductName, strconv.Itoa(t.Quantity), fmtHours(t.EstimatedHours)})
		}
		fmt.Fprintln(w, titleStyle.Render("Skipped items"))
		fmt.Fprintln(w, renderTable([]string{"Order", "Item", "Product", "Qty", "Estimate"}, rows))
	}
	for _, f := range p.StaffFailures {
		fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("schedule %d: no staff (%s)", f.ScheduleID, f.Error)))
	}
	for _, wn := range p.Warnings {
		fmt.Fprintln(w, warnStyle.Render(wn.Kind+": "+wn.Message))
	}
}
