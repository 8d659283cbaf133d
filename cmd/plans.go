package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lineplan/app"
	"github.com/kilianp07/lineplan/core/planlog"
)

var plansOpts struct {
	since, until string
	status       string
	order        int64
}

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Query the plan log",
	RunE:  runPlans,
}

func init() {
	f := plansCmd.Flags()
	f.StringVar(&plansOpts.since, "since", "", "only runs at or after this time")
	f.StringVar(&plansOpts.until, "until", "", "only runs at or before this time")
	f.StringVar(&plansOpts.status, "status", "", "only runs with this status (OPTIMAL, FEASIBLE, FALLBACK, FAILED)")
	f.Int64Var(&plansOpts.order, "order", 0, "only runs that included this order")
	rootCmd.AddCommand(plansCmd)
}

func runPlans(cmd *cobra.Command, _ []string) error {
	q := planlog.Query{Status: strings.ToUpper(plansOpts.status), OrderID: plansOpts.order}
	since, err := parseTime("since", plansOpts.since)
	if err != nil {
		return err
	}
	until, err := parseTime("until", plansOpts.until)
	if err != nil {
		return err
	}
	if since != nil {
		q.Start = *since
	}
	if until != nil {
		q.End = *until
	}
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		recs, err := svc.Plans(ctx, q)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, recs)
		}
		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			status := r.Status
			if r.ErrorKind != "" {
				status += " (" + r.ErrorKind + ")"
			}
			rows = append(rows, []string{
				fmtTime(r.Timestamp), r.PlanID, status, joinIDs(r.OrderIDs),
				strconv.Itoa(r.Items), strconv.Itoa(r.Skipped), strconv.Itoa(r.Assignments),
				fmtHours(r.MakespanHours), fmt.Sprintf("%.2f", r.TotalCost),
			})
		}
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d plan(s)", len(recs))))
		fmt.Fprintln(out, renderTable([]string{"Time", "Plan", "Status", "Orders", "Items", "Skipped", "Assignments", "Makespan", "Cost"}, rows))
		return nil
	})
}

func joinIDs(ids []int64) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = fmtInt(id)
	}
	return strings.Join(s, ",")
}
