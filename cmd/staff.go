package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lineplan/app"
	"github.com/kilianp07/lineplan/core/model"
)

var (
	assignScheduleID int64
	workloadStaffID  int64
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Staff assignment commands",
}

var staffAssignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign staff to a committed production schedule",
	RunE:  runStaffAssign,
}

var staffWorkloadCmd = &cobra.Command{
	Use:   "workload",
	Short: "Show the workload of a staff member",
	RunE:  runStaffWorkload,
}

func init() {
	staffAssignCmd.Flags().Int64Var(&assignScheduleID, "schedule-id", 0, "production schedule to staff")
	_ = staffAssignCmd.MarkFlagRequired("schedule-id")
	staffWorkloadCmd.Flags().Int64Var(&workloadStaffID, "id", 0, "staff id")
	_ = staffWorkloadCmd.MarkFlagRequired("id")
	staffCmd.AddCommand(staffAssignCmd, staffWorkloadCmd)
	rootCmd.AddCommand(staffCmd)
}

func runStaffAssign(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		res, err := svc.AssignStaff(ctx, assignScheduleID)
		out := cmd.OutOrStdout()
		if res != nil {
			if jsonOutput() {
				if perr := printJSON(out, res); perr != nil {
					return perr
				}
				return err
			}
			rows := make([][]string, 0, len(res.Assignments))
			for _, a := range res.Assignments {
				rows = append(rows, []string{
					a.StaffName, string(a.StaffLevel), string(a.TaskType), fmtHours(a.AssignedHours),
					fmtTime(a.StartTime), fmtTime(a.EndTime), strconv.FormatBool(a.SkillMatch), fmt.Sprintf("%.2f", a.Cost),
				})
			}
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Schedule %d: %s (%s)", res.ScheduleID, res.Status, res.Stats.Method)))
			fmt.Fprintln(out, renderTable([]string{"Staff", "Level", "Task", "Hours", "Start", "End", "Skill match", "Cost"}, rows))
			for _, d := range res.Dropped {
				fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("unassigned %s task (%s)", d.TaskType, fmtHours(d.EstimatedHours))))
			}
		}
		return err
	})
}

func runStaffWorkload(cmd *cobra.Command, _ []string) error {
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		rep, err := svc.Workload(ctx, workloadStaffID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput() {
			return printJSON(out, rep)
		}
		fmt.Fprintln(out, titleStyle.Render("Workload of "+rep.Name))
		fmt.Fprintln(out, renderFields(
			"current workload", fmtHours(rep.CurrentWorkloadHours),
			"weekly ceiling", fmtHours(rep.MaxWeeklyHours),
			"utilization", fmt.Sprintf("%.1f%%", rep.UtilizationPercentage),
			"available", fmtHours(rep.AvailableHours),
			"active tasks", fmt.Sprintf("%d (%s)", len(rep.ActiveTasks), fmtHours(rep.ActiveHours)),
		))
		if len(rep.UpcomingTasks) > 0 {
			fmt.Fprintln(out, titleStyle.Render("Upcoming"))
			fmt.Fprintln(out, renderTable([]string{"Schedule", "Task", "Hours", "Start", "End"}, taskRows(rep.UpcomingTasks)))
		}
		return nil
	})
}

func taskRows(tasks []model.TaskAssignment) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{fmtInt(t.ScheduleID), string(t.TaskType), fmtHours(t.AssignedHours), fmtTime(t.StartTime), fmtTime(t.EndTime)})
	}
	return rows
}
