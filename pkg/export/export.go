package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/lineplan/core/fulfillment"
)

// Format selects an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

var scheduleHeader = []string{
	"schedule_id", "order_id", "order_item_id", "product_name", "quantity",
	"production_line_id", "start_time", "end_time", "duration_hours", "staff",
}

var assignmentHeader = []string{
	"assignment_id", "schedule_id", "staff_id", "staff_name", "task_type",
	"assigned_hours", "start_time", "end_time", "cost",
}

// Write encodes plan to w using f.
func Write(w io.Writer, f Format, plan *fulfillment.Plan) error {
	switch f {
	case FormatJSON, "":
		return WriteJSON(w, plan)
	case FormatCSV:
		return WriteCSV(w, plan)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// WriteJSON writes the whole plan to w in JSON format.
func WriteJSON(w io.Writer, plan *fulfillment.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

// WriteCSV writes one row per committed schedule. The staff column lists the
// schedule's assignments as name:task pairs.
func WriteCSV(w io.Writer, plan *fulfillment.Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(scheduleHeader); err != nil {
		return err
	}
	for _, it := range plan.Items {
		var staff []string
		for _, a := range plan.AssignmentsFor(it.ScheduleID) {
			staff = append(staff, a.StaffName+":"+string(a.TaskType))
		}
		rec := []string{
			strconv.FormatInt(it.ScheduleID, 10),
			strconv.FormatInt(it.OrderID, 10),
			strconv.FormatInt(it.OrderItemID, 10),
			it.ProductName,
			strconv.Itoa(it.Quantity),
			strconv.FormatInt(it.LineID, 10),
			it.Start.Format(time.RFC3339),
			it.End.Format(time.RFC3339),
			formatFloat(it.DurationHours),
			strings.Join(staff, ";"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAssignmentsCSV writes one row per staff assignment of plan.
func WriteAssignmentsCSV(w io.Writer, plan *fulfillment.Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(assignmentHeader); err != nil {
		return err
	}
	for _, a := range plan.Assignments {
		rec := []string{
			strconv.FormatInt(a.ID, 10),
			strconv.FormatInt(a.ScheduleID, 10),
			strconv.FormatInt(a.StaffID, 10),
			a.StaffName,
			string(a.TaskType),
			formatFloat(a.AssignedHours),
			a.StartTime.Format(time.RFC3339),
			a.EndTime.Format(time.RFC3339),
			formatFloat(a.Cost),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
