// Package sqlite implements the planner collaborators on a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/lineplan/core/model"
	"github.com/kilianp07/lineplan/core/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id INTEGER PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS order_items (
    id INTEGER PRIMARY KEY,
    order_id INTEGER NOT NULL REFERENCES orders(id),
    product_id INTEGER NOT NULL DEFAULT 0,
    product_name TEXT NOT NULL DEFAULT '',
    quantity INTEGER NOT NULL CHECK (quantity > 0)
);
CREATE TABLE IF NOT EXISTS production_lines (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    capacity_per_hour REAL NOT NULL CHECK (capacity_per_hour > 0),
    is_active INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS production_schedules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id INTEGER NOT NULL,
    line_id INTEGER NOT NULL REFERENCES production_lines(id),
    scheduled_start INTEGER NOT NULL,
    scheduled_end INTEGER NOT NULL CHECK (scheduled_end > scheduled_start),
    actual_start INTEGER,
    actual_end INTEGER,
    status TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS production_schedules_line ON production_schedules(line_id, scheduled_start);
CREATE TABLE IF NOT EXISTS staff (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    department TEXT NOT NULL DEFAULT '',
    skill_level TEXT NOT NULL DEFAULT '',
    specialization TEXT NOT NULL DEFAULT '',
    hourly_rate REAL NOT NULL DEFAULT 0,
    max_hours_per_day REAL NOT NULL,
    is_available INTEGER NOT NULL DEFAULT 1,
    current_workload_hours REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS task_assignments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    schedule_id INTEGER NOT NULL,
    staff_id INTEGER NOT NULL REFERENCES staff(id),
    task_type TEXT NOT NULL,
    assigned_hours REAL NOT NULL,
    start_time INTEGER NOT NULL,
    end_time INTEGER NOT NULL,
    status TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS task_assignments_staff ON task_assignments(staff_id);`

// Store implements store.Store. Writes are serialized on a single connection
// so the overlap check and the workload increment see a consistent snapshot.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database at dsn and ensures the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// PutOrder inserts or replaces an order and its items.
func (s *Store) PutOrder(ctx context.Context, o model.Order) error {
	if err := model.Validate(o); err != nil {
		return err
	}
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO orders (id) VALUES (?)`, o.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, o.ID); err != nil {
			return err
		}
		for _, it := range o.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (id, order_id, product_id, product_name, quantity) VALUES (?, ?, ?, ?, ?)`,
				it.ID, o.ID, it.ProductID, it.ProductName, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutLine inserts or replaces a production line.
func (s *Store) PutLine(ctx context.Context, l model.ProductionLine) error {
	if err := model.Validate(l); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO production_lines (id, name, capacity_per_hour, is_active) VALUES (?, ?, ?, ?)`,
		l.ID, l.Name, l.CapacityPerHour, l.IsActive)
	return err
}

// PutStaff inserts or replaces a staff member, including the current workload.
func (s *Store) PutStaff(ctx context.Context, st model.Staff) error {
	if err := model.Validate(st); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO staff (id, name, department, skill_level, specialization, hourly_rate,
            max_hours_per_day, is_available, current_workload_hours) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Name, st.Department, string(st.SkillLevel), st.Specialization, st.HourlyRate,
		st.MaxHoursPerDay, st.IsAvailable, st.CurrentWorkloadHours)
	return err
}

func (s *Store) Orders(ctx context.Context, ids []int64) ([]model.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT o.id, i.id, i.product_id, i.product_name, i.quantity
         FROM orders o LEFT JOIN order_items i ON i.order_id = o.id
         WHERE o.id IN (`+placeholders(len(ids))+`) ORDER BY o.id, i.id`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[int64]*model.Order)
	for rows.Next() {
		var (
			oid     int64
			itemID  sql.NullInt64
			product sql.NullInt64
			name    sql.NullString
			qty     sql.NullInt64
		)
		if err := rows.Scan(&oid, &itemID, &product, &name, &qty); err != nil {
			return nil, err
		}
		o, ok := byID[oid]
		if !ok {
			o = &model.Order{ID: oid}
			byID[oid] = o
		}
		if itemID.Valid {
			o.Items = append(o.Items, model.OrderItem{
				ID: itemID.Int64, ProductID: product.Int64, ProductName: name.String, Quantity: int(qty.Int64),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// keep the requested order
	res := make([]model.Order, 0, len(byID))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			res = append(res, *o)
			delete(byID, id)
		}
	}
	return res, nil
}

func (s *Store) ActiveLines(ctx context.Context) ([]model.ProductionLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, capacity_per_hour, is_active FROM production_lines WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.ProductionLine
	for rows.Next() {
		var l model.ProductionLine
		if err := rows.Scan(&l.ID, &l.Name, &l.CapacityPerHour, &l.IsActive); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

const scheduleCols = `id, order_id, line_id, scheduled_start, scheduled_end, actual_start, actual_end, status, notes`

func (s *Store) SchedulesInWindow(ctx context.Context, start, end time.Time, lineID int64) ([]model.ProductionSchedule, error) {
	q := `SELECT ` + scheduleCols + ` FROM production_schedules WHERE scheduled_start < ? AND scheduled_end > ?`
	args := []any{end.UnixNano(), start.UnixNano()}
	if lineID != 0 {
		q += ` AND line_id = ?`
		args = append(args, lineID)
	}
	q += ` ORDER BY line_id, scheduled_start`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.ProductionSchedule
	for rows.Next() {
		ps, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	store.SortSchedules(res)
	return res, nil
}

func (s *Store) Schedule(ctx context.Context, id int64) (model.ProductionSchedule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scheduleCols+` FROM production_schedules WHERE id = ?`, id)
	ps, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ps, fmt.Errorf("schedule %d: %w", id, store.ErrNotFound)
	}
	return ps, err
}

func (s *Store) CreateSchedule(ctx context.Context, ps model.ProductionSchedule) (model.ProductionSchedule, error) {
	if err := model.Validate(ps); err != nil {
		return ps, err
	}
	if ps.Status == "" {
		ps.Status = model.ScheduleScheduled
	}
	err := s.tx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM production_schedules WHERE line_id = ? AND scheduled_start < ? AND scheduled_end > ?`,
			ps.LineID, ps.ScheduledEnd.UnixNano(), ps.ScheduledStart.UnixNano()).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("line %d %s-%s: %w", ps.LineID,
				ps.ScheduledStart.Format(time.RFC3339), ps.ScheduledEnd.Format(time.RFC3339), store.ErrLineConflict)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO production_schedules (order_id, line_id, scheduled_start, scheduled_end, actual_start, actual_end, status, notes)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ps.OrderID, ps.LineID, ps.ScheduledStart.UnixNano(), ps.ScheduledEnd.UnixNano(),
			nullTime(ps.ActualStart), nullTime(ps.ActualEnd), string(ps.Status), ps.Notes)
		if err != nil {
			return err
		}
		ps.ID, err = res.LastInsertId()
		return err
	})
	return ps, err
}

func (s *Store) AvailableStaff(ctx context.Context) ([]model.Staff, error) {
	return s.queryStaff(ctx, `WHERE is_available = 1 ORDER BY id`)
}

func (s *Store) Staff(ctx context.Context, id int64) (model.Staff, error) {
	res, err := s.queryStaff(ctx, `WHERE id = ?`, id)
	if err != nil {
		return model.Staff{}, err
	}
	if len(res) == 0 {
		return model.Staff{}, fmt.Errorf("staff %d: %w", id, store.ErrNotFound)
	}
	return res[0], nil
}

func (s *Store) CommitAssignment(ctx context.Context, a model.TaskAssignment) (model.TaskAssignment, error) {
	if err := model.Validate(a); err != nil {
		return a, err
	}
	a.Status = model.AssignmentAssigned
	err := s.tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE staff SET current_workload_hours = current_workload_hours + ?
             WHERE id = ? AND current_workload_hours + ? <= max_hours_per_day * 7 + 1e-9`,
			a.AssignedHours, a.StaffID, a.AssignedHours)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM staff WHERE id = ?`, a.StaffID).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("staff %d: %w", a.StaffID, store.ErrNotFound)
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("staff %d +%.1fh: %w", a.StaffID, a.AssignedHours, store.ErrWorkloadCeiling)
		}
		ins, err := tx.ExecContext(ctx,
			`INSERT INTO task_assignments (schedule_id, staff_id, task_type, assigned_hours, start_time, end_time, status, notes)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ScheduleID, a.StaffID, string(a.TaskType), a.AssignedHours,
			a.StartTime.UnixNano(), a.EndTime.UnixNano(), string(a.Status), a.Notes)
		if err != nil {
			return err
		}
		a.ID, err = ins.LastInsertId()
		return err
	})
	return a, err
}

func (s *Store) Assignments(ctx context.Context, staffID int64) ([]model.TaskAssignment, error) {
	q := `SELECT id, schedule_id, staff_id, task_type, assigned_hours, start_time, end_time, status, notes FROM task_assignments`
	var args []any
	if staffID != 0 {
		q += ` WHERE staff_id = ?`
		args = append(args, staffID)
	}
	q += ` ORDER BY start_time, id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.TaskAssignment
	for rows.Next() {
		var (
			a          model.TaskAssignment
			tt, status string
			start, end int64
		)
		if err := rows.Scan(&a.ID, &a.ScheduleID, &a.StaffID, &tt, &a.AssignedHours, &start, &end, &status, &a.Notes); err != nil {
			return nil, err
		}
		a.TaskType = model.TaskType(tt)
		a.Status = model.AssignmentStatus(status)
		a.StartTime = time.Unix(0, start).UTC()
		a.EndTime = time.Unix(0, end).UTC()
		res = append(res, a)
	}
	return res, rows.Err()
}

func (s *Store) queryStaff(ctx context.Context, where string, args ...any) ([]model.Staff, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, department, skill_level, specialization, hourly_rate, max_hours_per_day,
            is_available, current_workload_hours FROM staff `+where, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Staff
	for rows.Next() {
		var (
			st    model.Staff
			level string
		)
		if err := rows.Scan(&st.ID, &st.Name, &st.Department, &level, &st.Specialization, &st.HourlyRate,
			&st.MaxHoursPerDay, &st.IsAvailable, &st.CurrentWorkloadHours); err != nil {
			return nil, err
		}
		st.SkillLevel = model.SkillLevel(level)
		res = append(res, st)
	}
	return res, rows.Err()
}

func (s *Store) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("rollback: %v (cause: %w)", rerr, err)
		}
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(r rowScanner) (model.ProductionSchedule, error) {
	var (
		ps                     model.ProductionSchedule
		start, end             int64
		actualStart, actualEnd sql.NullInt64
		status                 string
	)
	if err := r.Scan(&ps.ID, &ps.OrderID, &ps.LineID, &start, &end, &actualStart, &actualEnd, &status, &ps.Notes); err != nil {
		return ps, err
	}
	ps.ScheduledStart = time.Unix(0, start).UTC()
	ps.ScheduledEnd = time.Unix(0, end).UTC()
	ps.ActualStart = fromNull(actualStart)
	ps.ActualEnd = fromNull(actualEnd)
	ps.Status = model.ScheduleStatus(status)
	return ps, nil
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64).UTC()
	return &t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
