/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements scheduling.Store and scheduling.TxStore using SQLite. In
  production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  scheduling.Store:   Record reads, filtered appointment listing, updates
  scheduling.TxStore: Read-then-write atomicity for assignments

KEY TABLES:
  appointments: Visits with optional precise bounds and resource FKs
  mechanics:    Workers with status
  locations:    Service bays with capacity
  work_logs:    Logged start/end times and derived hours

READ-THEN-WRITE ATOMICITY:
  WithTx wraps the assigner's conflict check and assignment write in one
  SQL transaction, so two concurrent assignments cannot both pass the
  check and double-book a resource. The process-level mutex serializes
  writers within this process; the SQL transaction covers external ones.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/shop.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  assigner := scheduling.NewAssigner(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - scheduling/store.go: Interface definitions
  - scheduling/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/shop-scheduler/scheduling"
)

// Store implements the storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite allows a single writer, and ":memory:"
	// databases are per-connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS mechanics (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'in_service',
		capacity INTEGER,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS appointments (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		appointment_date TEXT NOT NULL,
		scheduled_start TEXT,
		scheduled_end TEXT,
		mechanic_id TEXT,
		location_id TEXT,
		status TEXT NOT NULL DEFAULT 'scheduled',
		created_at TEXT NOT NULL
	);

	-- Conflict-check hot paths: active appointments per resource
	CREATE INDEX IF NOT EXISTS idx_appointments_mechanic_status
		ON appointments(mechanic_id, status) WHERE mechanic_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_appointments_location_status
		ON appointments(location_id, status) WHERE location_id IS NOT NULL;

	-- Availability range scans
	CREATE INDEX IF NOT EXISTS idx_appointments_date
		ON appointments(appointment_date);

	CREATE TABLE IF NOT EXISTS work_logs (
		id TEXT PRIMARY KEY,
		appointment_id TEXT NOT NULL,
		mechanic_id TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		hours_worked TEXT NOT NULL DEFAULT '0',
		billable_hours TEXT,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_work_logs_appointment
		ON work_logs(appointment_id);
	CREATE INDEX IF NOT EXISTS idx_work_logs_mechanic
		ON work_logs(mechanic_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// MECHANICS
// =============================================================================

// SaveMechanic inserts or replaces a mechanic record.
func (s *Store) SaveMechanic(ctx context.Context, mech scheduling.Mechanic) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO mechanics (id, first_name, last_name, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query,
		mech.ID, mech.FirstName, mech.LastName, mech.Status,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetMechanic retrieves a mechanic by ID. Returns (nil, nil) when absent.
func (s *Store) GetMechanic(ctx context.Context, id scheduling.MechanicID) (*scheduling.Mechanic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getMechanic(ctx, s.db, id)
}

func getMechanic(ctx context.Context, q querier, id scheduling.MechanicID) (*scheduling.Mechanic, error) {
	var mech scheduling.Mechanic
	err := q.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, status FROM mechanics WHERE id = ?",
		id,
	).Scan(&mech.ID, &mech.FirstName, &mech.LastName, &mech.Status)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query mechanic: %w", err)
	}
	return &mech, nil
}

// ListMechanics returns all mechanics ordered by name.
func (s *Store) ListMechanics(ctx context.Context) ([]scheduling.Mechanic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, first_name, last_name, status FROM mechanics ORDER BY last_name, first_name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mechanics []scheduling.Mechanic
	for rows.Next() {
		var mech scheduling.Mechanic
		if err := rows.Scan(&mech.ID, &mech.FirstName, &mech.LastName, &mech.Status); err != nil {
			return nil, err
		}
		mechanics = append(mechanics, mech)
	}
	return mechanics, rows.Err()
}

// =============================================================================
// LOCATIONS
// =============================================================================

// SaveLocation inserts or replaces a location record.
func (s *Store) SaveLocation(ctx context.Context, loc scheduling.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO locations (id, name, status, capacity, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			capacity = excluded.capacity
	`

	var capacity any
	if loc.Capacity != nil {
		capacity = *loc.Capacity
	}

	_, err := s.db.ExecContext(ctx, query,
		loc.ID, loc.Name, loc.Status, capacity,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetLocation retrieves a location by ID. Returns (nil, nil) when absent.
func (s *Store) GetLocation(ctx context.Context, id scheduling.LocationID) (*scheduling.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getLocation(ctx, s.db, id)
}

func getLocation(ctx context.Context, q querier, id scheduling.LocationID) (*scheduling.Location, error) {
	var (
		loc      scheduling.Location
		capacity sql.NullInt64
	)
	err := q.QueryRowContext(ctx,
		"SELECT id, name, status, capacity FROM locations WHERE id = ?",
		id,
	).Scan(&loc.ID, &loc.Name, &loc.Status, &capacity)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query location: %w", err)
	}

	if capacity.Valid {
		c := int(capacity.Int64)
		loc.Capacity = &c
	}
	return &loc, nil
}

// ListLocations returns all locations ordered by name.
func (s *Store) ListLocations(ctx context.Context) ([]scheduling.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, status, capacity FROM locations ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []scheduling.Location
	for rows.Next() {
		var (
			loc      scheduling.Location
			capacity sql.NullInt64
		)
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Status, &capacity); err != nil {
			return nil, err
		}
		if capacity.Valid {
			c := int(capacity.Int64)
			loc.Capacity = &c
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// =============================================================================
// APPOINTMENTS
// =============================================================================

const appointmentColumns = `id, description, appointment_date, scheduled_start, scheduled_end,
	mechanic_id, location_id, status, created_at`

// SaveAppointment inserts or replaces an appointment record.
func (s *Store) SaveAppointment(ctx context.Context, appt scheduling.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO appointments
		(id, description, appointment_date, scheduled_start, scheduled_end,
		 mechanic_id, location_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			appointment_date = excluded.appointment_date,
			scheduled_start = excluded.scheduled_start,
			scheduled_end = excluded.scheduled_end,
			mechanic_id = excluded.mechanic_id,
			location_id = excluded.location_id,
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query,
		appt.ID,
		appt.Description,
		appt.AppointmentDate.Format(time.RFC3339),
		nullTime(appt.ScheduledStart),
		nullTime(appt.ScheduledEnd),
		nullMechanic(appt.MechanicID),
		nullLocation(appt.LocationID),
		appt.Status,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetAppointment retrieves an appointment by ID. Returns (nil, nil) when absent.
func (s *Store) GetAppointment(ctx context.Context, id scheduling.AppointmentID) (*scheduling.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAppointment(ctx, s.db, id)
}

func getAppointment(ctx context.Context, q querier, id scheduling.AppointmentID) (*scheduling.Appointment, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointment: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	appt, err := scanAppointment(rows)
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// ListAppointments returns appointments matching the filter, ordered by
// appointment date ascending.
func (s *Store) ListAppointments(ctx context.Context, filter scheduling.AppointmentFilter) ([]scheduling.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAppointments(ctx, s.db, filter)
}

func listAppointments(ctx context.Context, q querier, filter scheduling.AppointmentFilter) ([]scheduling.Appointment, error) {
	var (
		conds []string
		args  []any
	)

	if filter.MechanicID != nil {
		conds = append(conds, "mechanic_id = ?")
		args = append(args, *filter.MechanicID)
	}
	if filter.LocationID != nil {
		conds = append(conds, "location_id = ?")
		args = append(args, *filter.LocationID)
	}
	if filter.DateFrom != nil {
		conds = append(conds, "appointment_date >= ?")
		args = append(args, filter.DateFrom.Format(time.RFC3339))
	}
	if filter.DateThru != nil {
		conds = append(conds, "appointment_date <= ?")
		args = append(args, filter.DateThru.Format(time.RFC3339))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, st)
		}
		conds = append(conds, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.ExcludeID != "" {
		conds = append(conds, "id != ?")
		args = append(args, filter.ExcludeID)
	}

	query := "SELECT " + appointmentColumns + " FROM appointments"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY appointment_date ASC, created_at ASC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []scheduling.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}
	return appointments, rows.Err()
}

func scanAppointment(rows *sql.Rows) (scheduling.Appointment, error) {
	var (
		appt            scheduling.Appointment
		appointmentDate string
		scheduledStart  sql.NullString
		scheduledEnd    sql.NullString
		mechanicID      sql.NullString
		locationID      sql.NullString
		createdAt       string
	)

	err := rows.Scan(
		&appt.ID, &appt.Description, &appointmentDate, &scheduledStart, &scheduledEnd,
		&mechanicID, &locationID, &appt.Status, &createdAt,
	)
	if err != nil {
		return appt, fmt.Errorf("failed to scan appointment: %w", err)
	}

	appt.AppointmentDate, _ = time.Parse(time.RFC3339, appointmentDate)
	appt.ScheduledStart = parseNullTime(scheduledStart)
	appt.ScheduledEnd = parseNullTime(scheduledEnd)
	if mechanicID.Valid {
		id := scheduling.MechanicID(mechanicID.String)
		appt.MechanicID = &id
	}
	if locationID.Valid {
		id := scheduling.LocationID(locationID.String)
		appt.LocationID = &id
	}
	appt.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return appt, nil
}

// UpdateAppointment persists the mutable fields of an existing appointment.
func (s *Store) UpdateAppointment(ctx context.Context, appt *scheduling.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateAppointment(ctx, s.db, appt)
}

func updateAppointment(ctx context.Context, q querier, appt *scheduling.Appointment) error {
	query := `
		UPDATE appointments SET
			description = ?,
			appointment_date = ?,
			scheduled_start = ?,
			scheduled_end = ?,
			mechanic_id = ?,
			location_id = ?,
			status = ?
		WHERE id = ?
	`

	res, err := q.ExecContext(ctx, query,
		appt.Description,
		appt.AppointmentDate.Format(time.RFC3339),
		nullTime(appt.ScheduledStart),
		nullTime(appt.ScheduledEnd),
		nullMechanic(appt.MechanicID),
		nullLocation(appt.LocationID),
		appt.Status,
		appt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &scheduling.NotFoundError{Kind: "appointment", ID: string(appt.ID)}
	}
	return nil
}

// =============================================================================
// WORK LOGS
// =============================================================================

// SaveWorkLog inserts or replaces a work log record.
func (s *Store) SaveWorkLog(ctx context.Context, wl scheduling.WorkLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO work_logs
		(id, appointment_id, mechanic_id, start_time, end_time,
		 hours_worked, billable_hours, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			appointment_id = excluded.appointment_id,
			mechanic_id = excluded.mechanic_id,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			hours_worked = excluded.hours_worked,
			billable_hours = excluded.billable_hours,
			notes = excluded.notes
	`

	_, err := s.db.ExecContext(ctx, query,
		wl.ID, wl.AppointmentID, wl.MechanicID,
		nullTime(wl.StartTime),
		nullTime(wl.EndTime),
		wl.HoursWorked.String(),
		nullDecimal(wl.BillableHours),
		wl.Notes,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetWorkLog retrieves a work log by ID. Returns (nil, nil) when absent.
func (s *Store) GetWorkLog(ctx context.Context, id scheduling.WorkLogID) (*scheduling.WorkLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getWorkLog(ctx, s.db, id)
}

func getWorkLog(ctx context.Context, q querier, id scheduling.WorkLogID) (*scheduling.WorkLog, error) {
	var (
		wl            scheduling.WorkLog
		startTime     sql.NullString
		endTime       sql.NullString
		hoursWorked   string
		billableHours sql.NullString
	)

	err := q.QueryRowContext(ctx,
		`SELECT id, appointment_id, mechanic_id, start_time, end_time,
		        hours_worked, billable_hours, notes
		 FROM work_logs WHERE id = ?`,
		id,
	).Scan(&wl.ID, &wl.AppointmentID, &wl.MechanicID, &startTime, &endTime,
		&hoursWorked, &billableHours, &wl.Notes)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query work log: %w", err)
	}

	wl.StartTime = parseNullTime(startTime)
	wl.EndTime = parseNullTime(endTime)
	wl.HoursWorked, _ = decimal.NewFromString(hoursWorked)
	if billableHours.Valid {
		if d, err := decimal.NewFromString(billableHours.String); err == nil {
			wl.BillableHours = &d
		}
	}
	return &wl, nil
}

// UpdateWorkLog persists the derived hour fields of an existing work log.
func (s *Store) UpdateWorkLog(ctx context.Context, wl *scheduling.WorkLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateWorkLog(ctx, s.db, wl)
}

func updateWorkLog(ctx context.Context, q querier, wl *scheduling.WorkLog) error {
	query := `
		UPDATE work_logs SET
			start_time = ?,
			end_time = ?,
			hours_worked = ?,
			billable_hours = ?,
			notes = ?
		WHERE id = ?
	`

	res, err := q.ExecContext(ctx, query,
		nullTime(wl.StartTime),
		nullTime(wl.EndTime),
		wl.HoursWorked.String(),
		nullDecimal(wl.BillableHours),
		wl.Notes,
		wl.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update work log: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &scheduling.NotFoundError{Kind: "work log", ID: string(wl.ID)}
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (scheduling.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store scheduling.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore routes Store calls through an open *sql.Tx. No re-locking: the
// parent holds its mutex for the duration of WithTx.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) GetAppointment(ctx context.Context, id scheduling.AppointmentID) (*scheduling.Appointment, error) {
	return getAppointment(ctx, t.tx, id)
}

func (t *txStore) GetMechanic(ctx context.Context, id scheduling.MechanicID) (*scheduling.Mechanic, error) {
	return getMechanic(ctx, t.tx, id)
}

func (t *txStore) GetLocation(ctx context.Context, id scheduling.LocationID) (*scheduling.Location, error) {
	return getLocation(ctx, t.tx, id)
}

func (t *txStore) GetWorkLog(ctx context.Context, id scheduling.WorkLogID) (*scheduling.WorkLog, error) {
	return getWorkLog(ctx, t.tx, id)
}

func (t *txStore) ListAppointments(ctx context.Context, filter scheduling.AppointmentFilter) ([]scheduling.Appointment, error) {
	return listAppointments(ctx, t.tx, filter)
}

func (t *txStore) UpdateAppointment(ctx context.Context, appt *scheduling.Appointment) error {
	return updateAppointment(ctx, t.tx, appt)
}

func (t *txStore) UpdateWorkLog(ctx context.Context, wl *scheduling.WorkLog) error {
	return updateWorkLog(ctx, t.tx, wl)
}

// =============================================================================
// HELPERS
// =============================================================================

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullMechanic(id *scheduling.MechanicID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func nullLocation(id *scheduling.LocationID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
