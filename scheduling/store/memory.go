// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/shop-scheduler/scheduling"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	appointments map[scheduling.AppointmentID]scheduling.Appointment
	mechanics    map[scheduling.MechanicID]scheduling.Mechanic
	locations    map[scheduling.LocationID]scheduling.Location
	workLogs     map[scheduling.WorkLogID]scheduling.WorkLog
}

func NewMemory() *Memory {
	return &Memory{
		appointments: make(map[scheduling.AppointmentID]scheduling.Appointment),
		mechanics:    make(map[scheduling.MechanicID]scheduling.Mechanic),
		locations:    make(map[scheduling.LocationID]scheduling.Location),
		workLogs:     make(map[scheduling.WorkLogID]scheduling.WorkLog),
	}
}

// Put* seed or replace records. Record lifecycle belongs to the surrounding
// application, so these are not part of the scheduling.Store interface.

func (m *Memory) PutAppointment(appt scheduling.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[appt.ID] = appt
}

func (m *Memory) PutMechanic(mech scheduling.Mechanic) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mechanics[mech.ID] = mech
}

func (m *Memory) PutLocation(loc scheduling.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[loc.ID] = loc
}

func (m *Memory) PutWorkLog(wl scheduling.WorkLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workLogs[wl.ID] = wl
}

// =============================================================================
// scheduling.Store
// =============================================================================

func (m *Memory) GetAppointment(_ context.Context, id scheduling.AppointmentID) (*scheduling.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if appt, ok := m.appointments[id]; ok {
		return &appt, nil
	}
	return nil, nil
}

func (m *Memory) GetMechanic(_ context.Context, id scheduling.MechanicID) (*scheduling.Mechanic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mech, ok := m.mechanics[id]; ok {
		return &mech, nil
	}
	return nil, nil
}

func (m *Memory) GetLocation(_ context.Context, id scheduling.LocationID) (*scheduling.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if loc, ok := m.locations[id]; ok {
		return &loc, nil
	}
	return nil, nil
}

func (m *Memory) GetWorkLog(_ context.Context, id scheduling.WorkLogID) (*scheduling.WorkLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if wl, ok := m.workLogs[id]; ok {
		return &wl, nil
	}
	return nil, nil
}

func (m *Memory) ListAppointments(_ context.Context, filter scheduling.AppointmentFilter) ([]scheduling.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []scheduling.Appointment
	for _, appt := range m.appointments {
		if matches(appt, filter) {
			result = append(result, appt)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AppointmentDate.Before(result[j].AppointmentDate)
	})
	return result, nil
}

func matches(appt scheduling.Appointment, f scheduling.AppointmentFilter) bool {
	if f.ExcludeID != "" && appt.ID == f.ExcludeID {
		return false
	}
	if f.MechanicID != nil && (appt.MechanicID == nil || *appt.MechanicID != *f.MechanicID) {
		return false
	}
	if f.LocationID != nil && (appt.LocationID == nil || *appt.LocationID != *f.LocationID) {
		return false
	}
	if f.DateFrom != nil && appt.AppointmentDate.Before(*f.DateFrom) {
		return false
	}
	if f.DateThru != nil && appt.AppointmentDate.After(*f.DateThru) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if appt.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *Memory) UpdateAppointment(_ context.Context, appt *scheduling.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[appt.ID]; !ok {
		return &scheduling.NotFoundError{Kind: "appointment", ID: string(appt.ID)}
	}
	m.appointments[appt.ID] = *appt
	return nil
}

func (m *Memory) UpdateWorkLog(_ context.Context, wl *scheduling.WorkLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workLogs[wl.ID]; !ok {
		return &scheduling.NotFoundError{Kind: "work log", ID: string(wl.ID)}
	}
	m.workLogs[wl.ID] = *wl
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction. For the memory store this is
// simulated with a snapshot, restored if fn fails. The outer lock also
// serializes concurrent read-then-write sequences, which is what the
// assigner relies on.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(scheduling.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		appointments: make(map[scheduling.AppointmentID]scheduling.Appointment, len(tm.appointments)),
		workLogs:     make(map[scheduling.WorkLogID]scheduling.WorkLog, len(tm.workLogs)),
	}
	for k, v := range tm.appointments {
		s.appointments[k] = v
	}
	for k, v := range tm.workLogs {
		s.workLogs[k] = v
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.appointments = s.appointments
	tm.workLogs = s.workLogs
}

// Only the mutable tables need snapshotting: the engine never writes
// mechanics or locations.
type memorySnapshot struct {
	appointments map[scheduling.AppointmentID]scheduling.Appointment
	workLogs     map[scheduling.WorkLogID]scheduling.WorkLog
}

// txMemoryView accesses the parent maps without re-locking; the parent's
// lock is held for the duration of WithTx.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) GetAppointment(_ context.Context, id scheduling.AppointmentID) (*scheduling.Appointment, error) {
	if appt, ok := tv.parent.appointments[id]; ok {
		return &appt, nil
	}
	return nil, nil
}

func (tv *txMemoryView) GetMechanic(_ context.Context, id scheduling.MechanicID) (*scheduling.Mechanic, error) {
	if mech, ok := tv.parent.mechanics[id]; ok {
		return &mech, nil
	}
	return nil, nil
}

func (tv *txMemoryView) GetLocation(_ context.Context, id scheduling.LocationID) (*scheduling.Location, error) {
	if loc, ok := tv.parent.locations[id]; ok {
		return &loc, nil
	}
	return nil, nil
}

func (tv *txMemoryView) GetWorkLog(_ context.Context, id scheduling.WorkLogID) (*scheduling.WorkLog, error) {
	if wl, ok := tv.parent.workLogs[id]; ok {
		return &wl, nil
	}
	return nil, nil
}

func (tv *txMemoryView) ListAppointments(_ context.Context, filter scheduling.AppointmentFilter) ([]scheduling.Appointment, error) {
	var result []scheduling.Appointment
	for _, appt := range tv.parent.appointments {
		if matches(appt, filter) {
			result = append(result, appt)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AppointmentDate.Before(result[j].AppointmentDate)
	})
	return result, nil
}

func (tv *txMemoryView) UpdateAppointment(_ context.Context, appt *scheduling.Appointment) error {
	if _, ok := tv.parent.appointments[appt.ID]; !ok {
		return &scheduling.NotFoundError{Kind: "appointment", ID: string(appt.ID)}
	}
	tv.parent.appointments[appt.ID] = *appt
	return nil
}

func (tv *txMemoryView) UpdateWorkLog(_ context.Context, wl *scheduling.WorkLog) error {
	if _, ok := tv.parent.workLogs[wl.ID]; !ok {
		return &scheduling.NotFoundError{Kind: "work log", ID: string(wl.ID)}
	}
	tv.parent.workLogs[wl.ID] = *wl
	return nil
}
