package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicware/scheduling/internal/slotgrid"
	"github.com/clinicware/scheduling/internal/slotlock"
)

// -- Mock repository --

type mockRepo struct {
	appts       map[uuid.UUID]*Appointment
	records     map[uuid.UUID]*ConsultationRecord // keyed by appointment id
	events      []EventLog
	insertCalls int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		appts:   make(map[uuid.UUID]*Appointment),
		records: make(map[uuid.UUID]*ConsultationRecord),
	}
}

func (m *mockRepo) Insert(_ context.Context, patientID, doctorID uuid.UUID, date time.Time, slot string) (*Appointment, error) {
	m.insertCalls++
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Slot == slot && a.Status != StatusCancelled {
			return nil, ErrSlotTaken
		}
	}
	a := &Appointment{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		Slot:      slot,
		Status:    StatusScheduled,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.appts[a.ID] = a
	return a, nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) GetDetail(_ context.Context, id uuid.UUID) (*Detail, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &Detail{Appointment: *a}, nil
}

func (m *mockRepo) ListByDoctorDate(_ context.Context, doctorID uuid.UUID, date time.Time) ([]Detail, error) {
	var result []Detail
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Date.Equal(date) {
			result = append(result, Detail{Appointment: *a})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slot < result[j].Slot })
	return result, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]Detail, error) {
	var result []Detail
	for _, a := range m.appts {
		if a.PatientID == patientID {
			result = append(result, Detail{Appointment: *a})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].Slot > result[j].Slot
	})
	return result, nil
}

func (m *mockRepo) ListCompletedByDoctorRange(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]Detail, error) {
	var result []Detail
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Status == StatusCompleted && !a.Date.Before(from) && !a.Date.After(to) {
			result = append(result, Detail{Appointment: *a})
		}
	}
	return result, nil
}

func (m *mockRepo) BookedSlots(_ context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	var slots []string
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Status != StatusCancelled {
			slots = append(slots, a.Slot)
		}
	}
	return slots, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.appts[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(m.appts, id)
	return nil
}

func (m *mockRepo) InsertRecordCompleting(_ context.Context, rec ConsultationRecord) (*ConsultationRecord, error) {
	if _, ok := m.records[rec.AppointmentID]; ok {
		return nil, ErrRecordExists
	}
	a, ok := m.appts[rec.AppointmentID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	m.records[rec.AppointmentID] = &rec
	a.Status = StatusCompleted
	a.UpdatedAt = time.Now()
	cp := rec
	return &cp, nil
}

func (m *mockRepo) GetRecordByAppointment(_ context.Context, appointmentID uuid.UUID) (*ConsultationRecord, error) {
	rec, ok := m.records[appointmentID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *mockRepo) ListAttended(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]AttendedVisit, error) {
	var result []AttendedVisit
	for _, a := range m.appts {
		rec, ok := m.records[a.ID]
		if !ok || a.DoctorID != doctorID || a.Status != StatusCompleted {
			continue
		}
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		result = append(result, AttendedVisit{
			AppointmentID: a.ID,
			Date:          a.Date,
			Slot:          a.Slot,
			Symptoms:      rec.Symptoms,
			Diagnosis:     rec.Diagnosis,
			Treatment:     rec.Treatment,
			Medication:    rec.Medication,
		})
	}
	return result, nil
}

func (m *mockRepo) ListByDisease(ctx context.Context, doctorID uuid.UUID, disease string, from, to time.Time) ([]AttendedVisit, error) {
	all, err := m.ListAttended(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(disease)
	var result []AttendedVisit
	for _, v := range all {
		if strings.Contains(strings.ToLower(v.Diagnosis), needle) ||
			strings.Contains(strings.ToLower(v.Symptoms), needle) {
			result = append(result, v)
		}
	}
	return result, nil
}

func (m *mockRepo) InsertEvent(_ context.Context, ev EventLog) error {
	m.events = append(m.events, ev)
	return nil
}

func (m *mockRepo) eventsOfType(eventType string) []EventLog {
	var result []EventLog
	for _, ev := range m.events {
		if ev.EventType == eventType {
			result = append(result, ev)
		}
	}
	return result
}

// -- Lockers --

type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type heldLocker struct{}

func (heldLocker) WithSlotLock(context.Context, string, func(ctx context.Context) error) error {
	return slotlock.ErrLockNotAcquired
}

func newTestService(repo Repository) *Service {
	return NewService(repo, passLocker{}, zerolog.Nop())
}

func testDate() time.Time {
	return time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
}

// -- Tests --

func TestCreateScheduled(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	appt, err := svc.Create(context.Background(), uuid.New(), uuid.New(), testDate(), "09:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.Status != StatusScheduled {
		t.Errorf("status = %s, want %s", appt.Status, StatusScheduled)
	}
	if len(repo.appts) != 1 {
		t.Errorf("expected 1 stored appointment, got %d", len(repo.appts))
	}
}

func TestCreateMissingFields(t *testing.T) {
	svc := newTestService(newMockRepo())
	ctx := context.Background()

	cases := []struct {
		name             string
		patient, doctor  uuid.UUID
		date             time.Time
		slot             string
	}{
		{"no patient", uuid.Nil, uuid.New(), testDate(), "09:00"},
		{"no doctor", uuid.New(), uuid.Nil, testDate(), "09:00"},
		{"no date", uuid.New(), uuid.New(), time.Time{}, "09:00"},
		{"no slot", uuid.New(), uuid.New(), testDate(), ""},
	}
	for _, c := range cases {
		_, err := svc.Create(ctx, c.patient, c.doctor, c.date, c.slot)
		if !errors.Is(err, ErrMissingField) {
			t.Errorf("%s: err = %v, want ErrMissingField", c.name, err)
		}
	}
}

func TestCreateInvalidSlotBeforeStore(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), testDate(), "13:00")
	if !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("err = %v, want ErrInvalidSlot", err)
	}
	if repo.insertCalls != 0 {
		t.Errorf("insert was called %d times for an invalid slot", repo.insertCalls)
	}
}

func TestCreateConflict(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	doctor := uuid.New()

	if _, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "09:00"); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "09:00")
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("err = %v, want ErrSlotTaken", err)
	}
	if len(repo.appts) != 1 {
		t.Errorf("conflicting create wrote a row: %d appointments", len(repo.appts))
	}
}

func TestCreateAfterCancellation(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	doctor := uuid.New()

	first, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "09:00")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, first.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Cancelled appointments free their slot.
	if _, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "09:00"); err != nil {
		t.Fatalf("rebook after cancellation: %v", err)
	}
}

func TestCreateLockHeld(t *testing.T) {
	svc := NewService(newMockRepo(), heldLocker{}, zerolog.Nop())

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), testDate(), "09:00")
	if !errors.Is(err, ErrSlotBeingBooked) {
		t.Fatalf("err = %v, want ErrSlotBeingBooked", err)
	}
}

func TestAvailableSlotsFullGrid(t *testing.T) {
	svc := newTestService(newMockRepo())

	free, err := svc.AvailableSlots(context.Background(), uuid.New(), testDate())
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}
	grid := slotgrid.Generate()
	if len(free) != len(grid) {
		t.Fatalf("free = %d slots, want full grid of %d", len(free), len(grid))
	}
	for i := range grid {
		if free[i] != grid[i] {
			t.Errorf("slot %d = %q, want %q", i, free[i], grid[i])
		}
	}
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	doctor := uuid.New()

	booked, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "10:30")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cancelled, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "11:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, cancelled.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	free, err := svc.AvailableSlots(ctx, doctor, testDate())
	if err != nil {
		t.Fatalf("available slots: %v", err)
	}
	for _, s := range free {
		if s == booked.Slot {
			t.Errorf("booked slot %q listed as free", s)
		}
	}
	found := false
	for _, s := range free {
		if s == cancelled.Slot {
			found = true
		}
	}
	if !found {
		t.Errorf("cancelled slot %q should be free again", cancelled.Slot)
	}
}

func TestAvailableSlotsValidation(t *testing.T) {
	svc := newTestService(newMockRepo())
	ctx := context.Background()

	if _, err := svc.AvailableSlots(ctx, uuid.Nil, testDate()); !errors.Is(err, ErrMissingField) {
		t.Errorf("nil doctor: err = %v, want ErrMissingField", err)
	}
	if _, err := svc.AvailableSlots(ctx, uuid.New(), time.Time{}); !errors.Is(err, ErrMissingField) {
		t.Errorf("zero date: err = %v, want ErrMissingField", err)
	}
}

func TestUpdateStatusLifecycle(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	appt, err := svc.Create(ctx, uuid.New(), uuid.New(), testDate(), "09:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	confirmed, err := svc.UpdateStatus(ctx, appt.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != StatusConfirmed {
		t.Errorf("status = %s, want %s", confirmed.Status, StatusConfirmed)
	}

	completed, err := svc.UpdateStatus(ctx, appt.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", completed.Status, StatusCompleted)
	}

	// Terminal: no further transitions.
	if _, err := svc.UpdateStatus(ctx, appt.ID, StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("transition out of completed: err = %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateStatusRejectsJump(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	appt, err := svc.Create(ctx, uuid.New(), uuid.New(), testDate(), "09:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, appt.ID, StatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("scheduled -> completed: err = %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateStatusInvalidValue(t *testing.T) {
	svc := newTestService(newMockRepo())

	if _, err := svc.UpdateStatus(context.Background(), uuid.New(), Status("programada")); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	svc := newTestService(newMockRepo())

	if _, err := svc.UpdateStatus(context.Background(), uuid.New(), StatusConfirmed); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("err = %v, want ErrAppointmentNotFound", err)
	}
}

func TestRecordAttentionForbidden(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	appt, err := svc.Create(ctx, uuid.New(), uuid.New(), testDate(), "09:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	otherDoctor := uuid.New()
	_, err = svc.RecordAttention(ctx, appt.ID, otherDoctor, ConsultationRecord{Diagnosis: "flu"})
	if !errors.Is(err, ErrNotOwnAppointment) {
		t.Fatalf("err = %v, want ErrNotOwnAppointment", err)
	}
	if len(repo.records) != 0 {
		t.Error("record was inserted despite forbidden access")
	}
	got, _ := repo.GetByID(ctx, appt.ID)
	if got.Status != StatusScheduled {
		t.Errorf("status mutated to %s on forbidden access", got.Status)
	}
}

func TestRecordAttentionNotFound(t *testing.T) {
	svc := newTestService(newMockRepo())

	_, err := svc.RecordAttention(context.Background(), uuid.New(), uuid.New(), ConsultationRecord{})
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("err = %v, want ErrAppointmentNotFound", err)
	}
}

func TestRecordAttentionCancelled(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	doctor := uuid.New()

	appt, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "09:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, appt.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := svc.RecordAttention(ctx, appt.ID, doctor, ConsultationRecord{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestRecordAttentionCompletes(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	doctor := uuid.New()

	appt, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "09:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	in := ConsultationRecord{
		Symptoms:     "persistent cough",
		Diagnosis:    "bronchitis",
		Treatment:    "rest and fluids",
		Medication:   "amoxicillin",
		Observations: "follow up in two weeks",
	}
	rec, err := svc.RecordAttention(ctx, appt.ID, doctor, in)
	if err != nil {
		t.Fatalf("record attention: %v", err)
	}
	if rec.AppointmentID != appt.ID {
		t.Errorf("record bound to %s, want %s", rec.AppointmentID, appt.ID)
	}

	det, err := svc.GetDetail(ctx, appt.ID)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if det.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", det.Status, StatusCompleted)
	}

	stored, err := svc.GetRecord(ctx, appt.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if stored.Diagnosis != in.Diagnosis || stored.Symptoms != in.Symptoms {
		t.Errorf("stored record differs: %+v", stored)
	}

	// Exactly one record per appointment.
	if _, err := svc.RecordAttention(ctx, appt.ID, doctor, in); !errors.Is(err, ErrRecordExists) {
		t.Errorf("second record: err = %v, want ErrRecordExists", err)
	}
}

func TestPatientHistoryOrdering(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	patient := uuid.New()
	doctor := uuid.New()

	earlier := testDate()
	later := testDate().AddDate(0, 0, 7)

	if _, err := svc.Create(ctx, patient, doctor, earlier, "09:00"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, patient, doctor, later, "08:00"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, patient, doctor, later, "10:00"); err != nil {
		t.Fatalf("create: %v", err)
	}

	history, err := svc.ListByPatient(ctx, patient)
	if err != nil {
		t.Fatalf("list by patient: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history = %d entries, want 3", len(history))
	}
	if !history[0].Date.Equal(later) || history[0].Slot != "10:00" {
		t.Errorf("first entry = %s %s, want most recent", history[0].Date, history[0].Slot)
	}
	if !history[2].Date.Equal(earlier) {
		t.Errorf("last entry = %s, want oldest", history[2].Date)
	}
}

func TestReportValidation(t *testing.T) {
	svc := newTestService(newMockRepo())
	ctx := context.Background()
	doctor := uuid.New()

	if _, err := svc.AttendedReport(ctx, doctor, testDate(), testDate().AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("reversed range: err = %v, want ErrInvalidDateRange", err)
	}
	if _, err := svc.DiseaseReport(ctx, doctor, "", testDate(), testDate()); !errors.Is(err, ErrMissingField) {
		t.Errorf("empty disease: err = %v, want ErrMissingField", err)
	}
}

func TestListCompletedByDoctor(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	doctor := uuid.New()

	inRange, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "09:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.RecordAttention(ctx, inRange.ID, doctor, ConsultationRecord{}); err != nil {
		t.Fatalf("record attention: %v", err)
	}

	// stays scheduled, must not appear
	if _, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "10:00"); err != nil {
		t.Fatalf("create: %v", err)
	}

	completed, err := svc.ListCompletedByDoctor(ctx, doctor, testDate(), testDate())
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("completed = %d entries, want 1", len(completed))
	}
	if completed[0].ID != inRange.ID {
		t.Errorf("entry = %s, want %s", completed[0].ID, inRange.ID)
	}

	if _, err := svc.ListCompletedByDoctor(ctx, doctor, testDate(), testDate().AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("reversed range: err = %v, want ErrInvalidDateRange", err)
	}
}

func TestDeleteAppointment(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	appt, err := svc.Create(ctx, uuid.New(), uuid.New(), testDate(), "09:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, appt.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetDetail(ctx, appt.ID); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("get after delete: err = %v, want ErrAppointmentNotFound", err)
	}
	if got := repo.eventsOfType(EventAppointmentDeleted); len(got) != 1 {
		t.Errorf("deleted events = %d, want 1", len(got))
	}
}

func TestDeleteAppointmentNotFound(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	if err := svc.Delete(context.Background(), uuid.New()); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("err = %v, want ErrAppointmentNotFound", err)
	}
	if len(repo.events) != 0 {
		t.Errorf("events = %d, want none for a failed delete", len(repo.events))
	}
}

func TestLifecycleWritesAuditTrail(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	doctor := uuid.New()

	appt, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "09:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created := repo.eventsOfType(EventAppointmentCreated)
	if len(created) != 1 {
		t.Fatalf("created events = %d, want 1", len(created))
	}
	if created[0].AppointmentID == nil || *created[0].AppointmentID != appt.ID {
		t.Errorf("created event appointment id = %v, want %s", created[0].AppointmentID, appt.ID)
	}
	var payload map[string]string
	if err := json.Unmarshal(created[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["slot"] != "09:00" {
		t.Errorf("payload slot = %q, want 09:00", payload["slot"])
	}

	if _, err := svc.UpdateStatus(ctx, appt.ID, StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	changed := repo.eventsOfType(EventStatusChanged)
	if len(changed) != 1 {
		t.Fatalf("status events = %d, want 1", len(changed))
	}
	if err := json.Unmarshal(changed[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["from"] != "scheduled" || payload["to"] != "confirmed" {
		t.Errorf("payload = %v, want scheduled -> confirmed", payload)
	}

	if _, err := svc.RecordAttention(ctx, appt.ID, doctor, ConsultationRecord{}); err != nil {
		t.Fatalf("record attention: %v", err)
	}
	if got := repo.eventsOfType(EventAttentionRecorded); len(got) != 1 {
		t.Errorf("attention events = %d, want 1", len(got))
	}
}

func TestDiseaseReportFiltersByTerm(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	doctor := uuid.New()

	flu, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "09:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.RecordAttention(ctx, flu.ID, doctor, ConsultationRecord{Diagnosis: "Influenza A"}); err != nil {
		t.Fatalf("record attention: %v", err)
	}

	sprain, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "10:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.RecordAttention(ctx, sprain.ID, doctor, ConsultationRecord{Diagnosis: "Ankle sprain"}); err != nil {
		t.Fatalf("record attention: %v", err)
	}

	visits, err := svc.DiseaseReport(ctx, doctor, "influenza", testDate(), testDate())
	if err != nil {
		t.Fatalf("disease report: %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("visits = %d, want only the matching diagnosis", len(visits))
	}
	if visits[0].Diagnosis != "Influenza A" {
		t.Errorf("diagnosis = %q, want Influenza A", visits[0].Diagnosis)
	}
}

func TestAttendedReportInclusiveBounds(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	doctor := uuid.New()

	appt, err := svc.Create(ctx, uuid.New(), doctor, testDate(), "09:00")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.RecordAttention(ctx, appt.ID, doctor, ConsultationRecord{Diagnosis: "flu"}); err != nil {
		t.Fatalf("record attention: %v", err)
	}

	visits, err := svc.AttendedReport(ctx, doctor, testDate(), testDate())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("visits = %d, want 1 (bounds are inclusive)", len(visits))
	}
	if visits[0].Diagnosis != "flu" {
		t.Errorf("diagnosis = %q, want flu", visits[0].Diagnosis)
	}
}
