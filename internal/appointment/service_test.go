package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/telehealth-coordination/internal/apperror"
	"github.com/hackgods/telehealth-coordination/internal/config"
	"github.com/hackgods/telehealth-coordination/internal/doctor"
	"github.com/hackgods/telehealth-coordination/internal/events"
	"github.com/hackgods/telehealth-coordination/internal/notification"
	redisclient "github.com/hackgods/telehealth-coordination/internal/redis"
)

type memRepo struct {
	mu           sync.Mutex
	appointments map[string]*Appointment
	order        []string
	events       []EventLog
}

func newMemRepo() *memRepo {
	return &memRepo{appointments: map[string]*Appointment{}}
}

func (r *memRepo) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *a
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.appointments[a.ID] = &stored
	r.order = append(r.order, a.ID)
	out := stored
	return &out, nil
}

func (r *memRepo) GetAppointmentByID(ctx context.Context, id string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := *a
	return &out, nil
}

func (r *memRepo) list(match func(*Appointment) bool) []Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for i := len(r.order) - 1; i >= 0; i-- {
		if a := r.appointments[r.order[i]]; match(a) {
			out = append(out, *a)
		}
	}
	return out
}

func (r *memRepo) ListAppointmentsByDoctor(ctx context.Context, doctorID string) ([]Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (r *memRepo) ListAppointmentsByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *memRepo) UpdateDecision(ctx context.Context, id string, from Status, patch DecisionPatch) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = patch.Status
	a.DoctorNotes = patch.DoctorNotes
	a.MeetingLink = patch.MeetingLink
	a.UpdatedAt = time.Now()
	out := *a
	return &out, nil
}

func (r *memRepo) InsertEvent(ctx context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *memRepo) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.EventType)
	}
	return out
}

type sentNotification struct {
	event   notification.EventType
	payload notification.Payload
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sentNotification
	result notification.Result
}

func (n *fakeNotifier) Send(ctx context.Context, event notification.EventType, p notification.Payload) notification.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{event: event, payload: p})
	return n.result
}

func (n *fakeNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

type fakeDoctors map[string]*doctor.Doctor

func (f fakeDoctors) GetByID(ctx context.Context, id string) (*doctor.Doctor, error) {
	d, ok := f[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	out := *d
	return &out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type busyLocker struct{}

func (busyLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

type fixture struct {
	svc       *Service
	repo      *memRepo
	notifier  *fakeNotifier
	doctors   fakeDoctors
	publisher *recordingPublisher
}

func newFixture(t *testing.T, locker redisclient.Locker) *fixture {
	t.Helper()
	f := &fixture{
		repo:      newMemRepo(),
		notifier:  &fakeNotifier{result: notification.Result{Delivered: true, MessageID: "msg-1"}},
		publisher: &recordingPublisher{},
		doctors: fakeDoctors{
			"d1": {
				ID: "d1", Name: "Dr. Sarah Johnson", Email: "sarah@clinic.com",
				Specialty: "Cardiology", ConsultationFee: 200, Status: doctor.StatusActive,
			},
			"d2": {
				ID: "d2", Name: "Dr. Away", Email: "away@clinic.com",
				Specialty: "ENT", ConsultationFee: 100, Status: doctor.StatusInactive,
			},
			"d3": {
				ID: "d3", Name: "Dr. Omar Haddad", Email: "omar@clinic.com",
				Specialty: "Dermatology", ConsultationFee: 120, Status: doctor.StatusActive,
			},
		},
	}
	cfg := config.Config{AppBaseURL: "https://care.example.com", NotifyTimeout: time.Second}
	f.svc = NewService(f.repo, f.doctors, locker, f.notifier, f.publisher, cfg, zerolog.Nop())
	return f
}

func validInput() BookingInput {
	return BookingInput{
		PatientName:     "Jane Doe",
		PatientEmail:    "JANE@X.COM",
		AppointmentDate: "2025-06-01",
		AppointmentTime: "09:30",
		Reason:          "checkup",
		DoctorID:        "d1",
		DoctorEmail:     "doc@x.com",
	}
}

func TestBookStoresPendingAppointment(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})

	appt, err := f.svc.Book(context.Background(), validInput())
	require.NoError(t, err)
	f.svc.Wait()

	stored, err := f.repo.GetAppointmentByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", stored.PatientEmail)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, "d1", stored.DoctorID)
	assert.Equal(t, "sarah@clinic.com", stored.DoctorEmail)
	assert.Equal(t, "Dr. Sarah Johnson", stored.DoctorName)
	assert.Empty(t, stored.MeetingLink)

	sent := f.notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, notification.EventAppointmentRequest, sent[0].event)
	assert.Equal(t, appt.ID, sent[0].payload.Appointment.ID)
	assert.Equal(t, "sarah@clinic.com", sent[0].payload.Appointment.DoctorEmail)

	assert.Equal(t, []string{events.AppointmentRequested}, f.repo.eventTypes())
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, appt.ID, f.publisher.events[0].AppointmentID)
}

func TestBookTrimsTextFields(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	in := validInput()
	in.PatientName = "  Jane Doe "
	in.PatientEmail = "  Jane@X.com  "
	in.PatientPhone = " 555-0100 "
	in.Reason = " checkup\n"
	in.Symptoms = "  cough "

	appt, err := f.svc.Book(context.Background(), in)
	require.NoError(t, err)
	f.svc.Wait()

	assert.Equal(t, "Jane Doe", appt.PatientName)
	assert.Equal(t, "jane@x.com", appt.PatientEmail)
	assert.Equal(t, "555-0100", appt.PatientPhone)
	assert.Equal(t, "checkup", appt.Reason)
	assert.Equal(t, "cough", appt.Symptoms)
}

func TestBookAssignsDistinctIDs(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		appt, err := f.svc.Book(context.Background(), validInput())
		require.NoError(t, err)
		assert.False(t, seen[appt.ID], "duplicate id %s", appt.ID)
		seen[appt.ID] = true
	}
	f.svc.Wait()
}

func TestBookValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BookingInput)
		reason string
		fields []string
	}{
		{
			name:   "every required field missing",
			mutate: func(in *BookingInput) { *in = BookingInput{} },
			reason: "missing required fields",
			fields: []string{"patientName", "patientEmail", "doctorId", "appointmentDate", "appointmentTime", "reason"},
		},
		{
			name: "two fields missing",
			mutate: func(in *BookingInput) {
				in.PatientName = "   "
				in.Reason = ""
			},
			reason: "missing required fields",
			fields: []string{"patientName", "reason"},
		},
		{
			name: "no doctor chosen",
			mutate: func(in *BookingInput) {
				in.DoctorID = " "
				in.DoctorEmail = ""
			},
			reason: "missing required fields",
			fields: []string{"doctorId"},
		},
		{
			name:   "missing wins over bad email",
			mutate: func(in *BookingInput) { in.PatientEmail = "nope"; in.AppointmentTime = "" },
			reason: "missing required fields",
			fields: []string{"appointmentTime"},
		},
		{
			name:   "invalid email",
			mutate: func(in *BookingInput) { in.PatientEmail = "jane@x" },
			reason: "invalid email format",
		},
		{
			name:   "email checked before date",
			mutate: func(in *BookingInput) { in.PatientEmail = "jane"; in.AppointmentDate = "2025-6-1" },
			reason: "invalid email format",
		},
		{
			name:   "single digit month and day",
			mutate: func(in *BookingInput) { in.AppointmentDate = "2025-6-1" },
			reason: "invalid date format, use YYYY-MM-DD",
		},
		{
			name:   "date checked before time",
			mutate: func(in *BookingInput) { in.AppointmentDate = "06/01/2025"; in.AppointmentTime = "9:30" },
			reason: "invalid date format, use YYYY-MM-DD",
		},
		{
			name:   "time without leading zero",
			mutate: func(in *BookingInput) { in.AppointmentTime = "9:30" },
			reason: "invalid time format, use HH:MM",
		},
		{
			name:   "negative fee",
			mutate: func(in *BookingInput) { fee := -5; in.ConsultationFee = &fee },
			reason: "consultation fee must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, redisclient.LocalLocker{})
			in := validInput()
			tt.mutate(&in)

			_, err := f.svc.Book(context.Background(), in)
			f.svc.Wait()

			ve, ok := apperror.AsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.reason, ve.Reason)
			assert.Equal(t, tt.fields, ve.Fields)
			assert.Empty(t, f.repo.appointments)
			assert.Empty(t, f.notifier.all())
		})
	}
}

func TestBookAcceptsCalendarInvalidDateAndTime(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	in := validInput()
	in.AppointmentDate = "2025-13-40"
	in.AppointmentTime = "25:99"

	appt, err := f.svc.Book(context.Background(), in)
	require.NoError(t, err)
	f.svc.Wait()
	assert.Equal(t, "2025-13-40", appt.AppointmentDate)
	assert.Equal(t, "25:99", appt.AppointmentTime)
}

func TestBookSucceedsWhenNotificationFails(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	f.notifier.result = notification.Result{Err: apperror.ErrNotConfigured}

	appt, err := f.svc.Book(context.Background(), validInput())
	require.NoError(t, err)
	f.svc.Wait()

	_, err = f.repo.GetAppointmentByID(context.Background(), appt.ID)
	assert.NoError(t, err)
}

func TestBookNotificationOutlivesRequestContext(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	ctx, cancel := context.WithCancel(context.Background())

	_, err := f.svc.Book(ctx, validInput())
	require.NoError(t, err)
	cancel()
	f.svc.Wait()

	assert.Len(t, f.notifier.all(), 1)
}

func TestBookSnapshotsDoctorFromDirectory(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	in := validInput()
	in.DoctorEmail = ""
	in.DoctorName = ""

	appt, err := f.svc.Book(context.Background(), in)
	require.NoError(t, err)
	f.svc.Wait()

	assert.Equal(t, "Dr. Sarah Johnson", appt.DoctorName)
	assert.Equal(t, "sarah@clinic.com", appt.DoctorEmail)
	assert.Equal(t, 200, appt.ConsultationFee)
}

func TestBookRejectsUnknownOrInactiveDoctor(t *testing.T) {
	tests := []struct {
		name        string
		doctorID    string
		doctorEmail string
		notFound    bool
	}{
		{name: "unknown id", doctorID: "missing", notFound: true},
		{name: "unknown id with caller email", doctorID: "ghost", doctorEmail: "doc@x.com", notFound: true},
		{name: "inactive id", doctorID: "d2"},
		{name: "inactive id with caller email", doctorID: "d2", doctorEmail: "away@clinic.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, redisclient.LocalLocker{})
			in := validInput()
			in.DoctorID = tt.doctorID
			in.DoctorEmail = tt.doctorEmail

			_, err := f.svc.Book(context.Background(), in)
			f.svc.Wait()

			if tt.notFound {
				assert.ErrorIs(t, err, apperror.ErrNotFound)
			} else {
				_, ok := apperror.AsValidation(err)
				assert.True(t, ok, "expected validation error, got %v", err)
			}
			assert.Empty(t, f.repo.appointments)
			assert.Empty(t, f.notifier.all())
		})
	}
}

func TestBookDoctorFieldsComeFromDirectory(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	in := validInput()
	in.DoctorName = "Somebody Else"
	in.DoctorEmail = "spoofed@x.com"
	fee := 90
	in.ConsultationFee = &fee

	appt, err := f.svc.Book(context.Background(), in)
	require.NoError(t, err)
	f.svc.Wait()

	assert.Equal(t, "Dr. Sarah Johnson", appt.DoctorName)
	assert.Equal(t, "sarah@clinic.com", appt.DoctorEmail)
	assert.Equal(t, 90, appt.ConsultationFee)
}

func TestDoctorChangesDoNotAlterBookedAppointment(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	in := validInput()
	in.DoctorEmail = ""

	appt, err := f.svc.Book(context.Background(), in)
	require.NoError(t, err)
	f.svc.Wait()

	f.doctors["d1"].Name = "Dr. Sarah Johnson-Smith"
	f.doctors["d1"].Email = "sjs@clinic.com"
	f.doctors["d1"].ConsultationFee = 500

	stored, err := f.svc.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Johnson", stored.DoctorName)
	assert.Equal(t, "sarah@clinic.com", stored.DoctorEmail)
	assert.Equal(t, 200, stored.ConsultationFee)
}

func bookOne(t *testing.T, f *fixture) *Appointment {
	t.Helper()
	appt, err := f.svc.Book(context.Background(), validInput())
	require.NoError(t, err)
	f.svc.Wait()
	return appt
}

func TestDecideApprove(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	appt := bookOne(t, f)

	res, err := f.svc.Decide(context.Background(), appt.ID, DecisionApprove, "d1")
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, res.Appointment.Status)
	assert.Equal(t, NoteApproved, res.Appointment.DoctorNotes)
	assert.Equal(t, "https://care.example.com/video-call/"+appt.ID, res.Appointment.MeetingLink)
	assert.True(t, res.Notification.Delivered)

	sent := f.notifier.all()
	require.Len(t, sent, 2)
	assert.Equal(t, notification.EventAppointmentConfirmation, sent[1].event)
	assert.Equal(t, "jane@x.com", sent[1].payload.Appointment.PatientEmail)
	assert.Equal(t, res.Appointment.MeetingLink, sent[1].payload.Appointment.MeetingLink)

	assert.Equal(t, []string{events.AppointmentRequested, events.AppointmentApproved}, f.repo.eventTypes())
}

func TestDecideReject(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	appt := bookOne(t, f)

	res, err := f.svc.Decide(context.Background(), appt.ID, DecisionReject, "")
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, res.Appointment.Status)
	assert.Equal(t, NoteRejected, res.Appointment.DoctorNotes)
	assert.Empty(t, res.Appointment.MeetingLink)

	sent := f.notifier.all()
	require.Len(t, sent, 2)
	assert.Equal(t, notification.EventAppointmentRejection, sent[1].event)
}

func TestDecideKeepsStatusWhenNotificationFails(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	appt := bookOne(t, f)
	f.notifier.result = notification.Result{Err: apperror.ErrDelivery}

	res, err := f.svc.Decide(context.Background(), appt.ID, DecisionApprove, "d1")
	require.NoError(t, err)
	assert.False(t, res.Notification.Delivered)
	assert.ErrorIs(t, res.Notification.Err, apperror.ErrDelivery)

	stored, err := f.svc.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
}

func TestDecideTwiceConflicts(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	appt := bookOne(t, f)

	_, err := f.svc.Decide(context.Background(), appt.ID, DecisionApprove, "d1")
	require.NoError(t, err)

	_, err = f.svc.Decide(context.Background(), appt.ID, DecisionReject, "d1")
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	stored, err := f.svc.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
	assert.Len(t, f.notifier.all(), 2)
}

func TestDecideConcurrentCallsHaveOneWinner(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	appt := bookOne(t, f)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decision := DecisionApprove
			if i%2 == 1 {
				decision = DecisionReject
			}
			_, errs[i] = f.svc.Decide(context.Background(), appt.ID, decision, "d1")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, apperror.ErrConflict)
	}
	assert.Equal(t, 1, wins)
}

func TestDecideErrors(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	appt := bookOne(t, f)

	_, err := f.svc.Decide(context.Background(), appt.ID, Decision("maybe"), "d1")
	_, ok := apperror.AsValidation(err)
	assert.True(t, ok)

	_, err = f.svc.Decide(context.Background(), "missing", DecisionApprove, "d1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.Decide(context.Background(), appt.ID, DecisionApprove, "someone-else")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	stored, err := f.svc.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestDecideLockContention(t *testing.T) {
	f := newFixture(t, busyLocker{})
	appt := bookOne(t, f)

	_, err := f.svc.Decide(context.Background(), appt.ID, DecisionApprove, "d1")
	assert.ErrorIs(t, err, ErrDecisionInProgress)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestDecideWithRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture(t, redisclient.NewRedisLocker(client, time.Second))
	appt := bookOne(t, f)

	res, err := f.svc.Decide(context.Background(), appt.ID, DecisionApprove, "d1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, res.Appointment.Status)
	assert.False(t, mr.Exists("lock:appointment:"+appt.ID))

	// A lock held elsewhere turns the call into a conflict.
	mr.Set("lock:appointment:"+appt.ID, "other-holder")
	_, err = f.svc.Decide(context.Background(), appt.ID, DecisionReject, "d1")
	assert.ErrorIs(t, err, ErrDecisionInProgress)
}

func TestListByDoctorNewestFirst(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, bookOne(t, f).ID)
	}
	other := validInput()
	other.DoctorID = "d3"
	_, err := f.svc.Book(context.Background(), other)
	require.NoError(t, err)
	f.svc.Wait()

	list, err := f.svc.ListByDoctor(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	got := []string{list[0].ID, list[1].ID, list[2].ID}
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, got)
}

func TestListByPatient(t *testing.T) {
	f := newFixture(t, redisclient.LocalLocker{})
	in := validInput()
	in.PatientID = "user_patient"
	_, err := f.svc.Book(context.Background(), in)
	require.NoError(t, err)
	bookOne(t, f)

	list, err := f.svc.ListByPatient(context.Background(), "user_patient")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "user_patient", list[0].PatientID)
}
