package appointment

import (
	"context"
	"fmt"

	"github.com/hackgods/telehealth-coordination/internal/apperror"
)

var (
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", apperror.ErrNotFound)
	ErrAlreadyDecided      = fmt.Errorf("appointment has already been decided: %w", apperror.ErrConflict)
	ErrDecisionInProgress  = fmt.Errorf("appointment is being decided, please retry: %w", apperror.ErrConflict)
	ErrNotAppointmentOwner = fmt.Errorf("appointment belongs to another doctor: %w", apperror.ErrForbidden)
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id string) (*Appointment, error)

	// Newest first.
	ListAppointmentsByDoctor(ctx context.Context, doctorID string) ([]Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID string) ([]Appointment, error)

	// UpdateDecision writes patch only while the stored status still equals
	// from. ErrAppointmentNotFound is returned when no row matched.
	UpdateDecision(ctx context.Context, id string, from Status, patch DecisionPatch) (*Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
