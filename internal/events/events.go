// Package events publishes appointment lifecycle events to interested
// consumers outside this service.
package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	AppointmentRequested = "APPOINTMENT_REQUESTED"
	AppointmentApproved  = "APPOINTMENT_APPROVED"
	AppointmentRejected  = "APPOINTMENT_REJECTED"
	DoctorRegistered     = "DOCTOR_REGISTERED"
)

type Event struct {
	Type          string          `json:"type"`
	AppointmentID string          `json:"appointment_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
