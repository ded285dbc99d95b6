package messaging

import "context"

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Channel carrying ward lifecycle events (admission, discharge,
// re-admission, bed assignment).
const WardEventsChannel = "ward.events"

// Event is the envelope published on WardEventsChannel.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Ward event types
const (
	EventPatientAdmitted   = "patient.admitted"
	EventPatientDischarged = "patient.discharged"
	EventPatientReadmitted = "patient.readmitted"
)
