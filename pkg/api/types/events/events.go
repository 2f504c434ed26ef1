// Package events defines payloads carried by the event channel.
//
// Push payloads are a union tagged with "type".
// Use Decode to get a concrete Message.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opst/mlconsole/pkg/api/types/datasets"
	"github.com/opst/mlconsole/pkg/api/types/experiments"
)

// Type is a tag of push payloads.
type Type string

const (
	TypeExperimentProgress Type = "experiment_progress"
	TypeExperimentStatus   Type = "experiment_status"
	TypeQualityGate        Type = "quality_gate"
	TypeNotification       Type = "notification"
)

var ErrUnknownType = errors.New("unknown event type")

// Message is a decoded push payload.
type Message interface {
	MessageType() Type

	// Sequence is a number increasing monotonically per resource.
	// Zero means the sender does not number its events.
	Sequence() uint64
}

// Envelope is the part common to every push payload.
type Envelope struct {
	Type      Type       `json:"type"`
	Seq       uint64     `json:"seq,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (e Envelope) MessageType() Type { return e.Type }

func (e Envelope) Sequence() uint64 { return e.Seq }

type ExperimentProgress struct {
	Envelope
	ExperimentId string       `json:"experimentId"`
	Data         ProgressData `json:"data"`
}

type ProgressData struct {
	Epoch       int     `json:"epoch"`
	TotalEpochs int     `json:"totalEpochs,omitempty"`
	Step        int     `json:"step"`
	TotalSteps  int     `json:"totalSteps,omitempty"`
	Loss        float64 `json:"loss"`
	GPUUtil     float64 `json:"gpuUtil"`
	ETA         string  `json:"eta"`
}

// Progress converts the payload into the shape held by experiment details.
//
// When the payload has no timestamp, receivedAt is used as its last update.
func (m ExperimentProgress) Progress(receivedAt time.Time) experiments.Progress {
	last := receivedAt
	if m.Timestamp != nil {
		last = *m.Timestamp
	}
	return experiments.Progress{
		CurrentEpoch:   m.Data.Epoch,
		TotalEpochs:    m.Data.TotalEpochs,
		CurrentStep:    m.Data.Step,
		TotalSteps:     m.Data.TotalSteps,
		Loss:           m.Data.Loss,
		GPUUtilization: m.Data.GPUUtil,
		ETA:            m.Data.ETA,
		LastUpdate:     last,
	}
}

type ExperimentStatus struct {
	Envelope
	ExperimentId string             `json:"experimentId"`
	Status       experiments.Status `json:"status"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

type GateResult string

const (
	GatePassed GateResult = "passed"
	GateFailed GateResult = "failed"
)

type QualityGate struct {
	Envelope
	DatasetId string         `json:"datasetId"`
	Result    GateResult     `json:"result"`
	Details   map[string]any `json:"details,omitempty"`
}

// DatasetStatus is the dataset status implied by the gate result.
func (m QualityGate) DatasetStatus() datasets.Status {
	if m.Result == GatePassed {
		return datasets.Passed
	}
	return datasets.Blocked
}

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

type Notification struct {
	Envelope
	Level   Level   `json:"level"`
	Title   string  `json:"title,omitempty"`
	Message string  `json:"message"`
	Action  *Action `json:"action,omitempty"`
}

type Action struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Decode parses a push payload.
//
// It returns ErrUnknownType for payloads with a type not listed in this package.
func Decode(raw []byte) (Message, error) {
	env := Envelope{}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeExperimentProgress:
		return decodeAs[ExperimentProgress](raw)
	case TypeExperimentStatus:
		return decodeAs[ExperimentStatus](raw)
	case TypeQualityGate:
		return decodeAs[QualityGate](raw)
	case TypeNotification:
		return decodeAs[Notification](raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodeAs[T Message](raw []byte) (Message, error) {
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, err
	}
	return *v, nil
}

// ResourceType is a kind of resource which can be subscribed.
type ResourceType string

const (
	Experiment    ResourceType = "experiment"
	Dataset       ResourceType = "dataset"
	Notifications ResourceType = "notifications"
)

// Intent is a payload of "subscribe" and "unsubscribe" messages.
type Intent struct {
	Type ResourceType `json:"type"`
	Id   string       `json:"id,omitempty"`
}

// EventName returns the name of events pushed for the resource.
//
// It is "<type>:<id>" for experiments and datasets, and "notification" for notifications.
func (i Intent) EventName() string {
	if i.Type == Notifications {
		return "notification"
	}
	return string(i.Type) + ":" + i.Id
}

const (
	// name of messages to enroll to a resource
	Subscribe = "subscribe"

	// name of messages to leave from a resource
	Unsubscribe = "unsubscribe"
)
