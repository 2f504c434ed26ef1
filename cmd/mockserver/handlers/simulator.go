package handlers

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/opst/mlconsole/pkg/api/types/events"
	"github.com/opst/mlconsole/pkg/api/types/experiments"
)

// Simulator pushes training progress of experiments subscribed on a Hub.
//
// Each subscribed experiment advances one epoch per Step. When it reaches the
// last epoch, it is completed and a notification is published.
type Simulator struct {
	hub           *Hub
	totalEpochs   int
	stepsPerEpoch int
	now           func() time.Time
	logger        echo.Logger

	runs map[string]*simulatedRun
}

type simulatedRun struct {
	epoch int
	seq   uint64
	done  bool
}

func NewSimulator(hub *Hub, totalEpochs int, now func() time.Time, logger echo.Logger) *Simulator {
	if totalEpochs < 1 {
		totalEpochs = 1
	}
	return &Simulator{
		hub:           hub,
		totalEpochs:   totalEpochs,
		stepsPerEpoch: 100,
		now:           now,
		logger:        logger,
		runs:          map[string]*simulatedRun{},
	}
}

// Run calls Step every interval until ctx is done.
func (s *Simulator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step(interval)
		}
	}
}

// Step advances every subscribed experiment by one epoch.
//
// interval is used to estimate the remaining time.
// Step must not be called concurrently.
func (s *Simulator) Step(interval time.Duration) {
	for _, id := range s.hub.Subscribed(events.Experiment) {
		r, ok := s.runs[id]
		if !ok {
			r = &simulatedRun{}
			s.runs[id] = r
		}
		if r.done {
			continue
		}
		s.advance(id, r, interval)
	}
}

func (s *Simulator) advance(id string, r *simulatedRun, interval time.Duration) {
	topic := events.Intent{Type: events.Experiment, Id: id}.EventName()
	now := s.now()

	if r.epoch == 0 {
		r.seq += 1
		s.publish(topic, events.ExperimentStatus{
			Envelope:     events.Envelope{Type: events.TypeExperimentStatus, Seq: r.seq, Timestamp: &now},
			ExperimentId: id,
			Status:       experiments.Running,
		})
	}

	r.epoch += 1
	r.seq += 1
	remaining := time.Duration(s.totalEpochs-r.epoch) * interval
	s.publish(topic, events.ExperimentProgress{
		Envelope:     events.Envelope{Type: events.TypeExperimentProgress, Seq: r.seq, Timestamp: &now},
		ExperimentId: id,
		Data: events.ProgressData{
			Epoch:       r.epoch,
			TotalEpochs: s.totalEpochs,
			Step:        r.epoch * s.stepsPerEpoch,
			TotalSteps:  s.totalEpochs * s.stepsPerEpoch,
			Loss:        loss(r.epoch),
			GPUUtil:     70 + float64((r.epoch*7)%25),
			ETA:         remaining.String(),
		},
	})

	if r.epoch < s.totalEpochs {
		return
	}

	r.done = true
	r.seq += 1
	s.publish(topic, events.ExperimentStatus{
		Envelope:     events.Envelope{Type: events.TypeExperimentStatus, Seq: r.seq, Timestamp: &now},
		ExperimentId: id,
		Status:       experiments.Completed,
		Metrics:      map[string]float64{"loss": loss(r.epoch)},
	})
	s.publish(events.Intent{Type: events.Notifications}.EventName(), events.Notification{
		Envelope: events.Envelope{Type: events.TypeNotification, Timestamp: &now},
		Level:    events.Success,
		Title:    "Training completed",
		Message:  fmt.Sprintf("experiment %s completed %d epochs", id, s.totalEpochs),
	})
}

func (s *Simulator) publish(topic string, payload any) {
	if _, err := s.hub.Publish(topic, payload); err != nil {
		s.logger.Errorf("simulator: cannot publish to %s: %s", topic, err)
	}
}

// loss decays from 2.0 by 20% each epoch, rounded to 4 digits.
func loss(epoch int) float64 {
	return math.Round(2.0*math.Pow(0.8, float64(epoch))*1e4) / 1e4
}
