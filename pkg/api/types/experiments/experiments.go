package experiments

import (
	"fmt"
	"time"
)

type Status string

const (
	Pending   Status = "pending"
	Running   Status = "running"
	Completed Status = "completed"
	Failed    Status = "failed"
	Stopped   Status = "stopped"
)

// Terminal tells that no more progress is expected for an experiment in this status.
func (s Status) Terminal() bool {
	switch s {
	case Completed, Failed, Stopped:
		return true
	default:
		return false
	}
}

func AsStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case Pending, Running, Completed, Failed, Stopped:
		return st, nil
	default:
		return "", fmt.Errorf("unknown experiment status: %q", s)
	}
}

// Summary is an element of experiment listing.
type Summary struct {
	Id          string     `json:"id"`
	Name        string     `json:"name"`
	Task        string     `json:"task"`
	Direction   string     `json:"direction"`
	BaseModelId string     `json:"baseModelId"`
	AdapterId   string     `json:"adapterId,omitempty"`
	DatasetId   string     `json:"datasetId"`
	Status      Status     `json:"status"`
	BestScore   *float64   `json:"bestScore,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (s Summary) ID() string { return s.Id }

// Detail is a response of GET /experiments/:id .
type Detail struct {
	Summary

	Config      Config      `json:"config"`
	Progress    *Progress   `json:"progress,omitempty"`
	Logs        []LogEntry  `json:"logs"`
	Predictions *Prediction `json:"predictions,omitempty"`
	Evaluation  *Evaluation `json:"evaluation,omitempty"`
}

type Config struct {
	DatasetVersion   int            `json:"datasetVersion"`
	PromptContractId string         `json:"promptContractId"`
	TrainingRecipe   TrainingRecipe `json:"trainingRecipe"`
	Seed             int64          `json:"seed"`
	Environment      map[string]any `json:"environment,omitempty"`
}

type TrainingRecipe struct {
	LoRA *struct {
		R             int      `json:"r"`
		Alpha         int      `json:"alpha"`
		Dropout       float64  `json:"dropout"`
		TargetModules []string `json:"targetModules"`
	} `json:"loraConfig,omitempty"`
	BatchSize    int     `json:"batchSize"`
	LearningRate float64 `json:"learningRate"`
	Epochs       int     `json:"epochs"`
	WarmupSteps  int     `json:"warmupSteps"`
	Optimizer    string  `json:"optimizer"`
}

// Progress is a snapshot of training progress.
type Progress struct {
	CurrentEpoch   int       `json:"currentEpoch"`
	TotalEpochs    int       `json:"totalEpochs"`
	CurrentStep    int       `json:"currentStep"`
	TotalSteps     int       `json:"totalSteps"`
	Loss           float64   `json:"loss"`
	GPUUtilization float64   `json:"gpuUtilization"`
	ETA            string    `json:"eta"`
	LastUpdate     time.Time `json:"lastUpdate"`
}

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

type Prediction struct {
	TestSetId      string `json:"testSetId"`
	DecodingConfig struct {
		Strategy    string   `json:"strategy"`
		BeamSize    *int     `json:"beamSize,omitempty"`
		Temperature *float64 `json:"temperature,omitempty"`
	} `json:"decodingConfig"`
	Predictions []struct {
		Source     string `json:"source"`
		Prediction string `json:"prediction"`
		Reference  string `json:"reference"`
	} `json:"predictions"`
	SavedAt time.Time `json:"savedAt"`
}

type Evaluation struct {
	Id           string    `json:"id"`
	ExperimentId string    `json:"experimentId"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Spec is a request body of POST /experiments .
type Spec struct {
	Name        string `json:"name"`
	Task        string `json:"task"`
	Direction   string `json:"direction"`
	BaseModelId string `json:"baseModelId"`
	AdapterId   string `json:"adapterId,omitempty"`
	DatasetId   string `json:"datasetId"`
	Config      Config `json:"config"`
}
