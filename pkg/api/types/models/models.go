package models

import "time"

type Type string

const (
	Base    Type = "base"
	Adapter Type = "adapter"
)

type Status string

const (
	Available  Status = "available"
	Deprecated Status = "deprecated"
	Training   Status = "training"
)

// Summary is an element of model listing.
type Summary struct {
	Id          string         `json:"id"`
	Name        string         `json:"name"`
	Type        Type           `json:"type"`
	BaseModelId string         `json:"baseModelId,omitempty"`
	Status      Status         `json:"status"`
	Config      map[string]any `json:"config,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (s Summary) ID() string { return s.Id }

// Detail is a response of GET /models/:id .
type Detail struct {
	Summary

	BaselineProbe     *BaselineProbe     `json:"baselineProbe,omitempty"`
	PromptContracts   []PromptContract   `json:"promptContracts"`
	EvaluationSummary *EvaluationSummary `json:"evaluationSummary,omitempty"`
	Metadata          Metadata           `json:"metadata"`
}

type Metadata struct {
	Parameters string `json:"parameters,omitempty"`
	Tokenizer  string `json:"tokenizer,omitempty"`
	Source     string `json:"source,omitempty"`
}

// BaselineProbe is a result of checking how a base model behaves before training.
type BaselineProbe struct {
	IsMultiCandidate      bool           `json:"isMultiCandidate"`
	HasExplanation        bool           `json:"hasExplanation"`
	FollowsOutputContract bool           `json:"followsOutputContract"`
	ProbedAt              time.Time      `json:"probedAt"`
	Details               map[string]any `json:"details,omitempty"`
}

type PromptContract struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	Template  string    `json:"template"`
	CreatedAt time.Time `json:"createdAt"`
}

type EvaluationSummary struct {
	LastEvaluatedAt time.Time `json:"lastEvaluatedAt"`
	AvgBLEU         float64   `json:"avgBLEU"`
	AvgROUGE        float64   `json:"avgROUGE"`
	AvgRIBES        float64   `json:"avgRIBES"`
	TrackResults    struct {
		Spoken  TrackMetrics `json:"spoken"`
		Written TrackMetrics `json:"written"`
	} `json:"trackResults"`
}

type TrackMetrics struct {
	BLEU      float64   `json:"bleu"`
	RougeL    float64   `json:"rougeL"`
	RIBES     float64   `json:"ribes"`
	GPTScores GPTScores `json:"gptScores"`
}

type GPTScores struct {
	Fluency  float64 `json:"fluency"`
	Adequacy float64 `json:"adequacy"`
	Accuracy float64 `json:"accuracy"`
	MQM      struct {
		Total  float64        `json:"total"`
		Errors map[string]int `json:"errors"`
	} `json:"mqm"`
}

// Spec is a request body of POST /models .
type Spec struct {
	Name        string         `json:"name"`
	Type        Type           `json:"type"`
	BaseModelId string         `json:"baseModelId,omitempty"`
	Config      map[string]any `json:"config"`
}
