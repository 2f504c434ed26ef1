package datasets

import "time"

type Type string

const (
	Human     Type = "human"
	Synthetic Type = "synthetic"
	Mixed     Type = "mixed"
)

type Status string

const (
	Draft   Status = "draft"
	Passed  Status = "passed"
	Blocked Status = "blocked"
)

// Summary is an element of dataset listing.
type Summary struct {
	Id                string    `json:"id"`
	Name              string    `json:"name"`
	Version           int       `json:"version"`
	Type              Type      `json:"type"`
	LanguageDirection string    `json:"languageDirection"`
	Scene             string    `json:"scene"`
	Status            Status    `json:"status"`
	ParentId          string    `json:"parentId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (s Summary) ID() string { return s.Id }

// Detail is a response of GET /datasets/:id .
type Detail struct {
	Summary

	Overview     Overview          `json:"overview"`
	QualityGate  QualityGateResult `json:"qualityGate"`
	UsageHistory []ExperimentUsage `json:"usageHistory"`
}

type Overview struct {
	TotalCount         int     `json:"totalCount"`
	AvgSentenceLength  float64 `json:"avgSentenceLength"`
	ShortSentenceRatio float64 `json:"shortSentenceRatio"`
	CodeSwitchRatio    float64 `json:"codeSwitchRatio"`
}

type GateStatus string

const (
	GatePassed  GateStatus = "passed"
	GateFailed  GateStatus = "failed"
	GatePending GateStatus = "pending"
)

type QualityGateResult struct {
	Status    GateStatus `json:"status"`
	CheckedAt *time.Time `json:"checkedAt,omitempty"`
	Metrics   struct {
		AlignmentRate       float64 `json:"alignmentRate"`
		DuplicateRate       float64 `json:"duplicateRate"`
		LanguageConsistency float64 `json:"languageConsistency"`
	} `json:"metrics"`
	SamplingReview *SamplingReview `json:"samplingReview,omitempty"`
	BlockReasons   []string        `json:"blockReasons,omitempty"`
}

type SamplingReview struct {
	ReviewedBy string    `json:"reviewedBy"`
	ReviewedAt time.Time `json:"reviewedAt"`
	SampleSize int       `json:"sampleSize"`
	PassRate   float64   `json:"passRate"`
	Comments   string    `json:"comments"`
}

type ExperimentUsage struct {
	ExperimentId   string    `json:"experimentId"`
	ExperimentName string    `json:"experimentName"`
	UsedAt         time.Time `json:"usedAt"`
	Performance    float64   `json:"performance"`
}

// UploadMetadata goes with a dataset file on POST /datasets .
type UploadMetadata struct {
	Name              string `json:"name"`
	Type              Type   `json:"type"`
	LanguageDirection string `json:"languageDirection"`
	Scene             string `json:"scene"`
}

// Review is a request body of POST /datasets/:id/review .
type Review struct {
	SampleSize int     `json:"sampleSize"`
	PassRate   float64 `json:"passRate"`
	Comments   string  `json:"comments"`
}

// GenerateConfig is a request of synthetic dataset generation.
type GenerateConfig struct {
	Task       string `json:"task"`
	Direction  string `json:"direction"`
	Scene      string `json:"scene"`
	SeedSource struct {
		Type string `json:"type"`
		Id   string `json:"id,omitempty"`
	} `json:"seedSource"`
	Strategy struct {
		SpokenRatio                float64 `json:"spokenRatio"`
		SentenceLengthDistribution struct {
			Short  float64 `json:"short"`
			Medium float64 `json:"medium"`
			Long   float64 `json:"long"`
		} `json:"sentenceLengthDistribution"`
		Model string `json:"model"`
	} `json:"strategy"`
	TargetCount int `json:"targetCount"`
}

type GenerateEstimate struct {
	TotalTokens   int     `json:"totalTokens"`
	EstimatedCost float64 `json:"estimatedCost"`
	EstimatedTime string  `json:"estimatedTime"`
}

type GenerateTask struct {
	TaskId string `json:"taskId"`
}
