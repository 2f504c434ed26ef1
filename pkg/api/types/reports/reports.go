package reports

import "time"

type Type string

const (
	Performance    Type = "performance"
	ComparisonType Type = "comparison"
	Analysis       Type = "analysis"
	SummaryType    Type = "summary"
)

type Status string

const (
	Draft      Status = "draft"
	Published  Status = "published"
	Generating Status = "generating"
)

// Summary is an element of report listing.
type Summary struct {
	Id           string     `json:"id"`
	ExperimentId string     `json:"experimentId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Type         Type       `json:"type"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	CreatedBy    string     `json:"createdBy"`
	Tags         []string   `json:"tags,omitempty"`
}

func (s Summary) ID() string { return s.Id }

// Detail is a response of GET /reports/:id .
//
// Servers may omit every field other than Summary's ones.
type Detail struct {
	Summary

	Digest                *Digest          `json:"summary,omitempty"`
	Comparison            *Comparison      `json:"comparison,omitempty"`
	SyntheticDataAnalysis *SyntheticImpact `json:"syntheticDataAnalysis,omitempty"`
	MetricsSummary        *MetricsSummary  `json:"metricsSummary,omitempty"`
	Charts                []Chart          `json:"charts,omitempty"`
	Conclusions           []string         `json:"conclusions,omitempty"`
	Recommendations       []string         `json:"recommendations,omitempty"`
	NextSteps             []string         `json:"nextSteps,omitempty"`
}

type Digest struct {
	Changes      []string `json:"changes"`
	Improvements []Delta  `json:"improvements"`
	Regressions  []Delta  `json:"regressions"`
}

type Delta struct {
	Metric string  `json:"metric"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason,omitempty"`
}

type Comparison struct {
	BaselineExperimentId string `json:"baselineExperimentId"`
	CurrentExperimentId  string `json:"currentExperimentId"`
	Differences          struct {
		Config  map[string]ConfigDiff `json:"config"`
		Metrics map[string]Delta      `json:"metrics"`
	} `json:"differences"`
}

type ConfigDiff struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

type SyntheticImpact struct {
	SyntheticRatio    float64 `json:"syntheticRatio"`
	PerformanceChange float64 `json:"performanceChange"`
	QualityAssessment string  `json:"qualityAssessment"`
	Recommendation    string  `json:"recommendation"`
}

type MetricsSummary struct {
	AvgBLEU         *float64 `json:"avgBleu,omitempty"`
	AvgRougeL       *float64 `json:"avgRougeL,omitempty"`
	AvgRIBES        *float64 `json:"avgRibes,omitempty"`
	BestModel       string   `json:"bestModel,omitempty"`
	ImprovementRate *float64 `json:"improvementRate,omitempty"`
}

type Chart struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Data  any    `json:"data"`
}

// Spec is a request body of POST /reports .
type Spec struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Type         Type   `json:"type"`
	ExperimentId string `json:"experimentId"`
}

// Change is a request body of PUT /reports/:id . Nil fields are left as is.
type Change struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Type        *Type    `json:"type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type ExportFormat string

const (
	PDF  ExportFormat = "pdf"
	DOCX ExportFormat = "docx"
	HTML ExportFormat = "html"
)
