package evaluations

import "time"

type Track string

const (
	Spoken  Track = "spoken"
	Written Track = "written"
)

// Evaluation is an element of GET /evaluations .
type Evaluation struct {
	Id            string        `json:"id"`
	ExperimentId  string        `json:"experiment_id"`
	Track         Track         `json:"track"`
	Metrics       Metrics       `json:"metrics"`
	ErrorAnalysis ErrorAnalysis `json:"error_analysis"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (e Evaluation) ID() string { return e.Id }

type Metrics struct {
	BLEU     *float64 `json:"bleu,omitempty"`
	RougeL   *float64 `json:"rouge_l,omitempty"`
	RIBES    *float64 `json:"ribes,omitempty"`
	GPTEval1 *struct {
		Fluency  float64 `json:"fluency"`
		Adequacy float64 `json:"adequacy"`
		Accuracy float64 `json:"accuracy"`
	} `json:"gpt_eval_1,omitempty"`
	GPTEval2 *struct {
		MQMScore          float64        `json:"mqm_score"`
		ErrorDistribution map[string]int `json:"error_distribution"`
	} `json:"gpt_eval_2,omitempty"`
}

type ErrorAnalysis struct {
	TopErrors []struct {
		Type     string `json:"type"`
		Count    int    `json:"count"`
		Severity string `json:"severity"`
	} `json:"top_errors"`
	ErrorTypeDistribution map[string]int `json:"error_type_distribution"`
}
