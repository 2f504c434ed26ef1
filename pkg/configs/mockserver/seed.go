// Package mockserver loads the initial data of the mock server.
//
// A seed file is yaml. Its keys are the same as the JSON keys of API responses:
//
//	reports:
//	  - id: report-001
//	    experimentId: exp-001
//	    title: Model comparison
//	    type: comparison
//	    status: published
//	    createdAt: 2024-12-01T00:00:00Z
//	system:
//	  general:
//	    language: ja
//	preferences:
//	  user_id: user-001
//
// Sections not in the file are taken from Default().
package mockserver

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/opst/mlconsole/pkg/api/types/reports"
	"github.com/opst/mlconsole/pkg/api/types/settings"
	"gopkg.in/yaml.v3"
)

type Seed struct {
	Reports     []reports.Detail     `json:"reports"`
	System      settings.System      `json:"system"`
	Preferences settings.Preferences `json:"preferences"`
}

// LoadSeed reads a seed file.
func LoadSeed(path string, now time.Time) (Seed, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	return Unmarshal(buf, now)
}

// Unmarshal parses a seed in yaml, filling missing sections with Default(now).
func Unmarshal(buf []byte, now time.Time) (Seed, error) {
	tree := map[string]any{}
	if err := yaml.Unmarshal(buf, &tree); err != nil {
		return Seed{}, err
	}

	// yaml is converted into JSON once, so that json tags of API types are honored.
	j, err := json.Marshal(tree)
	if err != nil {
		return Seed{}, fmt.Errorf("seed cannot be converted: %w", err)
	}
	partial := struct {
		Reports     *[]reports.Detail     `json:"reports"`
		System      *settings.System      `json:"system"`
		Preferences *settings.Preferences `json:"preferences"`
	}{}
	if err := json.Unmarshal(j, &partial); err != nil {
		return Seed{}, fmt.Errorf("seed is malformed: %w", err)
	}

	seed := Default(now)
	if partial.Reports != nil {
		seed.Reports = *partial.Reports
	}
	if partial.System != nil {
		seed.System = *partial.System
	}
	if partial.Preferences != nil {
		seed.Preferences = *partial.Preferences
	}
	return seed, nil
}

// Default returns the built-in seed: 6 reports created in the last 6 days,
// and one set of system settings and user preferences.
func Default(now time.Time) Seed {
	day := 24 * time.Hour
	type row struct {
		title     string
		desc      string
		typ       reports.Type
		status    reports.Status
		published bool
		by        string
		tags      []string
	}
	rows := []row{
		{"Model performance comparison - 2024/12", "Performance comparison of multiple models", reports.ComparisonType, reports.Published, true, "Taro Yamada", []string{"comparison", "performance"}},
		{"Speech model performance analysis", "Detailed performance analysis of speech models", reports.Performance, reports.Published, true, "Hanako Sato", []string{"performance", "speech"}},
		{"Translation quality assessment (draft)", "Detailed assessment of machine translation quality", reports.Analysis, reports.Draft, false, "Ichiro Suzuki", []string{"analysis", "translation"}},
		{"Synthetic data impact analysis", "How synthetic data affects model performance", reports.Analysis, reports.Published, true, "Misaki Tanaka", []string{"synthetic", "analysis"}},
		{"Weekly summary - Week 51", "Summary of experiments in week 51", reports.SummaryType, reports.Published, true, "auto", []string{"summary", "weekly"}},
		{"GPT evaluation results (generating)", "Evaluation results with GPT-4", reports.Analysis, reports.Generating, false, "auto", []string{"gpt", "evaluation"}},
	}

	rs := make([]reports.Detail, 0, len(rows))
	for i, r := range rows {
		created := now.Add(-time.Duration(len(rows)-i) * day).UTC()
		var published *time.Time
		if r.published {
			p := created.Add(time.Hour)
			published = &p
		}
		rs = append(rs, reports.Detail{
			Summary: reports.Summary{
				Id:           fmt.Sprintf("report-%03d", i+1),
				ExperimentId: fmt.Sprintf("exp-%03d", i+1),
				Title:        r.title,
				Description:  r.desc,
				Type:         r.typ,
				Status:       r.status,
				CreatedAt:    created,
				PublishedAt:  published,
				CreatedBy:    r.by,
				Tags:         r.tags,
			},
		})
	}

	return Seed{
		Reports: rs,
		System: settings.System{
			General: settings.General{
				Language: "ja", Timezone: "Asia/Tokyo", Theme: "light", NotificationsEnabled: true,
			},
			Training: settings.Training{
				DefaultEpochs: 10, DefaultBatchSize: 32, DefaultLearningRate: 0.001,
				AutoSaveCheckpoints: true, CheckpointInterval: 5,
				EarlyStoppingEnabled: true, EarlyStoppingPatience: 3,
			},
			Evaluation: settings.Evaluation{
				DefaultMetrics: []string{"bleu", "rouge_l", "ribes"},
				EnableGPTEval:  true, GPTModel: "gpt-4-turbo",
				EnableHumanEval: false, ConfidenceThreshold: 0.8,
			},
			Storage: settings.Storage{
				DataRetentionDays: 90, AutoCleanupEnabled: true,
				MaxStorageGB: 1000, CurrentUsageGB: 456.78,
			},
			API: settings.API{
				BaseURL: "http://localhost:8001/api/v1", TimeoutSeconds: 30,
				RetryAttempts: 3, RateLimitPerMinute: 100,
			},
			Security: settings.Security{
				TwoFactorEnabled: false, SessionTimeoutMinutes: 30, PasswordExpiryDays: 90,
				IPWhitelist: []string{"10.0.0.0/24", "192.168.1.0/24"},
			},
		},
		Preferences: settings.Preferences{
			UserId: "user-001", Email: "user@example.com", DisplayName: "Taro Yamada",
			AvatarURL:          "https://example.com/avatar.jpg",
			EmailNotifications: true, DesktopNotifications: true, WeeklySummary: true,
			PreferredLanguage: "ja", ItemsPerPage: 20, DefaultView: "table",
		},
	}
}
