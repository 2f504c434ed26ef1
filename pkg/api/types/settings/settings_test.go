package settings_test

import (
	"testing"

	"github.com/opst/mlconsole/pkg/api/types/settings"
	"github.com/opst/mlconsole/pkg/cmp"
)

func TestSystemApply(t *testing.T) {
	before := settings.System{
		General:  settings.General{Language: "ja", Timezone: "Asia/Tokyo", Theme: "light"},
		Training: settings.Training{DefaultEpochs: 10, DefaultBatchSize: 32},
		Security: settings.Security{IPWhitelist: []string{"10.0.0.0/8"}},
	}

	after := before.Apply(settings.SystemChange{
		Training: &settings.Training{DefaultEpochs: 3},
	})

	if after.Training.DefaultEpochs != 3 || after.Training.DefaultBatchSize != 0 {
		t.Errorf("training section is not replaced as a whole: %+v", after.Training)
	}
	if after.General != before.General {
		t.Errorf("untouched section is changed: %+v", after.General)
	}
	if !cmp.SliceEq(after.Security.IPWhitelist, before.Security.IPWhitelist) {
		t.Errorf("untouched section is changed: %+v", after.Security)
	}
	if before.Training.DefaultEpochs != 10 {
		t.Errorf("receiver is modified: %+v", before.Training)
	}
}

func TestPreferencesApply(t *testing.T) {
	before := settings.Preferences{
		UserId: "user-001", DisplayName: "before", ItemsPerPage: 20, WeeklySummary: true,
	}
	name := "after"
	off := false

	after := before.Apply(settings.PreferencesChange{DisplayName: &name, WeeklySummary: &off})

	expected := settings.Preferences{
		UserId: "user-001", DisplayName: "after", ItemsPerPage: 20, WeeklySummary: false,
	}
	if after != expected {
		t.Errorf("got %+v, want %+v", after, expected)
	}
}
