package settings

// System is a response of GET /settings/system .
type System struct {
	General    General    `json:"general" yaml:"general"`
	Training   Training   `json:"training" yaml:"training"`
	Evaluation Evaluation `json:"evaluation" yaml:"evaluation"`
	Storage    Storage    `json:"storage" yaml:"storage"`
	API        API        `json:"api" yaml:"api"`
	Security   Security   `json:"security" yaml:"security"`
}

type General struct {
	Language             string `json:"language" yaml:"language"`
	Timezone             string `json:"timezone" yaml:"timezone"`
	Theme                string `json:"theme" yaml:"theme"`
	NotificationsEnabled bool   `json:"notifications_enabled" yaml:"notifications_enabled"`
}

type Training struct {
	DefaultEpochs         int     `json:"default_epochs" yaml:"default_epochs"`
	DefaultBatchSize      int     `json:"default_batch_size" yaml:"default_batch_size"`
	DefaultLearningRate   float64 `json:"default_learning_rate" yaml:"default_learning_rate"`
	AutoSaveCheckpoints   bool    `json:"auto_save_checkpoints" yaml:"auto_save_checkpoints"`
	CheckpointInterval    int     `json:"checkpoint_interval" yaml:"checkpoint_interval"`
	EarlyStoppingEnabled  bool    `json:"early_stopping_enabled" yaml:"early_stopping_enabled"`
	EarlyStoppingPatience int     `json:"early_stopping_patience" yaml:"early_stopping_patience"`
}

type Evaluation struct {
	DefaultMetrics      []string `json:"default_metrics" yaml:"default_metrics"`
	EnableGPTEval       bool     `json:"enable_gpt_eval" yaml:"enable_gpt_eval"`
	GPTModel            string   `json:"gpt_model" yaml:"gpt_model"`
	EnableHumanEval     bool     `json:"enable_human_eval" yaml:"enable_human_eval"`
	ConfidenceThreshold float64  `json:"confidence_threshold" yaml:"confidence_threshold"`
}

type Storage struct {
	DataRetentionDays  int     `json:"data_retention_days" yaml:"data_retention_days"`
	AutoCleanupEnabled bool    `json:"auto_cleanup_enabled" yaml:"auto_cleanup_enabled"`
	MaxStorageGB       float64 `json:"max_storage_gb" yaml:"max_storage_gb"`
	CurrentUsageGB     float64 `json:"current_usage_gb" yaml:"current_usage_gb"`
}

type API struct {
	BaseURL            string `json:"base_url" yaml:"base_url"`
	TimeoutSeconds     int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	RetryAttempts      int    `json:"retry_attempts" yaml:"retry_attempts"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
}

type Security struct {
	TwoFactorEnabled      bool     `json:"two_factor_enabled" yaml:"two_factor_enabled"`
	SessionTimeoutMinutes int      `json:"session_timeout_minutes" yaml:"session_timeout_minutes"`
	PasswordExpiryDays    int      `json:"password_expiry_days" yaml:"password_expiry_days"`
	IPWhitelist           []string `json:"ip_whitelist" yaml:"ip_whitelist"`
}

// SystemChange is a request body of PUT /settings/system .
//
// Each non-nil section replaces the whole section.
type SystemChange struct {
	General    *General    `json:"general,omitempty"`
	Training   *Training   `json:"training,omitempty"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
	Storage    *Storage    `json:"storage,omitempty"`
	API        *API        `json:"api,omitempty"`
	Security   *Security   `json:"security,omitempty"`
}

// Apply returns a copy of s with sections in c replaced.
func (s System) Apply(c SystemChange) System {
	if c.General != nil {
		s.General = *c.General
	}
	if c.Training != nil {
		s.Training = *c.Training
	}
	if c.Evaluation != nil {
		s.Evaluation = *c.Evaluation
	}
	if c.Storage != nil {
		s.Storage = *c.Storage
	}
	if c.API != nil {
		s.API = *c.API
	}
	if c.Security != nil {
		s.Security = *c.Security
	}
	return s
}

// Preferences is a response of GET /settings/preferences .
type Preferences struct {
	UserId               string `json:"user_id" yaml:"user_id"`
	Email                string `json:"email" yaml:"email"`
	DisplayName          string `json:"display_name" yaml:"display_name"`
	AvatarURL            string `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
	EmailNotifications   bool   `json:"email_notifications" yaml:"email_notifications"`
	DesktopNotifications bool   `json:"desktop_notifications" yaml:"desktop_notifications"`
	WeeklySummary        bool   `json:"weekly_summary" yaml:"weekly_summary"`
	PreferredLanguage    string `json:"preferred_language" yaml:"preferred_language"`
	ItemsPerPage         int    `json:"items_per_page" yaml:"items_per_page"`
	DefaultView          string `json:"default_view" yaml:"default_view"`
}

// PreferencesChange is a request body of PUT /settings/preferences . Nil fields are left as is.
type PreferencesChange struct {
	Email                *string `json:"email,omitempty"`
	DisplayName          *string `json:"display_name,omitempty"`
	AvatarURL            *string `json:"avatar_url,omitempty"`
	EmailNotifications   *bool   `json:"email_notifications,omitempty"`
	DesktopNotifications *bool   `json:"desktop_notifications,omitempty"`
	WeeklySummary        *bool   `json:"weekly_summary,omitempty"`
	PreferredLanguage    *string `json:"preferred_language,omitempty"`
	ItemsPerPage         *int    `json:"items_per_page,omitempty"`
	DefaultView          *string `json:"default_view,omitempty"`
}

// Apply returns a copy of p with non-nil fields of c applied.
func (p Preferences) Apply(c PreferencesChange) Preferences {
	set(&p.Email, c.Email)
	set(&p.DisplayName, c.DisplayName)
	set(&p.AvatarURL, c.AvatarURL)
	set(&p.EmailNotifications, c.EmailNotifications)
	set(&p.DesktopNotifications, c.DesktopNotifications)
	set(&p.WeeklySummary, c.WeeklySummary)
	set(&p.PreferredLanguage, c.PreferredLanguage)
	set(&p.ItemsPerPage, c.ItemsPerPage)
	set(&p.DefaultView, c.DefaultView)
	return p
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// ConnectionTest is a response of POST /settings/test-connection .
type ConnectionTest struct {
	Success bool `json:"success"`
	Latency int  `json:"latency"`
}

// Cleanup is a response of POST /settings/cleanup-storage .
type Cleanup struct {
	DeletedItems int     `json:"deletedItems"`
	FreedSpace   float64 `json:"freedSpace"`
}
