// Package settings provides configuration loading for devpilot.
// It is separate from the cli package so guardrail packages can import it
// without an import cycle.
package settings

import (
	"encoding/json"
	"fmt"
	"os"

	"devpilot.io/cli/cmd/devpilot/cli/jsonutil"
	"devpilot.io/cli/cmd/devpilot/cli/paths"
	"devpilot.io/cli/cmd/devpilot/cli/patch"
)

const (
	// DevpilotSettingsFile is the path to the repo settings file.
	DevpilotSettingsFile = ".devpilot/settings.json"
	// DevpilotSettingsLocalFile is the path to the local override file (not committed).
	DevpilotSettingsLocalFile = ".devpilot/settings.local.json"
)

// GuardrailSettings overrides the built-in patch guardrail defaults.
// Empty slices and zero limits mean "use the default".
type GuardrailSettings struct {
	AllowedPrefixes []string `json:"allowed_prefixes,omitempty"`
	BlockedPrefixes []string `json:"blocked_prefixes,omitempty"`
	HighRiskFiles   []string `json:"high_risk_files,omitempty"`
	MaxChangedFiles int      `json:"max_changed_files,omitempty"`
	MaxTotalLines   int      `json:"max_total_lines,omitempty"`
}

// TrackerSettings configures the issue tracker connection. The API token
// comes from the environment, never from this file.
type TrackerSettings struct {
	BaseURL string `json:"base_url,omitempty"`
	User    string `json:"user,omitempty"`
}

// ReviewSettings configures the merge request host.
type ReviewSettings struct {
	BaseURL   string `json:"base_url,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	// TargetBranch is the branch merge requests target. Defaults to "main".
	TargetBranch string `json:"target_branch,omitempty"`
}

// DevpilotSettings represents the .devpilot/settings.json configuration.
type DevpilotSettings struct {
	// Enabled indicates whether devpilot is active in this repository.
	// Defaults to true.
	Enabled bool `json:"enabled"`

	// LogLevel sets the logging verbosity (debug, info, warn, error).
	// Can be overridden by DEVPILOT_LOG_LEVEL. Defaults to "info".
	LogLevel string `json:"log_level,omitempty"`

	// Guardrails overrides the patch risk limits and path prefixes.
	Guardrails GuardrailSettings `json:"guardrails,omitempty"`

	Tracker TrackerSettings `json:"tracker,omitempty"`
	Review  ReviewSettings  `json:"review,omitempty"`

	// DeploySteps is the repo-relative path to the QA steps file.
	DeploySteps string `json:"deploy_steps,omitempty"`

	// Telemetry controls anonymous usage analytics.
	// nil = not configured (disabled), true = opted in, false = opted out.
	Telemetry *bool `json:"telemetry,omitempty"`
}

// Load loads settings from .devpilot/settings.json, then applies overrides
// from .devpilot/settings.local.json if it exists. Returns defaults when
// neither file exists. Works from any subdirectory of the repository.
func Load() (*DevpilotSettings, error) {
	settingsFileAbs, err := paths.AbsPath(DevpilotSettingsFile)
	if err != nil {
		settingsFileAbs = DevpilotSettingsFile
	}
	localFileAbs, err := paths.AbsPath(DevpilotSettingsLocalFile)
	if err != nil {
		localFileAbs = DevpilotSettingsLocalFile
	}

	settings, err := loadFromFile(settingsFileAbs)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	localData, err := os.ReadFile(localFileAbs) //nolint:gosec // path is from AbsPath or constant
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading local settings file: %w", err)
		}
	} else {
		if err := json.Unmarshal(localData, settings); err != nil {
			return nil, fmt.Errorf("parsing local settings file: %w", err)
		}
	}

	return settings, nil
}

func loadFromFile(filePath string) (*DevpilotSettings, error) {
	settings := &DevpilotSettings{Enabled: true}

	data, err := os.ReadFile(filePath) //nolint:gosec // path is from caller
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("%w", err)
	}

	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}
	return settings, nil
}

// Save writes the settings file under the repository root.
func Save(s *DevpilotSettings) error {
	path, err := paths.AbsPath(DevpilotSettingsFile)
	if err != nil {
		return err
	}
	if err := jsonutil.WriteFileAtomic(path, s); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// RiskConfig builds the effective guardrail configuration: defaults with any
// configured overrides applied on top.
func (s *DevpilotSettings) RiskConfig() patch.RiskConfig {
	cfg := patch.DefaultRiskConfig()
	g := s.Guardrails
	if len(g.AllowedPrefixes) > 0 {
		cfg.AllowedPrefixes = g.AllowedPrefixes
	}
	if len(g.BlockedPrefixes) > 0 {
		cfg.BlockedPrefixes = g.BlockedPrefixes
	}
	if len(g.HighRiskFiles) > 0 {
		cfg.HighRiskFiles = g.HighRiskFiles
	}
	if g.MaxChangedFiles > 0 {
		cfg.MaxChangedFiles = g.MaxChangedFiles
	}
	if g.MaxTotalLines > 0 {
		cfg.MaxTotalLines = g.MaxTotalLines
	}
	return cfg
}

// TargetBranch returns the configured MR target branch, defaulting to main.
func (s *DevpilotSettings) TargetBranch() string {
	if s.Review.TargetBranch != "" {
		return s.Review.TargetBranch
	}
	return "main"
}
