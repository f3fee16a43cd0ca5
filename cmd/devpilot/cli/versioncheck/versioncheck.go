// Package versioncheck notifies the user when a newer CLI release exists.
package versioncheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"devpilot.io/cli/cmd/devpilot/cli/jsonutil"
	"devpilot.io/cli/cmd/devpilot/cli/logging"
	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

// CheckAndNotify performs a version check and notifies the user if a newer
// version is available. Silent on all errors so it never interrupts CLI
// operations.
func CheckAndNotify(cmd *cobra.Command, currentVersion string) {
	if cmd.Hidden {
		return
	}

	// Skip checks for dev builds
	if currentVersion == "dev" || currentVersion == "" {
		return
	}

	if err := ensureGlobalConfigDir(); err != nil {
		return
	}

	cache, err := loadCache()
	if err != nil {
		cache = &VersionCache{}
	}

	// Skip if we checked recently (within 24 hours)
	if time.Since(cache.LastCheckTime) < checkInterval {
		return
	}

	latestVersion, err := fetchLatestVersion()

	// Always update cache to avoid retrying on every CLI invocation
	cache.LastCheckTime = time.Now()
	if saveErr := saveCache(cache); saveErr != nil {
		logging.Debug(context.Background(), "version check: failed to save cache",
			"error", saveErr.Error())
	}

	if err != nil {
		logging.Debug(context.Background(), "version check: failed to fetch latest version",
			"error", err.Error())
		return
	}

	if isOutdated(currentVersion, latestVersion) {
		printNotification(cmd, currentVersion, latestVersion)
	}
}

// globalConfigDirPath returns the expanded path to ~/.config/devpilot.
func globalConfigDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, globalConfigDirName), nil
}

func ensureGlobalConfigDir() error {
	configDir, err := globalConfigDirPath()
	if err != nil {
		return err
	}

	//nolint:gosec // ~/.config/devpilot is user home directory, 0o755 is appropriate
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return nil
}

func cacheFilePath() (string, error) {
	configDir, err := globalConfigDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, cacheFileName), nil
}

func loadCache() (*VersionCache, error) {
	filePath, err := cacheFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath) //nolint:gosec // cacheFilePath is safe
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	var cache VersionCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("parsing cache: %w", err)
	}

	return &cache, nil
}

func saveCache(cache *VersionCache) error {
	filePath, err := cacheFilePath()
	if err != nil {
		return err
	}
	return jsonutil.WriteFileAtomic(filePath, cache)
}

// fetchLatestVersion fetches the latest release tag from the GitHub API.
func fetchLatestVersion() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubAPIURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "devpilot-cli")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// Limit to 1MB to prevent memory exhaustion
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	version, err := parseGitHubRelease(body)
	if err != nil {
		return "", fmt.Errorf("parsing release: %w", err)
	}

	return version, nil
}

// parseGitHubRelease extracts the latest stable version, filtering prereleases.
func parseGitHubRelease(body []byte) (string, error) {
	var release GitHubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return "", fmt.Errorf("parsing JSON: %w", err)
	}

	if release.Prerelease {
		return "", errors.New("only prerelease versions available")
	}

	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}

	return release.TagName, nil
}

// isOutdated reports whether current < latest under semver ordering.
func isOutdated(current, latest string) bool {
	if !strings.HasPrefix(current, "v") {
		current = "v" + current
	}
	if !strings.HasPrefix(latest, "v") {
		latest = "v" + latest
	}

	return semver.Compare(current, latest) < 0
}

func printNotification(cmd *cobra.Command, current, latest string) {
	msg := fmt.Sprintf("\nA newer version of devpilot is available: %s (current: %s)\nRun 'curl -fsSL https://devpilot.io/install.sh | bash' to update.\n",
		latest, current)
	fmt.Fprint(cmd.OutOrStdout(), msg)
}
