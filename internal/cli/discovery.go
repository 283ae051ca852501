package cli

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wagiedev/mcp-toolbridge/internal/errors"
)

const (
	// ProxyBinary is the executable name searched for on PATH.
	ProxyBinary = "toolbridge-proxy"

	// VersionCheckTimeout is the timeout for the proxy version probe.
	VersionCheckTimeout = 2 * time.Second
)

// Config holds configuration for proxy executable discovery.
type Config struct {
	// ExplicitPath skips every other search location when set.
	ExplicitPath string

	// SkipVersionCheck skips the version probe.
	// Can also be controlled via the TOOLBRIDGE_SKIP_VERSION_CHECK env var.
	SkipVersionCheck bool

	// Logger is an optional logger for discovery operations.
	Logger *slog.Logger
}

// Discoverer locates the proxy executable.
type Discoverer interface {
	// Discover returns the absolute path to the proxy executable.
	Discover(ctx context.Context) (string, error)
}

type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &discoverer{
		cfg: cfg,
		log: log.With("component", "discovery"),
	}
}

// Discover locates the proxy executable and probes its version.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	path, err := d.find()
	if err != nil {
		d.log.Error("Failed to find proxy executable", "error", err)

		return "", err
	}

	d.log.Debug("Found proxy executable", "path", path)
	d.checkVersion(ctx, path)

	return path, nil
}

// find searches, in order: the explicit path, $TOOLBRIDGE_PROXY_PATH, PATH,
// the directory of the running executable, and common install directories.
func (d *discoverer) find() (string, error) {
	if d.cfg.ExplicitPath != "" {
		if isExecutable(d.cfg.ExplicitPath) {
			return d.cfg.ExplicitPath, nil
		}

		return "", &errors.ExecutableNotFoundError{Name: ProxyBinary, SearchedPaths: []string{d.cfg.ExplicitPath}}
	}

	searched := make([]string, 0, 6)

	if env := os.Getenv(EnvProxyPath); env != "" {
		if isExecutable(env) {
			return env, nil
		}

		searched = append(searched, env)
	}

	if path, err := exec.LookPath(ProxyBinary); err == nil {
		return path, nil
	}

	searched = append(searched, "$PATH")

	var candidates []string

	if self, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(self), ProxyBinary))
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, "go", "bin", ProxyBinary))
	}

	candidates = append(candidates, filepath.Join("/usr/local/bin", ProxyBinary))

	for _, path := range candidates {
		searched = append(searched, path)

		if isExecutable(path) {
			return path, nil
		}
	}

	d.log.Warn("Proxy executable not found", "searched_paths", searched)

	return "", &errors.ExecutableNotFoundError{Name: ProxyBinary, SearchedPaths: searched}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	return info.Mode()&0o111 != 0
}

var versionPattern = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+)`)

// checkVersion runs "<path> -version" and logs a warning when the proxy
// is older than this library. Probe failures are ignored.
func (d *discoverer) checkVersion(ctx context.Context, path string) {
	if d.cfg.SkipVersionCheck || os.Getenv(EnvSkipVersionCheck) != "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, VersionCheckTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		d.log.Debug("Proxy version check failed", "error", err)

		return
	}

	match := versionPattern.FindStringSubmatch(strings.TrimSpace(string(output)))
	if match == nil {
		d.log.Debug("Could not parse proxy version", "output", string(output))

		return
	}

	if compareVersions(match[1], Version) < 0 {
		d.log.Warn("Proxy executable is older than this library",
			"version", match[1],
			"expected", Version,
		)
	}
}

// compareVersions compares two semantic versions.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := range 3 {
		aNum := 0
		bNum := 0

		if i < len(aParts) {
			aNum, _ = strconv.Atoi(aParts[i])
		}

		if i < len(bParts) {
			bNum, _ = strconv.Atoi(bParts[i])
		}

		if aNum < bNum {
			return -1
		}

		if aNum > bNum {
			return 1
		}
	}

	return 0
}
