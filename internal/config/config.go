// Package config loads the YAML configuration of the navigation layer.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/core/params"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Log   LogConfig   `yaml:"log"`
	Build BuildConfig `yaml:"build"`
	Crowd CrowdConfig `yaml:"crowd"`
	Paths PathsConfig `yaml:"paths"`
}

type LogConfig struct {
	// Level gates the zap logger: debug, info, warn, error or silent.
	Level string `yaml:"level"`
	// Journal gates the diagnostic journal returned by GetLog.
	Journal string `yaml:"journal"`
	// Format is json or console.
	Format string `yaml:"format"`
	// Output lists log destinations. Empty means stderr.
	Output []string `yaml:"output,omitempty"`
}

type BuildConfig struct {
	Partition string `yaml:"partition"`
	// Settings uses the keys of the settings map, e.g. cellSize.
	Settings map[string]float32 `yaml:"settings,omitempty"`
}

type CrowdConfig struct {
	MaxAgents      int     `yaml:"max_agents"`
	MaxAgentRadius float32 `yaml:"max_agent_radius"`
	// Agent overrides the default agent parameters, e.g. maxSpeed.
	Agent map[string]float32 `yaml:"agent,omitempty"`
}

type PathsConfig struct {
	Workers int `yaml:"workers"`
}

func Default() Config {
	return Config{
		Log:   LogConfig{Level: "info", Journal: "info", Format: "json"},
		Build: BuildConfig{Partition: navigation.PartitionWatershed.String()},
		Crowd: CrowdConfig{MaxAgents: 128, MaxAgentRadius: 2},
		Paths: PathsConfig{Workers: 4},
	}
}

// Load decodes YAML from r over the defaults and validates the result. An
// empty document yields the defaults.
func Load(r io.Reader) (Config, error) {
	c := Default()
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return Load(f)
}

var (
	levels  = []string{"debug", "info", "warn", "warning", "error", "silent", "off"}
	formats = []string{"json", "console"}
)

// Validate reports every problem of c at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if !slices.Contains(levels, c.Log.Level) {
		bad("log.level %q is not one of %v", c.Log.Level, levels)
	}
	if !slices.Contains(levels, c.Log.Journal) {
		bad("log.journal %q is not one of %v", c.Log.Journal, levels)
	}
	if !slices.Contains(formats, c.Log.Format) {
		bad("log.format %q is not one of %v", c.Log.Format, formats)
	}
	if _, err := navigation.ParsePartitionType(c.Build.Partition); err != nil {
		bad("build.partition: %v", err)
	}
	known := params.SettingsMap(navigation.DefaultBuildSettings())
	for _, k := range sortedKeys(c.Build.Settings) {
		if _, ok := known[k]; !ok {
			bad("build.settings: unknown key %q", k)
		}
	}
	if c.Crowd.MaxAgents <= 0 {
		bad("crowd.max_agents must be positive, got %d", c.Crowd.MaxAgents)
	}
	if !physics.IsFinite(c.Crowd.MaxAgentRadius) || c.Crowd.MaxAgentRadius <= 0 {
		bad("crowd.max_agent_radius must be positive, got %v", c.Crowd.MaxAgentRadius)
	}
	agentKeys := params.AgentParamsMap(params.DefaultAgentParams())
	for _, k := range sortedKeys(c.Crowd.Agent) {
		if _, ok := agentKeys[k]; !ok {
			bad("crowd.agent: unknown key %q", k)
		}
	}
	if c.Paths.Workers < 0 {
		bad("paths.workers must not be negative, got %d", c.Paths.Workers)
	}
	return errors.Join(errs...)
}

// BuildSettings returns the default build settings overlaid with the
// configured partition and settings.
func (c Config) BuildSettings() navigation.BuildSettings {
	s := navigation.DefaultBuildSettings()
	if p, err := navigation.ParsePartitionType(c.Build.Partition); err == nil {
		s.PartitionType = p
	}
	params.ParseSettings(c.Build.Settings).ApplyTo(&s)
	return s
}

// AgentParams returns the configured overrides of the default agent
// parameters.
func (c Config) AgentParams() params.AgentParamsPatch {
	return params.ParseAgentParams(c.Crowd.Agent)
}

func (c Config) LogLevel() log.Level {
	return log.ParseLevel(c.Log.Level)
}

func (c Config) JournalLevel() log.Level {
	return log.ParseLevel(c.Log.Journal)
}

func (c Config) LoggerOptions() log.Options {
	return log.Options{Level: c.LogLevel(), Format: c.Log.Format, Output: c.Log.Output}
}

func sortedKeys(m map[string]float32) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
