package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"neighborgrid/internal/dispatch"
	"neighborgrid/internal/model"
)

// EnvPrefix marks environment overrides, e.g. NG_SIMULATION__SEED=7.
const EnvPrefix = "NG_"

const dateLayout = "2006-01-02"

// Config is the on-disk configuration shape (YAML or JSON).
type Config struct {
	// Optional: load the community roster from a separate YAML file.
	// Homes listed under community.homes override file entries with the same ID.
	CommunityFile string `yaml:"community_file"`

	Simulation SimulationConfig `yaml:"simulation"`
	Home       HomeConfig       `yaml:"home"`
	Pool       PoolConfig       `yaml:"pool"`
	Community  CommunityConfig  `yaml:"community"`
	Output     OutputConfig     `yaml:"output"`
	API        APIConfig        `yaml:"api"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type SimulationConfig struct {
	// Start is a date (YYYY-MM-DD) or an RFC 3339 timestamp.
	Start          string  `yaml:"start"`
	Hours          int     `yaml:"hours"`
	Days           int     `yaml:"days"`
	Seed           uint64  `yaml:"seed"`
	Policy         string  `yaml:"policy"`
	FairRatePerKWh float64 `yaml:"fair_rate_per_kwh"`
}

// HomeConfig describes one home. It is used for the single-home run and for
// roster entries.
type HomeConfig struct {
	ID                string  `yaml:"id"`
	SolarKW           float64 `yaml:"solar_kw"`
	BatteryKWh        float64 `yaml:"battery_kwh"`
	LoadBaseKWh       float64 `yaml:"load_base_kwh"`
	LoadPeakKWh       float64 `yaml:"load_peak_kwh"`
	SolarOffsetHours  int     `yaml:"solar_offset_hours"`
	LoadShiftHours    int     `yaml:"load_shift_hours"`
	InitialSOC        float64 `yaml:"initial_soc"`
	InitialCreditsKWh float64 `yaml:"initial_credits_kwh"`
	IsNetConsumer     bool    `yaml:"is_net_consumer"`
}

type PoolConfig struct {
	Enabled bool `yaml:"enabled"`
	// CapPerHourKWh applies a flat hourly draw cap. Unset means unlimited.
	CapPerHourKWh *float64 `yaml:"cap_per_hour_kwh"`
	// BaseCapacityKWh > 0 generates a varying hourly cap around this value
	// instead. It wins over CapPerHourKWh.
	BaseCapacityKWh float64 `yaml:"base_capacity_kwh"`
}

type CommunityConfig struct {
	Homes []HomeConfig `yaml:"homes"`
}

type OutputConfig struct {
	Dir            string `yaml:"dir"`
	SingleFile     string `yaml:"single_file"`
	TimeseriesFile string `yaml:"timeseries_file"`
	MetadataFile   string `yaml:"metadata_file"`
}

type APIConfig struct {
	Port   int           `yaml:"port"`
	Env    string        `yaml:"env"`
	RunTTL time.Duration `yaml:"run_ttl"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Simulation: SimulationConfig{
			Start:          "2025-10-04",
			Hours:          24,
			Days:           5,
			Seed:           42,
			Policy:         dispatch.PolicySelfFirst,
			FairRatePerKWh: model.FairRatePerKWh,
		},
		Home: HomeConfig{
			ID:          "H001",
			SolarKW:     6.0,
			BatteryKWh:  10.0,
			LoadBaseKWh: 0.6,
			LoadPeakKWh: 1.2,
			InitialSOC:  0.5,
		},
		Pool: PoolConfig{Enabled: true},
		Output: OutputConfig{
			Dir:            "output",
			SingleFile:     "out_single.csv",
			TimeseriesFile: "community_timeseries.csv",
			MetadataFile:   "community_metadata.csv",
		},
		API: APIConfig{
			Port:   8080,
			Env:    "production",
			RunTTL: time.Hour,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies NG_ environment overrides and
// validates the result. An empty path loads defaults plus environment.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
func LoadUnchecked(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	c := Default()
	if err := k.UnmarshalWithConf("", &c, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, err
	}

	if c.CommunityFile != "" {
		rosterPath := c.CommunityFile
		if !filepath.IsAbs(rosterPath) && path != "" {
			// Prefer paths relative to the config file, fall back to cwd.
			cand := filepath.Join(filepath.Dir(path), rosterPath)
			if _, err := os.Stat(cand); err == nil {
				rosterPath = cand
			}
		}
		loaded, err := loadCommunityFile(rosterPath)
		if err != nil {
			return nil, err
		}
		c.Community.Homes = MergeHomes(loaded, c.Community.Homes)
	}
	for i, h := range c.Community.Homes {
		c.Community.Homes[i] = h.WithDefaults(c.Home)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := c.Simulation.StartTime(); err != nil {
		return err
	}
	if c.Simulation.Hours <= 0 {
		return errors.New("simulation.hours must be > 0")
	}
	if c.Simulation.Days <= 0 {
		return errors.New("simulation.days must be > 0")
	}
	if c.Simulation.FairRatePerKWh < 0 {
		return errors.New("simulation.fair_rate_per_kwh must be >= 0")
	}
	if _, err := dispatch.PolicyByName(c.Simulation.Policy); err != nil {
		return fmt.Errorf("simulation.policy: %w", err)
	}
	if err := c.Home.Validate(); err != nil {
		return fmt.Errorf("home: %w", err)
	}
	if c.Pool.CapPerHourKWh != nil && *c.Pool.CapPerHourKWh < 0 {
		return errors.New("pool.cap_per_hour_kwh must be >= 0")
	}
	if c.Pool.BaseCapacityKWh < 0 {
		return errors.New("pool.base_capacity_kwh must be >= 0")
	}
	seen := make(map[string]struct{}, len(c.Community.Homes))
	for i, h := range c.Community.Homes {
		if err := h.Validate(); err != nil {
			return fmt.Errorf("community.homes[%d]: %w", i, err)
		}
		if _, dup := seen[h.ID]; dup {
			return fmt.Errorf("community.homes[%d]: duplicate id %q", i, h.ID)
		}
		seen[h.ID] = struct{}{}
	}
	return nil
}

// StartTime parses Simulation.Start as a date or RFC 3339 timestamp (UTC).
func (s SimulationConfig) StartTime() (time.Time, error) {
	if t, err := time.Parse(dateLayout, s.Start); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("simulation.start %q: want YYYY-MM-DD or RFC 3339", s.Start)
	}
	return t.UTC(), nil
}

// Validate checks a home by constructing its battery.
func (h HomeConfig) Validate() error {
	if h.ID == "" {
		return errors.New("id is required")
	}
	if h.SolarKW < 0 {
		return errors.New("solar_kw must be >= 0")
	}
	if h.LoadBaseKWh < 0 || h.LoadPeakKWh < 0 {
		return errors.New("load_base_kwh and load_peak_kwh must be >= 0")
	}
	if _, err := model.NewBattery(model.DefaultBatteryParams(h.BatteryKWh), h.InitialSOC); err != nil {
		return fmt.Errorf("battery config invalid: %w", err)
	}
	return nil
}

func (h HomeConfig) ToModel() model.Home {
	return model.Home{
		ID:               h.ID,
		SolarKW:          h.SolarKW,
		BatteryKWh:       h.BatteryKWh,
		LoadBaseKWh:      h.LoadBaseKWh,
		LoadPeakKWh:      h.LoadPeakKWh,
		SolarOffsetHours: h.SolarOffsetHours,
		LoadShiftHours:   h.LoadShiftHours,
		InitialSOC:       h.InitialSOC,
		IsNetConsumer:    h.IsNetConsumer,
	}
}

// HomeFromModel is the inverse of ToModel.
func HomeFromModel(h model.Home) HomeConfig {
	return HomeConfig{
		ID:               h.ID,
		SolarKW:          h.SolarKW,
		BatteryKWh:       h.BatteryKWh,
		LoadBaseKWh:      h.LoadBaseKWh,
		LoadPeakKWh:      h.LoadPeakKWh,
		SolarOffsetHours: h.SolarOffsetHours,
		LoadShiftHours:   h.LoadShiftHours,
		InitialSOC:       h.InitialSOC,
		IsNetConsumer:    h.IsNetConsumer,
	}
}

// Roster returns the configured community as model homes. An empty roster
// means "use the built-in default" and returns nil.
func (c *Config) Roster() []model.Home {
	if len(c.Community.Homes) == 0 {
		return nil
	}
	out := make([]model.Home, len(c.Community.Homes))
	for i, h := range c.Community.Homes {
		out[i] = h.WithDefaults(c.Home).ToModel()
	}
	return out
}

// WithDefaults fills the fields of a roster entry that cannot meaningfully be
// zero (initial SOC and load levels) from base. Equipment sizes, offsets and
// credits are taken as given.
func (h HomeConfig) WithDefaults(base HomeConfig) HomeConfig {
	if h.InitialSOC == 0 {
		h.InitialSOC = base.InitialSOC
	}
	if h.LoadBaseKWh == 0 {
		h.LoadBaseKWh = base.LoadBaseKWh
	}
	if h.LoadPeakKWh == 0 {
		h.LoadPeakKWh = base.LoadPeakKWh
	}
	return h
}

type communityFileWrapper struct {
	Homes []HomeConfig `yaml:"homes"`
}

func loadCommunityFile(path string) ([]HomeConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w communityFileWrapper
	if err := yamlv3.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return w.Homes, nil
}

// MergeHomes overlays overrides onto base by ID. Homes only present in
// overrides are appended in their given order.
func MergeHomes(base, overrides []HomeConfig) []HomeConfig {
	out := make([]HomeConfig, len(base))
	copy(out, base)
	index := make(map[string]int, len(out))
	for i, h := range out {
		index[h.ID] = i
	}
	for _, o := range overrides {
		if i, ok := index[o.ID]; ok {
			out[i] = MergeHome(out[i], o)
			continue
		}
		index[o.ID] = len(out)
		out = append(out, o)
	}
	return out
}

// MergeHome overlays non-zero fields from override onto base.
func MergeHome(base, override HomeConfig) HomeConfig {
	out := base
	if override.ID != "" {
		out.ID = override.ID
	}
	if override.SolarKW != 0 {
		out.SolarKW = override.SolarKW
	}
	if override.BatteryKWh != 0 {
		out.BatteryKWh = override.BatteryKWh
	}
	if override.LoadBaseKWh != 0 {
		out.LoadBaseKWh = override.LoadBaseKWh
	}
	if override.LoadPeakKWh != 0 {
		out.LoadPeakKWh = override.LoadPeakKWh
	}
	// Note: zero offsets mean "south" / "no shift" and cannot override a non-zero base.
	if override.SolarOffsetHours != 0 {
		out.SolarOffsetHours = override.SolarOffsetHours
	}
	if override.LoadShiftHours != 0 {
		out.LoadShiftHours = override.LoadShiftHours
	}
	if override.InitialSOC != 0 {
		out.InitialSOC = override.InitialSOC
	}
	if override.InitialCreditsKWh != 0 {
		out.InitialCreditsKWh = override.InitialCreditsKWh
	}
	if override.IsNetConsumer {
		out.IsNetConsumer = true
	}
	return out
}
