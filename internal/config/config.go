// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Every model tunable lives here; nothing in the engine is a buried constant.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Feed formats and layouts.
const (
	FormatCSV  = "csv"
	FormatHTML = "html"

	LayoutHeader = "header"
	LayoutIndex  = "index"
)

const sheetBase = "https://docs.google.com/spreadsheets/d/e/2PACX-1vRYVL4J6ZbqLvKsS1E32DtBijLaSdrdtermV-Xyno1jSwGHx0m59JAEbq-zVpDztR7CjX-0Ru4jUjMR/pub?single=true&output=csv&gid="

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is a limiter rate in "<limit>-<period>" form, e.g. "120-M". Empty disables it.
	RateLimit string `koanf:"rate_limit"`

	// RefreshSchedule is a cron spec for re-fetching feeds. Empty disables it.
	RefreshSchedule string `koanf:"refresh_schedule"`

	// FetchTimeoutMS bounds a single feed fetch.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// FetchWorkers bounds concurrent feed fetches.
	FetchWorkers int `koanf:"fetch_workers"`

	// StorePath is the sqlite file for saved predictions; ":memory:" keeps them in process.
	StorePath string `koanf:"store_path"`

	// BatchWorkers and MaxBatchSize bound POST /projections/batch.
	BatchWorkers int `koanf:"batch_workers"`
	MaxBatchSize int `koanf:"max_batch_size"`

	Model      ModelConfig      `koanf:"model"`
	Simulation SimulationConfig `koanf:"simulation"`
	Market     MarketConfig     `koanf:"market"`
	Blend      BlendConfig      `koanf:"blend"`
	Fallback   FallbackConfig   `koanf:"fallback"`

	// Aliases maps alternate team spellings to the canonical key.
	Aliases map[string]string `koanf:"aliases"`

	// Feeds is the ordered source list; earlier feeds win stat conflicts.
	Feeds []FeedConfig `koanf:"feeds"`
}

// ModelConfig holds the matchup engine hyperparameters.
type ModelConfig struct {
	LeagueRating   float64 `koanf:"league_rating"`
	LeagueTempo    float64 `koanf:"league_tempo"`
	HomeEdgePoints float64 `koanf:"home_edge_points"`
	WeightEFG      float64 `koanf:"weight_efg"`
	WeightTOV      float64 `koanf:"weight_tov"`
	WeightREB      float64 `koanf:"weight_reb"`
	AnchorWeight   float64 `koanf:"anchor_weight"`
	Damping        float64 `koanf:"damping"`
	PPPMin         float64 `koanf:"ppp_min"`
	PPPMax         float64 `koanf:"ppp_max"`
	TempoShrink    float64 `koanf:"tempo_shrink"`
	Epsilon        float64 `koanf:"epsilon"`
}

// SimulationConfig holds the Monte Carlo settings.
type SimulationConfig struct {
	// Enabled makes projections simulate unless the request opts out.
	Enabled         bool    `koanf:"enabled"`
	Samples         int     `koanf:"samples"`
	PossessionSD    float64 `koanf:"possession_sd"`
	PPPSD           float64 `koanf:"ppp_sd"`
	PossessionFloor float64 `koanf:"possession_floor"`
	Workers         int     `koanf:"workers"`
	// Seed fixes the random streams when non-zero.
	Seed uint64 `koanf:"seed"`
}

// MarketConfig holds the edge thresholds and confidence scale.
type MarketConfig struct {
	SpreadThreshold     float64 `koanf:"spread_threshold"`
	TotalThreshold      float64 `koanf:"total_threshold"`
	ConfidenceReference float64 `koanf:"confidence_reference"`
}

// BlendConfig weights current and prior season values.
type BlendConfig struct {
	Current float64 `koanf:"current"`
	Prior   float64 `koanf:"prior"`
}

// FallbackConfig is the ranked source list for each model field.
type FallbackConfig struct {
	Tempo         []string `koanf:"tempo"`
	Offense       []string `koanf:"offense"`
	Defense       []string `koanf:"defense"`
	AllowBaseline bool     `koanf:"allow_baseline"`
}

// FeedConfig describes one tabular source.
type FeedConfig struct {
	Name string `koanf:"name"`
	// URL is an http(s) address or a local file path.
	URL    string `koanf:"url"`
	Format string `koanf:"format"`
	Layout string `koanf:"layout"`

	// Index layout.
	TeamColumn int `koanf:"team_column"`
	StartRow   int `koanf:"start_row"`

	// Header layout.
	TeamHeader     string            `koanf:"team_header"`
	HeaderScanRows int               `koanf:"header_scan_rows"`
	HeaderAliases  map[string]string `koanf:"header_aliases"`

	Values []ValueConfig `koanf:"values"`
}

// ValueConfig maps one stat to its column(s).
type ValueConfig struct {
	Stat string `koanf:"stat"`
	// Column and Prior are zero-based indexes in index layout; a nil Prior means none.
	Column int  `koanf:"column"`
	Prior  *int `koanf:"prior"`
	// Header and PriorHeader name the columns in header layout.
	Header      string `koanf:"header"`
	PriorHeader string `koanf:"prior_header"`
	Percent     bool   `koanf:"percent"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		CORSOrigins:     []string{"*"},
		RateLimit:       "120-M",
		RefreshSchedule: "@every 10m",
		FetchTimeoutMS:  15_000,
		FetchWorkers:    4,
		StorePath:       "courtline.db",
		BatchWorkers:    runtime.NumCPU(),
		MaxBatchSize:    64,
		Model: ModelConfig{
			LeagueRating:   105.0,
			LeagueTempo:    68.0,
			HomeEdgePoints: 3.0,
			WeightEFG:      0.40,
			WeightTOV:      0.25,
			WeightREB:      0.20,
			AnchorWeight:   0.5,
			Damping:        0.5,
			PPPMin:         0.75,
			PPPMax:         1.45,
			TempoShrink:    0,
			Epsilon:        1e-6,
		},
		Simulation: SimulationConfig{
			Enabled:         true,
			Samples:         1000,
			PossessionSD:    3.5,
			PPPSD:           0.04,
			PossessionFloor: 50,
			Workers:         1,
		},
		Market: MarketConfig{
			SpreadThreshold:     1.5,
			TotalThreshold:      2.0,
			ConfidenceReference: 6.0,
		},
		Blend: BlendConfig{Current: 0.5, Prior: 0.5},
		Fallback: FallbackConfig{
			Tempo:         []string{"tempo"},
			Offense:       []string{"adj_o", "off_eff"},
			Defense:       []string{"adj_d", "def_eff"},
			AllowBaseline: true,
		},
		Aliases: map[string]string{
			"uconn":    "connecticut",
			"ole miss": "mississippi",
			"unc":      "north carolina",
		},
		Feeds: DefaultFeeds(),
	}
}

// DefaultFeeds returns the public efficiency sheet followed by the six
// one-stat ratio sheets (team in column B, this season in C, last season in H).
func DefaultFeeds() []FeedConfig {
	feeds := []FeedConfig{{
		Name:           "kenpom",
		URL:            sheetBase + "351220539",
		Format:         FormatCSV,
		Layout:         LayoutHeader,
		TeamHeader:     "Team",
		HeaderScanRows: 2,
		HeaderAliases:  map[string]string{"ORtg": "AdjO", "DRtg": "AdjD", "Tempo": "AdjT"},
		Values: []ValueConfig{
			{Stat: "adj_o", Header: "AdjO"},
			{Stat: "adj_d", Header: "AdjD"},
			{Stat: "tempo", Header: "AdjT"},
		},
	}}

	ratio := []struct {
		name, stat, gid string
		percent         bool
	}{
		{"off_eff", "off_eff", "1940805537", false},
		{"def_eff", "def_eff", "2137299930", false},
		{"off_reb", "off_reb", "922672560", true},
		{"def_reb", "def_reb", "312492729", true},
		{"tov_poss", "tov", "993087389", true},
		{"off_efg", "off_efg", "803704968", true},
	}
	for _, r := range ratio {
		prior := 7
		feeds = append(feeds, FeedConfig{
			Name:       r.name,
			URL:        sheetBase + r.gid,
			Format:     FormatCSV,
			Layout:     LayoutIndex,
			TeamColumn: 1,
			StartRow:   1,
			Values:     []ValueConfig{{Stat: r.stat, Column: 2, Prior: &prior, Percent: r.percent}},
		})
	}
	return feeds
}

// Validate reports the first structural problem in c.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.FetchTimeoutMS <= 0:
		return invalid("fetch_timeout_ms must be positive")
	case c.FetchWorkers <= 0 || c.BatchWorkers <= 0:
		return invalid("fetch_workers and batch_workers must be positive")
	case c.MaxBatchSize <= 0:
		return invalid("max_batch_size must be positive")
	}

	m := c.Model
	switch {
	case m.LeagueRating <= 0 || m.LeagueTempo <= 0:
		return invalid("model league_rating and league_tempo must be positive")
	case m.PPPMin <= 0 || m.PPPMin >= m.PPPMax:
		return invalid("model ppp_min must be positive and below ppp_max")
	case m.Epsilon <= 0:
		return invalid("model epsilon must be positive")
	case m.TempoShrink < 0 || m.TempoShrink > 1:
		return invalid("model tempo_shrink must be within [0, 1]")
	case m.Damping < 0 || m.AnchorWeight < 0:
		return invalid("model damping and anchor_weight must not be negative")
	}

	s := c.Simulation
	switch {
	case s.Samples <= 0:
		return invalid("simulation samples must be positive")
	case s.PossessionSD < 0 || s.PPPSD < 0:
		return invalid("simulation standard deviations must not be negative")
	case s.Workers <= 0:
		return invalid("simulation workers must be positive")
	}

	if c.Market.SpreadThreshold < 0 || c.Market.TotalThreshold < 0 {
		return invalid("market thresholds must not be negative")
	}
	if c.Market.ConfidenceReference <= 0 {
		return invalid("market confidence_reference must be positive")
	}
	if c.Blend.Current < 0 || c.Blend.Prior < 0 || c.Blend.Current+c.Blend.Prior <= 0 {
		return invalid("blend weights must be non-negative with a positive sum")
	}
	if len(c.Fallback.Tempo) == 0 || len(c.Fallback.Offense) == 0 || len(c.Fallback.Defense) == 0 {
		return invalid("fallback lists must not be empty")
	}

	seen := make(map[string]struct{}, len(c.Feeds))
	for i := range c.Feeds {
		if err := c.Feeds[i].validate(); err != nil {
			return err
		}
		if _, dup := seen[c.Feeds[i].Name]; dup {
			return invalid(fmt.Sprintf("duplicate feed name %q", c.Feeds[i].Name))
		}
		seen[c.Feeds[i].Name] = struct{}{}
	}
	return nil
}

func (f *FeedConfig) validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return invalid("feed name must not be empty")
	}
	if strings.TrimSpace(f.URL) == "" {
		return invalid(fmt.Sprintf("feed %s: url must not be empty", f.Name))
	}
	if f.Format != FormatCSV && f.Format != FormatHTML {
		return invalid(fmt.Sprintf("feed %s: unknown format %q", f.Name, f.Format))
	}
	if len(f.Values) == 0 {
		return invalid(fmt.Sprintf("feed %s: no values configured", f.Name))
	}
	switch f.Layout {
	case LayoutIndex:
		if f.TeamColumn < 0 || f.StartRow < 0 {
			return invalid(fmt.Sprintf("feed %s: negative team_column or start_row", f.Name))
		}
		for _, v := range f.Values {
			if v.Column < 0 || (v.Prior != nil && *v.Prior < 0) {
				return invalid(fmt.Sprintf("feed %s: stat %s has a negative column index", f.Name, v.Stat))
			}
		}
	case LayoutHeader:
		if strings.TrimSpace(f.TeamHeader) == "" {
			return invalid(fmt.Sprintf("feed %s: team_header must not be empty", f.Name))
		}
		for _, v := range f.Values {
			if strings.TrimSpace(v.Header) == "" {
				return invalid(fmt.Sprintf("feed %s: stat %s has no header", f.Name, v.Stat))
			}
		}
	default:
		return invalid(fmt.Sprintf("feed %s: unknown layout %q", f.Name, f.Layout))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
