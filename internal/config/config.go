// Package config holds the automation's tunable surface: timeouts,
// strategy switches and every selector table, strongly typed and
// validated at load time.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/v0xg/ytmark/internal/dom"
)

// Duration marshals as integer milliseconds in JSON.
type Duration time.Duration

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("duration must be integer milliseconds: %w", err)
	}
	if ms < 0 {
		return fmt.Errorf("duration must not be negative, got %d", ms)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// Timeouts groups the timing knobs.
type Timeouts struct {
	ElementWait  Duration `json:"elementWait"`
	MenuLoad     Duration `json:"menuLoad"`
	ConsentWait  Duration `json:"consentWait"`
	ActionDelay  Duration `json:"actionDelay"`
	StepDelay    Duration `json:"stepDelay"`
	PollInitial  Duration `json:"pollInitial"`
	PollInterval Duration `json:"pollInterval"`
	MaxRetries   int      `json:"maxRetries"`
}

// Strategies toggles the optional waiting and validation mechanisms.
type Strategies struct {
	Polling            bool `json:"polling"`
	MutationObserve    bool `json:"mutationObserve"`
	ValidateVisibility bool `json:"validateVisibility"`
	Retries            bool `json:"retries"`
}

// Target pairs the ranked selectors of one semantic target with the
// text patterns confirming it.
type Target struct {
	Selectors    dom.SelectorSet    `json:"selectors"`
	TextPatterns dom.TextPatternSet `json:"textPatterns,omitempty"`
}

// Targets lists every semantic target the flows touch.
type Targets struct {
	ConsentDismiss    Target `json:"consentDismiss"`
	NotInterested     Target `json:"notInterested"`
	TellUsWhy         Target `json:"tellUsWhy"`
	AlreadyWatched    Target `json:"alreadyWatched"`
	Submit            Target `json:"submit"`
	DescriptionMore   Target `json:"descriptionMore"`
	DescriptionText   Target `json:"descriptionText"`
	ShowTranscript    Target `json:"showTranscript"`
	TranscriptSegment Target `json:"transcriptSegment"`
	VideoTitle        Target `json:"videoTitle"`
	ChannelName       Target `json:"channelName"`
}

// Containers describes the tile elements that wrap one video each and
// how to find their overflow menu buttons.
type Containers struct {
	Tags             []string                   `json:"tags"`
	MenuButtons      map[string]dom.SelectorSet `json:"menuButtons"`
	UniversalMenu    dom.SelectorSet            `json:"universalMenu"`
	MenuLabels       dom.TextPatternSet         `json:"menuLabels"`
	MaxAncestorDepth int                        `json:"maxAncestorDepth"`
}

// Config is the full automation configuration. Load it once and treat
// it as read-only afterwards.
type Config struct {
	Version    string     `json:"version"`
	Timeouts   Timeouts   `json:"timeouts"`
	Strategies Strategies `json:"strategies"`
	Targets    Targets    `json:"targets"`
	Containers Containers `json:"containers"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Version: "2026.08",
		Timeouts: Timeouts{
			ElementWait:  Duration(5 * time.Second),
			MenuLoad:     Duration(800 * time.Millisecond),
			ConsentWait:  Duration(1500 * time.Millisecond),
			ActionDelay:  Duration(100 * time.Millisecond),
			StepDelay:    Duration(200 * time.Millisecond),
			PollInitial:  Duration(100 * time.Millisecond),
			PollInterval: Duration(250 * time.Millisecond),
			MaxRetries:   2,
		},
		Strategies: Strategies{
			Polling:            true,
			MutationObserve:    true,
			ValidateVisibility: true,
			Retries:            true,
		},
		Targets:    defaultTargets(),
		Containers: defaultContainers(),
	}
}

// Load reads a JSON overlay over Default. Unknown fields are rejected
// so a typo fails loudly instead of silently keeping a default.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the automation cannot run with.
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}

	positive := []struct {
		name string
		d    Duration
	}{
		{"timeouts.elementWait", c.Timeouts.ElementWait},
		{"timeouts.menuLoad", c.Timeouts.MenuLoad},
		{"timeouts.consentWait", c.Timeouts.ConsentWait},
		{"timeouts.pollInitial", c.Timeouts.PollInitial},
		{"timeouts.pollInterval", c.Timeouts.PollInterval},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return fmt.Errorf("%s must be positive", p.name)
		}
	}
	if c.Timeouts.ActionDelay < 0 || c.Timeouts.StepDelay < 0 {
		return fmt.Errorf("timeouts.actionDelay and timeouts.stepDelay must not be negative")
	}
	if c.Timeouts.MaxRetries < 0 {
		return fmt.Errorf("timeouts.maxRetries must not be negative")
	}

	targets := []struct {
		name string
		t    Target
	}{
		{"consentDismiss", c.Targets.ConsentDismiss},
		{"notInterested", c.Targets.NotInterested},
		{"tellUsWhy", c.Targets.TellUsWhy},
		{"alreadyWatched", c.Targets.AlreadyWatched},
		{"submit", c.Targets.Submit},
		{"descriptionMore", c.Targets.DescriptionMore},
		{"descriptionText", c.Targets.DescriptionText},
		{"showTranscript", c.Targets.ShowTranscript},
		{"transcriptSegment", c.Targets.TranscriptSegment},
		{"videoTitle", c.Targets.VideoTitle},
		{"channelName", c.Targets.ChannelName},
	}
	for _, tt := range targets {
		if len(tt.t.Selectors) == 0 {
			return fmt.Errorf("targets.%s needs at least one selector", tt.name)
		}
		for _, sel := range tt.t.Selectors {
			if sel == "" {
				return fmt.Errorf("targets.%s contains an empty selector", tt.name)
			}
		}
	}

	if len(c.Containers.Tags) == 0 {
		return fmt.Errorf("containers.tags must not be empty")
	}
	if len(c.Containers.UniversalMenu) == 0 {
		return fmt.Errorf("containers.universalMenu must not be empty")
	}
	if len(c.Containers.MenuLabels) == 0 {
		return fmt.Errorf("containers.menuLabels must not be empty")
	}
	if c.Containers.MaxAncestorDepth <= 0 {
		return fmt.Errorf("containers.maxAncestorDepth must be positive")
	}
	known := make(map[string]bool, len(c.Containers.Tags))
	for _, tag := range c.Containers.Tags {
		known[tag] = true
	}
	for tag := range c.Containers.MenuButtons {
		if !known[tag] {
			return fmt.Errorf("containers.menuButtons references unknown tag %q", tag)
		}
	}
	return nil
}

// DOMSettings projects the config onto the element engine's settings.
func (c *Config) DOMSettings() dom.Settings {
	return dom.Settings{
		Timeout:            c.Timeouts.ElementWait.Std(),
		MaxRetries:         c.Timeouts.MaxRetries,
		ActionDelay:        c.Timeouts.ActionDelay.Std(),
		StepDelay:          c.Timeouts.StepDelay.Std(),
		PollInitial:        c.Timeouts.PollInitial.Std(),
		PollInterval:       c.Timeouts.PollInterval.Std(),
		MutationWindow:     time.Second,
		Polling:            c.Strategies.Polling,
		MutationObserve:    c.Strategies.MutationObserve,
		ValidateVisibility: c.Strategies.ValidateVisibility,
		Retries:            c.Strategies.Retries,
	}
}
