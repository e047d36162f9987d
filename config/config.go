package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gopkg.in/yaml.v3"
)

// Label names a group of controls in the mapping file
type Label string

const (
	LabelParts       Label = "parts"
	LabelMutes       Label = "mutes"
	LabelPatterns    Label = "patterns"
	LabelSteps       Label = "steps"
	LabelVoice       Label = "voice"
	LabelPlay        Label = "play"
	LabelRecord      Label = "record"
	LabelClear       Label = "clear"
	LabelPerformance Label = "performance"
)

// ListLabels are the labels that map to an ordered list of controls, in
// lookup order.
var ListLabels = []Label{LabelParts, LabelMutes, LabelPatterns, LabelSteps}

// ToggleLabels are the singleton toggle controls, in lookup order.
var ToggleLabels = []Label{LabelVoice, LabelPlay, LabelRecord, LabelClear}

// DefaultFile is used when no config path is given
const DefaultFile = "config.json"

// Binding identifies one physical control: the note a device sends on a channel.
type Binding struct {
	Device  string
	Channel uint8
	Note    uint8
}

// Matches reports whether an incoming note addresses this control
func (b Binding) Matches(device string, channel, note uint8) bool {
	return b.Device == device && b.Channel == channel && b.Note == note
}

// MarshalJSON writes the calibration tool's [device, channel, note] form
func (b Binding) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{b.Device, b.Channel, b.Note})
}

func (b *Binding) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := bindingFrom(raw)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Config maps every control label to the physical controls that drive it.
// Singleton controls are nil when the mapping file does not name them.
type Config struct {
	Parts    []Binding `json:"parts,omitempty"`
	Mutes    []Binding `json:"mutes,omitempty"`
	Patterns []Binding `json:"patterns,omitempty"`
	Steps    []Binding `json:"steps,omitempty"`

	Voice  *Binding `json:"voice,omitempty"`
	Play   *Binding `json:"play,omitempty"`
	Record *Binding `json:"record,omitempty"`
	Clear  *Binding `json:"clear,omitempty"`

	// Only the device name is used for matching
	Performance *Binding `json:"performance,omitempty"`

	// Note output port; empty means the first available output
	Output string `json:"output,omitempty"`
}

// List returns the bindings for a list label (nil for other labels)
func (c *Config) List(label Label) []Binding {
	switch label {
	case LabelParts:
		return c.Parts
	case LabelMutes:
		return c.Mutes
	case LabelPatterns:
		return c.Patterns
	case LabelSteps:
		return c.Steps
	}
	return nil
}

// Single returns the binding for a singleton label, or nil if absent
func (c *Config) Single(label Label) *Binding {
	switch label {
	case LabelVoice:
		return c.Voice
	case LabelPlay:
		return c.Play
	case LabelRecord:
		return c.Record
	case LabelClear:
		return c.Clear
	case LabelPerformance:
		return c.Performance
	}
	return nil
}

// Find returns the binding at index for a label. Singletons ignore index.
func (c *Config) Find(label Label, index int) *Binding {
	if b := c.Single(label); b != nil {
		return b
	}
	list := c.List(label)
	if index < 0 || index >= len(list) {
		return nil
	}
	return &list[index]
}

// PerformanceDevice returns the performance controller's device name
func (c *Config) PerformanceDevice() (string, bool) {
	if c.Performance == nil {
		return "", false
	}
	return c.Performance.Device, true
}

// DeviceNames returns every device the mapping mentions, in first-seen order
func (c *Config) DeviceNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(b *Binding) {
		if b == nil || b.Device == "" || seen[b.Device] {
			return
		}
		seen[b.Device] = true
		names = append(names, b.Device)
	}
	for _, label := range ListLabels {
		list := c.List(label)
		for i := range list {
			add(&list[i])
		}
	}
	for _, label := range ToggleLabels {
		add(c.Single(label))
	}
	add(c.Performance)
	return names
}

// Load reads a mapping file. The format follows the extension: .toml,
// .yaml/.yml, anything else is JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.Wrap(err,
				fmsg.WithDesc("config not found", fmt.Sprintf("No controller mapping at %s; run the calibration tool first", path)),
				ftag.With(ftag.NotFound))
		}
		return nil, fault.Wrap(err, fmsg.With("read config"))
	}

	raw := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("parse config", fmt.Sprintf("Could not parse %s", path)),
			ftag.With(ftag.InvalidArgument))
	}

	cfg, err := FromMap(raw)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("decode config", fmt.Sprintf("Invalid controller mapping in %s", path)),
			ftag.With(ftag.InvalidArgument))
	}
	return cfg, nil
}

// FromMap builds a Config from a decoded document. Unknown keys are ignored
// and missing keys leave the control absent.
func FromMap(raw map[string]any) (*Config, error) {
	cfg := &Config{}

	for _, label := range ListLabels {
		v, ok := raw[string(label)]
		if !ok || v == nil {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected a list of [device, channel, note]", label)
		}
		list := make([]Binding, 0, len(items))
		for i, item := range items {
			fields, ok := item.([]any)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: expected [device, channel, note]", label, i)
			}
			b, err := bindingFrom(fields)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", label, i, err)
			}
			list = append(list, b)
		}
		switch label {
		case LabelParts:
			cfg.Parts = list
		case LabelMutes:
			cfg.Mutes = list
		case LabelPatterns:
			cfg.Patterns = list
		case LabelSteps:
			cfg.Steps = list
		}
	}

	singles := map[Label]**Binding{
		LabelVoice:       &cfg.Voice,
		LabelPlay:        &cfg.Play,
		LabelRecord:      &cfg.Record,
		LabelClear:       &cfg.Clear,
		LabelPerformance: &cfg.Performance,
	}
	for label, dst := range singles {
		v, ok := raw[string(label)]
		if !ok || v == nil {
			continue
		}
		fields, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected [device, channel, note]", label)
		}
		b, err := bindingFrom(fields)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		*dst = &b
	}

	if v, ok := raw["output"]; ok && v != nil {
		name, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("output: expected a port name")
		}
		cfg.Output = name
	}

	return cfg, nil
}

func bindingFrom(fields []any) (Binding, error) {
	if len(fields) != 3 {
		return Binding{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	device, ok := fields[0].(string)
	if !ok {
		return Binding{}, fmt.Errorf("device name must be a string")
	}
	channel, ok := toInt(fields[1])
	if !ok || channel < 0 || channel > 15 {
		return Binding{}, fmt.Errorf("channel must be 0-15")
	}
	note, ok := toInt(fields[2])
	if !ok || note < 0 || note > 127 {
		return Binding{}, fmt.Errorf("note must be 0-127")
	}
	return Binding{Device: device, Channel: uint8(channel), Note: uint8(note)}, nil
}

// JSON decodes numbers as float64, TOML as int64, YAML as int
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// Save writes the config as indented JSON
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fault.Wrap(err, fmsg.With("create config dir"))
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fault.Wrap(err, fmsg.With("encode config"))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fault.Wrap(err, fmsg.With("write config"))
	}
	return nil
}
