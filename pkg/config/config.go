package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type Warning int

const (
	WarnOverflow Warning = iota
	WarnLeadingZero
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

const (
	FormatText = "text"
	FormatJSON = "json"

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Config struct {
	Warnings         map[Warning]Info
	WarningMap       map[string]Warning
	WarningsAsErrors bool
	Format           string
	Color            string
}

func NewConfig() *Config {
	cfg := &Config{
		Warnings: map[Warning]Info{
			WarnOverflow:    {"overflow", true, "Warn when an integer constant does not fit in 64 bits and is saturated."},
			WarnLeadingZero: {"leading-zero", true, "Warn on decimal constants with a leading zero, which C would read as octal."},
		},
		WarningMap: make(map[string]Warning),
		Format:     FormatText,
		Color:      ColorAuto,
	}
	for wt, info := range cfg.Warnings {
		cfg.WarningMap[info.Name] = wt
	}
	return cfg
}

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

func (c *Config) SetAllWarnings(enabled bool) {
	for i := Warning(0); i < WarnCount; i++ {
		c.SetWarning(i, enabled)
	}
}

// WarningNames returns the registered warning names in sorted order.
func (c *Config) WarningNames() []string {
	names := make([]string, 0, len(c.WarningMap))
	for name := range c.WarningMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyFlag handles one -W style flag: -W<name>, -Wno-<name>, -Wall, -Wno-all,
// -Werror and -Wno-error. The leading dash is optional.
func (c *Config) ApplyFlag(flag string) error {
	name := strings.TrimPrefix(strings.TrimPrefix(flag, "-"), "W")
	enable := true
	if strings.HasPrefix(name, "no-") {
		name, enable = strings.TrimPrefix(name, "no-"), false
	}

	switch name {
	case "all":
		c.SetAllWarnings(enable)
		return nil
	case "error":
		c.WarningsAsErrors = enable
		return nil
	}

	w, ok := c.WarningMap[name]
	if !ok {
		return fmt.Errorf("unknown warning '%s'", name)
	}
	c.SetWarning(w, enable)
	return nil
}

// ApplyFlags applies -Wall/-Wno-all first so specific flags can override them.
func (c *Config) ApplyFlags(flags []string) error {
	isGlobal := func(f string) bool {
		f = strings.TrimPrefix(f, "-")
		return f == "Wall" || f == "Wno-all"
	}
	for _, f := range flags {
		if isGlobal(f) {
			if err := c.ApplyFlag(f); err != nil {
				return err
			}
		}
	}
	for _, f := range flags {
		if !isGlobal(f) {
			if err := c.ApplyFlag(f); err != nil {
				return err
			}
		}
	}
	return nil
}

type fileConfig struct {
	Warnings    map[string]bool `toml:"warnings"`
	Diagnostics struct {
		Werror *bool `toml:"werror"`
	} `toml:"diagnostics"`
	Output struct {
		Format string `toml:"format"`
		Color  string `toml:"color"`
	} `toml:"output"`
}

// LoadFile reads an rcc.toml file and applies it on top of the current settings.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := c.Load(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (c *Config) Load(data []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if all, ok := fc.Warnings["all"]; ok {
		c.SetAllWarnings(all)
	}
	for name, enabled := range fc.Warnings {
		if name == "all" {
			continue
		}
		w, ok := c.WarningMap[name]
		if !ok {
			return fmt.Errorf("unknown warning '%s'", name)
		}
		c.SetWarning(w, enabled)
	}
	if fc.Diagnostics.Werror != nil {
		c.WarningsAsErrors = *fc.Diagnostics.Werror
	}
	if fc.Output.Format != "" {
		if err := c.SetFormat(fc.Output.Format); err != nil {
			return err
		}
	}
	if fc.Output.Color != "" {
		if err := c.SetColor(fc.Output.Color); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) SetFormat(format string) error {
	switch format {
	case FormatText, FormatJSON:
		c.Format = format
		return nil
	}
	return fmt.Errorf("unsupported format '%s'. Supported: '%s', '%s'", format, FormatText, FormatJSON)
}

func (c *Config) SetColor(mode string) error {
	switch mode {
	case ColorAuto, ColorAlways, ColorNever:
		c.Color = mode
		return nil
	}
	return fmt.Errorf("unsupported color mode '%s'. Supported: '%s', '%s', '%s'", mode, ColorAuto, ColorAlways, ColorNever)
}
