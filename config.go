package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spance/openterface-grab/constants"
)

// FileConfig is the optional TOML config file. Unset keys leave the
// flag/env value alone.
type FileConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	Command      string   `toml:"cmd"`
	Timeout      duration `toml:"timeout"`
	OutputDir    string   `toml:"output_dir"`
	NameTemplate string   `toml:"name_template"`
	Verbose      *bool    `toml:"verbose"`

	Loop struct {
		Interval duration `toml:"interval"`
		Count    *int     `toml:"count"`
	} `toml:"loop"`

	Screenshot struct {
		Script       string   `toml:"script"`
		PollInterval duration `toml:"poll_interval"`
		PollMax      int      `toml:"poll_max"`
	} `toml:"screenshot"`
}

// duration decodes TOML strings such as "1.5s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func loadFileConfig(path string) (*FileConfig, error) {
	var fc FileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load config %s: unknown keys %v", path, undecoded)
	}
	return &fc, nil
}

// applyFileConfig copies file values into cfg where neither the flag was
// given nor its environment variable is set.
func applyFileConfig(cfg *Config, fc *FileConfig, changed func(string) bool) error {
	fromFile := func(flag, env string) bool {
		if changed(flag) {
			return false
		}
		return env == "" || os.Getenv(env) == ""
	}

	if fc.Host != "" && fromFile("host", constants.EnvHost) {
		cfg.Host = fc.Host
	}
	if fc.Port != 0 && fromFile("port", constants.EnvPort) {
		cfg.Port = fc.Port
	}
	if fc.Command != "" && fromFile("cmd", constants.EnvCommand) {
		cfg.Command = fc.Command
	}
	if fc.Timeout.Duration != 0 && fromFile("timeout", constants.EnvTimeout) {
		cfg.Timeout = fc.Timeout.Duration
	}
	if fc.OutputDir != "" && fromFile("output-dir", constants.EnvOutputDir) {
		cfg.OutputDir = fc.OutputDir
	}
	if fc.NameTemplate != "" && fromFile("name-template", "") {
		cfg.NameTemplate = fc.NameTemplate
	}
	if fc.Verbose != nil && fromFile("verbose", "") {
		cfg.Verbose = *fc.Verbose
	}
	if fc.Loop.Interval.Duration != 0 && fromFile("interval", "") {
		cfg.Interval = fc.Loop.Interval.Duration
	}
	if fc.Loop.Count != nil && fromFile("count", "") {
		if *fc.Loop.Count < 0 {
			return fmt.Errorf("config: loop.count must be >= 0, got %d", *fc.Loop.Count)
		}
		cfg.Count = *fc.Loop.Count
	}
	if fc.Screenshot.Script != "" && fromFile("script", "") {
		cfg.Script = fc.Screenshot.Script
	}
	if fc.Screenshot.PollInterval.Duration != 0 && fromFile("poll-interval", "") {
		cfg.PollInterval = fc.Screenshot.PollInterval.Duration
	}
	if fc.Screenshot.PollMax != 0 && fromFile("poll-max", "") {
		cfg.PollMax = fc.Screenshot.PollMax
	}
	return nil
}
