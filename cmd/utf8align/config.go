// Copyright 2026 Tamás Gulácsi. All rights reserved.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/tgulacsi/utf8align/bufpool"
	"github.com/tgulacsi/utf8align/httpclient"
)

// Config of the realigner. Flags given explicitly override the config file.
type Config struct {
	ChunkSize   int        `toml:"chunk_size"`
	Concurrency int        `toml:"concurrency"`
	OutDir      string     `toml:"out_dir"`
	Gunzip      bool       `toml:"gunzip"`
	HTTP        HTTPConfig `toml:"http"`
}

type HTTPConfig struct {
	Timeout      duration `toml:"timeout"`
	Interval     duration `toml:"interval"`
	FailureRatio float64  `toml:"failure_ratio"`
}

type duration struct{ time.Duration }

func (d *duration) UnmarshalText(p []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(p))
	return err
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:   bufpool.DefaultSize,
		Concurrency: 8,
		HTTP: HTTPConfig{
			Timeout:      duration{httpclient.DefaultTimeout},
			Interval:     duration{httpclient.DefaultInterval},
			FailureRatio: httpclient.DefaultFailureRatio,
		},
	}
}

// LoadConfig reads the TOML file over the defaults.
func LoadConfig(fn string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(fn, &cfg)
	if err != nil {
		return cfg, errors.Wrap(err, fn)
	}
	if undec := md.Undecoded(); len(undec) != 0 {
		return cfg, errors.Errorf("%s: unknown keys %v", fn, undec)
	}
	return cfg, nil
}

// flagConfig binds the flags to a Config.
type flagConfig struct {
	Config
	fs *flag.FlagSet
}

func newFlagConfig(fs *flag.FlagSet) *flagConfig {
	fc := flagConfig{Config: DefaultConfig(), fs: fs}
	fs.IntVar(&fc.ChunkSize, "size", fc.ChunkSize, "read chunk size")
	fs.IntVar(&fc.Concurrency, "P", fc.Concurrency, "concurrency (with -C)")
	fs.StringVar(&fc.OutDir, "C", fc.OutDir, "destination directory (default: stdout)")
	fs.BoolVar(&fc.Gunzip, "z", fc.Gunzip, "gunzip the input (default: by the gzip magic)")
	fs.DurationVar(&fc.HTTP.Timeout.Duration, "timeout", fc.HTTP.Timeout.Duration, "HTTP timeout")
	return &fc
}

// Merge the explicitly set flags over the file config.
func (fc *flagConfig) Merge(file Config) Config {
	cfg := file
	fc.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "size":
			cfg.ChunkSize = fc.ChunkSize
		case "P":
			cfg.Concurrency = fc.Concurrency
		case "C":
			cfg.OutDir = fc.OutDir
		case "z":
			cfg.Gunzip = fc.Gunzip
		case "timeout":
			cfg.HTTP.Timeout = fc.HTTP.Timeout
		}
	})
	return cfg
}
