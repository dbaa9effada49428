package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	sim "github.com/barbershop-sim/barbershop-sim/sim"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// RunFile is the optional YAML run config. Unset fields fall back to the
// command-line defaults; flags given explicitly win over the file.
type RunFile struct {
	Servers         *int           `yaml:"servers"`
	Seats           *int           `yaml:"seats"`
	Clients         *int           `yaml:"clients"`
	ServiceTime     *time.Duration `yaml:"service_time"`
	ArrivalDelayMin *time.Duration `yaml:"arrival_delay_min"`
	ArrivalDelayMax *time.Duration `yaml:"arrival_delay_max"`
	Seed            *int64         `yaml:"seed"`
	Format          *string        `yaml:"format"`
}

// loadRunFile parses a run config with strict field checking: unknown keys
// are errors. An empty file is an empty config.
func loadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &sim.ConfigError{Field: "config", Value: path, Reason: err.Error()}
	}
	var rf RunFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rf); err != nil && !errors.Is(err, io.EOF) {
		return nil, &sim.ConfigError{Field: "config", Value: path, Reason: err.Error()}
	}
	return &rf, nil
}

// runOptions is the fully resolved input of one run.
type runOptions struct {
	Config  sim.Config
	Format  string
	NoColor bool
	Metrics bool
	Verify  bool
}

// resolveOptions merges flags, the config file and stdin prompts. changed
// reports whether a flag was set explicitly. Counts still unset after flags
// and file are prompted for on in; prompts go to stdout in text mode and to
// stderr in json mode.
func resolveOptions(f runFlags, changed func(string) bool, in io.Reader, stdout, stderr io.Writer) (runOptions, error) {
	opts := runOptions{
		Config: sim.Config{
			ServiceTime:     f.ServiceTime,
			ArrivalDelayMin: f.ArrivalDelayMin,
			ArrivalDelayMax: f.ArrivalDelayMax,
			Seed:            f.Seed,
		},
		Format:  f.Format,
		NoColor: f.NoColor,
		Metrics: f.Metrics,
		Verify:  f.Verify,
	}
	var haveServers, haveSeats, haveClients bool

	if f.ConfigPath != "" {
		rf, err := loadRunFile(f.ConfigPath)
		if err != nil {
			return opts, err
		}
		if rf.Servers != nil {
			opts.Config.Servers, haveServers = *rf.Servers, true
		}
		if rf.Seats != nil {
			opts.Config.Seats, haveSeats = *rf.Seats, true
		}
		if rf.Clients != nil {
			opts.Config.Clients, haveClients = *rf.Clients, true
		}
		if rf.ServiceTime != nil && !changed("service-time") {
			opts.Config.ServiceTime = *rf.ServiceTime
		}
		if rf.ArrivalDelayMin != nil && !changed("arrival-min") {
			opts.Config.ArrivalDelayMin = *rf.ArrivalDelayMin
		}
		if rf.ArrivalDelayMax != nil && !changed("arrival-max") {
			opts.Config.ArrivalDelayMax = *rf.ArrivalDelayMax
		}
		if rf.Seed != nil && !changed("seed") {
			opts.Config.Seed = *rf.Seed
		}
		if rf.Format != nil && !changed("format") {
			opts.Format = *rf.Format
		}
		logrus.Infof("Loaded run config from %s", f.ConfigPath)
	}

	if changed("servers") {
		opts.Config.Servers, haveServers = f.Servers, true
	}
	if changed("seats") {
		opts.Config.Seats, haveSeats = f.Seats, true
	}
	if changed("clients") {
		opts.Config.Clients, haveClients = f.Clients, true
	}

	if opts.Format != formatText && opts.Format != formatJSON {
		return opts, &sim.ConfigError{Field: "format", Value: opts.Format, Reason: fmt.Sprintf("must be %q or %q", formatText, formatJSON)}
	}

	promptOut := stdout
	if opts.Format == formatJSON {
		promptOut = stderr
	}
	p := newPrompter(in, promptOut)
	for _, c := range []struct {
		have  bool
		field string
		dst   *int
	}{
		{haveServers, sim.FieldServers, &opts.Config.Servers},
		{haveSeats, sim.FieldSeats, &opts.Config.Seats},
		{haveClients, sim.FieldClients, &opts.Config.Clients},
	} {
		if c.have {
			continue
		}
		n, err := p.count(c.field)
		if err != nil {
			return opts, err
		}
		*c.dst = n
	}

	if err := opts.Config.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}
