package models

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
	"github.com/xyproto/env/v2"
)

const (
	DefaultRamSize     = 0x100000
	DefaultStackSize   = 0x2000
	DefaultMaxRunDepth = 8

	volumesFile = "volumes.conf"
)

type Config struct {
	// guest memory
	RamSize   uint64
	StackSize uint64
	// nested Machine.Run limit
	MaxRunDepth int

	// volume name (without colon) -> host directory
	Volumes map[string]string
	// guest current directory, e.g. "sys:"
	Cwd string

	LogLevel  string
	Verbose   bool
	TraceRuns bool
}

// DefaultConfig maps root: to / and sys: to the host working directory,
// then applies AMICORN_* environment overrides.
func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	c := &Config{
		RamSize:     uint64(env.Int("AMICORN_RAM", DefaultRamSize)),
		StackSize:   uint64(env.Int("AMICORN_STACK", DefaultStackSize)),
		MaxRunDepth: env.Int("AMICORN_MAX_DEPTH", DefaultMaxRunDepth),
		Volumes: map[string]string{
			"root": "/",
			"sys":  wd,
		},
		Cwd:       env.Str("AMICORN_CWD", "sys:"),
		LogLevel:  env.Str("AMICORN_LOG", "warn"),
		Verbose:   env.Bool("AMICORN_VERBOSE"),
		TraceRuns: env.Bool("AMICORN_TRACE_RUNS"),
	}
	return c
}

// AddVolume maps name: (case-insensitive) to dir.
func (c *Config) AddVolume(name, dir string) error {
	name = strings.ToLower(strings.TrimSuffix(name, ":"))
	if name == "" || strings.ContainsAny(name, ":/") {
		return errors.Errorf("invalid volume name %q", name)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrap(err, "filepath.Abs() failed")
	}
	if c.Volumes == nil {
		c.Volumes = make(map[string]string)
	}
	c.Volumes[name] = abs
	return nil
}

// ParseVolumes reads "name:path" lines. Blank lines and # comments are skipped.
func (c *Config) ParseVolumes(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		split := strings.SplitN(line, ":", 2)
		if len(split) != 2 {
			return errors.Errorf("line %d: expected name:path, got %q", lineno, line)
		}
		if err := c.AddVolume(split[0], strings.TrimSpace(split[1])); err != nil {
			return errors.Wrapf(err, "line %d", lineno)
		}
	}
	return scanner.Err()
}

// LoadVolumes merges volumes.conf from the user and system config folders.
func (c *Config) LoadVolumes() error {
	configDirs := configdir.New("lunixbochs", "amicorn")
	folders := configDirs.QueryFolders(configdir.All)
	// system first so user entries win
	for i := len(folders) - 1; i >= 0; i-- {
		data, err := folders[i].ReadFile(volumesFile)
		if err != nil {
			continue
		}
		if err := c.ParseVolumes(strings.NewReader(string(data))); err != nil {
			return errors.Wrap(err, filepath.Join(folders[i].Path, volumesFile))
		}
	}
	return nil
}
