package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	amicorn "github.com/lunixbochs/amicorn/go"
	"github.com/lunixbochs/amicorn/go/cpu/unicorn"
	"github.com/lunixbochs/amicorn/go/kernel/amiga"
	"github.com/lunixbochs/amicorn/go/models"
)

var (
	config  = models.DefaultConfig()
	volumes []string
	noConf  bool
)

func init() {
	fs := root.PersistentFlags()
	fs.Uint64Var(&config.RamSize, "ram", config.RamSize, "guest memory size in bytes")
	fs.Uint64Var(&config.StackSize, "stack", config.StackSize, "stack size for nested runs")
	fs.IntVar(&config.MaxRunDepth, "max-depth", config.MaxRunDepth, "nested run limit")
	fs.StringVar(&config.Cwd, "cwd", config.Cwd, "guest current directory")
	fs.StringVar(&config.LogLevel, "log", config.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVarP(&config.Verbose, "verbose", "v", config.Verbose, "development logging")
	fs.BoolVar(&config.TraceRuns, "trace-runs", config.TraceRuns, "log register changes across nested runs")
	fs.StringArrayVar(&volumes, "volume", nil, "map a volume, name:path (repeatable)")
	fs.BoolVar(&noConf, "no-conf", false, "skip volumes.conf")
}

// setup merges volumes.conf and --volume into the config and installs the logger.
func setup(c *cobra.Command, args []string) error {
	if !noConf {
		if err := config.LoadVolumes(); err != nil {
			return err
		}
	}
	for _, v := range volumes {
		split := strings.SplitN(v, ":", 2)
		if len(split) != 2 || split[1] == "" {
			return errors.Errorf("--volume wants name:path, got %q", v)
		}
		if err := config.AddVolume(split[0], split[1]); err != nil {
			return err
		}
	}
	logger, err := config.NewLogger()
	if err != nil {
		return err
	}
	amicorn.SetLogger(logger)
	return nil
}

// Config is the merged flag, environment and volumes.conf configuration.
func Config() *models.Config { return config }

// NewSession starts a session on the unicorn m68k backend.
func NewSession() (*amicorn.Session, error) {
	// unicorn hooks must run on the thread that started emulation
	runtime.LockOSThread()
	s, err := amicorn.NewSession(config, unicorn.M68kBuilder())
	if err != nil {
		runtime.UnlockOSThread()
		return nil, errors.Wrap(err, "amicorn.NewSession() failed")
	}
	return s, nil
}

// WithSession runs fn on a fresh session and closes it afterwards.
func WithSession(fn func(s *amicorn.Session) error) error {
	s, err := NewSession()
	if err != nil {
		return err
	}
	defer runtime.UnlockOSThread()
	err = fn(s)
	if cerr := s.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// DosError is a failed dos operation, reported with the guest error code.
type DosError struct {
	Op   string
	Path string
	Code amiga.ErrCode
}

func (e *DosError) Error() string {
	return fmt.Sprintf("%s %s: %s (%d)", e.Op, e.Path, e.Code, int(e.Code))
}

// Check turns a non-zero code into a DosError.
func Check(op, path string, code amiga.ErrCode) error {
	if code == amiga.NO_ERROR {
		return nil
	}
	return &DosError{op, path, code}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// PrintError prints err, and a stacktrace if it carries one and logging is verbose.
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	var st stackTracer
	if !config.Verbose || !errors.As(err, &st) {
		return
	}
	fmt.Fprintf(os.Stderr, "%s\n", strings.Repeat("-", 40))
	var frames [][]string
	for _, f := range st.StackTrace() {
		fileline := fmt.Sprintf("%s:%d", f, f)
		method := fmt.Sprintf("%n", f)
		frames = append(frames, []string{fileline, method})
		if method == "main" {
			break
		}
	}
	width := 0
	for _, f := range frames {
		if len(f[0]) > width {
			width = len(f[0])
		}
	}
	for _, f := range frames {
		fmt.Fprintf(os.Stderr, "%-*s | %s()\n", width, f[0], f[1])
	}
}
