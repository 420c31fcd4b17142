// ABOUTME: Logging setup and per-component entries built on logrus
// ABOUTME: Routes to a file when the TUI owns the terminal
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configure the process-wide logger.
type Options struct {
	// FilePath receives log output. Empty disables file logging.
	FilePath string

	// Stderr mirrors output to stderr. Keep false while the TUI owns the
	// terminal.
	Stderr bool

	// Level is a logrus level name; invalid or empty means info.
	Level string
}

// Setup configures the global logrus logger. It returns a close function for
// the log file, if one was opened.
func Setup(opts Options) (func(), error) {
	var writers []io.Writer
	closer := func() {}

	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
		closer = func() { _ = f.Close() }
	}
	if opts.Stderr {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		logrus.SetOutput(io.Discard)
	case 1:
		logrus.SetOutput(writers[0])
	default:
		logrus.SetOutput(io.MultiWriter(writers...))
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	return closer, nil
}

// Component returns a logger entry tagged with a component name, so engine,
// output, remote and UI lines can be told apart in one file.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
