package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the process logger: JSON lines by default, human-readable
// console output when console is set.
func New(console bool, level string) zerolog.Logger {
	return newLogger(os.Stdout, console, level)
}

func newLogger(w io.Writer, console bool, level string) zerolog.Logger {
	out := w
	if console {
		out = zerolog.ConsoleWriter{Out: w}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
