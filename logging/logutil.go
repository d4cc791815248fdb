package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger routes the global logger to a console writer on stderr, keeping
// stdout free for the report itself.
func InitLogger(level string) error {
	return initLogger(os.Stderr, level)
}

func initLogger(out io.Writer, level string) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})

	if level == "" {
		level = zerolog.LevelInfoValue
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

func GetLogger() *zerolog.Logger {
	return &log.Logger
}
