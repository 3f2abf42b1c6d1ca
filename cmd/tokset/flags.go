package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokset/internal/logger"
)

var (
	dataPath  string
	logLevel  string
	logFormat string
	debug     bool
)

func dataFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "data",
		Aliases:     []string{"d"},
		Usage:       "path to the training data file",
		Required:    true,
		Destination: &dataPath,
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func buildLogger(w io.Writer) logger.Logger {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	if w == nil {
		w = os.Stderr
	}
	switch logFormat {
	case "json":
		return logger.JSON(w, level)
	case "text":
		return logger.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	default:
		return logger.Pretty(w, level)
	}
}
