package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokset/internal/textproc"
)

func processCmd() *cli.Command {
	var (
		outPath string
		decode  bool
	)

	return &cli.Command{
		Name:  "process",
		Usage: "Apply the reversible case/word-boundary transform to a file",
		Flags: append([]cli.Flag{
			dataFlag(),
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "path the processed text is written to",
				Required:    true,
				Destination: &outPath,
			},
			&cli.BoolFlag{
				Name:        "decode",
				Usage:       "invert the transform instead",
				Destination: &decode,
			},
		}, loggingFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := buildLogger(nil)
			data, err := os.ReadFile(dataPath)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			var out []byte
			if decode {
				out, err = textproc.Decode(data)
			} else {
				out, err = textproc.Encode(data)
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			log.Info("processed",
				"input", dataPath,
				"output", outPath,
				"in_bytes", len(data),
				"out_bytes", len(out))
			return nil
		},
	}
}
