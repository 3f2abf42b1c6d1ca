package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokset/internal/fallback"
	"github.com/samcharles93/tokset/internal/textproc"
	"github.com/samcharles93/tokset/internal/tokenset"
	"github.com/samcharles93/tokset/internal/trainer"
)

func optimizeCmd() *cli.Command {
	var (
		tokensDir  string
		schemeName string
		procName   string
		ntokens    int64
		optBudget  int64
		workers    int64
		seedPath   string
	)

	return &cli.Command{
		Name:  "optimize",
		Usage: "Train an optimized token set from a data file",
		Flags: append([]cli.Flag{
			dataFlag(),
			&cli.StringFlag{
				Name:        "tokens-path",
				Aliases:     []string{"t"},
				Usage:       "directory the token set artifact is written to",
				Value:       ".",
				Destination: &tokensDir,
			},
			&cli.StringFlag{
				Name:        "type",
				Usage:       "byte fallback scheme (bits1, bits2, bits4, bytes)",
				Value:       "bits4",
				Destination: &schemeName,
			},
			&cli.StringFlag{
				Name:        "processing",
				Aliases:     []string{"p"},
				Usage:       "pre-tokenization stage (raw, capswords)",
				Value:       "raw",
				Destination: &procName,
			},
			&cli.Int64Flag{
				Name:        "ntokens",
				Aliases:     []string{"n"},
				Usage:       "target vocabulary size",
				Required:    true,
				Destination: &ntokens,
			},
			&cli.Int64Flag{
				Name:        "opt-budget",
				Usage:       "optimizer iteration budget (0 = 2x ntokens)",
				Destination: &optBudget,
			},
			&cli.Int64Flag{
				Name:        "workers",
				Usage:       "workers for the initial pair count (0 = GOMAXPROCS)",
				Destination: &workers,
			},
			&cli.StringFlag{
				Name:        "seed-tokens",
				Usage:       "existing token set artifact to continue training from",
				Destination: &seedPath,
			},
		}, loggingFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyOptimizeConfig(cmd, cfg, &tokensDir, &optBudget, &workers)
			log := buildLogger(nil)

			set, err := seedSet(cmd, seedPath, &schemeName, &procName)
			if err != nil {
				return err
			}
			scheme := set.Scheme()
			processing := set.Processing()

			min := int64(tokenset.MinTokens(scheme, processing))
			if ntokens < min || ntokens > tokenset.MaxTokens {
				return fmt.Errorf("ntokens %d out of range [%d, %d] for %s/%s",
					ntokens, min, tokenset.MaxTokens, processing, scheme.Name())
			}

			data, err := os.ReadFile(dataPath)
			if err != nil {
				return fmt.Errorf("read training data: %w", err)
			}
			rawBytes := len(data)
			if processing == textproc.CapsWords {
				if data, err = textproc.Encode(data); err != nil {
					return fmt.Errorf("process training data: %w", err)
				}
			}
			log.Info("training",
				"data", dataPath,
				"bytes", rawBytes,
				"type", scheme.Name(),
				"processing", processing.String(),
				"ntokens", ntokens)

			tr, err := trainer.New(set, data, trainer.Config{
				Target:  int(ntokens),
				Workers: int(workers),
				Log:     log,
			})
			if err != nil {
				return err
			}

			warning := ""
			if tr.Train() == trainer.StateExhausted {
				warning = fmt.Sprintf("target unreachable: achieved %d of %d tokens", set.Len(), ntokens)
				log.Warn("no pair repeats anymore", "achieved", set.Len(), "target", ntokens)
			}
			tr.Optimize(int(optBudget))

			model := tokenset.Freeze(set, tr.Stats(), warning)
			if err := os.MkdirAll(tokensDir, 0o755); err != nil {
				return fmt.Errorf("create tokens directory: %w", err)
			}
			path, err := model.Save(tokensDir)
			if err != nil {
				return err
			}
			stats := model.Stats()
			log.Info("token set written",
				"path", path,
				"artifact", model.ID(),
				"ntokens", model.Len(),
				"bytes_per_token", fmt.Sprintf("%.3f", stats.BytesPerToken))
			return nil
		},
	}
}

// seedSet builds the starting vocabulary: a fresh one from the flags, or a
// mutable copy of a previous artifact. Explicit flags that contradict the
// seed's identity are an error rather than silently ignored.
func seedSet(cmd *cli.Command, seedPath string, schemeName, procName *string) (*tokenset.Set, error) {
	if seedPath == "" {
		scheme, err := fallback.ByName(*schemeName)
		if err != nil {
			return nil, err
		}
		processing, err := textproc.ParseProcessing(*procName)
		if err != nil {
			return nil, err
		}
		return tokenset.New(scheme, processing), nil
	}

	m, err := tokenset.Load(seedPath)
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("type") && m.Scheme().Name() != *schemeName {
		return nil, fmt.Errorf("seed token set is %s but --type=%s was given", m.Scheme().Name(), *schemeName)
	}
	if cmd.IsSet("processing") && m.Processing().String() != *procName {
		return nil, fmt.Errorf("seed token set is %s but --processing=%s was given", m.Processing(), *procName)
	}
	*schemeName = m.Scheme().Name()
	*procName = m.Processing().String()
	return m.Set(), nil
}
