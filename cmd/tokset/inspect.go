package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tokset/internal/tokenset"
)

func inspectCmd() *cli.Command {
	var top int64

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Summarize a token set artifact",
		ArgsUsage: "<artifact.json>",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "top",
				Usage:       "number of merge tokens to list",
				Value:       20,
				Destination: &top,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("usage: tokset inspect <artifact.json>")
			}
			m, err := tokenset.Load(path)
			if err != nil {
				return err
			}

			fmt.Printf("name:       %s\n", m.Name())
			if m.ID() != "" {
				fmt.Printf("id:         %s\n", m.ID())
			}
			scheme := m.Scheme()
			fmt.Printf("type:       %s (arity %d, alphabet %d)\n", scheme.Name(), scheme.Arity(), scheme.Alphabet())
			fmt.Printf("processing: %s\n", m.Processing())
			fmt.Printf("tokens:     %d\n", m.Len())
			if stats := m.Stats(); stats != (tokenset.Stats{}) {
				fmt.Printf("trained on: %d bytes -> %d tokens (%.3f bytes/token, %d merges)\n",
					stats.ScannedBytes, stats.TotalTokens, stats.BytesPerToken, stats.MergeSteps)
			}
			if m.Warning() != "" {
				fmt.Printf("warning:    %s\n", m.Warning())
			}

			// Longest merge tokens first; they are what training bought.
			type entry struct {
				id     int
				leaves int
			}
			var merges []entry
			for id := 0; id < m.Len(); id++ {
				if m.Token(id).Kind == tokenset.KindMerge {
					merges = append(merges, entry{id, m.LeafLen(id)})
				}
			}
			sort.Slice(merges, func(i, j int) bool {
				if merges[i].leaves != merges[j].leaves {
					return merges[i].leaves > merges[j].leaves
				}
				return merges[i].id < merges[j].id
			})
			if len(merges) > 0 {
				fmt.Printf("\nlongest merge tokens:\n")
			}
			for i, e := range merges {
				if top > 0 && int64(i) >= top {
					break
				}
				fmt.Printf("  %5d  %s\n", e.id, m.Text(e.id))
			}
			return nil
		},
	}
}
