package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v3"
)

func countCharsCmd() *cli.Command {
	var top int64

	return &cli.Command{
		Name:  "count-chars",
		Usage: "Print a byte histogram of a data file",
		Flags: []cli.Flag{
			dataFlag(),
			&cli.Int64Flag{
				Name:        "top",
				Usage:       "number of entries to print (0 = all)",
				Destination: &top,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			data, err := os.ReadFile(dataPath)
			if err != nil {
				return fmt.Errorf("read data file: %w", err)
			}
			var counts [256]uint64
			for _, b := range data {
				counts[b]++
			}

			type entry struct {
				b byte
				n uint64
			}
			entries := make([]entry, 0, 256)
			for b := 0; b < 256; b++ {
				if counts[b] > 0 {
					entries = append(entries, entry{byte(b), counts[b]})
				}
			}
			sort.Slice(entries, func(i, j int) bool {
				if entries[i].n != entries[j].n {
					return entries[i].n > entries[j].n
				}
				return entries[i].b < entries[j].b
			})

			fmt.Printf("%d bytes, %d distinct values\n", len(data), len(entries))
			for i, e := range entries {
				if top > 0 && int64(i) >= top {
					break
				}
				fmt.Printf("%-8s %10d\n", byteLabel(e.b), e.n)
			}
			return nil
		},
	}
}

func byteLabel(b byte) string {
	if b >= 0x21 && b < 0x7f {
		return fmt.Sprintf("%q", string(b))
	}
	return fmt.Sprintf("0x%02x", b)
}
