package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/vybelabs/numen/pkg/model"
)

func corpusCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, corpusFlags(&cfg)...)

	return &cli.Command{
		Name:  "corpus",
		Usage: "Validate the corpus and fallback bank and print coverage",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogging(ctx)

			store, bank, err := cfg.newCorpus(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "corpus version %s: %d fragments\n", store.Version(), store.Len())

			for _, persona := range model.Personas() {
				var counts [10]int
				var gaps []int
				for n := 1; n <= 9; n++ {
					counts[n] = len(store.Fetch(ctx, persona, n))
					if counts[n] == 0 {
						gaps = append(gaps, n)
					}
				}
				fmt.Fprintf(c.Root().Writer, "  %-12s", persona)
				for n := 1; n <= 9; n++ {
					fmt.Fprintf(c.Root().Writer, " %d:%d", n, counts[n])
				}
				if len(gaps) > 0 {
					fmt.Fprintf(c.Root().Writer, "  (no fragments for %v)", gaps)
				}
				fmt.Fprintln(c.Root().Writer)
			}

			pairs := make(map[string]int)
			for _, e := range bank {
				pairs[e.NumberPairKey]++
			}
			fmt.Fprintf(c.Root().Writer, "fallback bank: %d entries covering %d pairs\n", len(bank), len(pairs))
			return nil
		},
	}
}
