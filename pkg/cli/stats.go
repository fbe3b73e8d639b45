package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

func statsCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, repoFlags(&cfg)...)

	return &cli.Command{
		Name:  "stats",
		Usage: "Print outcome statistics from the rotation repository",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogging(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			stats, err := repo.GetStats(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "total requests: %d\n", stats.TotalRequests)
			fmt.Fprintf(c.Root().Writer, "  accepted:  %d\n", stats.Accepted)
			fmt.Fprintf(c.Root().Writer, "  fallback:  %d\n", stats.Fallback)
			fmt.Fprintf(c.Root().Writer, "  emergency: %d\n", stats.Emergency)
			fmt.Fprintf(c.Root().Writer, "  avg latency: %s\n", stats.AverageLatency().Round(time.Millisecond))
			return nil
		},
	}
}
