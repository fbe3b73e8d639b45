package cli

import (
	"context"

	"github.com/urfave/cli/v3"
	"github.com/vybelabs/numen/pkg/service/mcp"
)

func serveCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, corpusFlags(&cfg)...)
	flags = append(flags, repoFlags(&cfg)...)
	flags = append(flags, telemetryFlags(&cfg)...)
	flags = append(flags, embedderFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the generation pipeline as an MCP tool over stdio",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogging(ctx)

			pipeline, cleanup, err := cfg.newPipeline(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			return mcp.New(pipeline).Run(ctx)
		},
	}
}
