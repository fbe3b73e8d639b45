package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/urfave/cli/v3"
	"github.com/vybelabs/numen/pkg/model"
)

func generateCommand() *cli.Command {
	var (
		cfg        config
		numberA    int64
		numberB    int64
		persona    string
		tag        string
		jsonOutput bool
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "number-a",
			Aliases:     []string{"a"},
			Usage:       "First numerology number (1-9)",
			Required:    true,
			Destination: &numberA,
		},
		&cli.IntFlag{
			Name:        "number-b",
			Aliases:     []string{"b"},
			Usage:       "Second numerology number (1-9)",
			Required:    true,
			Destination: &numberB,
		},
		&cli.StringFlag{
			Name:        "persona",
			Usage:       "Voice persona (oracle, psychologist, philosopher, scholar, guide)",
			Value:       string(model.PersonaOracle),
			Sources:     cli.EnvVars("NUMEN_PERSONA"),
			Destination: &persona,
		},
		&cli.StringFlag{
			Name:        "tag",
			Usage:       "Situational tag such as career, love, or health",
			Destination: &tag,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the full result as JSON",
			Destination: &jsonOutput,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, corpusFlags(&cfg)...)
	flags = append(flags, repoFlags(&cfg)...)
	flags = append(flags, telemetryFlags(&cfg)...)
	flags = append(flags, embedderFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:  "generate",
		Usage: "Generate one guidance passage for a number pair",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogging(ctx)

			pipeline, cleanup, err := cfg.newPipeline(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Writer = os.Stderr
			sp.Suffix = " consulting the numbers..."
			sp.Start()

			result, err := pipeline.Generate(ctx, model.Context{
				NumberA:        int(numberA),
				NumberB:        int(numberB),
				Persona:        model.Persona(persona),
				SituationalTag: tag,
			})
			sp.Stop()
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(c.Root().Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprintf(c.Root().Writer, "%s\n\n", result.Text)
			fmt.Fprintf(c.Root().Writer, "score=%.2f strategy=%s attempts=%d fallback=%t duration=%s\n",
				result.FinalScore, result.StrategyUsed, result.AttemptsUsed, result.UsedFallback,
				result.TotalDuration.Round(time.Millisecond))
			return nil
		},
	}
}
