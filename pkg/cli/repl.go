package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/usecase/generate"
)

func replCommand() *cli.Command {
	var (
		cfg     config
		persona string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "persona",
			Usage:       "Voice persona to start with",
			Value:       string(model.PersonaOracle),
			Sources:     cli.EnvVars("NUMEN_PERSONA"),
			Destination: &persona,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, corpusFlags(&cfg)...)
	flags = append(flags, repoFlags(&cfg)...)
	flags = append(flags, telemetryFlags(&cfg)...)
	flags = append(flags, embedderFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:  "repl",
		Usage: "Interactive session: enter number pairs, get passages",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogging(ctx)

			pipeline, cleanup, err := cfg.newPipeline(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rl, err := readline.New("numen> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			current := model.Persona(persona)
			if err := current.Validate(); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Enter two numbers 1-9 (e.g. \"3 7\" or \"3 7 career\"). Commands: :persona <name>, :stats, exit.\n")

			for {
				line, err := rl.Readline()
				if err != nil {
					if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
						return nil
					}
					return goerr.Wrap(err, "read failed")
				}

				line = strings.TrimSpace(line)
				switch {
				case line == "":
					continue
				case line == "exit" || line == "quit":
					return nil
				case strings.HasPrefix(line, ":persona"):
					next := model.Persona(strings.TrimSpace(strings.TrimPrefix(line, ":persona")))
					if err := next.Validate(); err != nil {
						fmt.Fprintf(c.Root().Writer, "unknown persona %q\n", next)
						continue
					}
					current = next
					fmt.Fprintf(c.Root().Writer, "persona set to %s\n", current)
					continue
				case line == ":stats":
					printStats(ctx, c, pipeline)
					continue
				}

				reqCtx, err := parseRequest(line, current)
				if err != nil {
					fmt.Fprintf(c.Root().Writer, "%s\n", err.Error())
					continue
				}

				result, err := pipeline.Generate(ctx, reqCtx)
				if err != nil {
					fmt.Fprintf(c.Root().Writer, "%s\n", err.Error())
					continue
				}

				fmt.Fprintf(c.Root().Writer, "\n%s\n\n(score=%.2f strategy=%s %s)\n\n",
					result.Text, result.FinalScore, result.StrategyUsed,
					result.TotalDuration.Round(time.Millisecond))
			}
		},
	}
}

func parseRequest(line string, persona model.Persona) (model.Context, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return model.Context{}, goerr.New("expected two numbers, e.g. \"3 7\"")
	}

	a, errA := strconv.Atoi(fields[0])
	b, errB := strconv.Atoi(fields[1])
	if errA != nil || errB != nil {
		return model.Context{}, goerr.New("expected two numbers, e.g. \"3 7\"")
	}

	reqCtx := model.Context{NumberA: a, NumberB: b, Persona: persona}
	if len(fields) > 2 {
		reqCtx.SituationalTag = strings.Join(fields[2:], " ")
	}

	if err := reqCtx.Validate(); err != nil {
		return model.Context{}, err
	}
	return reqCtx, nil
}

func printStats(ctx context.Context, c *cli.Command, pipeline *generate.Pipeline) {
	stats, err := pipeline.Stats(ctx)
	if err != nil {
		fmt.Fprintf(c.Root().Writer, "stats unavailable: %s\n", err.Error())
		return
	}
	fmt.Fprintf(c.Root().Writer, "requests=%d accepted=%d fallback=%d emergency=%d avg=%s\n",
		stats.TotalRequests, stats.Accepted, stats.Fallback, stats.Emergency,
		stats.AverageLatency().Round(time.Millisecond))
}
