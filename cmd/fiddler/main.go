// Command fiddler runs a declarative stream-processing document: "run"
// binds and executes it to completion, "lint" only parses and validates
// it. Grounded on the real Benthos/redpanda-connect CLI's run/lint command
// pair, which the dependency manifests for
// other_examples/manifests/redpanda-data-benthos and
// other_examples/manifests/iamramtin-bento both back with
// github.com/urfave/cli/v2 - already in this module's go.mod. No direct
// source file in the corpus exercises urfave/cli/v2 itself (the teacher's
// own public/service package has no cmd/ binary), so the subcommand
// wiring below follows urfave/cli/v2's own documented App/Command/Flag
// shape rather than imitating a specific corpus file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	_ "github.com/rc1405/fiddler-sub001/internal/impl/all"
	"github.com/rc1405/fiddler-sub001/public/service"
)

func main() {
	app := &cli.App{
		Name:  "fiddler",
		Usage: "run and validate declarative stream-processing pipelines",
		Commands: []*cli.Command{
			runCommand(),
			lintCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "bind and run a pipeline document to completion",
		ArgsUsage: "<config.yaml>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "metrics", Usage: "register Prometheus metrics against the default registry"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("run requires a config file path")
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			builder := service.NewStreamBuilder()
			builder.SetLogger(slog.Default())
			if err := builder.SetYAML(string(raw)); err != nil {
				return err
			}
			if c.Bool("metrics") {
				builder.SetMetricsRegisterer(nil)
			}

			stream, err := builder.Build()
			if err != nil {
				return fmt.Errorf("building pipeline: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			res := stream.Run(ctx)
			slog.Info("pipeline finished",
				"completed", res.Counters.Completed,
				"process_errors", res.Counters.ProcessErrors,
				"output_errors", res.Counters.OutputErrors,
				"duplicates_rejected", res.Counters.DuplicatesRejected,
			)
			if res.Err != nil {
				return fmt.Errorf("pipeline exited with a fatal error: %w", res.Err)
			}
			return nil
		},
	}
}

func lintCommand() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "parse and validate a pipeline document without running it",
		ArgsUsage: "<config.yaml>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("lint requires a config file path")
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			builder := service.NewStreamBuilder()
			if err := builder.SetYAML(string(raw)); err != nil {
				return err
			}
			if _, err := builder.Build(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Println("OK")
			return nil
		},
	}
}
