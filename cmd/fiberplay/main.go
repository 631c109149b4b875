package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/delaneyj/fibertree/fiber"
	"github.com/delaneyj/fibertree/memhost"
	"github.com/delaneyj/fibertree/scenario"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	verboseKey = "verbose"
	markupKey  = "markup"
	opsKey     = "ops"
)

func main() {
	cmd := &cli.Command{
		Name:  "fiberplay",
		Usage: "Replay tree scenarios through the reconciler and report host operations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  verboseKey,
				Usage: "Log every commit",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Render every step of a scenario file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  markupKey,
						Usage: "Print the container markup after each step",
					},
					&cli.BoolFlag{
						Name:  opsKey,
						Usage: "Print the host operation log of each step",
					},
				},
				Action: run,
			},
			{
				Name:      "check",
				Usage:     "Validate a scenario file without rendering it",
				ArgsUsage: "<file>",
				Action:    check,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func load(cmd *cli.Command) (*scenario.Scenario, error) {
	path := cmd.Args().First()
	if path == "" {
		return nil, errors.New("missing scenario file")
	}
	return scenario.LoadFile(path)
}

func check(ctx context.Context, cmd *cli.Command) error {
	s, err := load(cmd)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d steps ok\n", s.Name, len(s.Steps))
	return nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool(verboseKey))
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := load(cmd)
	if err != nil {
		return err
	}

	var (
		commits    int
		commitTime time.Duration
	)
	start := time.Now()
	results, err := scenario.Run(s,
		fiber.WithLogger(logger),
		fiber.WithOnError(func(from *fiber.Fiber, err error) {
			logger.Warn("lifecycle failed", zap.Error(err))
		}),
		fiber.WithCommitHook(func(cs fiber.CommitStats) {
			commits++
			commitTime += cs.Duration
		}),
	)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if cmd.Bool(opsKey) {
		fmt.Print(scenario.Report(results))
		fmt.Println()
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"step", "ops", "created", "moved", "removed", "text", "attrs", "fingerprint"})

	var total int64
	for _, res := range results {
		c := res.Counts
		total += int64(len(res.Ops))
		table.Append([]string{
			res.Name,
			humanize.Comma(int64(len(res.Ops))),
			fmt.Sprint(c[memhost.OpCreate] + c[memhost.OpCreateText]),
			fmt.Sprint(c[memhost.OpAppend] + c[memhost.OpInsert]),
			fmt.Sprint(c[memhost.OpRemove]),
			fmt.Sprint(c[memhost.OpSetText]),
			fmt.Sprint(c[memhost.OpSetAttrs]),
			fmt.Sprintf("%016x", res.Fingerprint),
		})
	}
	table.SetFooter([]string{"", humanize.Comma(total), "", "", "", "", "", ""})
	table.Render()

	if cmd.Bool(markupKey) {
		for _, res := range results {
			fmt.Printf("%s: %s\n", res.Name, res.Markup)
		}
	}

	fmt.Printf("%s: %d commits in %v (%v committing)\n", s.Name, commits, elapsed, commitTime)
	return nil
}
