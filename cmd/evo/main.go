package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/baldhumanity/evo-go/evo"
)

var (
	Version   string = "0.0.0"
	BuildTime string
	GitCommit string
)

var versionCmd = &cli.Command{
	Name:    "version",
	Aliases: []string{"ver", "v"},
	Usage:   "Show version",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "all",
			Aliases: []string{"a"},
			Usage:   "Show all information (include: Version, BuildTime, GitCommit)",
			Value:   false,
		},
	},
	Action: func(ctx *cli.Context) error {
		if !ctx.Bool("all") {
			fmt.Println(ctx.App.Version)
		} else {
			cli.ShowVersion(ctx)
		}
		return nil
	},
}

func main() {
	cli.VersionPrinter = func(cli *cli.Context) {
		fmt.Println("Version: " + cli.App.Version)
		fmt.Println("BuildTime: " + BuildTime)
		fmt.Println("GitCommit: " + GitCommit)
	}

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "evo",
		Usage:   "Genetic algorithms and evolution strategies on benchmark problems",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "INI or YAML configuration file",
				EnvVars: []string{"EVO_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Development logging with per-generation debug lines",
				EnvVars: []string{"EVO_DEBUG"},
			},
		},
		Commands: []*cli.Command{gaCmd, esCmd, tuneCmd, analyzeCmd, versionCmd},
		Before:   setupLogger,
		After: func(*cli.Context) error {
			_ = zap.L().Sync()
			return nil
		},
	}
}

func setupLogger(ctx *cli.Context) error {
	var (
		logger *zap.Logger
		err    error
	)
	if ctx.Bool("debug") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)
	return nil
}

// loadConfig reads --config, or falls back to the defaults, and applies
// command line overrides.
func loadConfig(ctx *cli.Context) (*evo.Config, error) {
	config := evo.DefaultConfig()
	if path := ctx.String("config"); path != "" {
		var err error
		config, err = evo.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if ctx.IsSet("seed") {
		config.Run.Seed = ctx.Uint64("seed")
	}
	if ctx.IsSet("workers") {
		config.GA.Workers = ctx.Int("workers")
		config.ES.Workers = ctx.Int("workers")
		config.Tuning.Workers = ctx.Int("workers")
	}
	return config, nil
}
