// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// buildCommand produces a print-ready document from a deck file.
func buildCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Build a print-ready sheet document from a deck file",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "deckfile",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path (overrides config.toml)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path (file for pdf, directory for png)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: pdf or png",
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Image cache directory",
			},
			&cli.BoolFlag{
				Name:  "skip-unresolved",
				Usage: "Report unresolved cards and continue instead of aborting",
			},
			&cli.BoolFlag{
				Name:  "allow-gaps",
				Usage: "Produce the document even if some images failed to fetch",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Bypass the on-disk image cache",
			},
		},
		Action: r.Build,
	}
}

// resolveCommand resolves a deck against the catalog without fetching images.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a deck file and list its image units",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "deckfile",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-unresolved",
				Usage: "Report unresolved cards and continue instead of aborting",
			},
		},
		Action: r.Resolve,
	}
}

// cacheCommand manages the image cache directory.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Image cache operations",
		Commands: []*cli.Command{
			{
				Name:   "path",
				Usage:  "Print the effective cache directory",
				Action: r.CachePath,
			},
			{
				Name:   "init",
				Usage:  "Create the cache directory",
				Action: r.CacheInit,
			},
		},
	}
}

// configCommand manages the configuration file.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Destination path",
						Value:   "config.toml",
					},
				},
				Action: r.ConfigInit,
			},
		},
	}
}
