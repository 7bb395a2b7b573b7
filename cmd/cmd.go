// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "cratedex",
		Usage:   "Manage and reconcile DJ collection documents",
		Version: "0.3.0",
		Commands: []*cli.Command{
			serveCommand(r),
			inspectCommand(r),
			tracksCommand(r),
			commentsCommand(r),
			orphansCommand(r),
			matchCommand(r),
			browseCommand(r),
			initCommand(r),
		},
	}
}

// serveCommand starts the HTTP collection service.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the collection API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override the configured listen host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override the configured listen port",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Action: r.Serve,
	}
}

// inspectCommand renders a document's folder tree.
func inspectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the folder/playlist tree of a collection document",
		ArgsUsage: "<document.xml>",
		Action:    r.Inspect,
	}
}

// tracksCommand exports the flat catalog.
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tracks",
		Usage:     "Export the track catalog of a collection document as CSV",
		ArgsUsage: "<document.xml>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (stdout when omitted)",
			},
		},
		Action: r.Tracks,
	}
}

// commentsCommand categorizes the document's track comments.
func commentsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "comments",
		Usage:     "Categorize the distinct track comments of a collection document",
		ArgsUsage: "<document.xml>",
		Action:    r.Comments,
	}
}

// orphansCommand reports catalog tracks referenced by no playlist.
func orphansCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "orphans",
		Usage:     "List catalog tracks referenced by no playlist",
		ArgsUsage: "<document.xml>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the document back with an Orphans playlist added",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Name for the created playlist",
				Value: "Orphans",
			},
		},
		Action: r.Orphans,
	}
}

// matchCommand reconciles two documents' catalogs.
func matchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "Fuzzy-match the catalogs of two collection documents",
		ArgsUsage: "<source.xml> <target.xml>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "threshold",
				Usage: "Minimum confidence (0-100) to accept a match",
			},
		},
		Action: r.Match,
	}
}

// browseCommand opens the TUI browser.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "browse",
		Usage:     "Browse a collection document in the terminal",
		ArgsUsage: "<document.xml>",
		Action:    r.Browse,
	}
}

// initCommand writes a starter config file.
func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write an example config.toml to the current directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Destination path",
				Value:   "config.toml",
			},
		},
		Action: r.Init,
	}
}
