// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: txt, json, csv or markdown",
		Value:   "txt",
	}
}

// setupCommand writes the config file and prepares the database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create configuration and initialize the database",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the file to create",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles account operations
func authCommand(r *Runner) *cli.Command {
	credentialFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password"},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in, sign out and manage your account",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in and store the session token",
				Flags:  credentialFlags(),
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: append(credentialFlags(),
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name"},
				),
				Action: r.AuthRegister,
			},
			{
				Name:   "forgot",
				Usage:  "Request a password reset email",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"}},
				Action: r.AuthForgot,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored token",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the signed in account",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.AuthStatus,
			},
			{
				Name:  "delete",
				Usage: "Permanently delete your account",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deletion"},
				},
				Action: r.AuthDelete,
			},
		},
	}
}

// homeCommand prints the home feed
func homeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "home",
		Usage: "Show the home feed",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.BoolFlag{Name: "refresh", Usage: "Bypass the cache"},
		},
		Action: r.Home,
	}
}

// booksCommand lists the catalog
func booksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "books",
		Usage: "List catalog items",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "Only items in this language"},
			&cli.StringFlag{Name: "category", Usage: "Only items in this category id"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Only items of this type (book, audiobook, ebook, magazine, podcast, video)"},
			&cli.BoolFlag{Name: "refresh", Usage: "Bypass the cache"},
		},
		Action: r.Books,
	}
}

// likedCommand lists liked items
func likedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "liked",
		Usage: "List the items you liked",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.BoolFlag{Name: "refresh", Usage: "Bypass the cache"},
		},
		Action: r.Liked,
	}
}

// categoriesCommand lists categories
func categoriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List catalog categories",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Categories,
	}
}

// searchCommand searches the catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			formatFlag(),
			&cli.BoolFlag{Name: "local", Usage: "Filter the cached catalog instead of asking the server"},
		},
		Action: r.Search,
	}
}

func engagementArgs() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{Name: "kind"},
		&cli.StringArg{Name: "id"},
	}
}

// likeCommand likes an item
func likeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "like",
		Usage:     "Like an item",
		ArgsUsage: "<kind> <id>",
		Arguments: engagementArgs(),
		Action:    r.Like,
	}
}

// unlikeCommand removes a like
func unlikeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "unlike",
		Usage:     "Remove a like",
		ArgsUsage: "<kind> <id>",
		Arguments: engagementArgs(),
		Action:    r.Unlike,
	}
}

// reviewCommand rates an item
func reviewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Rate and review a book",
		ArgsUsage: "<id>",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Rating from 1 to 5", Required: true},
			&cli.StringFlag{Name: "comment", Aliases: []string{"m"}, Usage: "Review text"},
		},
		Action: r.Review,
	}
}

// openCommand opens a document in the system viewer
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open an item's document in the system viewer",
		ArgsUsage: "<id>",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "banner", Aliases: []string{"b"}, Usage: "Treat <id> as a home feed banner and open its link"},
		},
		Action: r.Open,
	}
}

// downloadCommand saves documents locally
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download documents from the catalog",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "liked", Usage: "Download liked items instead of the whole catalog"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Only items of this type"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory", Value: "./downloads"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Concurrent downloads (max 10)", Value: 4},
			&cli.FloatFlag{Name: "rate", Usage: "Downloads started per second", Value: 5},
			&cli.BoolFlag{Name: "audio", Usage: "Also download audio files"},
		},
		Action: r.Download,
	}
}

// cacheCommand inspects the dataset cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and clear cached datasets",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache state for each dataset",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "warm", Usage: "Fetch every dataset first"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.CacheStats,
			},
			{
				Name:      "clear",
				Usage:     "Drop a cached dataset",
				ArgsUsage: "[key]",
				Arguments: []cli.Argument{&cli.StringArg{Name: "key"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Drop every dataset"},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// playCommand plays an item's audio
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play an audiobook or podcast",
		ArgsUsage: "<id>",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "queue", Aliases: []string{"q"}, Usage: "Continue with the rest of the catalog when the track ends"},
		},
		Action: r.Play,
	}
}

// tuiCommand launches the interactive player
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive player",
		Action: r.TUI,
	}
}

// serveCommand starts the remote control server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the player with a socket.io remote control",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (defaults to config)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (defaults to config)"},
		},
		Action: r.Serve,
	}
}

// accountCommand handles subscription plans and region lookup
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Subscription plans and account region",
		Commands: []*cli.Command{
			{
				Name:   "plans",
				Usage:  "List subscription plans",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.AccountPlans,
			},
			{
				Name:      "subscribe",
				Usage:     "Subscribe to a plan",
				ArgsUsage: "<plan-id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "plan"}},
				Action:    r.AccountSubscribe,
			},
			{
				Name:   "region",
				Usage:  "Show the country the server sees you in",
				Action: r.AccountRegion,
			},
		},
	}
}

// bookmarkCommand saves a reading position
func bookmarkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "bookmark",
		Usage:     "Save a reading position",
		ArgsUsage: "<id>",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Usage: "Page number", Required: true},
		},
		Action: r.Bookmark,
	}
}

// pageCommand prints a static page
func pageCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "page",
		Usage:     "Show the privacy policy or terms",
		ArgsUsage: "privacy-policy|terms",
		Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
		Action:    r.Page,
	}
}
