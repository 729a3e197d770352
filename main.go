package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/mangashelf/internal/cli"
	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	cfg := config.NewConfig()

	// If no arguments or "serve" command, run the daemon
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		if err := entrypoint.Run(cfg, Version); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "browse":
		cmd = cli.NewBrowseCommand(cfg)
	case "search":
		cmd = cli.NewSearchCommand(cfg)
	case "show":
		cmd = cli.NewShowCommand(cfg)
	case "register":
		cmd = cli.NewRegisterCommand(cfg)
	case "login":
		cmd = cli.NewLoginCommand(cfg)
	case "logout":
		cmd = cli.NewLogoutCommand(cfg)
	case "whoami":
		cmd = cli.NewWhoamiCommand(cfg)
	case "refresh":
		cmd = cli.NewRefreshCommand(cfg)
	case "collection":
		cmd = cli.NewCollectionCommand(cfg)
	case "sync":
		cmd = cli.NewSyncCommand(cfg)
	case "version":
		fmt.Printf("mangashelf %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  browse       Page through the catalog, optionally filtered\n")
	fmt.Fprintf(os.Stderr, "  search       Search the catalog by title\n")
	fmt.Fprintf(os.Stderr, "  show         Show one catalog entry\n")
	fmt.Fprintf(os.Stderr, "  register     Create an account and sign in\n")
	fmt.Fprintf(os.Stderr, "  login        Sign in\n")
	fmt.Fprintf(os.Stderr, "  logout       Sign out\n")
	fmt.Fprintf(os.Stderr, "  whoami       Show the signed-in account\n")
	fmt.Fprintf(os.Stderr, "  refresh      Renew the session token\n")
	fmt.Fprintf(os.Stderr, "  collection   List and edit your collection (list|add|edit|remove)\n")
	fmt.Fprintf(os.Stderr, "  sync         Pull your cloud collection (down|status)\n")
	fmt.Fprintf(os.Stderr, "  serve        Run scheduled sync, token refresh and queued cloud updates (default)\n")
	fmt.Fprintf(os.Stderr, "  version      Print the version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
