package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mrlokans/mangashelf/internal/catalog"
	"github.com/mrlokans/mangashelf/internal/config"
)

// SearchCommand searches the catalog by title.
type SearchCommand struct {
	cfg *config.Config

	Term     string
	Contains bool
	Verbose  bool
}

func NewSearchCommand(cfg *config.Config) *SearchCommand {
	return &SearchCommand{cfg: cfg}
}

func (cmd *SearchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	fs.BoolVar(&cmd.Contains, "contains", false, "Match the term anywhere in the title instead of at the start")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s search [options] <term>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Search the catalog by title. Terms shorter than %d characters are ignored.\n\n", catalog.MinSearchLength)
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Term = strings.TrimSpace(strings.Join(fs.Args(), " "))
	if cmd.Term == "" {
		return fmt.Errorf("search term not provided")
	}
	return nil
}

func (cmd *SearchCommand) Run() error {
	a, err := openApp(cmd.cfg, cmd.Verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	mode := catalog.SearchPrefix
	if cmd.Contains {
		mode = catalog.SearchContains
	}
	manager := a.Catalog(catalog.WithSearchMode(mode))

	snap := manager.Search(context.Background(), cmd.Term)
	if snap.LastError != nil {
		return fmt.Errorf("search failed: %w", snap.LastError)
	}
	if !snap.Searching() {
		fmt.Printf("Search terms need at least %d characters\n", catalog.MinSearchLength)
		return nil
	}
	if len(snap.SearchResults) == 0 {
		fmt.Printf("Nothing matches %q\n", cmd.Term)
		return nil
	}

	printMangaList(snap.SearchResults, ownedIDs(a))
	return nil
}
