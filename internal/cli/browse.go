package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mrlokans/mangashelf/internal/catalog"
	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

// BrowseCommand pages through the catalog, optionally under one filter.
type BrowseCommand struct {
	cfg *config.Config

	Genre       string
	Demographic string
	Theme       string
	Pages       int
	ListFilters bool
	Verbose     bool

	filter mangaapi.Filter
}

func NewBrowseCommand(cfg *config.Config) *BrowseCommand {
	return &BrowseCommand{cfg: cfg}
}

func (cmd *BrowseCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)

	fs.StringVar(&cmd.Genre, "genre", "", "Only show manga with this genre")
	fs.StringVar(&cmd.Demographic, "demographic", "", "Only show manga for this demographic")
	fs.StringVar(&cmd.Theme, "theme", "", "Only show manga with this theme")
	fs.IntVar(&cmd.Pages, "pages", 1, "Number of pages to load")
	fs.BoolVar(&cmd.ListFilters, "filters", false, "List the available genres, demographics and themes")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s browse [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Browse the manga catalog page by page. Entries already in your\n")
		fmt.Fprintf(os.Stderr, "collection are marked with '*'. Only one filter can be active.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s browse -pages 3\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s browse -genre Drama\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s browse -filters\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	filter, err := singleFilter(cmd.Genre, cmd.Demographic, cmd.Theme)
	if err != nil {
		return err
	}
	cmd.filter = filter

	if cmd.Pages < 1 {
		return fmt.Errorf("-pages must be at least 1")
	}
	return nil
}

func singleFilter(genre, demographic, theme string) (mangaapi.Filter, error) {
	var filters []mangaapi.Filter
	if genre != "" {
		filters = append(filters, mangaapi.Filter{Kind: mangaapi.FilterGenre, Value: genre})
	}
	if demographic != "" {
		filters = append(filters, mangaapi.Filter{Kind: mangaapi.FilterDemographic, Value: demographic})
	}
	if theme != "" {
		filters = append(filters, mangaapi.Filter{Kind: mangaapi.FilterTheme, Value: theme})
	}
	switch len(filters) {
	case 0:
		return mangaapi.NoFilter, nil
	case 1:
		return filters[0], nil
	default:
		return mangaapi.NoFilter, fmt.Errorf("only one of -genre, -demographic and -theme can be used")
	}
}

func (cmd *BrowseCommand) Run() error {
	a, err := openApp(cmd.cfg, cmd.Verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	manager := a.Catalog()

	snap := manager.LoadInitial(ctx)
	if snap.LastError != nil {
		return fmt.Errorf("failed to load catalog: %w", snap.LastError)
	}

	if cmd.ListFilters {
		printVocabularies(snap.Vocabularies)
		return nil
	}

	if !cmd.filter.IsZero() {
		snap = manager.ApplyFilter(ctx, cmd.filter)
		if snap.LastError != nil {
			return fmt.Errorf("failed to load %s: %w", cmd.filter, snap.LastError)
		}
	}

	for snap.Page < cmd.Pages && snap.CanLoadMore {
		snap = manager.LoadNextPage(ctx)
		if snap.LastError != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Stopped at page %d: %v\n", snap.Page, snap.LastError)
			break
		}
	}

	fmt.Printf("Catalog (%s)\n\n", snap.Filter)
	printMangaList(snap.Items, ownedIDs(a))
	fmt.Println()
	if snap.HasTotal {
		fmt.Printf("Showing %d of %d (page %d)\n", len(snap.Items), snap.Total, snap.Page)
	} else {
		fmt.Printf("Showing %d (page %d)\n", len(snap.Items), snap.Page)
	}
	if snap.CanLoadMore {
		fmt.Printf("More available: use -pages %d\n", snap.Page+1)
	}
	return nil
}

func printVocabularies(v catalog.Vocabularies) {
	fmt.Printf("Genres:       %s\n", strings.Join(v.Genres, ", "))
	fmt.Printf("Demographics: %s\n", strings.Join(v.Demographics, ", "))
	fmt.Printf("Themes:       %s\n", strings.Join(v.Themes, ", "))
}
