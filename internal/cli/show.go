package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

// ShowCommand prints one catalog entry and its local collection state.
type ShowCommand struct {
	cfg *config.Config

	MangaID int
	Verbose bool
}

func NewShowCommand(cfg *config.Config) *ShowCommand {
	return &ShowCommand{cfg: cfg}
}

func (cmd *ShowCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s show [options] <manga id>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show details of one catalog entry.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one manga id")
	}
	id, err := strconv.Atoi(fs.Arg(0))
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid manga id %q", fs.Arg(0))
	}
	cmd.MangaID = id
	return nil
}

func (cmd *ShowCommand) Run() error {
	a, err := openApp(cmd.cfg, cmd.Verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.API.FetchEntry(context.Background(), cmd.MangaID)
	if err != nil {
		return fmt.Errorf("failed to load manga %d: %w", cmd.MangaID, err)
	}
	printManga(m)

	record, err := a.Collection.Find(m.ID)
	if err != nil {
		return fmt.Errorf("failed to read collection: %w", err)
	}
	fmt.Println()
	if record == nil {
		fmt.Println("Not in your collection")
		return nil
	}
	fmt.Printf("In your collection: %s volumes owned", record.VolumesLabel())
	if record.ReadingVolume != nil {
		fmt.Printf(", reading volume %d", *record.ReadingVolume)
	}
	if record.CompleteCollection {
		fmt.Print(", complete")
	}
	fmt.Println()
	return nil
}

func printManga(m *mangaapi.Manga) {
	fmt.Printf("%s (#%d)\n", m.Title, m.ID)
	if m.TitleEnglish != nil && *m.TitleEnglish != "" && *m.TitleEnglish != m.Title {
		fmt.Printf("  English:  %s\n", *m.TitleEnglish)
	}
	if m.TitleJapanese != nil && *m.TitleJapanese != "" {
		fmt.Printf("  Japanese: %s\n", *m.TitleJapanese)
	}

	var authors []string
	for _, au := range m.Authors {
		authors = append(authors, au.FullName())
	}
	if len(authors) > 0 {
		fmt.Printf("  Authors:  %s\n", strings.Join(authors, ", "))
	}
	fmt.Printf("  Status:   %s\n", m.Status.Label())
	fmt.Printf("  Volumes:  %s\n", volumes(m.Volumes))
	if m.Score != nil {
		fmt.Printf("  Score:    %.2f\n", *m.Score)
	}
	if m.StartDate != nil && !m.StartDate.IsZero() {
		fmt.Printf("  Started:  %s\n", m.StartDate.Format("2006-01-02"))
	}

	var labels []string
	for _, g := range m.Genres {
		labels = append(labels, g.Genre)
	}
	for _, d := range m.Demographics {
		labels = append(labels, d.Demographic)
	}
	for _, t := range m.Themes {
		labels = append(labels, t.Theme)
	}
	if len(labels) > 0 {
		fmt.Printf("  Tags:     %s\n", strings.Join(labels, ", "))
	}
	if cover := m.CoverURL(); cover != "" {
		fmt.Printf("  Cover:    %s\n", cover)
	}
	if m.Synopsis != nil && *m.Synopsis != "" {
		fmt.Printf("\n%s\n", *m.Synopsis)
	}
}
