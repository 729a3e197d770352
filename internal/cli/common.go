package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mrlokans/mangashelf/internal/app"
	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/logger"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

// openApp initialises logging and opens the application. With verbose the
// log level is forced to debug.
func openApp(cfg *config.Config, verbose bool, opts ...app.Option) (*app.App, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	l := logger.New()
	if err := l.Init(level); err != nil {
		return nil, err
	}

	a, err := app.Open(cfg, l.Log, opts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// restoreSession bootstraps the stored login and fails when nobody is signed in.
func restoreSession(ctx context.Context, a *app.App) error {
	a.Session.Bootstrap(ctx)
	if !a.Session.IsAuthenticated() {
		return fmt.Errorf("not signed in, run 'login' first")
	}
	return nil
}

func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSpace(strings.TrimSuffix(label, ":")), err)
	}
	return strings.TrimSpace(line), nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func volumes(v *int) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *v)
}

func printMangaList(items []mangaapi.Manga, owned map[int]bool) {
	w := newTable()
	fmt.Fprintln(w, "ID\tTITLE\tVOLUMES\tSTATUS\tSCORE\t")
	for _, m := range items {
		score := "-"
		if m.Score != nil {
			score = fmt.Sprintf("%.2f", *m.Score)
		}
		title := m.Title
		if owned[m.ID] {
			title += " *"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", m.ID, title, volumes(m.Volumes), m.Status.Label(), score)
	}
	w.Flush()
}

func printRecords(records []entities.CollectionRecord) {
	w := newTable()
	fmt.Fprintln(w, "ID\tTITLE\tOWNED\tREADING\tCOMPLETE\tADDED\t")
	for _, r := range records {
		reading := "-"
		if r.ReadingVolume != nil {
			reading = fmt.Sprintf("%d", *r.ReadingVolume)
		}
		complete := ""
		if r.CompleteCollection {
			complete = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
			r.MangaID, r.Title, r.VolumesLabel(), reading, complete, r.DateAdded.Format("2006-01-02"))
	}
	w.Flush()
}

// ownedIDs marks catalog entries already in the local collection.
func ownedIDs(a *app.App) map[int]bool {
	owned := make(map[int]bool)
	records, err := a.Collection.All()
	if err != nil {
		return owned
	}
	for _, r := range records {
		owned[r.MangaID] = true
	}
	return owned
}
