package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/mrlokans/mangashelf/internal/app"
	"github.com/mrlokans/mangashelf/internal/cloudsync"
	"github.com/mrlokans/mangashelf/internal/collection"
	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/entities"
)

// CollectionCommand lists and edits the local collection. Every change is
// committed locally first and then echoed to the cloud when signed in.
type CollectionCommand struct {
	cfg *config.Config

	Action   string
	MangaID  int
	Owned    int
	Reading  string
	Complete bool
	Verbose  bool

	set map[string]bool
}

func NewCollectionCommand(cfg *config.Config) *CollectionCommand {
	return &CollectionCommand{cfg: cfg}
}

func (cmd *CollectionCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("collection", flag.ExitOnError)

	fs.IntVar(&cmd.Owned, "owned", 0, "Number of volumes owned (add, edit)")
	fs.StringVar(&cmd.Reading, "reading", "", "Volume currently being read, \"\" for none (add, edit)")
	fs.BoolVar(&cmd.Complete, "complete", false, "Mark the collection complete; sets owned to the total when it is known (add, edit)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s collection <list|add|edit|remove> [options] [manga id]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Manage your local collection.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s collection list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s collection add -owned 5 -reading 3 1\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s collection edit -complete 1\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s collection remove 1\n", os.Args[0])
	}

	if len(args) == 0 {
		fs.Usage()
		return fmt.Errorf("collection action not provided")
	}
	cmd.Action = args[0]

	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	cmd.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { cmd.set[f.Name] = true })

	switch cmd.Action {
	case "list":
		return nil
	case "add", "edit", "remove":
	default:
		return fmt.Errorf("unknown collection action %q", cmd.Action)
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

func (cmd *CollectionCommand) Run() error {
	a, err := openApp(cmd.cfg, cmd.Verbose, app.WithSyncObserver(printSyncEvent))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	if cmd.Action == "list" {
		return cmd.list(a)
	}

	// Edits work signed out too; the cloud echo is then skipped.
	a.Session.Bootstrap(ctx)

	editor, flush, err := a.Editor(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if left := flush(); left > 0 {
			fmt.Printf("⏳ %d cloud update(s) still queued, they will be sent by 'serve'\n", left)
		}
	}()

	switch cmd.Action {
	case "remove":
		return cmd.remove(editor)
	default:
		return cmd.save(ctx, a, editor)
	}
}

func (cmd *CollectionCommand) list(a *app.App) error {
	records, err := a.Collection.All()
	if err != nil {
		return fmt.Errorf("failed to read collection: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("Your collection is empty")
		return nil
	}
	printRecords(records)
	fmt.Printf("\n%d manga\n", len(records))
	return nil
}

func (cmd *CollectionCommand) save(ctx context.Context, a *app.App, editor *collection.Editor) error {
	existing, err := editor.Get(cmd.MangaID)
	if err != nil {
		return err
	}

	var target collection.Target
	switch {
	case existing != nil && cmd.Action == "add":
		return fmt.Errorf("manga %d is already in your collection, use 'collection edit'", cmd.MangaID)
	case existing == nil && cmd.Action == "edit":
		return fmt.Errorf("manga %d is not in your collection, use 'collection add'", cmd.MangaID)
	case existing != nil:
		target = collection.TargetFromRecord(*existing)
	default:
		m, err := a.API.FetchEntry(ctx, cmd.MangaID)
		if err != nil {
			return fmt.Errorf("failed to load manga %d: %w", cmd.MangaID, err)
		}
		target = collection.TargetFromManga(*m)
	}

	input := cmd.input(target, existing)
	record, err := editor.Save(target, input)
	var verr *collection.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("%s: %s", verr.Field, verr.Message)
	}
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s: %s volumes owned\n", record.Title, record.VolumesLabel())
	return nil
}

// input builds the form values. On edit, flags that were not given keep the
// current state; marking complete fills in the total like the form toggle.
func (cmd *CollectionCommand) input(target collection.Target, existing *entities.CollectionRecord) collection.Input {
	in := collection.Input{
		VolumesOwned:       cmd.Owned,
		ReadingVolume:      cmd.Reading,
		CompleteCollection: cmd.Complete,
	}
	if existing != nil {
		if !cmd.set["owned"] {
			in.VolumesOwned = existing.VolumesOwned
		}
		if !cmd.set["reading"] && existing.ReadingVolume != nil {
			in.ReadingVolume = strconv.Itoa(*existing.ReadingVolume)
		}
		if !cmd.set["complete"] {
			in.CompleteCollection = existing.CompleteCollection
		}
	}
	if cmd.Complete && target.TotalVolumes != nil {
		in.VolumesOwned = *target.TotalVolumes
	}
	return in
}

func (cmd *CollectionCommand) remove(editor *collection.Editor) error {
	err := editor.Remove(cmd.MangaID)
	if errors.Is(err, collection.ErrNotInCollection) {
		return fmt.Errorf("manga %d is not in your collection", cmd.MangaID)
	}
	if err != nil {
		return err
	}
	fmt.Printf("🗑️  Removed manga %d\n", cmd.MangaID)
	return nil
}

func printSyncEvent(ev cloudsync.Event) {
	switch {
	case ev.Skipped:
		fmt.Println("☁️  Not signed in, change kept locally only")
	case ev.Err != nil:
		fmt.Fprintf(os.Stderr, "⚠️  Cloud update failed: %v\n", ev.Err)
	case ev.Op != cloudsync.OpSyncDown:
		fmt.Println("☁️  Cloud collection updated")
	}
}
