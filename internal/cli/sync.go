package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/scheduler"
)

// SyncCommand pulls the cloud collection or shows the last sync run.
type SyncCommand struct {
	cfg *config.Config

	Action  string
	Verbose bool
}

func NewSyncCommand(cfg *config.Config) *SyncCommand {
	return &SyncCommand{cfg: cfg}
}

func (cmd *SyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [down|status] [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Pull your cloud collection into the local one (default), or show the\n")
		fmt.Fprintf(os.Stderr, "outcome of the last run. Local entries missing from the cloud are kept.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	cmd.Action = "down"
	if len(args) > 0 && (args[0] == "down" || args[0] == "status") {
		cmd.Action = args[0]
		args = args[1:]
	}
	return fs.Parse(args)
}

func (cmd *SyncCommand) Run() error {
	a, err := openApp(cmd.cfg, cmd.Verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	if cmd.Action == "status" {
		return cmd.status(a.SyncRuns.GetSyncRun())
	}

	ctx := context.Background()
	if err := restoreSession(ctx, a); err != nil {
		return err
	}

	fmt.Println("Pulling your cloud collection...")
	report, err := scheduler.RunCollectionSync(ctx, a.Engine, a.SyncRuns, a.Log)
	if err != nil {
		return err
	}
	if report.Err != nil {
		return fmt.Errorf("sync failed: %w", report.Err)
	}
	fmt.Printf("✅ %s\n", report)
	return nil
}

func (cmd *SyncCommand) status(run *entities.SyncRun, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fmt.Println("No sync has run yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read sync history: %w", err)
	}

	fmt.Printf("Status:   %s\n", run.Status)
	fmt.Printf("Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
	if run.CompletedAt != nil {
		fmt.Printf("Finished: %s\n", run.CompletedAt.Local().Format(time.DateTime))
	}
	if run.Status != entities.SyncStatusSkipped {
		fmt.Printf("Entries:  %d (%d updated, %d inserted, %d failed)\n", run.TotalItems, run.Updated, run.Inserted, run.Failed)
	}
	if run.Error != "" {
		fmt.Printf("Message:  %s\n", run.Error)
	}
	return nil
}
