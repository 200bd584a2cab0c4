package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Ingest scans as they arrive in a directory",
	Long: `Watch an inbox directory and ingest every new or modified scan.

Point your scanner's "scan to folder" at the directory. A file is ingested
once it has stopped changing for the debounce window. Hidden files and
unsupported types are ignored. Files already in the directory are left
alone; use "docshelf ingest" for those.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchDebounce time.Duration
	watchNotes    string
	watchNoRemote bool
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a file is ingested")
	watchCmd.Flags().StringVar(&watchNotes, "notes", "", "notes attached to every ingested document")
	watchCmd.Flags().BoolVar(&watchNoRemote, "no-remote", false, "do not forward to the remote database")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	w, err := watcher.New(args[0], ingestService, watcher.Options{
		OwnerID:    currentOwner(),
		UserNotes:  watchNotes,
		SkipRemote: watchNoRemote,
		Debounce:   watchDebounce,
		OnResult: func(r watcher.Result) {
			if r.Err != nil {
				cmd.Printf("%s %s: %v\n", failMark("✗"), r.Path, r.Err)
				return
			}
			printIngestState(cmd, r.Path, r.State)
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(ctx)
}
