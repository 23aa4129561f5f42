package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/keywordforge/kwforge/internal/events"
	"github.com/keywordforge/kwforge/internal/models"
	"github.com/keywordforge/kwforge/internal/pathutil"
	"github.com/keywordforge/kwforge/internal/progress"
	"github.com/keywordforge/kwforge/internal/upload"
	"github.com/keywordforge/kwforge/internal/util/sanitize"
)

// newUploadCmd creates the 'upload' command.
func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <files...>",
		Short: "Upload keyword CSV files to a dashboard project",
		Long: `Upload one or more keyword CSV exports to a dashboard project.

Files are validated up front (CSV extension or text/csv type); a single
invalid file rejects the whole batch before any bytes move. Valid files
then upload one at a time in resumable chunks, each with its own
progress bar. A file that fails mid-upload is skipped and the batch
continues with the next file.

Examples:
  kwforge upload keywords.csv --project 42
  kwforge upload exports/*.csv -p 42`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := requireProject(cfg); err != nil {
				return err
			}

			paths, err := expandArgs(args)
			if err != nil {
				return err
			}

			// Fail-fast: any invalid file rejects the batch here.
			batch, err := upload.NewBatch(cfg.ProjectID, paths)
			if err != nil {
				return err
			}

			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}
			sender, err := upload.NewSender(client)
			if err != nil {
				return err
			}

			log.Info().
				Str("project", cfg.ProjectID).
				Int("files", len(batch.Tasks)).
				Str("batch", batch.ID).
				Msg("Starting upload")

			bus := events.NewBus(4096)
			ui := progress.NewBatchUI(len(batch.Tasks))

			// Route log lines above the live bars.
			log.SetOutput(ui.Writer())
			defer log.SetOutput(os.Stderr)

			tasksByName := make(map[string]*upload.Task, len(batch.Tasks))
			for _, t := range batch.Tasks {
				tasksByName[t.Name] = t
			}

			stream := bus.SubscribeAll()
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for ev := range stream {
					if fe, ok := ev.(events.FileEvent); ok {
						renderFileEvent(ui, tasksByName, fe)
					}
				}
			}()

			result, runErr := batch.Run(GetContext(), sender, bus)
			bus.Close()
			wg.Wait()

			// Finalize any bar whose terminal event was dropped so Wait
			// cannot block. FileBar finalization is idempotent.
			for _, fr := range result.Files {
				bar, ok := ui.Bar(fr.Name)
				if !ok {
					continue
				}
				if fr.Status == models.StatusError {
					bar.Fail(sanitize.Display(fr.Message))
				} else {
					bar.Complete(string(fr.Status))
				}
			}
			ui.Wait()

			log.SetOutput(os.Stderr)
			for _, f := range result.Failed() {
				log.Warn().Str("file", f.Name).Msg(f.Message)
			}
			log.Info().
				Int("files", result.TotalFiles).
				Str("status", string(result.Status)).
				Msg(result.Message)

			if runErr != nil {
				return fmt.Errorf("upload failed: %w", runErr)
			}
			return nil
		},
	}

	return cmd
}

// renderFileEvent maps one stream event onto the progress UI.
func renderFileEvent(ui *progress.BatchUI, tasks map[string]*upload.Task, e events.FileEvent) {
	switch e.Type() {
	case events.EventFileStarted:
		if t, ok := tasks[e.FileName]; ok {
			ui.AddFileBar(t.Name, t.Size, t.TotalChunks)
		}
	case events.EventFileProgress:
		if bar, ok := ui.Bar(e.FileName); ok {
			bar.Update(float64(e.Percent), e.ChunkIndex)
		}
	case events.EventFileCompleted:
		if bar, ok := ui.Bar(e.FileName); ok {
			bar.Complete(string(e.Status))
		}
	case events.EventFileFailed:
		msg := sanitize.Display(e.Message)
		if bar, ok := ui.Bar(e.FileName); ok {
			bar.Fail(msg)
		} else {
			// Failed before its first chunk (cancellation).
			fmt.Fprintf(ui.Writer(), "✗ %s: %s\n", e.FileName, msg)
		}
	}
}

// expandArgs expands glob patterns in upload arguments. Plain paths
// pass through untouched so a missing file still surfaces as a stat
// error with its original name.
func expandArgs(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	for _, arg := range args {
		arg = pathutil.ExpandHome(arg)
		if !strings.ContainsAny(arg, "*?[") {
			if !seen[arg] {
				seen[arg] = true
				paths = append(paths, arg)
			}
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}

	return paths, nil
}
