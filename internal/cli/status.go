package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/keywordforge/kwforge/internal/api"
	"github.com/keywordforge/kwforge/internal/config"
	"github.com/keywordforge/kwforge/internal/constants"
	"github.com/keywordforge/kwforge/internal/debounce"
	"github.com/keywordforge/kwforge/internal/logging"
	"github.com/keywordforge/kwforge/internal/models"
	"github.com/keywordforge/kwforge/internal/pipeline"
	"github.com/keywordforge/kwforge/internal/progress"
	"github.com/keywordforge/kwforge/internal/util/sanitize"
)

// newStatusCmd creates the 'status' command.
func newStatusCmd() *cobra.Command {
	var watch bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the processing pipeline status for a project",
		Long: `Fetch the processing-status snapshot for a project and render the
seven-step pipeline (upload, combine, queue, import, persist, group,
complete) plus a per-file status table.

With --watch, polls the snapshot endpoint until processing reaches a
terminal state (complete, error, or back to idle).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := requireProject(cfg); err != nil {
				return err
			}
			if interval > 0 {
				cfg.PollInterval = interval
			}

			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			if watch {
				return watchStatus(client, cfg)
			}

			snap, err := client.FetchSnapshot(GetContext(), cfg.ProjectID)
			if err != nil {
				if api.IsNotFound(err) {
					return fmt.Errorf("project %s not found", cfg.ProjectID)
				}
				return err
			}

			renderStatus(os.Stdout, cfg.ProjectID, snap)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll until processing finishes")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval for --watch (default from config, 2s)")

	return cmd
}

// renderStatus writes the one-shot status view: pipeline steps followed
// by the reconciled per-file table.
func renderStatus(w io.Writer, projectID string, snap *models.Snapshot) {
	fmt.Fprintf(w, "Project %s: %s\n", projectID, statusLine(snap))
	fmt.Fprintln(w)

	for _, step := range pipeline.Project(snap) {
		fmt.Fprintf(w, "  %s %d. %s\n", stepMarker(step.State), step.Index, step.Name)
	}

	if table := fileTable(snap); table != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, table)
	}
}

// statusLine summarizes a snapshot in one line.
func statusLine(snap *models.Snapshot) string {
	if snap == nil || snap.Status == models.StatusIdle {
		return "idle"
	}

	line := string(snap.Status)
	if stage := sanitize.Display(snap.Stage); stage != "" {
		line += " (" + stage
		if detail := sanitize.Display(snap.StageDetail); detail != "" {
			line += ": " + detail
		}
		line += ")"
	}
	if msg := sanitize.Display(snap.Message); msg != "" {
		line += " - " + msg
	}
	return line
}

func stepMarker(state pipeline.StepState) string {
	switch state {
	case pipeline.StepDone:
		return "✓"
	case pipeline.StepActive:
		return "▶"
	case pipeline.StepErrored:
		return "✗"
	default:
		return " "
	}
}

// fileTable renders the reconciled per-file list, empty string when the
// snapshot names no files.
func fileTable(snap *models.Snapshot) string {
	entries := pipeline.Reconcile(snap)
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  %-32s %-12s %s\n", "FILE", "STATUS", "DETAIL")
	for _, e := range entries {
		fmt.Fprintf(&b, "  %-32s %-12s %s\n",
			sanitize.FileName(e.Name), string(e.Status), sanitize.Display(e.Detail))
	}
	return b.String()
}

// watchStatus polls the snapshot endpoint and keeps a step bar plus the
// file table up to date until processing reaches a terminal state.
// Renders are debounced so a burst of rapid stage changes repaints once.
func watchStatus(client *api.Client, cfg *config.Config) error {
	log := GetLogger()
	ctx := GetContext()

	bar := progress.NewStepBar(len(pipeline.Steps), os.Stderr)
	deb := debounce.New(constants.RenderDebounce)
	defer deb.Stop()

	// One fetch-failure warning per window, not one per poll.
	fetchGuard := debounce.NewGuard(30 * time.Second)

	var mu sync.Mutex
	var lastTable string
	render := func(snap *models.Snapshot) {
		mu.Lock()
		defer mu.Unlock()

		current := pipeline.StepIndex(snapStatus(snap), snapStage(snap))
		if table := fileTable(snap); table != lastTable {
			lastTable = table
			bar.Clear()
			fmt.Fprint(os.Stderr, table)
		}
		bar.Set(current, statusLine(snap))
	}

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		snap, err := client.FetchSnapshot(ctx, cfg.ProjectID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if fetchGuard.TryAcquire() {
				log.Warn().Err(err).Msg("Snapshot fetch failed, retrying")
			}
		case snap.Status.IsTerminal() || snap.Status == models.StatusIdle:
			deb.Flush(func() { render(snap) })
			if snap.Status == models.StatusComplete {
				bar.Finish()
			} else {
				bar.Clear()
			}
			return finishWatch(log, snap)
		default:
			deb.Trigger(func() { render(snap) })
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// finishWatch logs the terminal outcome. An errored pipeline makes the
// command exit non-zero.
func finishWatch(log *logging.Logger, snap *models.Snapshot) error {
	switch snap.Status {
	case models.StatusComplete:
		msg := snap.Message
		if msg == "" {
			msg = "Processing complete"
		}
		log.Info().Msg(msg)
		return nil
	case models.StatusError:
		detail := snap.Message
		if detail == "" {
			detail = snap.StageDetail
		}
		if detail == "" {
			detail = "processing failed"
		}
		return fmt.Errorf("processing failed: %s", detail)
	default:
		log.Info().Msg("Project is idle")
		return nil
	}
}

func snapStatus(snap *models.Snapshot) models.Status {
	if snap == nil {
		return models.StatusIdle
	}
	return snap.Status
}

func snapStage(snap *models.Snapshot) string {
	if snap == nil {
		return ""
	}
	return snap.Stage
}
