// Package pipeline projects server-reported processing state onto the fixed
// seven-step view (upload, combine, queue, import, persist, group, complete)
// and reconciles overlapping per-file collections into one display list.
package pipeline

import (
	"github.com/keywordforge/kwforge/internal/models"
)

// 1-based step indices into Steps.
const (
	StepUpload   = 1
	StepCombine  = 2
	StepQueue    = 3
	StepImport   = 4
	StepPersist  = 5
	StepGroup    = 6
	StepComplete = 7
)

// Steps is the ordered list of human-facing pipeline steps.
var Steps = [7]string{"upload", "combine", "queue", "import", "persist", "group", "complete"}

// stageSteps maps fine-grained server pipeline stages to step indices.
var stageSteps = map[string]int{
	"upload":      StepUpload,
	"combine":     StepCombine,
	"queue":       StepQueue,
	"queued":      StepQueue,
	"db_prepare":  StepImport,
	"read_csv":    StepImport,
	"count_rows":  StepImport,
	"import_rows": StepImport,
	"persist":     StepPersist,
	"group":       StepGroup,
	"complete":    StepComplete,
}

// StepIndex maps a coarse status and fine-grained stage to a step index in
// [1,7]. The mapping is total: unknown statuses and stages still produce a
// step so the view always has something to highlight. During processing an
// unknown or missing stage defaults to the import step; an error keeps the
// last known stage's index when one is recognizable.
func StepIndex(status models.Status, stage string) int {
	switch status {
	case models.StatusUploading:
		return StepUpload
	case models.StatusCombining:
		return StepCombine
	case models.StatusQueued:
		return StepQueue
	case models.StatusComplete:
		return StepComplete
	case models.StatusProcessing:
		if i, ok := stageSteps[stage]; ok {
			return i
		}
		return StepImport
	case models.StatusError:
		if i, ok := stageSteps[stage]; ok {
			return i
		}
		return StepImport
	default:
		// idle or unrecognized status: nothing has happened past upload
		return StepUpload
	}
}

// StepState is the render state of one step relative to the current index.
type StepState int

const (
	StepPending StepState = iota
	StepActive
	StepDone
	StepErrored
)

func (s StepState) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepActive:
		return "active"
	case StepDone:
		return "done"
	case StepErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// StateOf returns the render state of the step at index (1-based): steps
// before the current index are done, the current step is active (errored
// when the overall status is error), later steps are pending. This holds
// even when statuses transition rapidly within one render pass, because the
// state derives purely from (index, current, status).
func StateOf(index, current int, status models.Status) StepState {
	switch {
	case index < current:
		return StepDone
	case index == current:
		if status == models.StatusError {
			return StepErrored
		}
		return StepActive
	default:
		return StepPending
	}
}

// StepView is one rendered pipeline step.
type StepView struct {
	Index int
	Name  string
	State StepState
}

// Project renders the full step list for a snapshot.
func Project(snap *models.Snapshot) []StepView {
	status := models.StatusIdle
	stage := ""
	if snap != nil {
		status = snap.Status
		stage = snap.Stage
	}
	current := StepIndex(status, stage)

	views := make([]StepView, len(Steps))
	for i, name := range Steps {
		idx := i + 1
		views[i] = StepView{
			Index: idx,
			Name:  name,
			State: StateOf(idx, current, status),
		}
	}
	return views
}
