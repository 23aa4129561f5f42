package pipeline

import (
	"github.com/keywordforge/kwforge/internal/models"
)

// Reconcile merges a snapshot's overlapping file collections (uploaded,
// queued, current, processed) and its error list into one ordered,
// deduplicated per-file status list.
//
// Each file name appears exactly once. When a name shows up in more than one
// collection the more terminal or urgent status wins:
//
//	error > complete > processing (current file) > queued > uploading/default
//
// Output order is first-seen across the union of the input collections, so
// re-running on the same snapshot yields an identical list.
func Reconcile(snap *models.Snapshot) []models.FileStatusEntry {
	if snap == nil {
		return nil
	}

	errorsByName := make(map[string]models.FileError, len(snap.FileErrors))
	for _, fe := range snap.FileErrors {
		if fe.FileName == "" {
			continue
		}
		// First error for a file wins; duplicates add nothing for display.
		if _, seen := errorsByName[fe.FileName]; !seen {
			errorsByName[fe.FileName] = fe
		}
	}

	processed := toSet(snap.ProcessedFiles)
	queued := toSet(snap.QueuedFiles)

	var order []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	for _, n := range snap.UploadedFiles {
		add(n)
	}
	for _, n := range snap.QueuedFiles {
		add(n)
	}
	add(snap.CurrentFileName)
	for _, n := range snap.ProcessedFiles {
		add(n)
	}
	for _, fe := range snap.FileErrors {
		add(fe.FileName)
	}

	entries := make([]models.FileStatusEntry, 0, len(order))
	for _, name := range order {
		entries = append(entries, classify(name, snap, errorsByName, processed, queued))
	}
	return entries
}

func classify(name string, snap *models.Snapshot, errorsByName map[string]models.FileError, processed, queued map[string]bool) models.FileStatusEntry {
	entry := models.FileStatusEntry{Name: name}

	if fe, ok := errorsByName[name]; ok {
		entry.Status = models.StatusError
		entry.Detail = errorDetail(fe)
		return entry
	}
	if processed[name] {
		entry.Status = models.StatusComplete
		return entry
	}
	if name == snap.CurrentFileName {
		entry.Status = models.StatusProcessing
		entry.Detail = snap.StageDetail
		return entry
	}
	if queued[name] {
		entry.Status = models.StatusQueued
		return entry
	}

	// Uploaded but not yet categorized anywhere else: label it with the
	// overall batch status while uploading or combining, otherwise it is
	// waiting its turn.
	switch snap.Status {
	case models.StatusUploading, models.StatusCombining:
		entry.Status = snap.Status
	default:
		entry.Status = models.StatusQueued
	}
	return entry
}

func errorDetail(fe models.FileError) string {
	if fe.Message != "" {
		return fe.Message
	}
	if fe.StageDetail != "" {
		return fe.StageDetail
	}
	return "processing failed"
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n != "" {
			set[n] = true
		}
	}
	return set
}
