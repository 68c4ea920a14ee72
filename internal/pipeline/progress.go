package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/voxnote/voxnote/internal/engine"
	"github.com/voxnote/voxnote/internal/observability"
)

const (
	// progressStep is the minimum percent increase between two edits
	progressStep = 5

	// progressMinInterval is the minimum wall-clock gap between two edits
	progressMinInterval = 2 * time.Second

	// previewRunes caps the segment preview appended to progress edits
	previewRunes = 70
)

// EditFunc edits the single progress message in place
type EditFunc func(text string) error

// ProgressReporter throttles percent-complete edits so the chat is not
// flooded. State is private to one request; a fresh reporter is created per
// pipeline run.
type ProgressReporter struct {
	edit         EditFunc
	now          func() time.Time
	lastPercent  int
	lastEdit     time.Time
	segmentsSeen int
}

// NewProgressReporter creates a reporter that emits through edit
func NewProgressReporter(edit EditFunc) *ProgressReporter {
	return &ProgressReporter{
		edit:        edit,
		now:         time.Now,
		lastPercent: -1,
	}
}

// Observe folds one segment into the progress state and emits an edit when
// both the percent step and the minimum interval allow it. It reports
// whether an edit was sent; edit failures are returned but leave the
// throttle state unchanged so the next segment retries.
func (r *ProgressReporter) Observe(seg engine.Segment, duration float64) (bool, error) {
	r.segmentsSeen++
	percent := r.percent(seg, duration)

	if percent < r.lastPercent+progressStep {
		return false, nil
	}
	now := r.now()
	if !r.lastEdit.IsZero() && now.Sub(r.lastEdit) < progressMinInterval {
		return false, nil
	}

	text := fmt.Sprintf("Transcribing… %d%%\nLatest: %s", percent, preview(seg.Text))
	if err := r.edit(text); err != nil {
		return false, err
	}

	r.lastPercent = percent
	r.lastEdit = now
	observability.RecordProgressEdit()
	return true, nil
}

// Finish emits the final 100% edit unconditionally, regardless of throttle
// state. This is the only emission that bypasses the throttle.
func (r *ProgressReporter) Finish() error {
	if err := r.edit("Transcription 100% complete ✅ — sending the text now…"); err != nil {
		return err
	}
	observability.RecordProgressEdit()
	return nil
}

// percent computes progress from segment end time when the total duration is
// known, or from the segment count when it is not
func (r *ProgressReporter) percent(seg engine.Segment, duration float64) int {
	if duration > 0 {
		p := seg.End / duration * 100
		if p > 99 {
			p = 99
		}
		return int(p)
	}

	p := r.segmentsSeen * progressStep
	if p > 99 {
		p = 99
	}
	return p
}

// preview trims a segment text to the preview cap, marking truncation
func preview(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "…"
}
