package output

import (
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// ScanProgress tracks in-flight checks on an interactive terminal.
type ScanProgress struct {
	writer  progress.Writer
	tracker *progress.Tracker
}

// IsTerminal reports whether the file is attached to a character device.
func IsTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// StartScanProgress renders a live tracker for total checks to out.
// The caller must Stop it before printing the final report.
func StartScanProgress(out io.Writer, total int64) *ScanProgress {
	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(30)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.SetUpdateFrequency(100 * time.Millisecond)

	tracker := &progress.Tracker{
		Message: "Checking",
		Total:   total,
		Units:   progress.UnitsDefault,
	}
	pw.AppendTracker(tracker)

	go pw.Render()

	return &ScanProgress{writer: pw, tracker: tracker}
}

// Increment records one completed check. Safe to call from result callbacks.
func (p *ScanProgress) Increment() {
	if p == nil || p.tracker == nil {
		return
	}
	p.tracker.Increment(1)
}

// Stop finishes the tracker and halts rendering.
func (p *ScanProgress) Stop() {
	if p == nil {
		return
	}
	if p.tracker != nil {
		p.tracker.MarkAsDone()
	}
	if p.writer != nil {
		p.writer.Stop()
		for p.writer.IsRenderInProgress() {
			time.Sleep(10 * time.Millisecond)
		}
	}
}
