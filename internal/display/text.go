package display

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/obdsentry/obdsentryd/internal/store"
)

// Text writes a single-line status banner to w, rewritten in place with a
// leading carriage return — the terminal/serial-console analogue of a
// physical display's always-current readout.
type Text struct {
	mu      sync.Mutex
	w       io.Writer
	latest  map[string]store.Reading
	started time.Time
}

// NewText creates a Text driver writing to w.
func NewText(w io.Writer) *Text {
	return &Text{w: w, latest: make(map[string]store.Reading), started: time.Now()}
}

func (t *Text) Update(r store.Reading) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.latest[r.Parameter] = r
	t.render()
}

func (t *Text) render() {
	params := make([]string, 0, len(t.latest))
	for p := range t.latest {
		params = append(params, p)
	}

	sort.Strings(params)

	line := fmt.Sprintf("[%s]", humanize.Time(t.started))

	for _, p := range params {
		r := t.latest[p]
		line += fmt.Sprintf(" %s=%s%s", p, humanize.FtoaWithDigits(r.Value, 1), r.Unit)
	}

	fmt.Fprintf(t.w, "\r%s", line)
}

func (t *Text) ShowDriveBoundary(kind store.ConnectionEventKind, ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.w, "\n-- %s at %s --\n", kind, humanize.Time(ts))
}

func (t *Text) ShowSummary(results []store.AnalysisResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.w, "\n-- drive summary (%d parameters) --\n", len(results))

	for _, r := range results {
		fmt.Fprintf(t.w, "  %s: avg=%s min=%s max=%s\n",
			r.Parameter,
			humanize.FtoaWithDigits(r.Avg, 1),
			humanize.FtoaWithDigits(r.Min, 1),
			humanize.FtoaWithDigits(r.Max, 1))
	}
}

func (t *Text) ShowAlert(e store.AlertEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.w, "\n!! alert %s value=%s !!\n", e.ThresholdID, humanize.FtoaWithDigits(e.Value, 1))
}

func (t *Text) ShowBattery(socPct int, source store.PowerSource) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.w, "\n-- battery %d%% (%s) --\n", socPct, source)
}

func (t *Text) Close() error {
	return nil
}
