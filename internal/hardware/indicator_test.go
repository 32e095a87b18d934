package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/obdsentry/obdsentryd/internal/store"
)

func TestNoIndicator_NotifyIsNoOp(t *testing.T) {
	assert.NotPanics(t, func() {
		NoIndicator{}.Notify(store.AlertEvent{ThresholdID: "rpm-high"})
	})
}

func TestSup_NotifyAlert_DelegatesToIndicator(t *testing.T) {
	s := openTestStore(t)
	ind := &recordingIndicator{}

	sup := New(NewSimUps(1), NoButton{}, ind, s, nil, Config{MaxBackoff: 0}, testLogger())

	evt := store.AlertEvent{ThresholdID: "rpm-high"}
	sup.NotifyAlert(evt)

	assert.Equal(t, []store.AlertEvent{evt}, ind.notified)
}

type recordingIndicator struct {
	notified []store.AlertEvent
}

func (r *recordingIndicator) Notify(evt store.AlertEvent) {
	r.notified = append(r.notified, evt)
}
