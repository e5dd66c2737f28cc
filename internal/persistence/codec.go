package persistence

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/petrijr/logicflow/pkg/api"
)

// eventPayload is the gob wire form of an api.Event. Times are stored as
// Unix nanoseconds so decoded events compare equal to stored ones.
type eventPayload struct {
	RunID     string
	At        int64
	Type      string
	Flow      string
	Step      string
	StepIndex int
	Pass      int
	Detail    string
}

// EncodeEvent gob-encodes an event.
func EncodeEvent(ev api.Event) ([]byte, error) {
	p := eventPayload{
		RunID:     ev.RunID,
		Type:      string(ev.Type),
		Flow:      ev.Flow,
		Step:      ev.Step,
		StepIndex: ev.StepIndex,
		Pass:      ev.Pass,
		Detail:    ev.Detail,
	}
	if !ev.At.IsZero() {
		p.At = ev.At.UnixNano()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeEvent gob-decodes an event produced by EncodeEvent.
func DecodeEvent(data []byte) (api.Event, error) {
	var p eventPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return api.Event{}, err
	}

	ev := api.Event{
		RunID:     p.RunID,
		Type:      api.EventType(p.Type),
		Flow:      p.Flow,
		Step:      p.Step,
		StepIndex: p.StepIndex,
		Pass:      p.Pass,
		Detail:    p.Detail,
	}
	if p.At != 0 {
		ev.At = time.Unix(0, p.At)
	}
	return ev, nil
}
