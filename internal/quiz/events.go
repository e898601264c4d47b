package quiz

import (
	"context"
	"encoding/json"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
	syncx "github.com/mind-engage/mindengage-adaptivequiz/internal/sync"
)

// EventSink receives attempt lifecycle events. *syncx.EventRepo and
// *syncx.MemoryLog satisfy it.
type EventSink interface {
	Append(ctx context.Context, e syncx.Event) error
}

// eventRecorder buffers hook calls so they are only published once the
// attempt has been persisted.
type eventRecorder struct {
	quizID string
	userID string
	events []syncx.Event
}

func (r *eventRecorder) add(typ, attemptID string, payload map[string]any) {
	payload["quiz_id"] = r.quizID
	payload["user_id"] = r.userID
	b, _ := json.Marshal(payload)
	r.events = append(r.events, syncx.Event{Type: typ, Key: attemptID, DataJSON: string(b)})
}

func (r *eventRecorder) OnAttemptStart(id string, initial cat.Score) {
	r.add(syncx.EventAttemptStarted, id, map[string]any{"score": initial})
}

func (r *eventRecorder) OnResponseRecorded(id string, resp cat.Response, score cat.Score) {
	r.add(syncx.EventResponseRecorded, id, map[string]any{"response": resp, "score": score})
}

func (r *eventRecorder) OnAttemptCompleted(id string, final cat.Score, reason cat.StopReason) {
	r.add(syncx.EventAttemptCompleted, id, map[string]any{"score": final, "stop_reason": reason})
}

var _ cat.Hook = (*eventRecorder)(nil)
