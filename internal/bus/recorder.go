package bus

import (
	"encoding/json"
	"sync"
)

// Message is one publish captured by a Recorder.
type Message struct {
	Topic    string
	Retained bool
	Payload  []byte
}

// Recorder is an in-memory Publisher for tests and dry runs.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
	Err  error // returned from every Publish when set
}

// Publish records the JSON encoding of v.
func (r *Recorder) Publish(topic string, retained bool, v any) error {
	if r.Err != nil {
		return r.Err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.msgs = append(r.msgs, Message{Topic: topic, Retained: retained, Payload: payload})
	r.mu.Unlock()
	return nil
}

// Messages returns a copy of everything published so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Last returns the most recent message and whether there was one.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return Message{}, false
	}
	return r.msgs[len(r.msgs)-1], true
}

// Reset forgets recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.msgs = nil
	r.mu.Unlock()
}
