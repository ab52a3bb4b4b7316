// Package mailtest provides an in-memory mail.Sender for tests.
package mailtest

import (
	"sync"
)

// Sent is one recorded Send call.
type Sent struct {
	Receivers []string
	Subject   string
	Body      string
}

// Recorder records every successful Send. Setting Err makes Send fail.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (r *Recorder) Send(receivers []string, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, Sent{
		Receivers: append([]string(nil), receivers...),
		Subject:   subject,
		Body:      body,
	})
	return nil
}

func (r *Recorder) SetErr(err error) {
	r.mu.Lock()
	r.Err = err
	r.mu.Unlock()
}

func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}
