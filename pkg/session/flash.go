package session

import "context"

// ensureMessages loads the flash queue. Messages arrive eagerly with both
// record creation and lookup, so this only hits the store after a record
// has been rebuilt without them.
func (r *Record) ensureMessages(ctx context.Context) error {
	if r.messagesLoaded {
		return nil
	}
	data, err := r.fetch(ctx)
	if err != nil {
		return err
	}
	r.messages = data.Messages
	r.messagesLoaded = true
	return nil
}

// Flash appends a one-shot message to the named queue. With allowDuplicate
// set to false the queue is scanned linearly and an identical
// (text, queue) pair is not added twice; queues stay small enough that an
// index is not worth it.
func (r *Record) Flash(ctx context.Context, text, queue string, allowDuplicate bool) error {
	if err := r.ensureMessages(ctx); err != nil {
		return err
	}
	if !allowDuplicate {
		for _, m := range r.messages {
			if m.Queue == queue && m.Text == text {
				return nil
			}
		}
	}
	if r.store == nil {
		return ErrDetached
	}
	id, err := r.store.AppendMessage(ctx, r.key, text, queue)
	if err != nil {
		return err
	}
	r.messages = append(r.messages, Message{ID: id, Text: text, Queue: queue})
	return nil
}

// PeekFlash returns the queue's messages in insertion order without
// consuming them.
func (r *Record) PeekFlash(ctx context.Context, queue string) []string {
	if err := r.ensureMessages(ctx); err != nil {
		return nil
	}
	var texts []string
	for _, m := range r.messages {
		if m.Queue == queue {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

// PopFlash returns the queue's messages in insertion order and deletes
// them. Each message is deleted from the store individually, not batched.
func (r *Record) PopFlash(ctx context.Context, queue string) ([]string, error) {
	if err := r.ensureMessages(ctx); err != nil {
		return nil, err
	}
	if r.store == nil {
		return nil, ErrDetached
	}
	// Filter into a fresh slice. The shadow is only replaced once every
	// deletion succeeded, so a mid-loop store failure leaves it intact.
	var texts []string
	remaining := make([]Message, 0, len(r.messages))
	for _, m := range r.messages {
		if m.Queue != queue {
			remaining = append(remaining, m)
			continue
		}
		if err := r.store.DeleteMessage(ctx, m.ID); err != nil {
			return texts, err
		}
		texts = append(texts, m.Text)
	}
	r.messages = remaining
	return texts, nil
}
