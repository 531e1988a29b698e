package intake

import "sync"

// Queue holds attachments picked or pasted but not yet sent.
type Queue struct {
	mu    sync.Mutex
	items []Attachment
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Add(atts ...Attachment) {
	if len(atts) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, atts...)
}

func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, a := range q.items {
		if a.ID == id {
			q.items = append(q.items[:i:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) List() []Attachment {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Attachment, len(q.items))
	copy(out, q.items)
	return out
}

// Drain empties the queue and returns what it held.
func (q *Queue) Drain() []Attachment {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	return out
}

// Restore puts attachments back at the front, used when a submission is refused.
func (q *Queue) Restore(atts []Attachment) {
	if len(atts) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(append([]Attachment(nil), atts...), q.items...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
