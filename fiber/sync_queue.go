package fiber

// syncQueue collects synchronous render callbacks so several dispatches in
// one turn are flushed by a single microtask.
type syncQueue struct {
	callbacks []func()
	flushing  bool
}

func (q *syncQueue) schedule(cb func()) {
	q.callbacks = append(q.callbacks, cb)
}

// flushSyncCallbacks drains the sync queue, including callbacks queued while
// draining. Nested calls return immediately.
func (r *Reconciler) flushSyncCallbacks() {
	q := &r.syncQueue
	if q.flushing {
		return
	}
	q.flushing = true
	defer func() { q.flushing = false }()

	for len(q.callbacks) > 0 {
		cb := q.callbacks[0]
		q.callbacks[0] = nil
		q.callbacks = q.callbacks[1:]
		r.safeCall("sync callback", nil, cb)
	}
	q.callbacks = nil
}
