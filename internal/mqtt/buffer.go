package mqtt

// pendingMsg is a formatted lock or system event waiting for the broker.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds lock and system events published while the broker is
// unreachable, oldest first. When full the oldest event is discarded, so a
// long outage keeps the most recent lock transitions. Callers synchronize.
type outbox struct {
	slots   []pendingMsg
	start   int // oldest entry
	size    int
	dropped int // discarded since the last take
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{slots: make([]pendingMsg, capacity)}
}

// add queues msg. It reports true only for the first discard after a take,
// so an outage produces a single warning.
func (o *outbox) add(msg pendingMsg) bool {
	n := len(o.slots)
	if o.size < n {
		o.slots[(o.start+o.size)%n] = msg
		o.size++
		return false
	}
	o.slots[o.start] = msg
	o.start = (o.start + 1) % n
	o.dropped++
	return o.dropped == 1
}

// take empties the outbox, returning the queued events in publish order and
// how many were discarded to make room.
func (o *outbox) take() (msgs []pendingMsg, dropped int) {
	dropped = o.dropped
	if o.size > 0 {
		msgs = make([]pendingMsg, o.size)
		for i := range msgs {
			msgs[i] = o.slots[(o.start+i)%len(o.slots)]
			o.slots[(o.start+i)%len(o.slots)] = pendingMsg{}
		}
	}
	o.start, o.size, o.dropped = 0, 0, 0
	return msgs, dropped
}

func (o *outbox) len() int { return o.size }

func (o *outbox) capacity() int { return len(o.slots) }
