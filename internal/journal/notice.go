package journal

import (
	"sync"
	"time"
)

// NoticeSaleRecorded is the message raised after a successful submission.
const NoticeSaleRecorded = "Transaction added successfully!"

// Notice is a message that clears itself after a fixed duration. Raising it
// again while active restarts the countdown with the new message.
type Notice struct {
	mu       sync.Mutex
	duration time.Duration
	message  string
	timer    *time.Timer
	gen      uint64
}

func NewNotice(d time.Duration) *Notice {
	if d <= 0 {
		d = DefaultNoticeDuration
	}
	return &Notice{duration: d}
}

// Duration returns how long a raised notice stays active.
func (n *Notice) Duration() time.Duration { return n.duration }

func (n *Notice) Raise(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}
	n.gen++
	gen := n.gen
	n.message = message
	n.timer = time.AfterFunc(n.duration, func() { n.expire(gen) })
}

// Current returns the active message, if any.
func (n *Notice) Current() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.message, n.message != ""
}

// Stop clears the notice and cancels its timer.
func (n *Notice) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.gen++
	n.message = ""
}

// expire ignores timers that fired after being replaced.
func (n *Notice) expire(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if gen != n.gen {
		return
	}
	n.message = ""
	n.timer = nil
}
