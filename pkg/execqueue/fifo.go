package execqueue

// ring is a growable FIFO of identities. It is not synchronized; Queue
// guards it with its own mutex.
type ring struct {
	buf   []string
	head  int
	tail  int
	count int
}

const minRingSize = 16

func newRing() *ring {
	return &ring{buf: make([]string, minRingSize)}
}

func (r *ring) push(id string) {
	if r.count == len(r.buf) {
		r.grow()
	}
	r.buf[r.tail] = id
	r.tail = (r.tail + 1) % len(r.buf)
	r.count++
}

func (r *ring) pop() (string, bool) {
	if r.count == 0 {
		return "", false
	}
	id := r.buf[r.head]
	r.buf[r.head] = ""
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return id, true
}

func (r *ring) len() int { return r.count }

func (r *ring) grow() {
	buf := make([]string, len(r.buf)*2)
	n := copy(buf, r.buf[r.head:])
	copy(buf[n:], r.buf[:r.head])
	r.buf = buf
	r.head = 0
	r.tail = r.count
}
