package frame

const defaultQueueCapacity = 16

// Queue is a FIFO of decoded frames kept in decode emission order.
//
// It has no synchronization of its own: the producer (decode) and the
// consumer (Pop) must not run concurrently without external locking.
type Queue struct {
	storage    []*Frame
	readIndex  uint
	length     uint
	pushCount  uint64
	popCount   uint64
	isReleased bool
}

func NewQueue(capacity uint) *Queue {
	if capacity == 0 {
		capacity = defaultQueueCapacity
	}
	return &Queue{
		storage: make([]*Frame, capacity),
	}
}

// Push takes the ownership of the frame.
func (q *Queue) Push(f *Frame) {
	if f == nil {
		return
	}
	if q.isReleased {
		f.Release()
		return
	}
	if q.length == uint(len(q.storage)) {
		q.grow()
	}
	writeIndex := (q.readIndex + q.length) % uint(len(q.storage))
	q.storage[writeIndex] = f
	q.length++
	q.pushCount++
}

// Pop transfers the ownership of the oldest frame to the caller.
// It returns false if there is nothing queued.
func (q *Queue) Pop() (*Frame, bool) {
	if q.length == 0 {
		return nil, false
	}
	f := q.storage[q.readIndex]
	q.storage[q.readIndex] = nil
	q.readIndex = (q.readIndex + 1) % uint(len(q.storage))
	q.length--
	q.popCount++
	return f, true
}

// Peek returns the oldest frame without removing it; the queue keeps the ownership.
func (q *Queue) Peek() (*Frame, bool) {
	if q.length == 0 {
		return nil, false
	}
	return q.storage[q.readIndex], true
}

func (q *Queue) Len() int {
	return int(q.length)
}

func (q *Queue) IsEmpty() bool {
	return q.length == 0
}

// Counters returns how many frames were ever pushed and popped.
func (q *Queue) Counters() (pushed, popped uint64) {
	return q.pushCount, q.popCount
}

// Clear releases all the queued frames.
func (q *Queue) Clear() int {
	count := 0
	for {
		f, ok := q.Pop()
		if !ok {
			return count
		}
		f.Release()
		count++
	}
}

// Release clears the queue and makes it drop any frame pushed afterwards.
func (q *Queue) Release() {
	q.Clear()
	q.isReleased = true
	q.storage = nil
	q.readIndex = 0
}

func (q *Queue) grow() {
	newCap := uint(len(q.storage)) * 2
	if newCap == 0 {
		newCap = defaultQueueCapacity
	}
	newStorage := make([]*Frame, newCap)
	for i := uint(0); i < q.length; i++ {
		newStorage[i] = q.storage[(q.readIndex+i)%uint(len(q.storage))]
	}
	q.storage = newStorage
	q.readIndex = 0
}
