package ledger

// Window is a fixed-capacity circular buffer of per-tick KB samples.
// Slots are overwritten in place, never shifted, so its length never changes.
type Window struct {
	slots  []int64
	filled []bool
}

// NewWindow allocates a window of size empty slots.
func NewWindow(size int) *Window {
	return &Window{
		slots:  make([]int64, size),
		filled: make([]bool, size),
	}
}

// Len returns the window capacity.
func (w *Window) Len() int {
	return len(w.slots)
}

// Put stores v at slot index. Out-of-range indexes are ignored.
func (w *Window) Put(index int, v int64) {
	if index < 0 || index >= len(w.slots) {
		return
	}
	w.slots[index] = v
	w.filled[index] = true
}

// Get returns the value at slot index and whether it has ever been written.
func (w *Window) Get(index int) (int64, bool) {
	if index < 0 || index >= len(w.slots) || !w.filled[index] {
		return 0, false
	}
	return w.slots[index], true
}

// Full reports whether every slot has been written at least once.
func (w *Window) Full() bool {
	for _, ok := range w.filled {
		if !ok {
			return false
		}
	}
	return true
}

// Values returns a copy of the slots; absent slots are nil.
func (w *Window) Values() []*int64 {
	out := make([]*int64, len(w.slots))
	for i := range w.slots {
		if w.filled[i] {
			v := w.slots[i]
			out[i] = &v
		}
	}
	return out
}

// SlotFor returns the slot that tick writes to.
func SlotFor(tick uint64, size int) int {
	return int(tick % uint64(size))
}

// OldestSlot returns the slot after SlotFor(tick), wrapping to 0. It holds
// the sample written size-1 ticks ago and is the next slot to be overwritten.
func OldestSlot(tick uint64, size int) int {
	current := SlotFor(tick, size)
	if current == size-1 {
		return 0
	}
	return current + 1
}
