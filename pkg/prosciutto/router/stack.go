package router

import (
	"log/slog"
	"slices"
)

// StateChange describes one lifecycle transition of an entry.
type StateChange struct {
	Entry *Entry
	From  State
	To    State
}

// Listener observes state changes on a BackStack. Listeners run synchronously
// on the UI loop and must not mutate the stack. A panicking listener is
// logged and the remaining listeners still run.
type Listener func(StateChange)

// BackStack is the ordered navigation history of one region. The top entry
// is the only one that can be Activated. Entries are only ever appended or
// removed; they are never reordered.
//
// A BackStack is owned by the UI loop and is not safe for concurrent use.
type BackStack struct {
	entries   []*Entry
	maxDepth  int // 0 means unbounded
	listeners []listenerSlot
	nextID    int
	log       *slog.Logger
}

type listenerSlot struct {
	id int
	fn Listener
}

// StackOption configures a BackStack.
type StackOption func(*BackStack)

// WithMaxDepth bounds the stack. When a push overflows it, the oldest
// entries are disposed first. Zero or negative means unbounded.
func WithMaxDepth(n int) StackOption {
	return func(s *BackStack) {
		s.maxDepth = max(n, 0)
	}
}

// WithStackLogger sets the logger used to report dispose failures.
func WithStackLogger(log *slog.Logger) StackOption {
	return func(s *BackStack) {
		s.log = log
	}
}

// NewStack creates a new empty back-stack.
func NewStack(opts ...StackOption) *BackStack {
	s := &BackStack{
		entries: make([]*Entry, 0),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a listener and returns a function that removes it.
func (s *BackStack) Subscribe(fn Listener) (unsubscribe func()) {
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerSlot{id: id, fn: fn})

	return func() {
		s.listeners = slices.DeleteFunc(s.listeners, func(l listenerSlot) bool {
			return l.id == id
		})
	}
}

// Push appends entry to the top. The previously active entry is demoted to
// Deactivated before the new one becomes Activated.
func (s *BackStack) Push(entry *Entry) {
	if top := s.Peek(); top != nil && top.state == StateActivated {
		s.setState(top, StateDeactivated)
	}

	s.entries = append(s.entries, entry)
	s.setState(entry, StateActivated)
	s.evictOverflow()
}

// Pop removes the top entry, disposes it and activates the new top.
// Popping an empty stack returns ErrEmptyStack and changes nothing.
func (s *BackStack) Pop() (*Entry, error) {
	if len(s.entries) == 0 {
		return nil, ErrEmptyStack
	}

	entry := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	s.disposeEntry(entry)

	if top := s.Peek(); top != nil {
		s.setState(top, StateActivated)
	}
	return entry, nil
}

// Replace swaps the top entry for entry in one step. The replaced entry goes
// straight to Disposed; no Deactivated notification is emitted for it. On an
// empty stack Replace behaves like Push.
func (s *BackStack) Replace(entry *Entry) *Entry {
	if len(s.entries) == 0 {
		s.Push(entry)
		return nil
	}

	old := s.entries[len(s.entries)-1]
	s.entries[len(s.entries)-1] = entry
	s.disposeEntry(old)
	s.setState(entry, StateActivated)
	return old
}

// Clear disposes entries from the top down. With keepRoot the bottom entry
// survives and becomes the active one. It returns the disposed entries in
// disposal order.
func (s *BackStack) Clear(keepRoot bool) []*Entry {
	floor := 0
	if keepRoot && len(s.entries) > 0 {
		floor = 1
	}

	disposed := make([]*Entry, 0, len(s.entries)-floor)
	for i := len(s.entries) - 1; i >= floor; i-- {
		entry := s.entries[i]
		s.entries[i] = nil
		s.entries = s.entries[:i]
		s.disposeEntry(entry)
		disposed = append(disposed, entry)
	}

	if root := s.Peek(); root != nil && root.state != StateActivated {
		s.setState(root, StateActivated)
	}
	return disposed
}

// Peek returns the top entry without removing it.
// Returns nil if the stack is empty.
func (s *BackStack) Peek() *Entry {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1]
}

// Below returns the entry directly under the top, or nil.
func (s *BackStack) Below() *Entry {
	if len(s.entries) < 2 {
		return nil
	}
	return s.entries[len(s.entries)-2]
}

// Root returns the bottom entry, or nil.
func (s *BackStack) Root() *Entry {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[0]
}

// Active returns the Activated entry, or nil.
func (s *BackStack) Active() *Entry {
	for _, e := range s.entries {
		if e.state == StateActivated {
			return e
		}
	}
	return nil
}

// Entries returns a copy of the entries, bottom first.
func (s *BackStack) Entries() []*Entry {
	return slices.Clone(s.entries)
}

// IsEmpty returns true if the stack has no entries.
func (s *BackStack) IsEmpty() bool {
	return len(s.entries) == 0
}

// Len returns the number of entries in the stack.
func (s *BackStack) Len() int {
	return len(s.entries)
}

// MaxDepth returns the configured bound, 0 if unbounded.
func (s *BackStack) MaxDepth() int {
	return s.maxDepth
}

// SetMaxDepth changes the bound and evicts immediately if needed.
func (s *BackStack) SetMaxDepth(n int) {
	s.maxDepth = max(n, 0)
	s.evictOverflow()
}

// evictOverflow disposes the oldest entries until the stack fits. The active
// entry is never evicted.
func (s *BackStack) evictOverflow() {
	for s.maxDepth > 0 && len(s.entries) > s.maxDepth {
		oldest := s.entries[0]
		if oldest.state == StateActivated {
			return
		}
		s.entries[0] = nil
		s.entries = s.entries[1:]
		s.disposeEntry(oldest)
	}
}

func (s *BackStack) disposeEntry(entry *Entry) {
	from := entry.state
	if from == StateDisposed {
		return
	}
	if err := entry.dispose(); err != nil {
		s.log.Error("Dispose failed", "key", entry.Key, "seq", entry.Seq, "error", err)
	}
	s.notify(StateChange{Entry: entry, From: from, To: StateDisposed})
}

func (s *BackStack) setState(entry *Entry, to State) {
	from := entry.state
	if from == to {
		return
	}
	entry.state = to
	s.notify(StateChange{Entry: entry, From: from, To: to})
}

func (s *BackStack) notify(change StateChange) {
	for _, l := range slices.Clone(s.listeners) {
		s.call(l.fn, change)
	}
}

func (s *BackStack) call(fn Listener, change StateChange) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Stack listener panicked",
				"key", change.Entry.Key, "from", change.From.String(), "to", change.To.String(), "panic", r)
		}
	}()
	fn(change)
}
