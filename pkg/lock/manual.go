package lock

// ManualSource is a Source whose events are emitted by calling Emit.
// It is useful for tests and for programs that learn about lock state changes by other means.
type ManualSource struct {
	subs *subscribers
}

// NewManualSource creates a ManualSource without subscribers.
func NewManualSource() *ManualSource {
	return &ManualSource{subs: newSubscribers()}
}

func (m *ManualSource) Subscribe(event Event, c chan<- struct{}) error {
	return m.subs.add(event, c)
}

func (m *ManualSource) Unsubscribe(event Event, c chan<- struct{}) error {
	return m.subs.remove(event, c)
}

// Emit notifies the channels subscribed to event.
func (m *ManualSource) Emit(event Event) {
	m.subs.notify(event)
}

// Subscribed returns the number of channels subscribed to event.
func (m *ManualSource) Subscribed(event Event) int {
	return m.subs.count(event)
}

func (m *ManualSource) Close() error {
	m.subs.clear()
	return nil
}
