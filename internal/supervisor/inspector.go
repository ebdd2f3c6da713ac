package supervisor

import "sync"

// Inspector is the daemon-wide debugger toggle. While open, newly spawned
// dev servers launch with the Node inspector enabled. There is exactly one
// per supervisor; redundant opens and closes succeed without effect.
type Inspector struct {
	mu   sync.Mutex
	open bool

	// OnOpen and OnClose run on actual state changes only. Overridable in
	// tests and by hosts that bridge to an external debugger service.
	OnOpen  func() error
	OnClose func() error
}

// Open enables the inspector. Opening an already-open inspector is a no-op.
func (i *Inspector) Open() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.open {
		return nil
	}
	if i.OnOpen != nil {
		if err := i.OnOpen(); err != nil {
			return err
		}
	}
	i.open = true
	return nil
}

// Close disables the inspector. Closing an already-closed inspector is a no-op.
func (i *Inspector) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.open {
		return nil
	}
	if i.OnClose != nil {
		if err := i.OnClose(); err != nil {
			return err
		}
	}
	i.open = false
	return nil
}

// IsOpen reports the current state.
func (i *Inspector) IsOpen() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.open
}
