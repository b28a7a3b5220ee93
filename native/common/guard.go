package common

import "sync"

// PauseView exposes the global pause state consulted by the engines.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the module is paused.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// Switchboard is the owner-gated panic switch shared by the sale engines.
// Engaging a module halts every money or asset moving operation guarded by it
// until the owner disengages the switch again.
type Switchboard struct {
	owner [20]byte

	mu     sync.RWMutex
	paused map[string]bool
}

// NewSwitchboard constructs a switchboard administered by the given owner.
func NewSwitchboard(owner [20]byte) *Switchboard {
	return &Switchboard{owner: owner, paused: make(map[string]bool)}
}

// SetPaused engages or disengages the switch for a module. Only the owner may
// flip the switch.
func (s *Switchboard) SetPaused(caller [20]byte, module string, paused bool) error {
	if s == nil {
		return ErrAccessDenied
	}
	if caller != s.owner {
		return ErrAccessDenied
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if paused {
		s.paused[module] = true
		return nil
	}
	delete(s.paused, module)
	return nil
}

// IsPaused implements PauseView.
func (s *Switchboard) IsPaused(module string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused[module]
}
