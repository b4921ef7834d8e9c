// Package netpolicy keeps the host's latest word on whether coverd may use
// the network. The daemon cannot see the machine's connectivity itself, the
// host tells it over the HTTP surface.
package netpolicy

import "sync"

// State is the current network policy. The zero value is not usable, create
// one with NewState. It implements the resolution engine's policy interface.
type State struct {
	mu      sync.Mutex
	allowed bool
	wifi    bool
}

// NewState returns a policy state which starts out permissive. Until the
// host says otherwise the network is assumed to be there and unmetered.
func NewState() *State {
	return &State{
		allowed: true,
		wifi:    true,
	}
}

// SetAllowed records whether using the network is permitted at all.
func (s *State) SetAllowed(allowed bool) {
	s.mu.Lock()
	s.allowed = allowed
	s.mu.Unlock()
}

// SetWifi records whether the machine is on an unmetered connection.
func (s *State) SetWifi(wifi bool) {
	s.mu.Lock()
	s.wifi = wifi
	s.mu.Unlock()
}

// FetchAllowed tells whether fetching from the internet is currently
// permitted under the given wifi-only restriction.
func (s *State) FetchAllowed(wifiOnly bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.allowed {
		return false
	}
	return !wifiOnly || s.wifi
}
