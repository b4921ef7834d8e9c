package netpolicy

import "testing"

func TestPolicyState(t *testing.T) {
	s := NewState()

	if !s.FetchAllowed(false) || !s.FetchAllowed(true) {
		t.Errorf("a fresh state must be permissive")
	}

	s.SetWifi(false)
	if !s.FetchAllowed(false) {
		t.Errorf("leaving wifi must not matter without the restriction")
	}
	if s.FetchAllowed(true) {
		t.Errorf("wifi only fetching must be denied off wifi")
	}

	s.SetAllowed(false)
	if s.FetchAllowed(false) || s.FetchAllowed(true) {
		t.Errorf("nothing is allowed when the network is off limits")
	}

	s.SetAllowed(true)
	s.SetWifi(true)
	if !s.FetchAllowed(true) {
		t.Errorf("back on wifi fetching must be allowed again")
	}
}
