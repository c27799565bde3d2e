package socket

import "testing"

func TestFailOnPortInUse(t *testing.T) {
	l, err := NewUDP(31234)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	defer l.Close()
	_, err = NewUDP(31234)
	if err == nil {
		t.Errorf("expected busy port error, but got none")
	}
}

func TestPortRoll(t *testing.T) {
	l, err := NewUDPPortRoll(31234)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	defer l.Close()
	l2, err := NewUDPPortRoll(31234)
	if err != nil {
		t.Errorf("expected no port error, but got one")
	}
	l2.Close()
}
