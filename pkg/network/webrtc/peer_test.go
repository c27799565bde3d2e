package webrtc

import (
	"errors"
	"testing"

	"github.com/webxash3d/webproxy/pkg/logger"
)

// The signaling transport opens before the connection is negotiated,
// so remote signals may arrive ahead of Start.
func TestPeerRejectsSignalsBeforeStart(t *testing.T) {
	p := New(logger.New(false), nil)

	if err := p.AddCandidate([]byte(`{"candidate":"candidate:1 1 udp 1 127.0.0.1 3000 typ host"}`)); !errors.Is(err, errNotStarted) {
		t.Errorf("expected the not-ready error for an early candidate, got %v", err)
	}
	if err := p.SetAnswer("v=0"); !errors.Is(err, errNotStarted) {
		t.Errorf("expected the not-ready error for an early answer, got %v", err)
	}
	// and the teardown of a never-started peer is a no-op
	p.Close()
}
