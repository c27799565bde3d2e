package proxy

import (
	"bytes"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestSessionEndToEnd walks one full client session: offer, answer,
// channel opens, traffic in both directions, and the teardown.
func TestSessionEndToEnd(t *testing.T) {
	game := newGameServer(t)
	peer := newFakePeer()
	s, out := newTestSession(t, peer, game.LocalAddr().String())

	if err := s.Start(); err != nil {
		t.Fatalf("start fail, %v", err)
	}
	signals := out.all()
	if len(signals) != 1 || signals[0].Event != EventOffer {
		t.Fatalf("expected the offer, got %+v", signals)
	}

	if err := s.HandleSignal(Signal{Event: EventAnswer, Data: []byte(`{"sdp":"v=0..."}`)}); err != nil {
		t.Fatalf("the answer was rejected, %v", err)
	}

	before := testutil.ToFloat64(bridgesStarted)
	peer.write.open()
	peer.read.open()
	if got := testutil.ToFloat64(bridgesStarted) - before; got != 1 {
		t.Fatalf("expected exactly 1 started bridge, got %v", got)
	}
	bridge := s.Bridge()
	if bridge == nil {
		t.Fatal("expected a bridge")
	}

	// browser -> game
	toGame := []byte{0x01, 0x02, 0x03}
	peer.read.message(toGame)
	buf := make([]byte, 64)
	_ = game.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, from, err := game.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("the game server got nothing, %v", err)
	}
	if !bytes.Equal(buf[:n], toGame) {
		t.Errorf("expected %v, got %v", toGame, buf[:n])
	}

	// game -> browser
	toBrowser := []byte{0xAA, 0xBB}
	if _, err := game.WriteToUDP(toBrowser, from); err != nil {
		t.Fatalf("send fail, %v", err)
	}
	select {
	case data := <-peer.write.sent:
		if !bytes.Equal(data, toBrowser) {
			t.Errorf("expected %v, got %v", toBrowser, data)
		}
	case <-time.After(2 * time.Second):
		t.Error("the write channel got nothing")
	}

	// the read channel close shuts the bridge down, once
	peer.read.close()
	select {
	case <-bridge.done:
	case <-time.After(2 * time.Second):
		t.Error("the pump hasn't stopped after the channel close")
	}
	bridge.Shutdown()

	s.Close()
	if !peer.closed {
		t.Error("the peer connection wasn't released")
	}

	// a session with a dead game socket must not affect a fresh one
	peer2 := newFakePeer()
	s2, _ := newTestSession(t, peer2, game.LocalAddr().String())
	if err := s2.Start(); err != nil {
		t.Fatalf("the second session start fail, %v", err)
	}
}
