package proxy

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/xid"
	"github.com/webxash3d/webproxy/pkg/logger"
	rtc "github.com/webxash3d/webproxy/pkg/network/webrtc"
)

// Peer abstracts one negotiable browser connection.
type Peer interface {
	// Start creates the connection with both data channels and
	// returns the SDP of the local offer.
	Start(onCandidate func(data []byte)) (offer string, err error)
	// Channels returns the browser-bound (write) and the
	// server-bound (read) data channels.
	Channels() (write rtc.DataChannel, read rtc.DataChannel)
	SetAnswer(sdp string) error
	AddCandidate(data []byte) error
	Close()
}

// State of the signaling exchange, for diagnostics.
type State int32

const (
	Created State = iota
	OfferSent
	AnswerApplied
	Bridging
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case OfferSent:
		return "offer-sent"
	case AnswerApplied:
		return "answer-applied"
	case Bridging:
		return "bridging"
	case Closed:
		return "closed"
	}
	return "?"
}

const teardownWait = 3 * time.Second

// Session negotiates one peer connection over a signaling transport
// and owns the resulting bridge for its lifetime.
type Session struct {
	id   string
	peer Peer
	send func(Signal) error

	gameAddr  string
	maxPacket int

	state  atomic.Int32
	opened atomic.Int32

	mu     sync.Mutex
	bridge *Bridge

	log *logger.Logger
}

// NewSession makes a session over an established signaling transport
// abstracted by the send function.
func NewSession(peer Peer, send func(Signal) error, gameAddr string, maxPacket int, log *logger.Logger) *Session {
	id := xid.New().String()
	return &Session{
		id:        id,
		peer:      peer,
		send:      send,
		gameAddr:  gameAddr,
		maxPacket: maxPacket,
		log:       log.Extend(log.With().Str("cid", id[len(id)-3:])),
	}
}

func (s *Session) Id() string { return s.id }

func (s *Session) State() State { return State(s.state.Load()) }

// Start creates the peer connection with its data channels and sends
// the offer. Local candidates are trickled as they are discovered.
func (s *Session) Start() error {
	offer, err := s.peer.Start(func(data []byte) {
		if err := s.send(NewCandidate(data)); err != nil {
			s.log.Error().Err(err).Msg("ICE candidate send fail")
		}
	})
	if err != nil {
		return err
	}

	write, read := s.peer.Channels()
	for _, ch := range []rtc.DataChannel{write, read} {
		ch := ch
		ch.OnOpen(func() {
			s.log.Debug().Msgf("Channel [%v] is open", ch.Label())
			// the second of the two channels starts the bridge;
			// the atomic counter leaves no room for a double start
			if s.opened.Add(1) == 2 {
				s.startBridge()
			}
		})
	}

	sig, err := NewOffer(offer)
	if err != nil {
		return err
	}
	if err = s.send(sig); err != nil {
		return err
	}
	s.state.Store(int32(OfferSent))
	s.log.Debug().Msg("Sent offer")
	return nil
}

// HandleSignal processes one inbound signaling message.
// A non-nil error is fatal to the whole session.
func (s *Session) HandleSignal(in Signal) error {
	switch in.Event {
	case EventAnswer:
		if s.State() == Created {
			return fmt.Errorf("answer to a session with no offer")
		}
		var answer Answer
		if err := json.Unmarshal(in.Data, &answer); err != nil {
			return fmt.Errorf("malformed answer: %w", err)
		}
		if err := s.peer.SetAnswer(answer.SDP); err != nil {
			return fmt.Errorf("remote description: %w", err)
		}
		s.state.Store(int32(AnswerApplied))
	case EventCandidate:
		// a single broken candidate can't abort the session,
		// it may still connect through the others
		if err := s.peer.AddCandidate(in.Data); err != nil {
			s.log.Error().Err(err).Msg("skip the broken candidate")
		}
	default:
		s.log.Debug().Msgf("Unknown signal [%v]", in.Event)
	}
	return nil
}

func (s *Session) startBridge() {
	write, read := s.peer.Channels()
	bridge, err := NewBridge(s.gameAddr, write, read, s.maxPacket, s.log)
	if err != nil {
		s.log.Error().Err(err).Msg("bridge init fail")
		return
	}
	s.mu.Lock()
	s.bridge = bridge
	s.mu.Unlock()
	bridge.Start()
	s.state.Store(int32(Bridging))
	s.log.Info().Msg("Both channels are open, bridging")
}

// Bridge returns the active bridge of the session or nil.
func (s *Session) Bridge() *Bridge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bridge
}

// Close tears the session down: stops the bridge waiting for its pump
// to end, then drops the peer connection. Called when the signaling
// transport is gone for any reason.
func (s *Session) Close() {
	s.mu.Lock()
	bridge := s.bridge
	s.bridge = nil
	s.mu.Unlock()
	if bridge != nil {
		bridge.Stop(teardownWait)
	}
	s.peer.Close()
	s.state.Store(int32(Closed))
	s.log.Debug().Msg("Session closed")
}
