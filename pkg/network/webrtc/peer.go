package webrtc

import (
	"errors"
	"sync"

	"github.com/goccy/go-json"
	"github.com/pion/webrtc/v4"
	"github.com/webxash3d/webproxy/pkg/logger"
)

// errNotStarted rejects remote signals that race the connection setup.
// The browser may push a candidate over the open signaling transport
// before the local offer has even been created.
var errNotStarted = errors.New("the peer connection is not ready")

// DataChannel is one ordered, reliable byte-message stream
// of a peer connection.
type DataChannel interface {
	Label() string
	Send(data []byte) error
	OnOpen(fn func())
	OnMessage(fn func(data []byte))
	OnClose(fn func())
	OnError(fn func(err error))
}

// Channel wraps a Pion data channel into the DataChannel contract.
type Channel struct {
	d *webrtc.DataChannel
}

func (c *Channel) Label() string          { return c.d.Label() }
func (c *Channel) Send(data []byte) error { return c.d.Send(data) }
func (c *Channel) OnOpen(fn func())       { c.d.OnOpen(fn) }
func (c *Channel) OnClose(fn func())      { c.d.OnClose(fn) }
func (c *Channel) OnError(fn func(error)) { c.d.OnError(fn) }
func (c *Channel) OnMessage(fn func(data []byte)) {
	c.d.OnMessage(func(m webrtc.DataChannelMessage) { fn(m.Data) })
}

const (
	// WriteLabel is the channel for the data heading to the browser.
	WriteLabel = "write"
	// ReadLabel is the channel for the data coming from the browser.
	ReadLabel = "read"
)

// Peer is one negotiated connection to a browser with
// a pair of data channels, one per direction.
type Peer struct {
	api *ApiFactory
	log *logger.Logger

	// the signaling transport is already open while Start runs,
	// so the remote signal handlers may observe a nil connection
	mu   sync.Mutex
	conn *webrtc.PeerConnection

	write *Channel
	read  *Channel
}

func New(log *logger.Logger, api *ApiFactory) *Peer { return &Peer{api: api, log: log} }

func (p *Peer) connection() *webrtc.PeerConnection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn
}

// Start creates the peer connection with both data channels and
// returns the SDP of the local offer.
// Each discovered local ICE candidate is pushed into the onCandidate
// callback as its JSON; the end-of-gathering marker is dropped.
func (p *Peer) Start(onCandidate func(data []byte)) (offer string, err error) {
	p.log.Debug().Msg("WebRTC start")
	conn, err := p.api.NewPeer()
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
	conn.OnICECandidate(func(ice *webrtc.ICECandidate) {
		if ice == nil {
			p.log.Debug().Msg("ICE gathering was complete probably")
			return
		}
		candidate := ice.ToJSON()
		data, err := json.Marshal(candidate)
		if err != nil {
			p.log.Error().Err(err).Msg("ICE candidate marshal fail")
			return
		}
		p.log.Debug().Str("candidate", candidate.Candidate).Msg("ICE")
		onCandidate(data)
	})
	conn.OnICEConnectionStateChange(p.handleICEState)

	ordered := true
	init := webrtc.DataChannelInit{Ordered: &ordered}
	write, err := conn.CreateDataChannel(WriteLabel, &init)
	if err != nil {
		return "", err
	}
	p.write = &Channel{d: write}
	read, err := conn.CreateDataChannel(ReadLabel, &init)
	if err != nil {
		return "", err
	}
	p.read = &Channel{d: read}
	p.log.Debug().Msgf("Added [%s] and [%s] chans", write.Label(), read.Label())

	local, err := conn.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	if err = conn.SetLocalDescription(local); err != nil {
		return "", err
	}
	p.log.Debug().Msg("Created Offer")
	return local.SDP, nil
}

// Channels returns the browser-bound (write) and the
// server-bound (read) data channels of the connection.
func (p *Peer) Channels() (write DataChannel, read DataChannel) { return p.write, p.read }

// SetAnswer applies the remote session description of the browser.
func (p *Peer) SetAnswer(sdp string) error {
	conn := p.connection()
	if conn == nil {
		return errNotStarted
	}
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}
	if err := conn.SetRemoteDescription(answer); err != nil {
		p.log.Error().Err(err).Msg("Set remote description from peer failed")
		return err
	}
	p.log.Debug().Msg("Set Remote Description")
	return nil
}

// AddCandidate adds a remote ICE candidate from its JSON form.
func (p *Peer) AddCandidate(data []byte) error {
	conn := p.connection()
	if conn == nil {
		return errNotStarted
	}
	var iceCandidate webrtc.ICECandidateInit
	if err := json.Unmarshal(data, &iceCandidate); err != nil {
		return err
	}
	if err := conn.AddICECandidate(iceCandidate); err != nil {
		return err
	}
	p.log.Debug().Str("candidate", iceCandidate.Candidate).Msg("Ice")
	return nil
}

func (p *Peer) handleICEState(state webrtc.ICEConnectionState) {
	p.log.Debug().Str(".state", state.String()).Msg("ICE")
	switch state {
	case webrtc.ICEConnectionStateConnected:
		p.log.Info().Msg("Connected")
	case webrtc.ICEConnectionStateFailed:
		conn := p.connection()
		p.log.Error().Msgf("WebRTC connection fail! connection: %v, ice: %v, gathering: %v, signalling: %v",
			conn.ConnectionState(), conn.ICEConnectionState(), conn.ICEGatheringState(),
			conn.SignalingState())
		p.Close()
	case webrtc.ICEConnectionStateClosed,
		webrtc.ICEConnectionStateDisconnected:
		p.Close()
	default:
	}
}

func (p *Peer) Close() {
	conn := p.connection()
	if conn == nil {
		return
	}
	if conn.ConnectionState() < webrtc.PeerConnectionStateDisconnected {
		// ignore this due to DTLS fatal: conn is closed
		_ = conn.Close()
	}
	p.log.Debug().Msg("WebRTC stop")
}
