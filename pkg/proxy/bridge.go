package proxy

import (
	"bytes"
	"net"
	"sync"
	"time"

	"github.com/webxash3d/webproxy/pkg/logger"
	rtc "github.com/webxash3d/webproxy/pkg/network/webrtc"
)

// DefaultMaxPacketSize caps one datagram of the legacy protocol.
const DefaultMaxPacketSize = 65536

// Bridge pairs one UDP socket with the two data channels of a session
// and copies the payloads in both directions, unmodified.
// The socket is connected to the game server address, so the bridge
// uses plain send/receive instead of the address-qualified variants.
type Bridge struct {
	write rtc.DataChannel
	read  rtc.DataChannel
	udp   *net.UDPConn

	maxPacket int

	shutdown chan struct{}
	once     sync.Once
	done     chan struct{}

	log *logger.Logger
}

func NewBridge(gameAddr string, write rtc.DataChannel, read rtc.DataChannel, maxPacket int, log *logger.Logger) (*Bridge, error) {
	raddr, err := net.ResolveUDPAddr("udp", gameAddr)
	if err != nil {
		return nil, err
	}
	// a fresh ephemeral local port per bridge
	udp, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}
	if maxPacket <= 0 {
		maxPacket = DefaultMaxPacketSize
	}
	log.Info().Msgf("Bridge: UDP socket %v -> %v", udp.LocalAddr(), raddr)
	return &Bridge{
		write:     write,
		read:      read,
		udp:       udp,
		maxPacket: maxPacket,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		log:       log,
	}, nil
}

// Start wires the read channel callbacks and runs the datagram pump.
func (b *Bridge) Start() {
	b.read.OnMessage(func(data []byte) {
		if _, err := b.udp.Write(data); err != nil {
			// a lost datagram is not fatal, the legacy protocol tolerates it
			b.log.Error().Err(err).Msg("UDP send fail")
			return
		}
		gameTxBytes.Add(float64(len(data)))
	})
	b.read.OnClose(func() {
		b.log.Debug().Msgf("Channel [%v] closed", b.read.Label())
		b.Shutdown()
	})
	b.read.OnError(func(err error) {
		b.log.Error().Err(err).Msgf("Channel [%v] fail", b.read.Label())
		b.Shutdown()
	})
	go b.pump()
	bridgesStarted.Inc()
}

// pump forwards whole datagrams from the game server into the write
// channel until shutdown. Blocking, must be called as goroutine.
func (b *Bridge) pump() {
	defer close(b.done)
	buf := make([]byte, b.maxPacket)
	for {
		n, err := b.udp.Read(buf)
		if err != nil {
			// Shutdown closes the socket, which unblocks this read
			select {
			case <-b.shutdown:
			default:
				b.log.Error().Err(err).Msg("UDP recv fail")
				b.Shutdown()
			}
			return
		}
		// UDP has no closed state, an empty datagram is a no-op
		if n == 0 {
			continue
		}
		if err := b.write.Send(bytes.Clone(buf[:n])); err != nil {
			b.log.Error().Err(err).Msg("Channel send fail")
			continue
		}
		gameRxBytes.Add(float64(n))
	}
}

// Shutdown stops the bridge. Safe to call multiple times and from
// concurrent callbacks, only the first call has an effect.
func (b *Bridge) Shutdown() {
	b.once.Do(func() {
		close(b.shutdown)
		_ = b.udp.Close()
		b.log.Debug().Msg("Bridge shut down")
	})
}

// Stop shuts the bridge down and waits for the pump to end,
// but no longer than the wait param.
func (b *Bridge) Stop(wait time.Duration) {
	b.Shutdown()
	select {
	case <-b.done:
	case <-time.After(wait):
		b.log.Warn().Msg("Bridge was abandoned")
	}
}
