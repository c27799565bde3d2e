// Package proxy bridges browser clients to a legacy UDP game server.
// Each accepted websocket connection negotiates one WebRTC peer
// connection with a pair of ordered data channels; when both channels
// are open, the raw bytes are forwarded between them and a UDP socket
// connected to the game server.
package proxy

import (
	"context"
	"fmt"

	"github.com/webxash3d/webproxy/pkg/config"
	"github.com/webxash3d/webproxy/pkg/logger"
	"github.com/webxash3d/webproxy/pkg/network/httpx"
	"github.com/webxash3d/webproxy/pkg/network/websocket"
	rtc "github.com/webxash3d/webproxy/pkg/network/webrtc"
	"github.com/webxash3d/webproxy/pkg/os"
)

// Proxy is the service that accepts browser signaling connections.
type Proxy struct {
	conf   config.Webproxy
	api    *rtc.ApiFactory
	server *httpx.Server
	log    *logger.Logger
}

func New(conf config.Webproxy, log *logger.Logger) (*Proxy, error) {
	api, err := rtc.NewApiFactory(conf.Webrtc, log, nil)
	if err != nil {
		return nil, err
	}
	p := &Proxy{conf: conf, api: api, log: log}

	if !os.Exists(conf.Server.WebRoot) {
		log.Warn().Msgf("The web root %v wasn't found, only the signaling endpoint will work", conf.Server.WebRoot)
	}

	address := conf.Server.Address
	if conf.Server.Https {
		address = conf.Server.Tls.Address
	}
	server, err := httpx.NewServer(
		address,
		func(*httpx.Server) httpx.Handler {
			h := httpx.NewServeMux("")
			h.Handle("/", allowCORS(assets(conf.Server.WebRoot)))
			h.HandleFunc("/ws", p.handleSignaling)
			return h
		},
		httpx.WithServerConfig(conf.Server),
		httpx.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	p.server = server
	return p, nil
}

func (p *Proxy) Run() { p.server.Run() }

func (p *Proxy) Shutdown(ctx context.Context) error { return p.server.Server.Shutdown(ctx) }

func (p *Proxy) String() string { return fmt.Sprintf("proxy::%s", p.server.Addr) }

// handleSignaling runs one signaling session per websocket connection.
// It blocks until the transport is closed by the peer or fails, then
// tears the session down. A failure of one session never reaches the
// listener or the other sessions.
func (p *Proxy) handleSignaling(w httpx.ResponseWriter, r *httpx.Request) {
	defer func() {
		if err := recover(); err != nil {
			p.log.Error().Msgf("session panic: %v", err)
		}
	}()

	conn, err := websocket.NewServer(w, r, p.log)
	if err != nil {
		p.log.Error().Err(err).Msg("websocket upgrade fail")
		return
	}

	session := NewSession(
		rtc.New(p.log, p.api),
		func(sig Signal) error {
			data, err := sig.Encode()
			if err != nil {
				return err
			}
			conn.Write(data)
			return nil
		},
		p.conf.Game.Address(),
		p.conf.Game.MaxPacketSize,
		p.log,
	)

	sessionsActive.Inc()
	defer sessionsActive.Dec()
	p.log.Debug().Msgf("New signaling connection %v", session.Id())

	conn.SetMessageHandler(func(message []byte, err error) {
		// this callback runs on the reader pump goroutine, a panic
		// here would take the whole process down, not just the session
		defer func() {
			if err := recover(); err != nil {
				p.log.Error().Msgf("signal handler panic: %v", err)
				conn.Close()
			}
		}()
		if err != nil {
			// the transport is gone, the Done channel fires next
			return
		}
		sig, err := DecodeSignal(message)
		if err != nil {
			p.log.Error().Err(err).Msg("invalid signal message")
			return
		}
		if err := session.HandleSignal(sig); err != nil {
			p.log.Error().Err(err).Msg("fatal signaling error")
			conn.Close()
		}
	})
	conn.Listen()

	if err := session.Start(); err != nil {
		p.log.Error().Err(err).Msg("session start fail")
		conn.Close()
	}

	<-conn.Done
	session.Close()
	p.log.Debug().Msgf("Signaling connection %v is closed", session.Id())
}
