package proxy

import (
	"sync"

	rtc "github.com/webxash3d/webproxy/pkg/network/webrtc"
)

// fakeChannel is an in-memory data channel driven by the test.
type fakeChannel struct {
	label string

	mu        sync.Mutex
	onOpen    func()
	onMessage func([]byte)
	onClose   func()
	onError   func(error)

	sendErr error
	sent    chan []byte
}

func newFakeChannel(label string) *fakeChannel {
	return &fakeChannel{label: label, sent: make(chan []byte, 64)}
}

func (c *fakeChannel) Label() string { return c.label }

func (c *fakeChannel) Send(data []byte) error {
	c.mu.Lock()
	err := c.sendErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.sent <- data
	return nil
}

func (c *fakeChannel) OnOpen(fn func())           { c.mu.Lock(); c.onOpen = fn; c.mu.Unlock() }
func (c *fakeChannel) OnMessage(fn func([]byte))  { c.mu.Lock(); c.onMessage = fn; c.mu.Unlock() }
func (c *fakeChannel) OnClose(fn func())          { c.mu.Lock(); c.onClose = fn; c.mu.Unlock() }
func (c *fakeChannel) OnError(fn func(error))     { c.mu.Lock(); c.onError = fn; c.mu.Unlock() }

func (c *fakeChannel) open() {
	c.mu.Lock()
	fn := c.onOpen
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *fakeChannel) message(data []byte) {
	c.mu.Lock()
	fn := c.onMessage
	c.mu.Unlock()
	if fn != nil {
		fn(data)
	}
}

func (c *fakeChannel) close() {
	c.mu.Lock()
	fn := c.onClose
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *fakeChannel) fail(err error) {
	c.mu.Lock()
	fn := c.onError
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// fakePeer is a peer connection stub with scripted results.
type fakePeer struct {
	write *fakeChannel
	read  *fakeChannel

	onCandidate func([]byte)

	startErr     error
	answerErr    error
	candidateErr error

	mu         sync.Mutex
	answers    []string
	candidates [][]byte
	closed     bool
}

func newFakePeer() *fakePeer {
	return &fakePeer{write: newFakeChannel(rtc.WriteLabel), read: newFakeChannel(rtc.ReadLabel)}
}

func (p *fakePeer) Start(onCandidate func(data []byte)) (string, error) {
	p.onCandidate = onCandidate
	return "v=0 fake offer", p.startErr
}

func (p *fakePeer) Channels() (write rtc.DataChannel, read rtc.DataChannel) {
	return p.write, p.read
}

func (p *fakePeer) SetAnswer(sdp string) error {
	p.mu.Lock()
	p.answers = append(p.answers, sdp)
	p.mu.Unlock()
	return p.answerErr
}

func (p *fakePeer) AddCandidate(data []byte) error {
	p.mu.Lock()
	p.candidates = append(p.candidates, data)
	p.mu.Unlock()
	return p.candidateErr
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
