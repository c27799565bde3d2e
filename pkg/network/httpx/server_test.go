package httpx

import (
	"testing"

	"github.com/webxash3d/webproxy/pkg/config"
	"github.com/webxash3d/webproxy/pkg/logger"
)

// A failed redirect server init must not take the main server down.
func TestRedirectInitFailureIsNotFatal(t *testing.T) {
	busy, err := NewListener("127.0.0.1:23345", false)
	if err != nil {
		t.Fatalf("couldn't occupy the port, %v", err)
	}
	defer busy.Close()

	s, err := NewServer("127.0.0.1:0",
		func(*Server) Handler { return NewServeMux("") },
		WithServerConfig(config.Server{Https: true, Address: "127.0.0.1:23345"}),
		WithLogger(logger.New(false)),
	)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	// serve on a closed listener to make run return right away
	_ = s.listener.Close()
	s.run()

	if s.redirect != nil {
		t.Error("expected no redirect server on the busy port")
	}
}
