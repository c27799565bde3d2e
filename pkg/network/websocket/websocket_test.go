package websocket

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/webxash3d/webproxy/pkg/logger"
)

func TestEcho(t *testing.T) {
	log := logger.New(false)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := NewServer(w, r, log)
		if err != nil {
			t.Errorf("upgrade fail, %v", err)
			return
		}
		ws.SetMessageHandler(func(message []byte, err error) {
			if err == nil {
				ws.Write(message)
			}
		})
		ws.Listen()
	}))
	defer server.Close()

	addr, _ := url.Parse("ws" + strings.TrimPrefix(server.URL, "http"))
	client, err := NewClient(*addr, log)
	if err != nil {
		t.Fatalf("dial fail, %v", err)
	}

	got := make(chan []byte, 1)
	client.SetMessageHandler(func(message []byte, err error) {
		if err == nil {
			got <- message
		}
	})
	client.Listen()

	client.Write([]byte("ping"))
	select {
	case message := <-got:
		if string(message) != "ping" {
			t.Errorf("expected ping, got %v", string(message))
		}
	case <-time.After(2 * time.Second):
		t.Error("no echo")
	}

	client.Close()
	select {
	case <-client.Done:
	case <-time.After(2 * time.Second):
		t.Error("the connection hasn't closed")
	}
}
