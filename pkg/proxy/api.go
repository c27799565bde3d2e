package proxy

import "github.com/goccy/go-json"

// Signaling events.
const (
	EventOffer     = "offer"
	EventAnswer    = "answer"
	EventCandidate = "candidate"
)

// Signal is one message of the signaling exchange,
// a JSON text frame of the {event, data} shape.
type Signal struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type (
	// Offer carries the local session description to the browser.
	Offer struct {
		Type string `json:"type"`
		SDP  string `json:"sdp"`
	}
	// Answer carries the remote session description of the browser.
	Answer struct {
		SDP string `json:"sdp"`
	}
)

func NewOffer(sdp string) (Signal, error) {
	data, err := json.Marshal(Offer{Type: EventOffer, SDP: sdp})
	if err != nil {
		return Signal{}, err
	}
	return Signal{Event: EventOffer, Data: data}, nil
}

// NewCandidate wraps an ICE candidate JSON as is.
func NewCandidate(data []byte) Signal { return Signal{Event: EventCandidate, Data: data} }

func DecodeSignal(data []byte) (s Signal, err error) {
	err = json.Unmarshal(data, &s)
	return
}

func (s Signal) Encode() ([]byte, error) { return json.Marshal(s) }
