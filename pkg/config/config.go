package config

import (
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

type (
	Config struct {
		Webproxy Webproxy
		Version  string
	}
	Webproxy struct {
		Debug      bool
		Server     Server
		Game       Game
		Webrtc     Webrtc
		Monitoring Monitoring
	}
	Server struct {
		Address string `fig:"address" default:":27016"`
		Https   bool
		Tls     struct {
			Address   string
			Domain    string
			HttpsCert string
			HttpsKey  string
		}
		WebRoot string `fig:"webroot" default:"./web"`
	}
	// Game points to the UDP endpoint of the legacy game server process.
	// The proxy assumes the process is already running on the loopback.
	Game struct {
		Port          int `fig:"port" default:"27015"`
		MaxPacketSize int `fig:"maxpacketsize" default:"65536"`
	}
	Webrtc struct {
		DisableDefaultInterceptors bool
		IceServers                 []IceServer
		IcePorts                   struct {
			Min uint16
			Max uint16
		}
		IceIpMap   string
		SinglePort int
		LogLevel   int
	}
	IceServer struct {
		Urls       string `json:"urls,omitempty"`
		Username   string `json:"username,omitempty"`
		Credential string `json:"credential,omitempty"`
	}
	Monitoring struct {
		Port             int    `fig:"port" default:"27017"`
		URLPrefix        string `fig:"urlprefix"`
		MetricEnabled    bool   `fig:"metricenabled"`
		ProfilingEnabled bool   `fig:"profilingenabled"`
	}
)

func (m Monitoring) IsEnabled() bool { return m.MetricEnabled || m.ProfilingEnabled }

// Address of the game server socket every bridge dials to.
func (g Game) Address() string { return fmt.Sprintf("127.0.0.1:%d", g.Port) }

func (w *Webrtc) HasPortRange() bool  { return w.IcePorts.Min > 0 && w.IcePorts.Max > 0 }
func (w *Webrtc) HasSinglePort() bool { return w.SinglePort > 0 }
func (w *Webrtc) HasIceIpMap() bool   { return w.IceIpMap != "" }

// AddIceServersEnv appends or overrides ICE servers from the environment,
// i.e. WEBPROXY_ICESERVERS_0_URLS and so on.
func (w *Webrtc) AddIceServersEnv() error {
	cfg := Webrtc{IceServers: []IceServer{{}, {}, {}, {}, {}}}
	if err := LoadConfigEnv(&cfg); err != nil {
		return err
	}
	for i, ice := range cfg.IceServers {
		if ice.Urls == "" {
			continue
		}
		if strings.HasPrefix(ice.Urls, "turn:") || strings.HasPrefix(ice.Urls, "turns:") {
			if ice.Username == "" || ice.Credential == "" {
				return fmt.Errorf("TURN or TURNS servers should have both username and credential: %+v", ice)
			}
		}
		if i > len(w.IceServers)-1 {
			w.IceServers = append(w.IceServers, ice)
		} else {
			w.IceServers[i] = ice
		}
	}
	return nil
}

// NewConfig loads the proxy configuration.
// The search order is: the path param dir, the current dir, ./configs,
// and then the environment variables with the WEBPROXY_ prefix.
func NewConfig(path string) (conf Config, err error) {
	err = LoadConfig(&conf, path)
	if err != nil {
		return
	}
	err = conf.Webproxy.Webrtc.AddIceServersEnv()
	return
}

// ParseFlags overrides the config with the values of the command-line flags.
func (c *Config) ParseFlags() {
	flag.IntVar(&c.Webproxy.Game.Port, "gameport", c.Webproxy.Game.Port, "UDP port of the game server")
	flag.StringVar(&c.Webproxy.Server.Address, "address", c.Webproxy.Server.Address, "HTTP server address")
	flag.BoolVar(&c.Webproxy.Debug, "debug", c.Webproxy.Debug, "debug logging")
	flag.Parse()
}
