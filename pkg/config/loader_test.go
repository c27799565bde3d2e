package config

import "testing"

func TestConfigDefaults(t *testing.T) {
	var out Config
	if err := LoadConfigEnv(&out); err != nil {
		t.Fatal(err)
	}
	if out.Webproxy.Game.Port != 27015 {
		t.Errorf("unexpected game port: %v", out.Webproxy.Game.Port)
	}
	if out.Webproxy.Game.MaxPacketSize != 65536 {
		t.Errorf("unexpected max packet size: %v", out.Webproxy.Game.MaxPacketSize)
	}
	if out.Webproxy.Server.Address != ":27016" {
		t.Errorf("unexpected server address: %v", out.Webproxy.Server.Address)
	}
}

func TestConfigEnv(t *testing.T) {
	t.Setenv("WEBPROXY_WEBPROXY_GAME_PORT", "27025")
	t.Setenv("WEBPROXY_WEBPROXY_WEBRTC_ICEIPMAP", "1.2.3.4")

	var out Config
	if err := LoadConfigEnv(&out); err != nil {
		t.Fatal(err)
	}
	if out.Webproxy.Game.Port != 27025 {
		t.Errorf("the env override hasn't been applied: %v", out.Webproxy.Game.Port)
	}
	if out.Webproxy.Game.Address() != "127.0.0.1:27025" {
		t.Errorf("unexpected game address: %v", out.Webproxy.Game.Address())
	}
	if !out.Webproxy.Webrtc.HasIceIpMap() {
		t.Error("the NAT ip map hasn't been applied")
	}
}
