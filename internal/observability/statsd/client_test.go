package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestLine(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "petalcart", tags: cleanTags(map[string]string{" env ": " prod "})}
	tests := []struct {
		name    string
		metric  string
		payload string
		tags    map[string]string
		want    string
	}{
		{"plain", "cart.replay", "1|c", nil, "petalcart.cart.replay:1|c|#env:prod"},
		{"tags sorted and trimmed", "cart.replay", "1|c",
			map[string]string{"status": " applied ", "": "ignored", "env": "stage"},
			"petalcart.cart.replay:1|c|#env:stage,status:applied"},
		{"name normalised", " http/request..time ", "2|ms", nil, "petalcart.http_request.time:2|ms|#env:prod"},
		{"empty name", "  ", "1|c", nil, ""},
	}
	for _, tt := range tests {
		if got := c.Line(tt.metric, tt.payload, tt.tags); got != tt.want {
			t.Fatalf("%s: Line() = %q, want %q", tt.name, got, tt.want)
		}
	}

	bare := &Client{}
	if got := bare.Line("auth.login", "1|c", nil); got != "auth.login:1|c" {
		t.Fatalf("bare Line() = %q", got)
	}
}

func TestClientSendsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp not available: %v", err)
	}
	defer pc.Close()

	client, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: ".petalcart."})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	defer client.Close()
	if !client.Enabled() {
		t.Fatal("expected client to be enabled")
	}

	client.Timing("http.request", 1500*time.Microsecond, map[string]string{"status": "2xx"})

	buf := make([]byte, 512)
	if err := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got, want := string(buf[:n]), "petalcart.http.request:1.5|ms|#status:2xx"; got != want {
		t.Fatalf("datagram = %q, want %q", got, want)
	}
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}
	if !client.Enabled() {
		t.Fatal("expected client.Enabled to report true with active connection")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client.Enabled to report false after Close")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close (second call) error: %v", err)
	}
	// Writes after Close are dropped.
	client.Count("cart.replay", 1, nil)

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
	nilClient.Count("cart.replay", 1, nil)
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil client Close error: %v", err)
	}
}

func TestNewClientDisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if client.Enabled() {
		t.Fatal("expected client to stay disabled when address is empty")
	}
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	if err == nil {
		t.Fatal("expected NewClient to error for invalid address")
	}
	if !strings.Contains(err.Error(), "statsd dial") {
		t.Fatalf("unexpected error: %v", err)
	}
}
