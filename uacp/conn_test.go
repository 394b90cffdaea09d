package uacp

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/convertersystems/opcua-client/ua"
)

func TestHostport(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
		wantErr  bool
	}{
		{"opc.tcp://localhost:4840/server", "localhost:4840", false},
		{"opc.tcp://localhost", "localhost:4840", false},
		{"http://localhost:4840", "", true},
	}
	for _, tt := range tests {
		got, err := hostport(tt.endpoint)
		if (err != nil) != tt.wantErr {
			t.Fatalf("hostport(%q) error = %v, wantErr %v", tt.endpoint, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Fatalf("hostport(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}

func TestMinNonZero(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{0, 0, 0}, {0, 5, 5}, {5, 0, 5}, {3, 7, 3}, {7, 3, 3},
	}
	for _, tt := range tests {
		if got := minNonZero(tt.a, tt.b); got != tt.want {
			t.Fatalf("minNonZero(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

// fakeServer accepts one connection, reads a HEL frame and replies with an
// ACK advertising the buffer sizes given.
func fakeServer(t *testing.T, ln net.Listener, rbuf, sbuf, maxMsg, maxChunk uint32) {
	t.Helper()
	nc, err := ln.Accept()
	if err != nil {
		return
	}
	defer nc.Close()

	hdr := make([]byte, hdrLen)
	if _, err := io.ReadFull(nc, hdr); err != nil {
		t.Errorf("server: read HEL header failed: %v", err)
		return
	}
	size := uint32(hdr[4]) | uint32(hdr[5])<<8 | uint32(hdr[6])<<16 | uint32(hdr[7])<<24
	body := make([]byte, size-hdrLen)
	if _, err := io.ReadFull(nc, body); err != nil {
		t.Errorf("server: read HEL body failed: %v", err)
		return
	}

	e := ua.NewEncoder()
	e.WriteUint32(0)
	e.WriteUint32(rbuf)
	e.WriteUint32(sbuf)
	e.WriteUint32(maxMsg)
	e.WriteUint32(maxChunk)
	ack := e.Bytes()

	out := make([]byte, 0, hdrLen+len(ack))
	out = append(out, 'A', 'C', 'K', 'F')
	sz := uint32(hdrLen + len(ack))
	out = append(out, byte(sz), byte(sz>>8), byte(sz>>16), byte(sz>>24))
	out = append(out, ack...)
	if _, err := nc.Write(out); err != nil {
		t.Errorf("server: write ACK failed: %v", err)
	}
}

func TestDialHandshakeNegotiatesMinimum(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ln.Close()

	go fakeServer(t, ln, 1024, 2048, 4096, 10)

	cfg := DefaultConfig()
	cfg.ReceiveBufSize = 512 // smaller than server's advertised 1024
	cfg.DialTimeout = 2 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	endpoint := "opc.tcp://" + ln.Addr().String()
	c, err := Dial(ctx, endpoint, cfg)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	if c.ReceiveBufSize != 512 {
		t.Fatalf("ReceiveBufSize = %d, want 512 (our own, smaller than server's)", c.ReceiveBufSize)
	}
	if c.SendBufSize != 2048 {
		t.Fatalf("SendBufSize = %d, want 2048 (server's, smaller than our default)", c.SendBufSize)
	}
	if c.MaxChunkCount != 10 {
		t.Fatalf("MaxChunkCount = %d, want 10 (server's, smaller than our default)", c.MaxChunkCount)
	}
}

func TestWriteReadFrameRoundtrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	c := &Conn{Conn: client}
	body := []byte("hello chunk")

	done := make(chan error, 1)
	go func() { done <- c.writeFrame("MSG", 'F', body) }()

	hdr := make([]byte, hdrLen)
	if _, err := io.ReadFull(server, hdr); err != nil {
		t.Fatalf("read header failed: %v", err)
	}
	if string(hdr[0:3]) != "MSG" || hdr[3] != 'F' {
		t.Fatalf("unexpected header %v", hdr)
	}
	size := uint32(hdr[4]) | uint32(hdr[5])<<8 | uint32(hdr[6])<<16 | uint32(hdr[7])<<24
	got := make([]byte, size-hdrLen)
	if _, err := io.ReadFull(server, got); err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	if string(got) != string(body) {
		t.Fatalf("body = %q, want %q", got, body)
	}
	if err := <-done; err != nil {
		t.Fatalf("writeFrame failed: %v", err)
	}
}
