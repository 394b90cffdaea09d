package uacp

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/convertersystems/opcua-client/debug"
	"github.com/convertersystems/opcua-client/errors"
	"github.com/convertersystems/opcua-client/ua"
)

const hdrLen = 8

// Config carries the local transport limits offered during the HEL/ACK
// handshake (spec.md §4.2). Dial uses DefaultConfig when cfg is nil; zero
// fields of a non-nil Config are offered as zero, which the limits treat
// as "no limit".
type Config struct {
	ReceiveBufSize int
	SendBufSize    int
	MaxMessageSize int
	MaxChunkCount  int
	DialTimeout    time.Duration
}

// DefaultConfig mirrors the conservative defaults shipped by most OPC UA
// stacks: 64KB buffers, a 16 MiB message-size ceiling and no chunk-count
// ceiling.
func DefaultConfig() *Config {
	return &Config{
		ReceiveBufSize: 64 * 1024,
		SendBufSize:    64 * 1024,
		MaxMessageSize: 16 * 1024 * 1024,
		MaxChunkCount:  0,
		DialTimeout:    5 * time.Second,
	}
}

var connCounter uint32

// Conn is a raw OPC UA TCP connection: the HEL/ACK handshake has already
// completed by the time Dial returns, and ReceiveBufSize/SendBufSize/
// MaxMessageSize/MaxChunkCount hold the negotiated (element-wise minimum)
// limits described in spec.md §4.2.
type Conn struct {
	net.Conn

	id uint32

	ReceiveBufSize int
	SendBufSize    int
	MaxMessageSize int
	MaxChunkCount  int

	mu     sync.Mutex
	closed bool
}

// ID returns a small integer unique to this process, used only to
// correlate debug.Printf lines across a connection's lifetime.
func (c *Conn) ID() uint32 { return c.id }

// Dial opens a TCP connection to endpoint ("opc.tcp://host:port/path") and
// performs the HEL/ACK handshake, returning a Conn whose limits are the
// negotiated minimum of cfg and the server's ACK.
func Dial(ctx context.Context, endpoint string, cfg *Config) (*Conn, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	host, err := hostport(endpoint)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{Timeout: cfg.DialTimeout}
	nc, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return nil, errors.Wrap(err, "uacp: dial failed")
	}

	c := &Conn{
		Conn:           nc,
		id:             atomic.AddUint32(&connCounter, 1),
		ReceiveBufSize: cfg.ReceiveBufSize,
		SendBufSize:    cfg.SendBufSize,
		MaxMessageSize: cfg.MaxMessageSize,
		MaxChunkCount:  cfg.MaxChunkCount,
	}

	if err := c.handshake(endpoint, cfg); err != nil {
		nc.Close()
		return nil, err
	}
	return c, nil
}

func (c *Conn) handshake(endpoint string, cfg *Config) error {
	e := ua.NewEncoder()
	e.WriteUint32(0) // protocol version
	e.WriteUint32(uint32(cfg.ReceiveBufSize))
	e.WriteUint32(uint32(cfg.SendBufSize))
	e.WriteUint32(uint32(cfg.MaxMessageSize))
	e.WriteUint32(uint32(cfg.MaxChunkCount))
	e.WriteString(endpoint, false)

	if err := c.writeFrame("HEL", 'F', e.Bytes()); err != nil {
		return errors.Wrap(err, "uacp: HEL send failed")
	}

	typ, _, body, err := c.readFrame()
	if err != nil {
		return errors.Wrap(err, "uacp: handshake read failed")
	}

	d := ua.NewDecoder(body)
	switch typ {
	case "ACK":
		if _, err := d.ReadUint32(); err != nil { // protocol version
			return errors.Wrap(err, "uacp: ACK decode failed")
		}
		rbuf, err1 := d.ReadUint32()
		sbuf, err2 := d.ReadUint32()
		maxMsg, err3 := d.ReadUint32()
		maxChunk, err4 := d.ReadUint32()
		if err := firstErr(err1, err2, err3, err4); err != nil {
			return errors.Wrap(err, "uacp: ACK decode failed")
		}
		c.ReceiveBufSize = minNonZero(cfg.ReceiveBufSize, int(rbuf))
		c.SendBufSize = minNonZero(cfg.SendBufSize, int(sbuf))
		c.MaxMessageSize = minNonZero(cfg.MaxMessageSize, int(maxMsg))
		c.MaxChunkCount = minNonZero(cfg.MaxChunkCount, int(maxChunk))
		debug.Printf("uacp %d: handshake ok recv=%d send=%d maxmsg=%d maxchunk=%d",
			c.id, c.ReceiveBufSize, c.SendBufSize, c.MaxMessageSize, c.MaxChunkCount)
		return nil

	case "ERR":
		codeVal, _ := d.ReadUint32()
		reason, _, _ := d.ReadString()
		return Errorf(ua.StatusCode(codeVal), "%s", reason)

	default:
		return errors.Errorf("uacp: unexpected handshake message type %q", typ)
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// minNonZero returns the smaller of a and b, treating 0 as "no limit"
// (the server is allowed to advertise 0 to mean unbounded).
func minNonZero(a, b int) int {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a < b {
		return a
	}
	return b
}

// writeFrame writes one complete frame: 3-byte message type, 1-byte chunk
// type, 4-byte little-endian size including the 8-byte header, then body.
func (c *Conn) writeFrame(msgType string, chunkType byte, body []byte) error {
	if len(msgType) != 3 {
		return errors.Errorf("uacp: invalid message type %q", msgType)
	}
	var buf bytes.Buffer
	buf.WriteString(msgType)
	buf.WriteByte(chunkType)
	size := uint32(hdrLen + len(body))
	buf.WriteByte(byte(size))
	buf.WriteByte(byte(size >> 8))
	buf.WriteByte(byte(size >> 16))
	buf.WriteByte(byte(size >> 24))
	buf.Write(body)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.Conn.Write(buf.Bytes())
	return err
}

// Send writes a pre-framed chunk (header already attached by the secure
// channel layer) directly to the socket.
func (c *Conn) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.Conn.Write(b)
	return err
}

// readFrame reads exactly one frame and returns its message type, chunk
// type, and body (the bytes after the 8-byte header). Frames are read
// strictly: the size field is trusted and exactly that many bytes are
// buffered, per spec.md §4.2.
func (c *Conn) readFrame() (msgType string, chunkType byte, body []byte, err error) {
	hdr := make([]byte, hdrLen)
	if _, err := io.ReadFull(c.Conn, hdr); err != nil {
		return "", 0, nil, err
	}
	msgType = string(hdr[0:3])
	chunkType = hdr[3]
	size := uint32(hdr[4]) | uint32(hdr[5])<<8 | uint32(hdr[6])<<16 | uint32(hdr[7])<<24

	if c.MaxMessageSize != 0 && int(size) > c.MaxMessageSize {
		return "", 0, nil, Errorf(ua.StatusBadTcpMessageTooLarge,
			"frame size %d exceeds max_message_size %d", size, c.MaxMessageSize)
	}
	if size < hdrLen {
		return "", 0, nil, errors.Errorf("uacp: frame size %d smaller than header", size)
	}

	body = make([]byte, size-hdrLen)
	if _, err := io.ReadFull(c.Conn, body); err != nil {
		return "", 0, nil, err
	}
	return msgType, chunkType, body, nil
}

// Receive reads one full MSG/OPN/CLO/ERR frame and returns its bytes
// including the 8-byte header, so the uasc layer can decode the security
// headers itself. An ERR frame is translated into a *Error instead of
// being returned as data.
func (c *Conn) Receive() ([]byte, error) {
	hdr := make([]byte, hdrLen)
	if _, err := io.ReadFull(c.Conn, hdr); err != nil {
		return nil, err
	}
	msgType := string(hdr[0:3])
	size := uint32(hdr[4]) | uint32(hdr[5])<<8 | uint32(hdr[6])<<16 | uint32(hdr[7])<<24

	if c.MaxMessageSize != 0 && int(size) > c.MaxMessageSize {
		return nil, Errorf(ua.StatusBadTcpMessageTooLarge,
			"frame size %d exceeds max_message_size %d", size, c.MaxMessageSize)
	}
	if size < hdrLen {
		return nil, errors.Errorf("uacp: frame size %d smaller than header", size)
	}

	buf := make([]byte, size)
	copy(buf, hdr)
	if _, err := io.ReadFull(c.Conn, buf[hdrLen:]); err != nil {
		return nil, err
	}

	if msgType == "ERR" {
		d := ua.NewDecoder(buf[hdrLen:])
		codeVal, _ := d.ReadUint32()
		reason, _, _ := d.ReadString()
		return nil, Errorf(ua.StatusCode(codeVal), "%s", reason)
	}
	return buf, nil
}

// Close closes the underlying socket. Safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.Conn.Close()
}

// hostport extracts the "host:port" authority from an "opc.tcp://host:port/path"
// endpoint URL.
func hostport(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrapf(err, "uacp: invalid endpoint %q", endpoint)
	}
	if u.Scheme != "opc.tcp" {
		return "", errors.Errorf("uacp: unsupported endpoint scheme %q", u.Scheme)
	}
	host := u.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "4840")
	}
	return host, nil
}

