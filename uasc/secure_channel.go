package uasc

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/convertersystems/opcua-client/debug"
	"github.com/convertersystems/opcua-client/errors"
	"github.com/convertersystems/opcua-client/ua"
	"github.com/convertersystems/opcua-client/uacp"
	"github.com/convertersystems/opcua-client/uapolicy"
)

// Secure channel lifecycle states (spec.md §4.3): Created -> Opening ->
// Opened -> (Renewing -> Opened)* -> Closing -> Closed, with Faulted
// reachable from any state on an unrecoverable error.
const (
	scCreated int32 = iota
	scOpening
	scOpened
	scRenewing
	scClosing
	scClosed
	scFaulted
)

const renewAtFraction = 0.75

// Response is what SecureChannel.Receive/the internal read loop hands back:
// either a decoded service plus the request id it answers, or a terminal
// error (io.EOF on orderly close, a StatusCode on fault).
type Response struct {
	ReqID uint32
	V     interface{}
	Err   error
}

// SecureChannel owns one uacp.Conn, negotiates and renews a security
// token, and frames/reassembles chunks using this module's
// uapolicy.Policy-based crypto API.
type SecureChannel struct {
	EndpointURL string

	c   *uacp.Conn
	cfg *Config

	policy *uapolicy.Policy

	reqhdr *ua.RequestHeader

	state int32 // atomic, one of sc*

	mu      sync.Mutex
	handler map[uint32]chan Response
	chunks  map[uint32][]*MessageChunk

	localNonce  []byte
	remoteNonce []byte

	outbound *uapolicy.SymmetricKeys
	inbound  *uapolicy.SymmetricKeys

	oldTokenID uint32
	oldInbound *uapolicy.SymmetricKeys

	tokenLifetime time.Duration

	// Unsolicited receives responses that arrive with no outstanding
	// handler, e.g. Publish responses matched by the session layer instead
	// of by request id.
	Unsolicited chan Response

	renewCancel context.CancelFunc
	readDone    chan struct{}
	lastErr     error

	timeNow func() time.Time
}

// Done returns a channel that is closed once the read loop exits, which
// happens on io.EOF, a transport-level *uacp.Error, or Close. A caller that
// wants to reconnect (spec.md §4.1) selects on Done and then inspects Err.
func (s *SecureChannel) Done() <-chan struct{} {
	return s.readDone
}

// Err returns the error that ended the read loop; only meaningful after
// Done is closed.
func (s *SecureChannel) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// NewSecureChannel builds a SecureChannel bound to an already-handshaken
// uacp.Conn. Open must be called before any request can be sent.
func NewSecureChannel(endpoint string, c *uacp.Conn, cfg *Config) (*SecureChannel, error) {
	if c == nil {
		return nil, errors.New("uasc: no connection")
	}
	if cfg == nil {
		return nil, errors.New("uasc: no secure channel config")
	}
	if cfg.SecurityPolicyURI != ua.SecurityPolicyURINone && cfg.LocalKey == nil {
		return nil, errors.Errorf("uasc: security policy %q requires a local private key", cfg.SecurityPolicyURI)
	}
	policy, err := uapolicy.ByURI(cfg.SecurityPolicyURI)
	if err != nil {
		return nil, err
	}
	if policy.IsNone() {
		cfg.SecurityMode = ua.MessageSecurityModeNone
	}

	return &SecureChannel{
		EndpointURL: endpoint,
		c:           c,
		cfg:         cfg,
		policy:      policy,
		reqhdr:      &ua.RequestHeader{AdditionalHeader: ua.NewExtensionObject(nil)},
		state:       scCreated,
		handler:     make(map[uint32]chan Response),
		chunks:      make(map[uint32][]*MessageChunk),
		Unsolicited: make(chan Response, 16),
	}, nil
}

func (s *SecureChannel) setState(n int32)   { atomic.StoreInt32(&s.state, n) }
func (s *SecureChannel) hasState(n int32) bool { return atomic.LoadInt32(&s.state) == n }

func (s *SecureChannel) now() time.Time {
	if s.timeNow != nil {
		return s.timeNow()
	}
	return time.Now()
}

// Open performs OpenSecureChannel (Issue), starts the background read loop
// and the 75%-lifetime renewal timer (spec.md §4.3).
func (s *SecureChannel) Open(ctx context.Context) error {
	s.setState(scOpening)
	s.readDone = make(chan struct{})
	go s.readLoop(ctx)

	if err := s.openSecureChannel(ctx, ua.SecurityTokenRequestTypeIssue); err != nil {
		s.setState(scFaulted)
		return err
	}
	s.setState(scOpened)

	renewCtx, cancel := context.WithCancel(ctx)
	s.renewCancel = cancel
	go s.renewLoop(renewCtx)
	return nil
}

// Close sends CloseSecureChannelRequest (best effort) and tears down the
// transport connection.
func (s *SecureChannel) Close(ctx context.Context) error {
	if s.renewCancel != nil {
		s.renewCancel()
	}
	s.setState(scClosing)
	if err := s.closeSecureChannel(ctx); err != nil && err != io.EOF {
		debug.Printf("uasc: close secure channel failed: %s", err)
	}
	s.setState(scClosed)
	return s.c.Close()
}

func (s *SecureChannel) openSecureChannel(ctx context.Context, reqType ua.SecurityTokenRequestType) error {
	var remoteKey *rsa.PublicKey
	if !s.policy.IsNone() {
		cert, err := x509.ParseCertificate(s.cfg.RemoteCertificate)
		if err != nil {
			return errors.Wrap(err, "uasc: parse remote certificate failed")
		}
		var ok bool
		remoteKey, ok = cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return ua.StatusBadCertificateInvalid
		}
	}

	nonce, err := s.policy.NewNonce()
	if err != nil {
		return err
	}
	s.localNonce = nonce

	req := &ua.OpenSecureChannelRequest{
		ClientProtocolVersion: 0,
		RequestType:           reqType,
		SecurityMode:          s.cfg.SecurityMode,
		ClientNonce:           nonce,
		RequestedLifetime:     s.cfg.Lifetime,
	}

	respCh, reqID, err := s.sendAsymmetric(req, remoteKey)
	if err != nil {
		return err
	}

	select {
	case r := <-respCh:
		if r.Err != nil {
			return r.Err
		}
		resp, ok := r.V.(*ua.OpenSecureChannelResponse)
		if !ok {
			return errors.Errorf("uasc: got %T, want OpenSecureChannelResponse", r.V)
		}
		s.remoteNonce = resp.ServerNonce
		s.cfg.SecureChannelID = resp.SecurityToken.ChannelID
		if reqType == ua.SecurityTokenRequestTypeRenew {
			s.oldTokenID = s.cfg.SecurityTokenID
			s.oldInbound = s.inbound
		}
		s.cfg.SecurityTokenID = resp.SecurityToken.TokenID
		s.tokenLifetime = time.Duration(resp.SecurityToken.RevisedLifetime) * time.Millisecond
		s.deriveKeys()
		debug.Printf("uasc %d: secure channel %d open, token %d, lifetime %s",
			s.c.ID(), s.cfg.SecureChannelID, s.cfg.SecurityTokenID, s.tokenLifetime)
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.handler, reqID)
		s.mu.Unlock()
		return ctx.Err()
	}
}

// deriveKeys derives the outbound/inbound symmetric key sets from the
// local/remote nonce pair, per spec.md §4.3 step 4: outbound keys come from
// (remoteNonce, localNonce), inbound from (localNonce, remoteNonce).
func (s *SecureChannel) deriveKeys() {
	if s.policy.IsNone() {
		return
	}
	s.outbound = s.policy.DeriveKeys(s.remoteNonce, s.localNonce)
	s.inbound = s.policy.DeriveKeys(s.localNonce, s.remoteNonce)
}

// renewLoop issues a Renew OpenSecureChannel once 75% of the revised
// lifetime has elapsed, repeating for as long as the channel stays open.
func (s *SecureChannel) renewLoop(ctx context.Context) {
	for {
		wait := time.Duration(float64(s.tokenLifetime) * renewAtFraction)
		if wait <= 0 {
			wait = time.Minute
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			s.setState(scRenewing)
			if err := s.openSecureChannel(ctx, ua.SecurityTokenRequestTypeRenew); err != nil {
				debug.Printf("uasc %d: channel renewal failed: %s", s.c.ID(), err)
				s.setState(scFaulted)
				return
			}
			s.setState(scOpened)
		}
	}
}

func (s *SecureChannel) closeSecureChannel(ctx context.Context) error {
	if !s.hasState(scClosing) && !s.hasState(scOpened) {
		return io.EOF
	}
	_, err := s.SendRequest(ctx, &ua.CloseSecureChannelRequest{}, nil)
	return err
}

// SendRequest encodes, signs/encrypts and sends req, then waits for the
// matching response (or ctx's deadline / the channel's RequestTimeout,
// whichever is sooner).
func (s *SecureChannel) SendRequest(ctx context.Context, req ua.Request, authToken *ua.NodeId) (interface{}, error) {
	respCh, reqID, err := s.sendSymmetric(req, authToken)
	if err != nil {
		return nil, err
	}

	timeout := s.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-respCh:
		return r.V, r.Err
	case <-timer.C:
		s.mu.Lock()
		delete(s.handler, reqID)
		s.mu.Unlock()
		return nil, ua.StatusBadTimeout
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.handler, reqID)
		s.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (s *SecureChannel) nextSequenceNumber() uint32 {
	s.cfg.SequenceNumber++
	if s.cfg.SequenceNumber > math.MaxUint32-1024 {
		s.cfg.SequenceNumber = 1
	}
	return s.cfg.SequenceNumber
}

func (s *SecureChannel) nextRequestID() uint32 {
	s.cfg.RequestID++
	if s.cfg.RequestID == 0 {
		s.cfg.RequestID = 1
	}
	return s.cfg.RequestID
}

// sendAsymmetric sends req (always OpenSecureChannelRequest) as a single
// OPN chunk signed/encrypted with the asymmetric algorithms, since the
// symmetric keys don't exist yet (or are being replaced, for a renewal).
func (s *SecureChannel) sendAsymmetric(req ua.Request, remoteKey *rsa.PublicKey) (chan Response, uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqID := s.nextRequestID()
	s.reqhdr.RequestHandle++
	s.reqhdr.AuthenticationToken = ua.NewTwoByteNodeID(0)
	s.reqhdr.Timestamp = s.now()
	req.SetHeader(s.reqhdr)

	msg := NewMessage(req, s.cfg)
	msg.SequenceHeader.SequenceNumber = s.nextSequenceNumber()
	msg.SequenceHeader.RequestID = reqID

	body, err := msg.EncodeBody()
	if err != nil {
		return nil, reqID, err
	}

	chunk, err := s.buildAsymmetricChunk(msg, body, remoteKey)
	if err != nil {
		return nil, reqID, err
	}

	ch := make(chan Response, 1)
	s.handler[reqID] = ch
	if err := s.c.Send(chunk); err != nil {
		delete(s.handler, reqID)
		return nil, reqID, err
	}
	debug.Printf("uasc %d/%d: send %T (%d bytes, OPN)", s.c.ID(), reqID, req, len(chunk))
	return ch, reqID, nil
}

// sendSymmetric sends req as one or more MSG chunks under the current
// symmetric token.
func (s *SecureChannel) sendSymmetric(req ua.Request, authToken *ua.NodeId) (chan Response, uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if authToken == nil {
		authToken = ua.NewTwoByteNodeID(0)
	}
	reqID := s.nextRequestID()
	s.reqhdr.RequestHandle++
	s.reqhdr.AuthenticationToken = authToken
	s.reqhdr.Timestamp = s.now()
	req.SetHeader(s.reqhdr)

	msg := NewMessage(req, s.cfg)
	msg.SequenceHeader.RequestID = reqID

	body, err := msg.EncodeBody()
	if err != nil {
		return nil, reqID, err
	}

	chunks, err := s.buildSymmetricChunks(msg, body)
	if err != nil {
		return nil, reqID, err
	}

	ch := make(chan Response, 1)
	s.handler[reqID] = ch
	for _, c := range chunks {
		if err := s.c.Send(c); err != nil {
			delete(s.handler, reqID)
			return nil, reqID, err
		}
	}
	debug.Printf("uasc %d/%d: send %T (%d chunks, MSG)", s.c.ID(), reqID, req, len(chunks))
	return ch, reqID, nil
}

// buildAsymmetricChunk assembles and signs/encrypts a single OPN chunk. The
// chunk is never split: OpenSecureChannelRequest/Response bodies are small
// enough to always fit one asymmetric block run.
func (s *SecureChannel) buildAsymmetricChunk(msg *Message, body []byte, remoteKey *rsa.PublicKey) ([]byte, error) {
	ashBytes, err := msg.AsymmetricSecurityHeader.Encode()
	if err != nil {
		return nil, err
	}
	seqBytes, err := msg.SequenceHeader.Encode()
	if err != nil {
		return nil, err
	}

	signed := s.cfg.SecurityMode != ua.MessageSecurityModeNone
	encrypted := s.cfg.SecurityMode == ua.MessageSecurityModeSignAndEncrypt && remoteKey != nil

	sigSize := 0
	if signed {
		sigSize = s.policy.AsymSignatureSize(s.cfg.LocalKey)
	}
	unsigned := append(append([]byte{}, seqBytes...), body...)

	cipherLen := len(unsigned) + sigSize
	if encrypted {
		plainBlock := s.policy.AsymPlaintextBlockSize(remoteKey)
		cipherBlock := s.policy.AsymCipherTextBlockSize(remoteKey)
		blocks := (cipherLen + plainBlock - 1) / plainBlock
		cipherLen = blocks * cipherBlock
	}

	hdr := &Header{
		MessageType:     msg.Header.MessageType,
		ChunkType:       'F',
		MessageSize:     uint32(12 + len(ashBytes) + cipherLen),
		SecureChannelID: msg.Header.SecureChannelID,
	}
	hdrBytes, err := hdr.Encode()
	if err != nil {
		return nil, err
	}

	payload := unsigned
	if signed {
		sig, err := s.policy.AsymSign(s.cfg.LocalKey, concat(hdrBytes, ashBytes, unsigned))
		if err != nil {
			return nil, err
		}
		payload = append(unsigned, sig...)
	}
	if encrypted {
		blockSize := s.policy.AsymPlaintextBlockSize(remoteKey)
		var out []byte
		for len(payload) > 0 {
			n := blockSize
			if n > len(payload) {
				n = len(payload)
			}
			enc, err := s.policy.AsymEncrypt(remoteKey, payload[:n])
			if err != nil {
				return nil, err
			}
			out = append(out, enc...)
			payload = payload[n:]
		}
		payload = out
	}

	return concat(hdrBytes, ashBytes, payload), nil
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// buildSymmetricChunks splits body across one or more MSG/CLO chunks sized
// to the negotiated send buffer, signing (and, for SignAndEncrypt,
// encrypting) each independently (spec.md §4.3 encode path).
func (s *SecureChannel) buildSymmetricChunks(msg *Message, body []byte) ([][]byte, error) {
	sshBytes, err := msg.SymmetricSecurityHeader.Encode()
	if err != nil {
		return nil, err
	}

	signed := s.cfg.SecurityMode != ua.MessageSecurityModeNone && s.outbound != nil
	encrypted := s.cfg.SecurityMode == ua.MessageSecurityModeSignAndEncrypt && s.outbound != nil

	overhead := 12 + len(sshBytes) + 8
	if signed {
		overhead += s.policy.SymSignatureSize
	}
	if encrypted {
		overhead += s.policy.SymBlockSize
	}
	maxBody := s.c.SendBufSize - overhead
	if maxBody <= 0 {
		maxBody = len(body)
	}

	var chunks [][]byte
	for offset := 0; offset == 0 || offset < len(body); {
		end := offset + maxBody
		final := true
		if end >= len(body) {
			end = len(body)
		} else {
			final = false
		}
		chunkType := byte('C')
		if final {
			chunkType = 'F'
		}

		seqBytes, err := (&SequenceHeader{SequenceNumber: s.nextSequenceNumber(), RequestID: msg.SequenceHeader.RequestID}).Encode()
		if err != nil {
			return nil, err
		}
		unsigned := append(append([]byte{}, seqBytes...), body[offset:end]...)
		sigSize := 0
		if signed {
			sigSize = s.policy.SymSignatureSize
		}
		if encrypted {
			unsigned = s.policy.PadForEncryption(unsigned, sigSize)
		}

		hdr := &Header{
			MessageType:     msg.Header.MessageType,
			ChunkType:       chunkType,
			MessageSize:     uint32(12 + len(sshBytes) + len(unsigned) + sigSize),
			SecureChannelID: msg.Header.SecureChannelID,
		}
		hdrBytes, err := hdr.Encode()
		if err != nil {
			return nil, err
		}

		payload := unsigned
		if signed {
			sig := s.policy.SymSign(s.outbound.SigningKey, concat(hdrBytes, sshBytes, unsigned))
			payload = append(unsigned, sig...)
		}
		if encrypted {
			enc, err := s.policy.SymEncrypt(s.outbound.EncryptingKey, s.outbound.IV, payload)
			if err != nil {
				return nil, err
			}
			payload = enc
		}

		chunks = append(chunks, concat(hdrBytes, sshBytes, payload))

		offset = end
		if final {
			break
		}
	}
	return chunks, nil
}

// readLoop owns the receive side: it reads raw frames off the conn,
// verifies/decrypts MSG chunks, reassembles multi-chunk messages and
// either routes the decoded service to the caller awaiting that request id
// or, if none is waiting, to Unsolicited (spec.md §4.3 decode path).
func (s *SecureChannel) readLoop(ctx context.Context) {
	defer close(s.readDone)
	for {
		reqID, svc, err := s.readMessage()
		if err != nil {
			if err == io.EOF {
				s.mu.Lock()
				s.lastErr = io.EOF
				s.mu.Unlock()
				s.notifyAll(Response{Err: io.EOF})
				return
			}
			if _, ok := err.(*uacp.Error); ok {
				s.mu.Lock()
				s.lastErr = err
				s.mu.Unlock()
				s.notifyAll(Response{Err: err})
				return
			}
			if s.hasState(scClosed) {
				s.mu.Lock()
				s.lastErr = err
				s.mu.Unlock()
				s.notifyAll(Response{Err: err})
				return
			}
			debug.Printf("uasc %d: read error: %s", s.c.ID(), err)
			continue
		}

		resp := Response{ReqID: reqID, V: svc, Err: err}
		if r, ok := svc.(ua.Response); ok && r.Header().ServiceResult != ua.StatusOK {
			resp.Err = r.Header().ServiceResult
		}

		s.mu.Lock()
		ch, ok := s.handler[reqID]
		delete(s.handler, reqID)
		s.mu.Unlock()

		if ok {
			select {
			case ch <- resp:
			case <-ctx.Done():
			}
			continue
		}
		select {
		case s.Unsolicited <- resp:
		case <-ctx.Done():
			return
		default:
			debug.Printf("uasc %d/%d: unsolicited %T dropped, channel full", s.c.ID(), reqID, svc)
		}
	}
}

func (s *SecureChannel) notifyAll(r Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.handler {
		select {
		case ch <- r:
		default:
		}
		delete(s.handler, id)
	}
}

// readMessage reads and reassembles one complete logical message, which
// may span several chunks, and decodes its body.
func (s *SecureChannel) readMessage() (uint32, interface{}, error) {
	for {
		raw, err := s.c.Receive()
		if err != nil {
			return 0, nil, err
		}

		chunk := new(MessageChunk)
		if _, err := chunk.Decode(raw); err != nil {
			return 0, nil, err
		}

		if chunk.Header.MessageType == "CLO" {
			s.setState(scClosed)
			return 0, nil, io.EOF
		}

		plain, err := s.unwrapChunk(chunk)
		if err != nil {
			return 0, nil, err
		}
		chunk.Data = plain

		seq := new(SequenceHeader)
		n, err := seq.Decode(chunk.Data)
		if err != nil {
			return 0, nil, errors.Wrap(err, "uasc: decode sequence header failed")
		}
		chunk.SequenceHeader = seq
		chunk.Data = chunk.Data[n:]

		reqID := seq.RequestID

		switch chunk.Header.ChunkType {
		case 'A':
			s.mu.Lock()
			delete(s.chunks, reqID)
			s.mu.Unlock()
			abort := new(MessageAbort)
			if _, err := abort.Decode(chunk.Data); err == nil {
				return reqID, nil, ua.StatusCode(abort.ErrorCode)
			}
			return reqID, nil, ua.StatusBadRequestInterrupted

		case 'C':
			s.mu.Lock()
			s.chunks[reqID] = append(s.chunks[reqID], chunk)
			n := len(s.chunks[reqID])
			s.mu.Unlock()
			if s.c.MaxChunkCount != 0 && n > s.c.MaxChunkCount {
				s.mu.Lock()
				delete(s.chunks, reqID)
				s.mu.Unlock()
				return reqID, nil, errors.Errorf("uasc: too many chunks for request %d", reqID)
			}
			continue

		default: // 'F'
			s.mu.Lock()
			all := append(s.chunks[reqID], chunk)
			delete(s.chunks, reqID)
			s.mu.Unlock()

			body := mergeChunks(all)
			_, svc, err := ua.DecodeService(body)
			if err != nil {
				return reqID, nil, err
			}
			return reqID, svc, nil
		}
	}
}

// unwrapChunk verifies the signature (if any) and decrypts (if
// SignAndEncrypt) a received chunk's Data, accepting either the current or
// the previous token during a renewal's grace window.
func (s *SecureChannel) unwrapChunk(chunk *MessageChunk) ([]byte, error) {
	if chunk.Header.MessageType == "OPN" {
		// OPN responses arrive asymmetrically encrypted with our own
		// public key; this client never receives unsolicited OPN
		// requests, so only the response path is implemented.
		return s.unwrapAsymmetric(chunk)
	}
	return s.unwrapSymmetric(chunk)
}

func (s *SecureChannel) unwrapAsymmetric(chunk *MessageChunk) ([]byte, error) {
	signed := s.cfg.SecurityMode != ua.MessageSecurityModeNone
	encrypted := s.cfg.SecurityMode == ua.MessageSecurityModeSignAndEncrypt

	data := chunk.Data
	if encrypted && s.cfg.LocalKey != nil {
		blockSize := s.policy.AsymCipherTextBlockSize(&s.cfg.LocalKey.PublicKey)
		var out []byte
		for len(data) > 0 {
			if len(data) < blockSize {
				return nil, errors.New("uasc: truncated asymmetric ciphertext")
			}
			dec, err := s.policy.AsymDecrypt(s.cfg.LocalKey, data[:blockSize])
			if err != nil {
				return nil, errors.Wrap(err, "uasc: asymmetric decrypt failed")
			}
			out = append(out, dec...)
			data = data[blockSize:]
		}
		data = out
	}
	if signed {
		cert, err := x509.ParseCertificate(s.cfg.RemoteCertificate)
		if err != nil {
			return nil, errors.Wrap(err, "uasc: parse remote certificate failed")
		}
		remoteKey, err := uapolicy.RSAPublicKey(cert)
		if err != nil {
			return nil, err
		}
		sigSize := remoteKey.Size()
		if len(data) < sigSize {
			return nil, errors.New("uasc: truncated asymmetric signature")
		}
		body, sig := data[:len(data)-sigSize], data[len(data)-sigSize:]

		if err := s.policy.AsymVerify(remoteKey, body, sig); err != nil {
			return nil, errors.Wrap(err, "uasc: asymmetric signature verification failed")
		}
		data = body
	}
	return data, nil
}

func (s *SecureChannel) unwrapSymmetric(chunk *MessageChunk) ([]byte, error) {
	signed := s.cfg.SecurityMode != ua.MessageSecurityModeNone
	encrypted := s.cfg.SecurityMode == ua.MessageSecurityModeSignAndEncrypt

	keys := s.inbound
	if chunk.SymmetricSecurityHeader != nil && chunk.SymmetricSecurityHeader.TokenID == s.oldTokenID && s.oldInbound != nil {
		keys = s.oldInbound
	}
	if (signed || encrypted) && keys == nil {
		return nil, errors.New("uasc: no symmetric keys derived yet")
	}

	data := chunk.Data
	if encrypted {
		dec, err := s.policy.SymDecrypt(keys.EncryptingKey, keys.IV, data)
		if err != nil {
			return nil, errors.Wrap(err, "uasc: symmetric decrypt failed")
		}
		data = dec
	}
	if signed {
		sigSize := s.policy.SymSignatureSize
		if len(data) < sigSize {
			return nil, errors.New("uasc: truncated symmetric signature")
		}
		sig := data[len(data)-sigSize:]
		data = data[:len(data)-sigSize]
		signedBytes := data
		if chunk.Header != nil && chunk.SymmetricSecurityHeader != nil {
			hdrBytes, _ := chunk.Header.Encode()
			sshBytes, _ := chunk.SymmetricSecurityHeader.Encode()
			signedBytes = concat(hdrBytes, sshBytes, data)
		}
		if err := s.policy.SymVerify(keys.SigningKey, signedBytes, sig); err != nil {
			return nil, err
		}
	}
	if encrypted {
		unpadded, err := s.policy.StripPadding(data)
		if err != nil {
			return nil, errors.Wrap(err, "uasc: strip padding failed")
		}
		data = unpadded
	}
	return data, nil
}

// mergeChunks concatenates a completed chunk run's payloads in arrival
// order, skipping any chunk whose sequence number duplicates the previous
// one (a retransmit).
func mergeChunks(chunks []*MessageChunk) []byte {
	var b []byte
	var seqnr uint32
	for _, c := range chunks {
		if c.SequenceHeader != nil && c.SequenceHeader.SequenceNumber == seqnr {
			continue
		}
		if c.SequenceHeader != nil {
			seqnr = c.SequenceHeader.SequenceNumber
		}
		b = append(b, c.Data...)
	}
	return b
}
