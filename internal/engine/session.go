package engine

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/nextlevelbuilder/factrelay/internal/bus"
	"github.com/nextlevelbuilder/factrelay/internal/settings"
)

// State is the engine session connection state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Authenticating
	Ready
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Authenticating:
		return "authenticating"
	case Ready:
		return "ready"
	default:
		return "disconnected"
	}
}

const (
	initialBackoff = 2 * time.Second
	maxBackoff     = 30 * time.Second
)

// Config holds the engine endpoint and credentials.
type Config struct {
	Addr     string
	Username string
	Password string
}

// PersonaPool supplies candidate persona names for a guild. Random returns
// "" when no names are known.
type PersonaPool interface {
	Random(guildID string) string
}

// SettingsReader is the send-time gate lookup. The gate is re-checked here
// with a fresh lookup rather than trusting the gate applied at ingest time,
// so a configuration change between enqueue and send takes effect.
type SettingsReader interface {
	Get(ctx context.Context, channelID, guildID string) (settings.Document, error)
}

// Session owns the single persistent socket to the fact engine. It lives for
// the process lifetime; the connection is recreated on every failure.
type Session struct {
	cfg      Config
	ingress  *bus.Queue[bus.RelayRequest]
	egress   *bus.Queue[bus.RelayResponse]
	personas PersonaPool
	gate     SettingsReader

	// dial is swappable so tests can supply an in-memory transport.
	dial func(ctx context.Context, addr string) (net.Conn, error)

	state   atomic.Int32
	persona string // engine's current default persona, updated per exchange
}

func NewSession(cfg Config, ingress *bus.Queue[bus.RelayRequest], egress *bus.Queue[bus.RelayResponse], personas PersonaPool, gate SettingsReader) *Session {
	return &Session{
		cfg:      cfg,
		ingress:  ingress,
		egress:   egress,
		personas: personas,
		gate:     gate,
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		},
	}
}

// State returns the current connection state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Run drives the connect/authenticate/relay loop until ctx is done. Any I/O
// failure tears the connection down and retries after a backoff delay; the
// loop never terminates on its own.
func (s *Session) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		authed, err := s.connectAndServe(ctx)
		s.setState(Disconnected)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if authed {
			backoff = initialBackoff
		}
		slog.Warn("engine session lost", "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// connectAndServe runs one connection lifetime: dial, authenticate, then
// relay queue items until an error. Reports whether authentication
// succeeded so the caller can reset its backoff.
func (s *Session) connectAndServe(ctx context.Context) (bool, error) {
	s.setState(Connecting)
	slog.Info("connecting to engine", "addr", s.cfg.Addr)

	conn, err := s.dial(ctx, s.cfg.Addr)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	// Unblock pending socket reads when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	s.setState(Authenticating)
	codec := NewCodec(conn)
	if err := codec.Login(s.cfg.Username, s.cfg.Password); err != nil {
		return false, err
	}
	persona, err := codec.Identify()
	if err != nil {
		return false, err
	}
	s.persona = persona
	s.setState(Ready)
	slog.Info("engine session ready", "persona", persona)

	for {
		// The item leaves the queue before the exchange is attempted; a
		// mid-exchange failure loses it rather than requeuing.
		req, ok := s.ingress.Receive(ctx)
		if !ok {
			return true, ctx.Err()
		}
		if err := s.exchange(ctx, codec, req); err != nil {
			return true, err
		}
	}
}

// exchange relays one queue item through the engine: persona switch, query,
// persona re-capture. The session processes one item at a time, so engine
// throughput bounds relay throughput.
func (s *Session) exchange(ctx context.Context, codec *Codec, req bus.RelayRequest) error {
	doc, err := s.gate.Get(ctx, req.ChannelID, req.GuildID)
	if err != nil {
		return err
	}
	if !req.Mentioned && !doc.LearningEnabled() {
		slog.Debug("engine exchange skipped, learning disabled",
			"trace_id", req.TraceID, "channel_id", req.ChannelID)
		return nil
	}

	persona := s.personas.Random(req.GuildID)
	if persona == "" {
		persona = s.persona
	}
	if err := codec.SwitchPersona(persona); err != nil {
		return err
	}

	reply, err := codec.Query(req.Username, s.persona, req.Text)
	if err != nil {
		return err
	}
	if reply.Persona != "" {
		s.persona = reply.Persona
	}

	if !reply.Found || reply.Text == NoAnswer {
		return nil
	}

	resp := bus.RelayResponse{
		TraceID:   req.TraceID,
		ChannelID: req.ChannelID,
		GuildID:   req.GuildID,
		Username:  req.Username,
		Text:      reply.Text,
		Mentioned: req.Mentioned,
	}
	if !s.egress.TryPush(resp) {
		slog.Warn("egress queue full, engine reply dropped",
			"trace_id", req.TraceID, "channel_id", req.ChannelID)
	}
	return nil
}
