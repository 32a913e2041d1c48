package provider

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"funnel_server/core/domain"
	"funnel_server/core/port/out"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sony/gobreaker"
)

// IMAPConfig holds IMAP settings. Addr is host:port of a TLS endpoint.
type IMAPConfig struct {
	Addr     string
	Username string
	Password string
	Timeout  time.Duration
	// TLS overrides the default client config (server name from Addr).
	TLS *tls.Config
}

// IMAPLister reads envelopes from an IMAP mailbox. Each call opens its own
// connection.
type IMAPLister struct {
	cfg IMAPConfig
	cb  *gobreaker.CircuitBreaker
}

var _ out.MessageLister = (*IMAPLister)(nil)

func NewIMAPLister(cfg IMAPConfig) *IMAPLister {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &IMAPLister{cfg: cfg, cb: newBreaker("imap")}
}

func (l *IMAPLister) Provider() string {
	return ProviderIMAP
}

// ListMessages returns the newest limit messages of folder, newest first.
func (l *IMAPLister) ListMessages(ctx context.Context, folder string, limit int) ([]domain.Message, error) {
	return execute(l.cb, func() ([]domain.Message, error) {
		return l.list(ctx, folder, limit)
	})
}

func (l *IMAPLister) list(ctx context.Context, folder string, limit int) ([]domain.Message, error) {
	conn, err := l.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", l.cfg.Addr, err)
	}
	// Closing the socket unblocks the handshake and every command.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := client.New(tls.Client(conn, l.tlsConfig()))
	if err != nil {
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("imap greeting %s: %w", l.cfg.Addr, err)
	}
	c.Timeout = l.cfg.Timeout
	defer c.Logout()

	if err := c.Login(l.cfg.Username, l.cfg.Password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}

	mbox, err := c.Select(folder, true)
	if err != nil {
		return nil, fmt.Errorf("imap select %s: %w", folder, err)
	}

	seqSet, ok := newestRange(mbox.Messages, limit)
	if !ok {
		return []domain.Message{}, nil
	}

	ch := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid}, ch)
	}()

	var fetched []*imap.Message
	for msg := range ch {
		fetched = append(fetched, msg)
	}
	if err := <-done; err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("imap fetch: %w", err)
	}

	messages := make([]domain.Message, 0, len(fetched))
	for i := len(fetched) - 1; i >= 0; i-- {
		if m, ok := envelopeMessage(fetched[i]); ok {
			messages = append(messages, m)
		}
	}
	return messages, nil
}

// dial opens the TCP connection. The whole session shares one deadline: the
// earlier of the context deadline and the configured timeout.
func (l *IMAPLister) dial(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: l.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", l.cfg.Addr)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(l.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (l *IMAPLister) tlsConfig() *tls.Config {
	if l.cfg.TLS != nil {
		return l.cfg.TLS.Clone()
	}
	host, _, err := net.SplitHostPort(l.cfg.Addr)
	if err != nil {
		host = l.cfg.Addr
	}
	return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
}

// newestRange covers the last limit sequence numbers of a mailbox holding
// total messages.
func newestRange(total uint32, limit int) (*imap.SeqSet, bool) {
	if total == 0 || limit <= 0 {
		return nil, false
	}
	from := uint32(1)
	if uint32(limit) < total {
		from = total - uint32(limit) + 1
	}
	set := new(imap.SeqSet)
	set.AddRange(from, total)
	return set, true
}

func envelopeMessage(msg *imap.Message) (domain.Message, bool) {
	if msg == nil || msg.Envelope == nil {
		return domain.Message{}, false
	}
	env := msg.Envelope
	m := domain.Message{
		ID:      strconv.FormatUint(uint64(msg.Uid), 10),
		Subject: env.Subject,
		Date:    env.Date,
	}
	if msg.Uid == 0 {
		m.ID = strconv.FormatUint(uint64(msg.SeqNum), 10)
	}
	if len(env.From) > 0 && env.From[0] != nil {
		from := env.From[0]
		if from.MailboxName != "" && from.HostName != "" {
			m.SenderAddress = from.Address()
		}
		m.SenderName = from.PersonalName
	}
	return m, true
}
