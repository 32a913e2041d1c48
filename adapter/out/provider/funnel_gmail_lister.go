package provider

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"funnel_server/core/domain"
	"funnel_server/core/port/out"
	"funnel_server/pkg/logger"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

var gmailMetadataHeaders = []string{"From", "Subject", "Date"}

// GmailConfig holds Gmail settings. Options override the OAuth client and
// are used to point the service at a test server.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Options      []option.ClientOption
}

// GmailLister reads message metadata through the Gmail API.
type GmailLister struct {
	opts []option.ClientOption
	cb   *gobreaker.CircuitBreaker
}

var _ out.MessageLister = (*GmailLister)(nil)

func NewGmailLister(cfg GmailConfig) *GmailLister {
	opts := cfg.Options
	if len(opts) == 0 {
		oc := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{gmail.GmailReadonlyScope},
			Endpoint:     google.Endpoint,
		}
		ts := oc.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
		opts = []option.ClientOption{option.WithTokenSource(oauth2.ReuseTokenSource(nil, ts))}
	}
	return &GmailLister{opts: opts, cb: newBreaker("gmail-api")}
}

func (l *GmailLister) Provider() string {
	return ProviderGmail
}

// ListMessages returns the newest limit messages carrying the folder label.
func (l *GmailLister) ListMessages(ctx context.Context, folder string, limit int) ([]domain.Message, error) {
	return execute(l.cb, func() ([]domain.Message, error) {
		return l.list(ctx, folder, limit)
	})
}

func (l *GmailLister) list(ctx context.Context, folder string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return []domain.Message{}, nil
	}

	svc, err := gmail.NewService(ctx, l.opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}

	resp, err := svc.Users.Messages.List("me").
		LabelIds(gmailLabel(folder)).
		MaxResults(int64(limit)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list: %w", err)
	}

	results := make([]*domain.Message, len(resp.Messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(10)
	for i, ref := range resp.Messages {
		i, id := i, ref.Id
		g.Go(func() error {
			msg, err := svc.Users.Messages.Get("me", id).
				Format("metadata").
				MetadataHeaders(gmailMetadataHeaders...).
				Context(gctx).Do()
			if err != nil {
				logger.WithField("message_id", id).WithError(err).Warn("gmail get failed")
				return nil
			}
			m := metadataMessage(msg)
			results[i] = &m
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(results))
	for _, m := range results {
		if m != nil {
			messages = append(messages, *m)
		}
	}
	return messages, nil
}

// gmailLabel maps folder names to Gmail system label ids.
func gmailLabel(folder string) string {
	switch strings.ToUpper(strings.TrimSpace(folder)) {
	case "", "INBOX":
		return "INBOX"
	case "SENT":
		return "SENT"
	case "SPAM":
		return "SPAM"
	}
	return folder
}

func metadataMessage(msg *gmail.Message) domain.Message {
	m := domain.Message{ID: msg.Id, Snippet: msg.Snippet}
	if msg.InternalDate > 0 {
		m.Date = time.UnixMilli(msg.InternalDate).UTC()
	}
	if msg.Payload == nil {
		return m
	}
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			m.Subject = h.Value
		case "from":
			if addr, err := mail.ParseAddress(h.Value); err == nil {
				m.SenderAddress = addr.Address
				m.SenderName = addr.Name
			} else {
				m.SenderAddress = strings.Trim(strings.TrimSpace(h.Value), "<>")
			}
		case "date":
			if t, err := mail.ParseDate(h.Value); err == nil {
				m.Date = t.UTC()
			}
		}
	}
	return m
}
