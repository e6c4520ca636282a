package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credvault/internal/logging"
	"github.com/nats-io/nats.go"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// OTPEvent is published for an external mailer to deliver.
type OTPEvent struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NATSSender hands codes to a mail worker over a NATS subject.
type NATSSender struct {
	pub      Publisher
	subject  string
	validity time.Duration
	now      func() time.Time
}

func NewNATSSender(pub Publisher, subject string, validity time.Duration) *NATSSender {
	return &NATSSender{pub: pub, subject: subject, validity: validity, now: time.Now}
}

func (s *NATSSender) SendOTP(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(OTPEvent{Email: email, Code: code, ExpiresAt: s.now().Add(s.validity).UTC()})
	if err != nil {
		return fmt.Errorf("encode otp event: %w", err)
	}
	if err := s.pub.Publish(s.subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", s.subject, err)
	}
	return nil
}

// ConnectNATS dials url with reconnects and logs connection state changes.
func ConnectNATS(url string, l logging.Logger) (*nats.Conn, error) {
	ctx := context.Background()
	conn, err := nats.Connect(url,
		nats.Name("credvault-server"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			l.Warn(ctx, "nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			l.Info(ctx, "nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
