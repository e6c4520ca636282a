// Package notify delivers recovery codes to vault owners.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credvault/internal/logging"
)

// Sender delivers an OTP code to an email address.
type Sender interface {
	SendOTP(ctx context.Context, email, code string) error
}

// Supported delivery backends.
const (
	BackendLog  = "log"
	BackendSMTP = "smtp"
	BackendNATS = "nats"
)

func otpText(code string, validity time.Duration) string {
	return fmt.Sprintf("Your credvault recovery code is %s.\r\nIt expires in %s and can be used once.\r\n", code, validity)
}

// LogSender writes codes to the log instead of delivering them. It is meant
// for local runs only.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{logger: l.With("module", "notify")}
}

func (s *LogSender) SendOTP(ctx context.Context, email, code string) error {
	s.logger.Warn(ctx, "recovery code not delivered, log backend in use", "email", email, "code", code)
	return nil
}
