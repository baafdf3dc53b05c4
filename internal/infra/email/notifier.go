package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// SMTPNotifier mails operators when a consumer drops a message to a DLQ.
type SMTPNotifier struct {
	host   string
	port   int
	from   string
	to     string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from, to string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, to: to, logger: logger}
}

func (n *SMTPNotifier) NotifyDeadLetter(_ context.Context, queue, reason string, body []byte) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	subject := fmt.Sprintf("Pipeline message dropped to DLQ [%s]", queue)
	text := fmt.Sprintf(
		"A message on queue %q could not be processed and was moved to its dead-letter queue.\r\n\r\n"+
			"Reason: %s\r\n"+
			"Body: %s\r\n",
		queue, reason, string(body),
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, n.to, subject, text,
	)

	if err := smtp.SendMail(addr, nil, n.from, []string{n.to}, []byte(msg)); err != nil {
		n.logger.Error("failed to send dead letter notification",
			zap.String("queue", queue),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("dead letter notification sent", zap.String("queue", queue))
	return nil
}
