package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"storefront-service/config"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// SMTPMailer sends transactional email over an SMTP relay. With no host
// configured it skips sends silently so checkout never depends on mail.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	logger   *zap.Logger
}

// NewSMTPMailer creates a mailer from config
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		logger:   util.GetLogger(),
	}
}

// SendOrderConfirmation emails an order summary to the customer.
func (m *SMTPMailer) SendOrderConfirmation(ctx context.Context, to string, order *models.Order, items []models.OrderItem) error {
	if m.host == "" {
		m.logger.Debug("SMTP not configured, skipping confirmation email",
			zap.String("order_id", order.ID))
		return nil
	}

	subject := fmt.Sprintf("Order confirmation %s", order.ID)
	body := buildOrderBody(order, items)

	if err := m.send(to, subject, body); err != nil {
		util.EmailsFailedTotal.Inc()
		return fmt.Errorf("smtp send failed: %w", err)
	}

	util.EmailsSentTotal.Inc()
	m.logger.Info("Confirmation email sent",
		zap.String("order_id", order.ID),
		zap.String("to", to))
	return nil
}

func (m *SMTPMailer) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	msg := []byte(
		"From: " + m.from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			body,
	)

	return smtp.SendMail(addr, auth, m.from, []string{to}, msg)
}

func buildOrderBody(order *models.Order, items []models.OrderItem) string {
	var b strings.Builder
	b.WriteString("<h2>Thanks for your order!</h2>")
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong> has been placed.</p><ul>", order.ID)
	for _, item := range items {
		fmt.Fprintf(&b, "<li>%d &times; %s</li>", item.Quantity, item.Name)
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Total: %d.%02d</p>", order.TotalAmount/100, order.TotalAmount%100)
	if order.ShippingAddress != "" {
		fmt.Fprintf(&b, "<p>Shipping to: %s</p>", order.ShippingAddress)
	}
	return b.String()
}
