package email

import (
	"fmt"
	"net/smtp"

	"github.com/example/storefront/internal/domain/order"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendOrderConfirmation sends an order confirmation email to the buyer
func (s *Service) SendOrderConfirmation(to, name string, o *order.Order) error {
	subject := fmt.Sprintf("Order confirmed - %s", o.Code)
	body := BuildOrderConfirmationBody(name, o)
	return s.send(to, subject, body)
}

// SendNewOrderAlert notifies the store that a new order arrived
func (s *Service) SendNewOrderAlert(to string, o *order.Order) error {
	subject := fmt.Sprintf("New order %s", o.Code)
	body := BuildNewOrderAlertBody(o)
	return s.send(to, subject, body)
}

// SendOrderStatusUpdate tells the buyer their order moved to a new status
func (s *Service) SendOrderStatusUpdate(to, name string, o *order.Order) error {
	subject := fmt.Sprintf("Order %s is now %s", o.Code, o.Status)
	body := BuildOrderStatusUpdateBody(name, o)
	return s.send(to, subject, body)
}

// SendPaymentConfirmation tells the buyer their payment went through
func (s *Service) SendPaymentConfirmation(to, name string, o *order.Order) error {
	subject := fmt.Sprintf("Payment received - %s", o.Code)
	body := BuildPaymentConfirmationBody(name, o)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
