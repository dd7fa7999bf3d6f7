package services

import (
	"crypto/tls"
	"fmt"

	"github.com/tradeyard/marketplace-backend/internal/config"
	"gopkg.in/gomail.v2"
)

type EmailService struct {
	config *config.Config
}

func NewEmailService(config *config.Config) *EmailService {
	return &EmailService{config: config}
}

func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	d.TLSConfig = &tls.Config{InsecureSkipVerify: true}

	return d.DialAndSend(m)
}

func (s *EmailService) SendReservationNotification(sellerEmail, listingTitle, buyerName string) error {
	subject := "Your listing has been reserved"
	body := fmt.Sprintf(`
		<h2>Listing Reserved</h2>
		<p><strong>%s</strong> has reserved your listing <strong>%s</strong>.</p>
		<p>Open your conversations to arrange the handover, or cancel the
		reservation from the listing page if the sale falls through.</p>
	`, buyerName, listingTitle)

	return s.SendEmail(sellerEmail, subject, body)
}

func (s *EmailService) SendSoldNotification(buyerEmail, listingTitle, sellerName string) error {
	subject := "Purchase confirmed"
	body := fmt.Sprintf(`
		<h2>Purchase Confirmed</h2>
		<p><strong>%s</strong> has marked <strong>%s</strong> as sold to you.</p>
		<p>You can now leave a review for the seller from the listing page.</p>
	`, sellerName, listingTitle)

	return s.SendEmail(buyerEmail, subject, body)
}
