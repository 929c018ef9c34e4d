package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// EmailService sends member notifications over SMTP. A nil receiver is a
// valid no-op sender, so environments without SMTP configured (and the test
// suite) skip delivery without special-casing the callers.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
	log    *logrus.Logger
}

// NewEmailService creates a mail sender. Returns nil when no SMTP host is
// configured, which disables notifications.
func NewEmailService(host string, port int, username, password, from string, log *logrus.Logger) *EmailService {
	if host == "" {
		return nil
	}
	return &EmailService{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		log:    log,
	}
}

func (s *EmailService) send(to, subject, body string) error {
	if s == nil {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	s.log.Debugf("mail sent to %s: %s", to, subject)
	return nil
}

// SendLoanPaidNotification congratulates a member on settling a loan
func (s *EmailService) SendLoanPaidNotification(to string, loanID uint) error {
	return s.send(to,
		"Loan fully paid",
		fmt.Sprintf("Congratulations! Your loan #%d has been fully paid. Thank you for your punctuality.", loanID))
}

// SendLoanRequestDecision informs a member about the review outcome
func (s *EmailService) SendLoanRequestDecision(to string, requestID uint, approved bool) error {
	if approved {
		return s.send(to,
			"Loan request approved",
			fmt.Sprintf("Your loan request #%d has been approved. The loan has been disbursed and the weekly schedule is available in your account.", requestID))
	}
	return s.send(to,
		"Loan request rejected",
		fmt.Sprintf("Your loan request #%d has been rejected. Please contact the cooperative for details.", requestID))
}

// SendSavingMaturedNotification informs a member that a deposit matured
func (s *EmailService) SendSavingMaturedNotification(to string, savingID uint, payout decimal.Decimal) error {
	return s.send(to,
		"Fixed-term saving matured",
		fmt.Sprintf("Your fixed-term saving #%d has matured. The payout of %s is available for withdrawal.", savingID, payout.StringFixed(2)))
}
