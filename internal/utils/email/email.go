package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/ArchanSureja/QuickCredit/internal/config"
	"github.com/ArchanSureja/QuickCredit/internal/models"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendApplicationReceived notifies the lender admin about a new loan
// application.
func (s *Sender) SendApplicationReceived(applicantName, productName string, amount decimal.Decimal, tenureMonths int) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.AdminEmail}
	e.Subject = fmt.Sprintf("New Loan Application Received - %s", productName)

	body := fmt.Sprintf(
		"Dear Admin,\n\n"+
			"A new loan application has been submitted:\n\n"+
			"Applicant: %s\n"+
			"Loan Product: %s\n"+
			"Amount: %s\n"+
			"Tenure: %d months\n"+
			"Applied At: %s\n\n"+
			"Please review the application at your earliest convenience.\n",
		applicantName, productName, amount.String(), tenureMonths,
		time.Now().UTC().Format("2006-01-02 15:04:05"),
	)
	body += "\nBest regards,\nQuickCredit"
	e.Text = []byte(body)

	return s.send(e)
}

// SendApplicationStatus notifies the applicant that their application was
// processed.
func (s *Sender) SendApplicationStatus(to, applicantName, productName string, status models.ApplicationStatus, reason string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Loan Application %s - %s", status, productName)

	body := fmt.Sprintf("Dear %s,\n\n", applicantName)
	switch status {
	case models.ApplicationApproved:
		body += fmt.Sprintf(
			"Your application for %s has been approved.\n"+
				"Our team will contact you with the disbursement details shortly.\n",
			productName,
		)
	case models.ApplicationRejected:
		body += fmt.Sprintf(
			"Your application for %s has been rejected.\n", productName,
		)
		if reason != "" {
			body += fmt.Sprintf("Reason: %s\n", reason)
		}
	default:
		body += fmt.Sprintf(
			"Your application for %s is now %s.\n", productName, status,
		)
	}
	body += "\nBest regards,\nQuickCredit"
	e.Text = []byte(body)

	return s.send(e)
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %v: %v", e.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
	return nil
}
