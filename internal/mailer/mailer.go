// Package mailer gửi email thông báo cho người dùng: xe được cấp chỗ khi
// vào cổng, biên nhận khi ra, phản hồi hỗ trợ. Gửi mail luôn là
// best-effort — lỗi SMTP không được chặn luồng tại cổng.
package mailer

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/domodwyer/mailyak/v3"

	"campus_parking/internal/config"
)

type Sender interface {
	SendEntryApproved(toEmail, toName, lot string, spot int) error
	SendExitReceipt(toEmail, toName, plate, lot string, entry, exit time.Time) error
	SendSupportReply(toEmail string, ticketID int, originalMessage, reply string) error
}

type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth: smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost),
		from: cfg.MailFrom,
	}
}

func (s *SMTPSender) newMail(toEmail, subject string) *mailyak.MailYak {
	mail := mailyak.New(s.addr, s.auth)
	mail.From(s.from)
	mail.FromName("RVCE Campus Parking")
	mail.To(toEmail)
	mail.Subject(subject)
	return mail
}

func (s *SMTPSender) SendEntryApproved(toEmail, toName, lot string, spot int) error {
	mail := s.newMail(toEmail, "Entry Approved: "+lot)
	mail.Plain().Set(fmt.Sprintf(
		"Hello %s,\n\nEntry Approved.\nLOT: %s\nSPOT: #%d\n\nDrive carefully!",
		toName, lot, spot))
	return mail.Send()
}

// SendExitReceipt gửi biên nhận khi xe ra cổng, thời gian đỗ định dạng
// "Xh Ym" (giờ nguyên + phút còn lại).
func (s *SMTPSender) SendExitReceipt(toEmail, toName, plate, lot string, entry, exit time.Time) error {
	mail := s.newMail(toEmail, "Exit Summary: "+plate)
	mail.Plain().Set(fmt.Sprintf(
		"Hello %s,\n\nYour parking session has ended.\n\nVEHICLE:   %s\nLOCATION:  %s\n\nSTART TIME: %s\nEND TIME:   %s\nDURATION:   %s\n\nThank you for using Campus Parking!",
		toName, plate, lot,
		entry.Format("03:04 PM"),
		exit.Format("03:04 PM"),
		FormatDuration(exit.Sub(entry))))
	return mail.Send()
}

func (s *SMTPSender) SendSupportReply(toEmail string, ticketID int, originalMessage, reply string) error {
	mail := s.newMail(toEmail, fmt.Sprintf("Re: Support Request (Ticket #%d)", ticketID))
	mail.Plain().Set(fmt.Sprintf(
		"Hello,\n\nRegarding your issue:\n> %s\n\n%s\n\nBest Regards,\nRVCE Parking Admin Team",
		originalMessage, reply))
	return mail.Send()
}

// FormatDuration: "2h 35m". Âm coi như 0.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
