// Package services содержит доставку еженедельных отчётов по почте.
// Сервис потребляет сообщения очереди отчётов и отправляет их через SMTP.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
	"github.com/mindwellhq/mindwell-backend/internal/lib/smtp"
	"github.com/mindwellhq/mindwell-backend/internal/models"
)

// SenderService отправляет письма с отчётами через SMTP транспорт.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendWeeklyReport разбирает сообщение очереди отчётов и отправляет письмо.
// Ошибка разбора или доставки возвращается потребителю: он перепоставит
// сообщение в очередь.
func (s *SenderService) SendWeeklyReport(body []byte) error {
	var message models.ReportMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal report message", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	return s.sendEmail([]string{message.Email}, message.Subject, message.Body)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("report email sent", slog.String("to", strings.Join(to, ";")))
	return nil
}
