package service

import (
	"context"
	"log"

	"campus_parking/internal/domain"
	"campus_parking/internal/mailer"
	"campus_parking/internal/monitoring"
	"campus_parking/internal/repository"
)

// SupportService là hộp thư hỗ trợ: ai cũng gửi được tin nhắn cho admin,
// admin đọc và trả lời qua email.
type SupportService struct {
	msgRepo repository.SupportMessageRepository
	mail    mailer.Sender
}

func NewSupportService(msgRepo repository.SupportMessageRepository, mail mailer.Sender) *SupportService {
	return &SupportService{msgRepo: msgRepo, mail: mail}
}

func (s *SupportService) Contact(ctx context.Context, dto domain.ContactAdminDTO) (*domain.SupportMessage, error) {
	return s.msgRepo.Create(ctx, &domain.SupportMessage{
		SenderEmail: dto.Email,
		Message:     dto.Message,
		Status:      domain.MessageUnread,
	})
}

func (s *SupportService) ListMessages(ctx context.Context) ([]domain.SupportMessage, error) {
	return s.msgRepo.FindAll(ctx)
}

func (s *SupportService) MarkRead(ctx context.Context, id int) error {
	if _, err := s.msgRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.msgRepo.UpdateStatus(ctx, id, domain.MessageRead)
}

// Reply gửi email trả lời rồi đánh dấu tin nhắn là đã trả lời. Khác luồng
// cổng, ở đây lỗi gửi mail CHẶN thao tác — admin cần biết reply chưa đến.
func (s *SupportService) Reply(ctx context.Context, id int, replyText string) error {
	msg, err := s.msgRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.mail.SendSupportReply(msg.SenderEmail, msg.ID, msg.Message, replyText); err != nil {
		monitoring.EmailsSent.WithLabelValues("support_reply", "error").Inc()
		return err
	}
	monitoring.EmailsSent.WithLabelValues("support_reply", "ok").Inc()
	if err := s.msgRepo.UpdateStatus(ctx, id, domain.MessageReplied); err != nil {
		log.Printf("Reply đã gửi nhưng lỗi cập nhật trạng thái tin nhắn %d: %v", id, err)
		return err
	}
	return nil
}
