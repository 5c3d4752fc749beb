package domain

import "time"

type SupportMessageStatus string

const (
	MessageUnread  SupportMessageStatus = "unread"
	MessageRead    SupportMessageStatus = "read"
	MessageReplied SupportMessageStatus = "replied"
)

type SupportMessage struct {
	ID          int                  `json:"id"`
	SenderEmail string               `json:"sender_email"`
	Message     string               `json:"message"`
	Status      SupportMessageStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
}

type ContactAdminDTO struct {
	Email   string `json:"email" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type ReplyMessageDTO struct {
	ReplyText string `json:"reply_text" binding:"required"`
}
