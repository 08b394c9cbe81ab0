package app

import (
	"context"
	"strings"
	"time"

	"mindwell/internal/model"
)

type DirectMessageStore interface {
	Create(ctx context.Context, msg *model.DirectMessage) error
	ListConversation(ctx context.Context, a, b uint) ([]model.DirectMessage, error)
	ListInvolving(ctx context.Context, userID uint) ([]model.DirectMessage, error)
	MarkRead(ctx context.Context, recipientID uint, ids []uint) (int64, error)
}

// Conversation summarises the thread between the caller and one partner.
type Conversation struct {
	PartnerID     uint      `json:"partner_id"`
	PartnerName   string    `json:"partner_name"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
}

// MessagingService carries private messages between patients and therapists.
type MessagingService struct {
	messages DirectMessageStore
	users    UserLookup
}

func NewMessagingService(messages DirectMessageStore, users UserLookup) *MessagingService {
	return &MessagingService{messages: messages, users: users}
}

func (s *MessagingService) Send(ctx context.Context, senderID, recipientID uint, content string) (*model.DirectMessage, error) {
	content = strings.TrimSpace(content)
	if senderID == 0 || recipientID == 0 || senderID == recipientID {
		return nil, ErrInvalidInput
	}
	if content == "" {
		return nil, ErrMessageEmpty
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrRecipientNotFound
	}

	msg := &model.DirectMessage{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessagingService) Thread(ctx context.Context, userID, partnerID uint) ([]model.DirectMessage, error) {
	if userID == 0 || partnerID == 0 {
		return nil, ErrInvalidInput
	}
	return s.messages.ListConversation(ctx, userID, partnerID)
}

// MarkRead only touches messages addressed to userID.
func (s *MessagingService) MarkRead(ctx context.Context, userID uint, ids []uint) (int64, error) {
	if userID == 0 {
		return 0, ErrInvalidInput
	}
	return s.messages.MarkRead(ctx, userID, ids)
}

// Conversations lists one entry per partner, most recent thread first.
func (s *MessagingService) Conversations(ctx context.Context, userID uint) ([]Conversation, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	msgs, err := s.messages.ListInvolving(ctx, userID)
	if err != nil {
		return nil, err
	}

	index := make(map[uint]int)
	conversations := make([]Conversation, 0)
	for i := range msgs {
		msg := &msgs[i]
		partner := msg.Partner(userID)
		pos, ok := index[partner]
		if !ok {
			pos = len(conversations)
			index[partner] = pos
			conversations = append(conversations, Conversation{
				PartnerID:     partner,
				LastMessage:   msg.Content,
				LastMessageAt: msg.CreatedAt,
			})
		}
		if msg.RecipientID == userID && !msg.Read {
			conversations[pos].UnreadCount++
		}
	}

	for i := range conversations {
		user, err := s.users.GetByID(ctx, conversations[i].PartnerID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			conversations[i].PartnerName = user.FullName
			if conversations[i].PartnerName == "" {
				conversations[i].PartnerName = user.Username
			}
		}
	}
	return conversations, nil
}
