package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tradeyard/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrEmptyMessage = errors.New("message cannot be empty")
	ErrUserNotFound = errors.New("user not found")
)

type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// ConversationThread is one row of the conversations index: a counterparty,
// the most recent message in either direction, and how many of their
// messages the current user has not read yet.
type ConversationThread struct {
	User        models.User     `json:"user"`
	LastMessage *models.Message `json:"last_message"`
	Unread      int64           `json:"unread"`
}

// Send appends a message. Content must be non-blank; messages are never
// edited afterwards.
func (s *MessageService) Send(senderID, recipientID uint, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	var recipient models.User
	if err := s.db.First(&recipient, recipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	message := models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	s.db.Preload("Sender").Preload("Recipient").First(&message, message.ID)
	return &message, nil
}

// Conversation returns the full thread between two users, oldest first.
// Opening the thread marks everything the counterparty sent as read; that is
// a side effect of the read, not a separate action.
func (s *MessageService) Conversation(userID, otherID uint) ([]models.Message, error) {
	err := s.db.Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND read = ?", otherID, userID, false).
		Update("read", true).Error
	if err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}

	var messages []models.Message
	err = s.db.Preload("Sender").Preload("Recipient").
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	return messages, nil
}

// Conversations builds the index: every counterparty the user has exchanged
// messages with, newest thread first. Threads with no last message sort last.
func (s *MessageService) Conversations(userID uint) ([]ConversationThread, error) {
	var messages []models.Message
	err := s.db.Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	counterpartIDs := make(map[uint]bool)
	for _, msg := range messages {
		if msg.SenderID != userID {
			counterpartIDs[msg.SenderID] = true
		}
		if msg.RecipientID != userID {
			counterpartIDs[msg.RecipientID] = true
		}
	}

	threads := make([]ConversationThread, 0, len(counterpartIDs))
	for otherID := range counterpartIDs {
		var other models.User
		if err := s.db.First(&other, otherID).Error; err != nil {
			continue
		}

		var last models.Message
		lastErr := s.db.
			Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
				userID, otherID, otherID, userID).
			Order("created_at DESC, id DESC").
			First(&last).Error

		var unread int64
		if err := s.db.Model(&models.Message{}).
			Where("sender_id = ? AND recipient_id = ? AND read = ?", otherID, userID, false).
			Count(&unread).Error; err != nil {
			return nil, fmt.Errorf("failed to count unread messages: %w", err)
		}

		thread := ConversationThread{User: other, Unread: unread}
		if lastErr == nil {
			thread.LastMessage = &last
		}
		threads = append(threads, thread)
	}

	sort.SliceStable(threads, func(i, j int) bool {
		a, b := threads[i].LastMessage, threads[j].LastMessage
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	return threads, nil
}

// UnreadCount is the total number of unread messages addressed to the user.
func (s *MessageService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Message{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}
