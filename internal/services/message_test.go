package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeyard/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

func sendAt(t *testing.T, db *gorm.DB, sender, recipient *models.User, content string, at time.Time) {
	t.Helper()
	msg := models.Message{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Content:     content,
		CreatedAt:   at,
	}
	require.NoError(t, db.Create(&msg).Error)
}

func TestMessageSend(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	t.Run("Success", func(t *testing.T) {
		msg, err := svc.Send(alice.ID, bob.ID, "hi bob")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, msg.SenderID)
		assert.Equal(t, bob.ID, msg.RecipientID)
		assert.False(t, msg.Read)
	})

	t.Run("BlankContentRejected", func(t *testing.T) {
		_, err := svc.Send(alice.ID, bob.ID, "   ")
		assert.ErrorIs(t, err, ErrEmptyMessage)
	})

	t.Run("UnknownRecipient", func(t *testing.T) {
		_, err := svc.Send(alice.ID, 99999, "hello?")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestConversationMarksRead(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	_, err := svc.Send(bob.ID, alice.ID, "first")
	require.NoError(t, err)
	_, err = svc.Send(bob.ID, alice.ID, "second")
	require.NoError(t, err)
	_, err = svc.Send(alice.ID, bob.ID, "reply")
	require.NoError(t, err)

	unread, err := svc.UnreadCount(alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	// Opening the thread is what marks bob's messages read.
	messages, err := svc.Conversation(alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "reply", messages[2].Content)

	unread, err = svc.UnreadCount(alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)

	// Bob still has alice's reply unread; reading alice's thread is
	// scoped to that counterparty only.
	unread, err = svc.UnreadCount(bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

func TestConversationsIndex(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMessageService(db)

	me := createTestUser(t, db, "me")
	old := createTestUser(t, db, "old_contact")
	recent := createTestUser(t, db, "recent_contact")

	base := time.Now().Add(-time.Hour)
	sendAt(t, db, old, me, "long ago", base)
	sendAt(t, db, me, recent, "ping", base.Add(10*time.Minute))
	sendAt(t, db, recent, me, "pong", base.Add(20*time.Minute))
	sendAt(t, db, recent, me, "still there?", base.Add(30*time.Minute))

	threads, err := svc.Conversations(me.ID)
	require.NoError(t, err)
	require.Len(t, threads, 2)

	// Most recent counterparty first.
	assert.Equal(t, recent.ID, threads[0].User.ID)
	require.NotNil(t, threads[0].LastMessage)
	assert.Equal(t, "still there?", threads[0].LastMessage.Content)
	assert.EqualValues(t, 2, threads[0].Unread)

	assert.Equal(t, old.ID, threads[1].User.ID)
	require.NotNil(t, threads[1].LastMessage)
	assert.EqualValues(t, 1, threads[1].Unread)

	// Unread counts only messages addressed to me, not ones I sent.
	theirThreads, err := svc.Conversations(recent.ID)
	require.NoError(t, err)
	require.Len(t, theirThreads, 1)
	assert.EqualValues(t, 1, theirThreads[0].Unread)
}
