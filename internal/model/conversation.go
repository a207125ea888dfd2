package model

import "time"

// Conversation переписка пары студент-учитель
type Conversation struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"studentId"`
	TeacherID       string    `json:"teacherId"`
	TeacherName     string    `json:"teacherName"`
	StudentName     string    `json:"studentName"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	UnreadCount     int       `json:"unreadCount"` // подсказка для UI, не пересчитывается из сообщений
	CreatedAt       time.Time `json:"createdAt"`
}

// HasParticipant проверяет участвует ли userID в переписке
func (c Conversation) HasParticipant(userID string) bool {
	return c.StudentID == userID || c.TeacherID == userID
}

// Message сообщение внутри Conversation
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
	Read           bool      `json:"read"`
}
