package repository

// Ключи коллекций в хранилище
const (
	KeyAppointments  = "appointments"
	KeyTeachers      = "teachers"
	KeyStudents      = "students"
	KeyConversations = "conversations"
	KeyMessages      = "messages"
	KeyUsers         = "edubook_users"
	KeySession       = "edubook_auth"
	KeyActivity      = "appLogs"
)
