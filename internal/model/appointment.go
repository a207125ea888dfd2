package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"   // Ожидает решения учителя
	AppointmentStatusApproved  AppointmentStatus = "approved"  // Одобрено
	AppointmentStatusRejected  AppointmentStatus = "rejected"  // Отклонено учителем
	AppointmentStatusCancelled AppointmentStatus = "cancelled" // Отменено, слот свободен
	AppointmentStatusCompleted AppointmentStatus = "completed" // Завершено
)

// Appointment запись студента к учителю на слот (date, time)
type Appointment struct {
	ID           string            `json:"id"`
	StudentID    string            `json:"studentId"`
	StudentName  string            `json:"studentName,omitempty"`
	StudentEmail string            `json:"studentEmail,omitempty"`
	TeacherID    string            `json:"teacherId"`
	Date         string            `json:"date"` // календарная дата, 2006-01-02
	Time         string            `json:"time"` // метка слота, не разбирается
	Purpose      string            `json:"purpose"`
	Message      string            `json:"message"`
	Status       AppointmentStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// SameSlot проверяет совпадение слота
func (a Appointment) SameSlot(teacherID, date, slot string) bool {
	return a.TeacherID == teacherID && a.Date == date && a.Time == slot
}

// AppointmentPatch частичное обновление, nil поля не трогаются
type AppointmentPatch struct {
	Date    *string
	Time    *string
	Purpose *string
	Message *string
	Status  *AppointmentStatus
}

// Apply переносит заданные поля в a
func (p AppointmentPatch) Apply(a *Appointment) {
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Purpose != nil {
		a.Purpose = *p.Purpose
	}
	if p.Message != nil {
		a.Message = *p.Message
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
}

// StatusPatch патч только статуса
func StatusPatch(status AppointmentStatus) AppointmentPatch {
	return AppointmentPatch{Status: &status}
}

// AppointmentFilter фильтр списка, пустые поля не участвуют, условия через AND
type AppointmentFilter struct {
	StudentID string
	TeacherID string
	Status    AppointmentStatus
	Date      string
}

// Match проверяет подходит ли запись под фильтр
func (f AppointmentFilter) Match(a Appointment) bool {
	if f.StudentID != "" && a.StudentID != f.StudentID {
		return false
	}
	if f.TeacherID != "" && a.TeacherID != f.TeacherID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Date != "" && a.Date != f.Date {
		return false
	}
	return true
}

// AppointmentStats счётчики для дашборда
type AppointmentStats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Upcoming int `json:"upcoming"`
}
