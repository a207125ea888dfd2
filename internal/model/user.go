package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Profile данные пользователя без пароля, хранятся в сессии
type Profile struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        Role       `json:"role"`
	Name        string     `json:"name,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Program     string     `json:"program,omitempty"`
	StudentID   string     `json:"studentId,omitempty"`
	Department  string     `json:"department,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

// DisplayName имя для подписи сообщений
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.FirstName == "" && p.LastName == "" {
		return p.Email
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// User учётная запись в каталоге пользователей
type User struct {
	Profile
	Password string `json:"password"`
}

// ProfilePatch частичное обновление профиля
type ProfilePatch struct {
	FirstName  *string
	LastName   *string
	Name       *string
	Phone      *string
	Program    *string
	StudentID  *string
	Department *string
}

func (p ProfilePatch) Apply(pr *Profile) {
	if p.FirstName != nil {
		pr.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		pr.LastName = *p.LastName
	}
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Phone != nil {
		pr.Phone = *p.Phone
	}
	if p.Program != nil {
		pr.Program = *p.Program
	}
	if p.StudentID != nil {
		pr.StudentID = *p.StudentID
	}
	if p.Department != nil {
		pr.Department = *p.Department
	}
}
