package model

// Student запись справочника студентов.
// StudentID - номер студенческого, ID - идентификатор пользователя.
type Student struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Program   string `json:"program,omitempty"`
	StudentID string `json:"studentId,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type StudentPatch struct {
	Name      *string
	Email     *string
	Program   *string
	StudentID *string
	Phone     *string
}

func (p StudentPatch) Apply(s *Student) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Program != nil {
		s.Program = *p.Program
	}
	if p.StudentID != nil {
		s.StudentID = *p.StudentID
	}
	if p.Phone != nil {
		s.Phone = *p.Phone
	}
}
