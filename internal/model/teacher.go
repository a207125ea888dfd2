package model

// Teacher запись справочника учителей
type Teacher struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Subject      string   `json:"subject"`
	Department   string   `json:"department"`
	Available    bool     `json:"available"`
	Availability []string `json:"availability"` // метки вида "Monday 9:00-12:00"
}

type TeacherPatch struct {
	Name         *string
	Email        *string
	Subject      *string
	Department   *string
	Available    *bool
	Availability []string // nil - без изменений
}

func (p TeacherPatch) Apply(t *Teacher) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Email != nil {
		t.Email = *p.Email
	}
	if p.Subject != nil {
		t.Subject = *p.Subject
	}
	if p.Department != nil {
		t.Department = *p.Department
	}
	if p.Available != nil {
		t.Available = *p.Available
	}
	if p.Availability != nil {
		t.Availability = append([]string(nil), p.Availability...)
	}
}

// DefaultTeachers демо-учителя, которыми заполняется пустое хранилище
func DefaultTeachers() []Teacher {
	return []Teacher{
		{
			ID:           "teacher1",
			Name:         "Dr. John Smith",
			Subject:      "Mathematics",
			Department:   "Mathematics",
			Email:        "john.smith@school.edu",
			Available:    true,
			Availability: []string{"Monday 9:00-12:00", "Wednesday 14:00-17:00", "Friday 10:00-13:00"},
		},
		{
			ID:           "teacher2",
			Name:         "Prof. Sarah Johnson",
			Subject:      "Physics",
			Department:   "Physics",
			Email:        "sarah.johnson@school.edu",
			Available:    true,
			Availability: []string{"Tuesday 10:00-13:00", "Thursday 9:00-12:00", "Friday 14:00-17:00"},
		},
		{
			ID:           "teacher3",
			Name:         "Dr. Emily Davis",
			Subject:      "Chemistry",
			Department:   "Chemistry",
			Email:        "emily.davis@school.edu",
			Available:    true,
			Availability: []string{"Monday 14:00-17:00", "Wednesday 9:00-12:00", "Thursday 15:00-18:00"},
		},
	}
}
