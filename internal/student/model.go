package student

import (
	"time"

	"github.com/uptrace/bun"
)

type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID             int       `bun:"id,pk,autoincrement" json:"id"`
	Name           string    `bun:"name,notnull" json:"name"`
	Email          string    `bun:"email,notnull,unique" json:"email"`
	GraduationYear *int      `bun:"graduation_year" json:"graduation_year"`
	PhoneNumber    *string   `bun:"phone_number" json:"phone_number"`
	GPA            *float64  `bun:"gpa,type:numeric(3,2)" json:"gpa"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

type CreateStudentRequest struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	GraduationYear *int     `json:"graduation_year,omitempty"`
	PhoneNumber    *string  `json:"phone_number,omitempty"`
	GPA            *float64 `json:"gpa,omitempty"`
}

// UpdateStudentRequest carries only the fields to change. A nil field, or a
// JSON null, leaves the stored value untouched.
type UpdateStudentRequest struct {
	Name           *string  `json:"name,omitempty"`
	Email          *string  `json:"email,omitempty"`
	GraduationYear *int     `json:"graduation_year,omitempty"`
	PhoneNumber    *string  `json:"phone_number,omitempty"`
	GPA            *float64 `json:"gpa,omitempty"`
}

func (r UpdateStudentRequest) IsEmpty() bool {
	return r.Name == nil && r.Email == nil && r.GraduationYear == nil && r.PhoneNumber == nil && r.GPA == nil
}

type ListOptions struct {
	Search string
}
