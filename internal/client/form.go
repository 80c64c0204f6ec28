package client

import (
	"strconv"
	"strings"

	"student-records/internal/apperror"
	"student-records/internal/student"
)

// Form holds field values as the user typed them. It validates with the same
// rules as the server but the server stays authoritative.
type Form struct {
	Name           string
	Email          string
	GraduationYear string
	PhoneNumber    string
	GPA            string
}

// FormFromStudent prefills a form for editing.
func FormFromStudent(s student.Student) Form {
	f := Form{Name: s.Name, Email: s.Email}
	if s.GraduationYear != nil {
		f.GraduationYear = strconv.Itoa(*s.GraduationYear)
	}
	if s.PhoneNumber != nil {
		f.PhoneNumber = *s.PhoneNumber
	}
	if s.GPA != nil {
		f.GPA = strconv.FormatFloat(*s.GPA, 'f', 2, 64)
	}
	return f
}

// CreateRequest builds a create payload with blank optional fields dropped.
func (f Form) CreateRequest(v *student.Validator) (student.CreateStudentRequest, error) {
	clean, err := f.parse()
	if err != nil {
		return student.CreateStudentRequest{}, err
	}

	req := student.CreateStudentRequest{
		GraduationYear: clean.GraduationYear,
		PhoneNumber:    clean.PhoneNumber,
		GPA:            clean.GPA,
	}
	if clean.Name != nil {
		req.Name = *clean.Name
	}
	if clean.Email != nil {
		req.Email = *clean.Email
	}

	if err := v.ValidateCreate(req); err != nil {
		return student.CreateStudentRequest{}, err
	}
	return req, nil
}

// UpdateRequest builds an update payload carrying only the non-blank fields.
func (f Form) UpdateRequest(v *student.Validator) (student.UpdateStudentRequest, error) {
	req, err := f.parse()
	if err != nil {
		return student.UpdateStudentRequest{}, err
	}
	if req.IsEmpty() {
		return student.UpdateStudentRequest{}, apperror.Validation("No update data provided")
	}

	if err := v.ValidateUpdate(req); err != nil {
		return student.UpdateStudentRequest{}, err
	}
	return req, nil
}

func (f Form) parse() (student.UpdateStudentRequest, error) {
	var req student.UpdateStudentRequest

	req.Name = nonBlank(f.Name)
	req.Email = nonBlank(f.Email)
	req.PhoneNumber = nonBlank(f.PhoneNumber)

	if s := nonBlank(f.GraduationYear); s != nil {
		year, err := strconv.Atoi(*s)
		if err != nil {
			return req, apperror.Validation("Graduation year must be a whole number")
		}
		req.GraduationYear = &year
	}

	if s := nonBlank(f.GPA); s != nil {
		gpa, err := strconv.ParseFloat(*s, 64)
		if err != nil {
			return req, apperror.Validation("GPA must be a number")
		}
		req.GPA = &gpa
	}

	return req, nil
}

func nonBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
