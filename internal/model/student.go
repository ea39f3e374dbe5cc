package model

import "time"

// Student represents a student account.
type Student struct {
	ID           int       `json:"id"`
	No           string    `json:"no"`
	NIS          string    `json:"nis"`
	NISN         string    `json:"nisn"`
	Name         string    `json:"name"`
	ClassName    string    `json:"class_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	NISN     string `json:"nisn" binding:"required,min=4,max=20"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// StudentLoginResponse is returned after successful student login.
type StudentLoginResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}

// CreateStudentRequest is the payload for creating a new student account.
type CreateStudentRequest struct {
	No        string `json:"no" binding:"omitempty,max=10"`
	NIS       string `json:"nis" binding:"required,min=4,max=20"`
	NISN      string `json:"nisn" binding:"required,min=4,max=20"`
	Name      string `json:"name" binding:"required,min=2,max=100"`
	ClassName string `json:"class_name" binding:"required,min=1,max=20"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
}

// UpdateStudentRequest is the payload for updating an existing student.
// Password is optional; when empty the existing hash is kept.
type UpdateStudentRequest struct {
	No        string `json:"no" binding:"omitempty,max=10"`
	NIS       string `json:"nis" binding:"required,min=4,max=20"`
	NISN      string `json:"nisn" binding:"required,min=4,max=20"`
	Name      string `json:"name" binding:"required,min=2,max=100"`
	ClassName string `json:"class_name" binding:"required,min=1,max=20"`
	Password  string `json:"password" binding:"omitempty,min=6,max=128"`
}
