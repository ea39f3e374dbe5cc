package model

import "time"

// Well-known setting keys. Role password values hold bcrypt hashes.
const (
	SettingSchoolName              = "school_name"
	SettingLoginTitle              = "login_title"
	SettingAcademicYear            = "academic_year"
	SettingSemester                = "semester"
	SettingAdminPassword           = "admin_password"
	SettingTeacherLiterasiPassword = "teacher_literasi_password"
	SettingTeacherNumerasiPassword = "teacher_numerasi_password"
)

// AppSetting represents a key-value pair for global application configuration.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateSettingsRequest is the payload for bulk updating settings.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}
