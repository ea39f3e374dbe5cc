package model

import (
	"time"

	"github.com/google/uuid"
)

// PacketCategory is the subject category a packet (and its teacher scope) belongs to.
type PacketCategory string

const (
	CategoryLiterasi PacketCategory = "Literasi"
	CategoryNumerasi PacketCategory = "Numerasi"
)

// Packet is a named, categorized question bank used as the basis for exams.
// TotalQuestions is denormalized and kept in sync as questions are added
// and removed.
type Packet struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Category       PacketCategory `json:"category"`
	TotalQuestions int            `json:"total_questions"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// CreatePacketRequest is the payload for creating a packet.
type CreatePacketRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=255"`
	Category string `json:"category" binding:"required,oneof=Literasi Numerasi"`
}

// UpdatePacketRequest is the payload for renaming or recategorizing a packet.
type UpdatePacketRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=255"`
	Category string `json:"category" binding:"required,oneof=Literasi Numerasi"`
}
