package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
)

// ErrCategoryMismatch is returned when a teacher touches a packet outside
// their subject category.
var ErrCategoryMismatch = errors.New("packet belongs to another category")

// PacketService handles question packet business logic. Teachers are scoped
// to one category; an empty category string (admin) sees everything.
type PacketService struct {
	packetRepo *repository.PacketRepository
}

// NewPacketService creates a new PacketService.
func NewPacketService(packetRepo *repository.PacketRepository) *PacketService {
	return &PacketService{packetRepo: packetRepo}
}

// GetByID retrieves a packet, enforcing the caller's category scope.
func (s *PacketService) GetByID(ctx context.Context, id uuid.UUID, category string) (*model.Packet, error) {
	packet, err := s.packetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category != "" && string(packet.Category) != category {
		return nil, ErrCategoryMismatch
	}
	return packet, nil
}

// List retrieves packets visible to the caller.
func (s *PacketService) List(ctx context.Context, category string) ([]model.Packet, error) {
	var filter *model.PacketCategory
	if category != "" {
		c := model.PacketCategory(category)
		filter = &c
	}

	packets, err := s.packetRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if packets == nil {
		packets = []model.Packet{}
	}
	return packets, nil
}

// Create inserts a new packet. A category-scoped caller can only create
// packets in their own category.
func (s *PacketService) Create(ctx context.Context, req *model.CreatePacketRequest, category string) (*model.Packet, error) {
	if category != "" && req.Category != category {
		return nil, ErrCategoryMismatch
	}

	packet := &model.Packet{
		Name:     req.Name,
		Category: model.PacketCategory(req.Category),
	}
	if err := s.packetRepo.Create(ctx, packet); err != nil {
		return nil, err
	}
	return packet, nil
}

// Update renames or recategorizes a packet within the caller's scope.
func (s *PacketService) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePacketRequest, category string) (*model.Packet, error) {
	packet, err := s.GetByID(ctx, id, category)
	if err != nil {
		return nil, err
	}
	if category != "" && req.Category != category {
		return nil, ErrCategoryMismatch
	}

	packet.Name = req.Name
	packet.Category = model.PacketCategory(req.Category)
	if err := s.packetRepo.Update(ctx, packet); err != nil {
		return nil, err
	}
	return packet, nil
}

// Delete removes a packet and its questions within the caller's scope.
func (s *PacketService) Delete(ctx context.Context, id uuid.UUID, category string) error {
	if _, err := s.GetByID(ctx, id, category); err != nil {
		return err
	}
	return s.packetRepo.Delete(ctx, id)
}
