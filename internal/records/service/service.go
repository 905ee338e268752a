package service

import (
	"context"
	"time"

	"github.com/acompanha/acompanha/internal/models"
	"github.com/google/uuid"
)

// CardRepository defines persistence operations for cards
type CardRepository interface {
	ListCards(ctx context.Context) ([]models.Card, error)
	CreateCard(ctx context.Context, c models.Card) (models.Card, error)
	UpdateCard(ctx context.Context, id string, patch models.CardPatch) (models.Card, error)
	DeleteCard(ctx context.Context, id string) error
}

// Service turns client input into cards and hands them to the repository.
type Service struct {
	repo  CardRepository
	now   func() time.Time
	newID func() string
}

func NewService(r CardRepository) *Service {
	return &Service{
		repo:  r,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return "c_" + uuid.NewString() },
	}
}

func (s *Service) List(ctx context.Context) ([]models.Card, error) {
	return s.repo.ListCards(ctx)
}

// Create normalizes and validates in, then stores it as a new card with a
// generated id and matching createdAt/updatedAt.
func (s *Service) Create(ctx context.Context, in models.CardInput) (models.Card, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return models.Card{}, err
	}
	now := s.now()
	c := models.Card{
		ID:               s.newID(),
		IsGestante:       in.IsGestante,
		ChildrenNames:    in.ChildrenNames,
		ResponsibleNames: in.ResponsibleNames,
		AgeYears:         in.AgeYears,
		AgeMonths:        in.AgeMonths,
		Address:          in.Address,
		ContactInfo:      in.ContactInfo,
		CPF:              in.CPF,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return s.repo.CreateCard(ctx, c)
}

// Update parses a raw JSON patch and applies it to card id.
func (s *Service) Update(ctx context.Context, id string, raw []byte) (models.Card, error) {
	patch, err := models.ParseCardPatch(raw)
	if err != nil {
		return models.Card{}, err
	}
	return s.repo.UpdateCard(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteCard(ctx, id)
}
