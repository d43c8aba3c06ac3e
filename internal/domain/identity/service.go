package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/rehab/rehab/internal/platform/apperr"
)

type Service struct {
	patients PatientRepository
}

func NewService(patients PatientRepository) *Service {
	return &Service{patients: patients}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return apperr.Invalid("first_name and last_name are required")
	}
	if p.Email == "" {
		return apperr.Invalid("email is required")
	}
	p.Active = true
	if err := s.patients.Create(ctx, p); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("patient not found")
	}
	return p, nil
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		return apperr.Invalid("id is required")
	}
	if _, err := s.patients.GetByID(ctx, p.ID); err != nil {
		return apperr.NotFound("patient not found")
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	items, total, err := s.patients.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Dependency(err, "store unavailable")
	}
	return items, total, nil
}

func (s *Service) SearchPatients(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	items, total, err := s.patients.SearchByName(ctx, name, limit, offset)
	if err != nil {
		return nil, 0, apperr.Dependency(err, "store unavailable")
	}
	return items, total, nil
}
