package service

import (
	"context"

	"ravito/internal/dto"
	"ravito/internal/repository"

	"github.com/google/uuid"
)

// DirectoryService serves the public lookups of the registration and order
// screens.
type DirectoryService interface {
	OrganizationName(ctx context.Context, id uuid.UUID) (*dto.OrganizationNameResponse, error)
	SalesRepresentatives(ctx context.Context) ([]dto.SalesRepresentativeResponse, error)
}

type directoryService struct {
	orgs repository.OrganizationRepository
	reps repository.SalesRepRepository
}

func NewDirectoryService(orgs repository.OrganizationRepository, reps repository.SalesRepRepository) DirectoryService {
	return &directoryService{orgs: orgs, reps: reps}
}

func (s *directoryService) OrganizationName(ctx context.Context, id uuid.UUID) (*dto.OrganizationNameResponse, error) {
	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrgNotFound
		}
		return nil, err
	}
	return &dto.OrganizationNameResponse{ID: org.ID.String(), Name: org.Name}, nil
}

func (s *directoryService) SalesRepresentatives(ctx context.Context) ([]dto.SalesRepresentativeResponse, error) {
	reps, err := s.reps.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.SalesRepresentativeResponse, len(reps))
	for i, r := range reps {
		resp[i] = dto.SalesRepresentativeResponse{ID: r.ID.String(), Name: r.Name, Phone: r.Phone}
	}
	return resp, nil
}
