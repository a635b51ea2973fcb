package service

import (
	"context"
	"strings"
	"time"

	"ravito/internal/dto"
	"ravito/internal/model"
	"ravito/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ZoneService interface {
	List(ctx context.Context, activeOnly bool) ([]dto.ZoneResponse, error)
	Create(ctx context.Context, req dto.ZoneRequest) (*dto.ZoneResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.ZoneRequest) (*dto.ZoneResponse, error)
	// Delete is refused while orders of the zone are still in progress.
	Delete(ctx context.Context, id uuid.UUID, confirm bool) error

	RequestZone(ctx context.Context, supplierOrgID uuid.UUID, zoneID uuid.UUID) (*dto.SupplierZoneResponse, error)
	ListSupplierZones(ctx context.Context, supplierOrgID uuid.UUID) ([]dto.SupplierZoneResponse, error)
	ListRequests(ctx context.Context, status string) ([]dto.SupplierZoneResponse, error)
	Review(ctx context.Context, requestID uuid.UUID, approve bool, reason *string) (*dto.SupplierZoneResponse, error)
}

type zoneService struct {
	zones repository.ZoneRepository
	now   func() time.Time
}

func NewZoneService(zones repository.ZoneRepository) ZoneService {
	return &zoneService{zones: zones, now: time.Now}
}

func (s *zoneService) List(ctx context.Context, activeOnly bool) ([]dto.ZoneResponse, error) {
	zones, err := s.zones.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ZoneResponse, len(zones))
	for i := range zones {
		resp[i] = toZoneResponse(&zones[i])
	}
	return resp, nil
}

func (s *zoneService) Create(ctx context.Context, req dto.ZoneRequest) (*dto.ZoneResponse, error) {
	z := &model.Zone{Name: strings.TrimSpace(req.Name), Description: req.Description, Active: true}
	if req.Active != nil {
		z.Active = *req.Active
	}
	if err := s.zones.Create(ctx, z); err != nil {
		return nil, err
	}
	resp := toZoneResponse(z)
	return &resp, nil
}

func (s *zoneService) Update(ctx context.Context, id uuid.UUID, req dto.ZoneRequest) (*dto.ZoneResponse, error) {
	z, err := s.zones.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrZoneNotFound
		}
		return nil, err
	}
	z.Name = strings.TrimSpace(req.Name)
	z.Description = req.Description
	if req.Active != nil {
		z.Active = *req.Active
	}
	if err := s.zones.Update(ctx, z); err != nil {
		return nil, err
	}
	resp := toZoneResponse(z)
	return &resp, nil
}

func (s *zoneService) Delete(ctx context.Context, id uuid.UUID, confirm bool) error {
	if !confirm {
		return ErrConfirmRequired
	}
	open, err := s.zones.CountOpenOrders(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return ErrZoneInUse
	}
	if err := s.zones.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrZoneNotFound
		}
		return err
	}
	log.Info().Str("zone_id", id.String()).Msg("zone deleted")
	return nil
}

func (s *zoneService) RequestZone(ctx context.Context, supplierOrgID, zoneID uuid.UUID) (*dto.SupplierZoneResponse, error) {
	zone, err := s.zones.FindByID(ctx, zoneID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrZoneNotFound
		}
		return nil, err
	}
	if !zone.Active {
		return nil, ErrZoneNotFound
	}
	existing, err := s.zones.FindSupplierZoneByPair(ctx, supplierOrgID, zoneID)
	switch {
	case err == nil && existing.Status != model.SupplierZoneRejected:
		return nil, ErrZoneRequested
	case err == nil:
		// a rejected request can be submitted again
		existing.Status = model.SupplierZonePending
		existing.RejectionReason = nil
		existing.ReviewedAt = nil
		if err := s.zones.UpdateSupplierZone(ctx, existing); err != nil {
			return nil, err
		}
		existing.Zone = zone
		resp := toSupplierZoneResponse(existing)
		return &resp, nil
	case !isNotFound(err):
		return nil, err
	}

	sz := &model.SupplierZone{SupplierOrgID: supplierOrgID, ZoneID: zoneID, Status: model.SupplierZonePending}
	if err := s.zones.CreateSupplierZone(ctx, nil, sz); err != nil {
		if isDuplicate(err) {
			return nil, ErrZoneRequested
		}
		return nil, err
	}
	sz.Zone = zone
	resp := toSupplierZoneResponse(sz)
	return &resp, nil
}

func (s *zoneService) ListSupplierZones(ctx context.Context, supplierOrgID uuid.UUID) ([]dto.SupplierZoneResponse, error) {
	rows, err := s.zones.ListSupplierZones(ctx, supplierOrgID)
	if err != nil {
		return nil, err
	}
	return toSupplierZoneResponses(rows), nil
}

func (s *zoneService) ListRequests(ctx context.Context, status string) ([]dto.SupplierZoneResponse, error) {
	rows, err := s.zones.ListSupplierZoneRequests(ctx, status)
	if err != nil {
		return nil, err
	}
	return toSupplierZoneResponses(rows), nil
}

func (s *zoneService) Review(ctx context.Context, requestID uuid.UUID, approve bool, reason *string) (*dto.SupplierZoneResponse, error) {
	sz, err := s.zones.FindSupplierZone(ctx, requestID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if sz.Status != model.SupplierZonePending {
		return nil, ErrAlreadyReviewed
	}
	now := s.now()
	sz.ReviewedAt = &now
	if approve {
		sz.Status = model.SupplierZoneApproved
		sz.RejectionReason = nil
	} else {
		sz.Status = model.SupplierZoneRejected
		sz.RejectionReason = reason
	}
	if err := s.zones.UpdateSupplierZone(ctx, sz); err != nil {
		return nil, err
	}
	resp := toSupplierZoneResponse(sz)
	return &resp, nil
}

func toZoneResponse(z *model.Zone) dto.ZoneResponse {
	return dto.ZoneResponse{ID: z.ID.String(), Name: z.Name, Description: z.Description, Active: z.Active}
}

func toSupplierZoneResponse(sz *model.SupplierZone) dto.SupplierZoneResponse {
	resp := dto.SupplierZoneResponse{
		ID:              sz.ID.String(),
		SupplierOrgID:   sz.SupplierOrgID.String(),
		ZoneID:          sz.ZoneID.String(),
		Status:          sz.Status,
		RejectionReason: sz.RejectionReason,
		CreatedAt:       ts(sz.CreatedAt),
	}
	if sz.Zone != nil {
		resp.ZoneName = sz.Zone.Name
	}
	return resp
}

func toSupplierZoneResponses(rows []model.SupplierZone) []dto.SupplierZoneResponse {
	resp := make([]dto.SupplierZoneResponse, len(rows))
	for i := range rows {
		resp[i] = toSupplierZoneResponse(&rows[i])
	}
	return resp
}
