package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ravito/internal/config"
	"ravito/internal/dto"
	"ravito/internal/model"
	"ravito/internal/repository"
	"ravito/internal/validation"
	"ravito/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 12

// Token kinds, stored in the "typ" claim so a refresh token cannot be used as
// an access token.
const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	// Logout tears down the server-side session state (the cart).
	Logout(ctx context.Context, userID uuid.UUID) error

	// ── Admin ──
	ListUsers(ctx context.Context, status string) ([]dto.UserResponse, error)
	Approve(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*dto.UserResponse, error)
	Suspend(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error)
}

type authService struct {
	users repository.UserRepository
	orgs  repository.OrganizationRepository
	zones repository.ZoneRepository
	carts repository.CartRepository
	tx    repository.TxRunner
	jobs  Jobs
	cfg   *config.Config
	now   func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	orgs repository.OrganizationRepository,
	zones repository.ZoneRepository,
	carts repository.CartRepository,
	tx repository.TxRunner,
	jobs Jobs,
	cfg *config.Config,
) AuthService {
	return &authService{users: users, orgs: orgs, zones: zones, carts: carts, tx: tx, jobs: jobs, cfg: cfg, now: time.Now}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !isNotFound(err) {
		return nil, err
	}

	var repID *uuid.UUID
	if req.SalesRepresentativeID != nil && *req.SalesRepresentativeID != "" {
		id, err := uuid.Parse(*req.SalesRepresentativeID)
		if err != nil {
			return nil, newError(ErrInvalid, "Commercial inconnu")
		}
		repID = &id
	}
	zoneIDs := make([]uuid.UUID, 0, len(req.ZoneIDs))
	if req.Role == model.RoleSupplier {
		for _, raw := range req.ZoneIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, ErrZoneNotFound
			}
			if _, err := s.zones.FindByID(ctx, id); err != nil {
				if isNotFound(err) {
					return nil, ErrZoneNotFound
				}
				return nil, err
			}
			zoneIDs = append(zoneIDs, id)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	phone := validation.NormalizePhoneCI(req.Phone)
	org := &model.Organization{
		Name:    strings.TrimSpace(req.OrganizationName),
		Type:    req.Role,
		Phone:   &phone,
		Address: req.Address,
	}
	user := &model.User{
		Email:                 email,
		Phone:                 phone,
		FullName:              strings.Join(strings.Fields(req.FullName), " "),
		PasswordHash:          string(hash),
		Role:                  req.Role,
		Status:                model.UserPending,
		SalesRepresentativeID: repID,
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.orgs.Create(ctx, tx, org); err != nil {
			return fmt.Errorf("create organization: %w", err)
		}
		user.OrganizationID = org.ID
		if err := s.users.Create(ctx, tx, user); err != nil {
			if isDuplicate(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		if err := s.orgs.SetOwner(ctx, tx, org.ID, user.ID); err != nil {
			return fmt.Errorf("set owner: %w", err)
		}
		for _, zid := range zoneIDs {
			sz := &model.SupplierZone{SupplierOrgID: org.ID, ZoneID: zid, Status: model.SupplierZonePending}
			if err := s.zones.CreateSupplierZone(ctx, tx, sz); err != nil {
				return fmt.Errorf("create supplier zone: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.Organization = org

	log.Info().Str("user_id", user.ID.String()).Str("role", user.Role).Msg("account registered")
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := statusError(user.Status); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func statusError(status string) error {
	switch status {
	case model.UserApproved:
		return nil
	case model.UserPending:
		return ErrAccountPending
	case model.UserRejected:
		return ErrAccountRejected
	default:
		return ErrAccountSuspended
	}
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(refreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != tokenRefresh {
		return nil, ErrInvalidToken
	}
	raw, _ := claims["user_id"].(string)
	uid, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, uid)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if err := statusError(user.Status); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.carts.Delete(ctx, userID)
}

func (s *authService) ListUsers(ctx context.Context, status string) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx, status)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UserResponse, len(users))
	for i := range users {
		resp[i] = toUserResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) Approve(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.setStatus(ctx, id, model.UserApproved, nil)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, user, "Votre compte RAVITO est validé",
		fmt.Sprintf("Bonjour %s,\n\nVotre compte a été validé. Vous pouvez maintenant vous connecter.\n\nRAVITO", user.FullName))
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) Reject(ctx context.Context, id uuid.UUID, reason string) (*dto.UserResponse, error) {
	reason = strings.TrimSpace(reason)
	user, err := s.setStatus(ctx, id, model.UserRejected, &reason)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, user, "Votre inscription RAVITO",
		fmt.Sprintf("Bonjour %s,\n\nVotre inscription n'a pas été retenue.\nMotif: %s\n\nRAVITO", user.FullName, reason))
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) Suspend(ctx context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.setStatus(ctx, id, model.UserSuspended, nil)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) setStatus(ctx context.Context, id uuid.UUID, status string, reason *string) (*model.User, error) {
	if err := s.users.UpdateStatus(ctx, id, status, reason); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", id.String()).Str("status", status).Msg("account status changed")
	return user, nil
}

// notify enqueues a mail; a queue failure does not undo the status change.
func (s *authService) notify(ctx context.Context, user *model.User, subject, body string) {
	if err := s.jobs.EnqueueEmail(ctx, worker.EmailJobPayload{To: user.Email, Subject: subject, Body: body}); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("could not enqueue account email")
	}
}

func (s *authService) issue(user *model.User) (*dto.LoginResponse, error) {
	access, err := s.generateToken(user, tokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(user, tokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         toUserResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.User, typ string, duration time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"org_id":  user.OrganizationID.String(),
		"role":    user.Role,
		"typ":     typ,
		"exp":     now.Add(duration).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// HashPassword is used by the operator CLI.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hash), err
}

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:              u.ID.String(),
		Email:           u.Email,
		Phone:           validation.FormatPhoneCI(u.Phone),
		FullName:        u.FullName,
		Role:            u.Role,
		Status:          u.Status,
		OrganizationID:  u.OrganizationID.String(),
		RejectionReason: u.RejectionReason,
		CreatedAt:       ts(u.CreatedAt),
	}
	if u.Organization != nil {
		resp.OrganizationName = u.Organization.Name
	}
	return resp
}
