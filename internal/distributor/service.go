package distributor

import (
	"context"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pharma/internal/common"
)

const searchLimit = 25

// CreateInput is the payload for registering a distributor.
type CreateInput struct {
	Name    string `json:"name" validate:"required,min=2"`
	Phone   string `json:"phone" validate:"omitempty,min=6,max=20"`
	GSTIN   string `json:"gstin" validate:"omitempty,len=15"`
	Address string `json:"address"`
}

// Service implements distributor operations with a Redis read-through
// cache in front of Postgres.
type Service struct {
	Store    Store
	Cache    *Cache
	Validate *validator.Validate
	Log      zerolog.Logger
}

// Create registers a distributor and invalidates the search cache.
func (s *Service) Create(ctx context.Context, in CreateInput) (Distributor, error) {
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return Distributor{}, common.NewAppError("VALIDATION", err.Error(), http.StatusUnprocessableEntity, err)
		}
	}
	d := Distributor{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		GSTIN:   strings.ToUpper(strings.TrimSpace(in.GSTIN)),
		Address: strings.TrimSpace(in.Address),
	}
	stored, err := s.Store.Create(ctx, d)
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return Distributor{}, common.NewAppError("DUPLICATE", "distributor already exists", http.StatusConflict, err)
		}
		return Distributor{}, err
	}
	s.Cache.Invalidate(ctx, keySearch(""))
	return stored, nil
}

// Get loads one distributor, preferring the cache.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Distributor, error) {
	key := keyByID(id.String())
	var cached Distributor
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err != nil {
		s.Log.Warn().Err(err).Msg("distributor cache read")
	} else if ok {
		return cached, nil
	}

	d, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Distributor{}, common.NotFound("distributor not found")
		}
		return Distributor{}, err
	}
	if err := s.Cache.SetJSON(ctx, key, d); err != nil {
		s.Log.Warn().Err(err).Msg("distributor cache write")
	}
	return d, nil
}

// Search matches distributors by name for the billing screen dropdown.
func (s *Service) Search(ctx context.Context, q string) ([]Distributor, error) {
	q = strings.TrimSpace(q)
	key := keySearch(q)
	var cached []Distributor
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err != nil {
		s.Log.Warn().Err(err).Msg("distributor cache read")
	} else if ok {
		return cached, nil
	}

	out, err := s.Store.Search(ctx, q, searchLimit)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.SetJSON(ctx, key, out); err != nil {
		s.Log.Warn().Err(err).Msg("distributor cache write")
	}
	return out, nil
}

// Exists reports whether a distributor id is present. The invoice
// service uses this before accepting a bill.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.Store.Exists(ctx, id)
}
