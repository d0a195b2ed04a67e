package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/validation"
)

// Service exposes the supplier directory.
type Service interface {
	Create(ctx context.Context, input SupplierInput) (*models.Supplier, error)
	Update(ctx context.Context, id uuid.UUID, input SupplierInput) (*models.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// GetByID returns (nil, nil) when the supplier does not exist; callers
	// decide whether a missing supplier is an error.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	List(ctx context.Context) ([]models.Supplier, error)
}

// SupplierInput is the payload for creating or updating a supplier. On
// update, nil fields are left unchanged.
type SupplierInput struct {
	Name          *string
	ContactPerson *string
	Email         *string
	Phone         *string
	Address       *string
}

type service struct {
	repo *Repository
}

// NewService constructs a supplier service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("supplier repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input SupplierInput) (*models.Supplier, error) {
	name, err := validation.String(input.Name, "name", true)
	if err != nil {
		return nil, err
	}
	if _, err := validation.String(input.ContactPerson, "contactPerson", false); err != nil {
		return nil, err
	}
	if _, err := validation.String(input.Email, "email", false); err != nil {
		return nil, err
	}

	supplier := &models.Supplier{
		Name:          *name,
		ContactPerson: input.ContactPerson,
		Email:         input.Email,
		Phone:         input.Phone,
		Address:       input.Address,
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create supplier")
	}
	return supplier, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input SupplierInput) (*models.Supplier, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "id is required and must be a non-empty string")
	}
	name, err := validation.String(input.Name, "name", false)
	if err != nil {
		return nil, err
	}

	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "supplier %s not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load supplier")
	}

	if name != nil {
		supplier.Name = *name
	}
	if input.ContactPerson != nil {
		supplier.ContactPerson = input.ContactPerson
	}
	if input.Email != nil {
		supplier.Email = input.Email
	}
	if input.Phone != nil {
		supplier.Phone = input.Phone
	}
	if input.Address != nil {
		supplier.Address = input.Address
	}

	if err := s.repo.Save(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update supplier")
	}
	return supplier, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "id is required and must be a non-empty string")
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete supplier")
	}
	if affected == 0 {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "supplier %s not found", id)
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "id is required and must be a non-empty string")
	}
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load supplier")
	}
	return supplier, nil
}

func (s *service) List(ctx context.Context) ([]models.Supplier, error) {
	suppliers, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list suppliers")
	}
	return suppliers, nil
}
