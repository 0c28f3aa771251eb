package services

import (
	"context"
	"database/sql"
	"errors"

	"petshop/internal/apperr"
	"petshop/internal/domain"
	"petshop/internal/repos"

	"github.com/jmoiron/sqlx"
)

const (
	PetsPageSize = 12
	RelatedCount = 4
)

type CatalogService struct {
	Cats *repos.CategoryRepo
	Pets *repos.PetRepo
}

func NewCatalogService(db *sqlx.DB) *CatalogService {
	return &CatalogService{Cats: repos.NewCategoryRepo(db), Pets: repos.NewPetRepo(db)}
}

type PetPage struct {
	Pets       []domain.Pet
	Filter     repos.PetFilter
	Page       int
	TotalPages int
	Total      int
}

// List returns one page of active pets. An unknown sort is treated as the
// default ordering.
func (s *CatalogService) List(ctx context.Context, f repos.PetFilter) (PetPage, error) {
	f.IncludeInactive = false
	if f.Page < 1 {
		f.Page = 1
	}
	f.PageSize = PetsPageSize
	switch f.Sort {
	case repos.SortPriceAsc, repos.SortPriceDesc, repos.SortName, repos.SortNewest:
	default:
		f.Sort = repos.SortDefault
	}
	pets, total, err := s.Pets.List(ctx, f)
	if err != nil {
		return PetPage{}, apperr.Wrap(apperr.CodeInternal, err, "list pets")
	}
	return PetPage{Pets: pets, Filter: f, Page: f.Page, Total: total, TotalPages: totalPages(total, f.PageSize)}, nil
}

func (s *CatalogService) Featured(ctx context.Context, n int) ([]domain.Pet, error) {
	pets, err := s.Pets.Featured(ctx, n)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "featured pets")
	}
	return pets, nil
}

func (s *CatalogService) Latest(ctx context.Context, n int) ([]domain.Pet, error) {
	pets, err := s.Pets.Latest(ctx, n)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "latest pets")
	}
	return pets, nil
}

type PetDetails struct {
	Pet     domain.Pet
	Related []domain.Pet
}

// Details returns an active pet with a few others from its category.
func (s *CatalogService) Details(ctx context.Context, id int64) (PetDetails, error) {
	p, err := s.Pets.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !p.IsActive) {
		return PetDetails{}, apperr.New(apperr.CodeNotFound, "This pet is no longer available.")
	}
	if err != nil {
		return PetDetails{}, apperr.Wrap(apperr.CodeInternal, err, "load pet")
	}
	related, err := s.Pets.Related(ctx, p, RelatedCount)
	if err != nil {
		return PetDetails{}, apperr.Wrap(apperr.CodeInternal, err, "related pets")
	}
	return PetDetails{Pet: p, Related: related}, nil
}

type CategoryPage struct {
	Category domain.Category
	PetPage
}

func (s *CatalogService) Category(ctx context.Context, id int64, page int, sort repos.PetSort) (CategoryPage, error) {
	c, err := s.Cats.GetActive(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return CategoryPage{}, apperr.New(apperr.CodeNotFound, "Category not found.")
	}
	if err != nil {
		return CategoryPage{}, apperr.Wrap(apperr.CodeInternal, err, "load category")
	}
	pp, err := s.List(ctx, repos.PetFilter{CategoryID: id, Page: page, Sort: sort})
	if err != nil {
		return CategoryPage{}, err
	}
	return CategoryPage{Category: c, PetPage: pp}, nil
}

// Search matches name, breed and description.
func (s *CatalogService) Search(ctx context.Context, q string, page int) (PetPage, error) {
	return s.List(ctx, repos.PetFilter{Search: q, FullText: true, Page: page})
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.Cats.ListActive(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "list categories")
	}
	return cats, nil
}

type Availability struct {
	PetID     int64 `json:"petId"`
	Stock     int   `json:"stock"`
	Available bool  `json:"available"`
}

// Availability reports live stock. Hidden pets read as unavailable with no
// stock so admin state does not leak.
func (s *CatalogService) Availability(ctx context.Context, id int64) (Availability, error) {
	p, err := s.Pets.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Availability{}, apperr.New(apperr.CodeNotFound, "Pet not found.")
	}
	if err != nil {
		return Availability{}, apperr.Wrap(apperr.CodeInternal, err, "load pet")
	}
	if !p.IsActive {
		return Availability{PetID: id}, nil
	}
	return Availability{PetID: id, Stock: p.StockQuantity, Available: p.StockQuantity > 0}, nil
}
