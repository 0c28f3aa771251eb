package services

import (
	"context"
	"database/sql"
	"errors"

	"petshop/internal/apperr"
	"petshop/internal/domain"
	"petshop/internal/repos"
	"petshop/internal/validate"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CartService struct {
	DB      *sqlx.DB
	Carts   *repos.CartRepo
	Pets    *repos.PetRepo
	TaxRate decimal.Decimal
}

func NewCartService(db *sqlx.DB, taxRate decimal.Decimal) *CartService {
	return &CartService{DB: db, Carts: repos.NewCartRepo(db), Pets: repos.NewPetRepo(db), TaxRate: taxRate}
}

// Add puts qty of a pet into the cart, merging with an existing line. The
// line's unit price is refreshed to the pet's current effective price.
func (s *CartService) Add(ctx context.Context, userID string, petID int64, qty int) error {
	if qty < 1 {
		qty = 1
	}
	if qty > validate.MaxCartQty {
		qty = validate.MaxCartQty
	}
	return s.inTx(ctx, "add to cart", func(carts *repos.CartRepo, pets *repos.PetRepo) error {
		p, err := pets.Get(ctx, petID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !p.IsActive) {
			return apperr.New(apperr.CodeNotFound, "This pet is no longer available.")
		}
		if err != nil {
			return err
		}

		existing, err := carts.ItemForPet(ctx, userID, petID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if qty > p.StockQuantity {
				return stockError(p)
			}
			return carts.Insert(ctx, userID, petID, qty, p.EffectivePrice())
		case err != nil:
			return err
		}

		merged := existing.Quantity + qty
		if merged > p.StockQuantity || merged > validate.MaxCartQty {
			return stockError(p)
		}
		return carts.SetLine(ctx, existing.ID, merged, p.EffectivePrice())
	})
}

// UpdateQuantity sets the quantity of one of the user's lines.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, itemID int64, qty int) error {
	if qty < 1 || qty > validate.MaxCartQty {
		return apperr.Validation(map[string]string{"quantity": "must be between 1 and 99"})
	}
	return s.inTx(ctx, "update cart", func(carts *repos.CartRepo, pets *repos.PetRepo) error {
		it, err := carts.Item(ctx, userID, itemID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.CodeNotFound, "Cart item not found.")
		}
		if err != nil {
			return err
		}
		if qty > it.StockQuantity {
			return apperr.Newf(apperr.CodeInsufficientStock, "Only %d of %s in stock.", it.StockQuantity, it.PetName)
		}
		return carts.SetQty(ctx, userID, itemID, qty)
	})
}

func (s *CartService) Remove(ctx context.Context, userID string, itemID int64) error {
	err := s.Carts.Remove(ctx, userID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.CodeNotFound, "Cart item not found.")
	}
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "remove cart item")
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if _, err := s.Carts.Clear(ctx, userID); err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *CartService) Count(ctx context.Context, userID string) (int, error) {
	n, err := s.Carts.Count(ctx, userID)
	if err != nil {
		return 0, apperr.Wrap(apperr.CodeInternal, err, "count cart")
	}
	return n, nil
}

type CartView struct {
	Items []domain.CartItem
	Totals
}

func (v CartView) Empty() bool { return len(v.Items) == 0 }

func (s *CartService) View(ctx context.Context, userID string) (CartView, error) {
	items, err := s.Carts.Items(ctx, userID)
	if err != nil {
		return CartView{}, apperr.Wrap(apperr.CodeInternal, err, "load cart")
	}
	return CartView{Items: items, Totals: ComputeTotals(items, s.TaxRate)}, nil
}

func (s *CartService) inTx(ctx context.Context, op string, fn func(*repos.CartRepo, *repos.PetRepo) error) error {
	err := repos.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		return fn(s.Carts.WithTx(tx), s.Pets.WithTx(tx))
	})
	if err == nil {
		return nil
	}
	if ae := apperr.As(err); ae != nil {
		return ae
	}
	return apperr.Wrap(apperr.CodeInternal, err, op)
}

func stockError(p domain.Pet) error {
	if p.StockQuantity <= 0 {
		return apperr.Newf(apperr.CodeInsufficientStock, "%s is out of stock.", p.Name)
	}
	return apperr.Newf(apperr.CodeInsufficientStock, "Only %d of %s in stock.", p.StockQuantity, p.Name)
}
