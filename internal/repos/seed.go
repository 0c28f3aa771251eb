package repos

import (
	"context"
	"fmt"

	"petshop/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// SeedAccount is a login created by Seed.
type SeedAccount struct {
	Email, FullName, Role, Password string
}

var DefaultAccounts = []SeedAccount{
	{Email: "admin@petshop.test", FullName: "Store Admin", Role: domain.RoleAdmin, Password: "admin123"},
	{Email: "alice@petshop.test", FullName: "Alice Nguyen", Role: domain.RoleCustomer, Password: "alice123"},
	{Email: "bob@petshop.test", FullName: "Bob Tran", Role: domain.RoleCustomer, Password: "bob1234"},
}

type seedPet struct {
	category         string
	name, breed      string
	age              int
	gender, color    string
	weight           string
	price, sale      string
	stock            int
	featured         bool
	vaccinated       bool
	description      string
	careInstructions string
}

var seedCategories = []domain.Category{
	{Name: "Dogs", Description: "Loyal, clever dog breeds", ImageURL: "/static/img/category.svg", DisplayOrder: 1, IsActive: true},
	{Name: "Cats", Description: "Cuddly and independent cats", ImageURL: "/static/img/category.svg", DisplayOrder: 2, IsActive: true},
	{Name: "Birds", Description: "Colourful songbirds", ImageURL: "/static/img/category.svg", DisplayOrder: 3, IsActive: true},
	{Name: "Hamsters", Description: "Small pets that are easy to keep", ImageURL: "/static/img/category.svg", DisplayOrder: 4, IsActive: true},
	{Name: "Rabbits", Description: "Gentle ornamental rabbits", ImageURL: "/static/img/category.svg", DisplayOrder: 5, IsActive: true},
	{Name: "Fish", Description: "Ornamental fish for your tank", ImageURL: "/static/img/category.svg", DisplayOrder: 6, IsActive: true},
}

var seedPets = []seedPet{
	{category: "Dogs", name: "Golden Retriever", breed: "Golden Retriever", age: 3, gender: "Male", color: "Gold", weight: "25.5",
		price: "1500", sale: "1200", stock: 5, featured: true, vaccinated: true,
		description: "Friendly, clever and easy to train. Great with children.", careInstructions: "Daily brushing and regular exercise."},
	{category: "Dogs", name: "Milo", breed: "Poodle", age: 4, gender: "Male", color: "Apricot", weight: "3.2",
		price: "800", stock: 3, featured: true, vaccinated: true,
		description: "Tiny toy poodle with a big personality.", careInstructions: "Groom every six weeks."},
	{category: "Dogs", name: "Husky Pup", breed: "Siberian Husky", age: 2, gender: "Female", color: "Grey/White", weight: "8",
		price: "1100", stock: 2, vaccinated: true,
		description: "Energetic husky puppy with blue eyes.", careInstructions: "Needs long daily walks."},
	{category: "Cats", name: "Luna", breed: "British Shorthair", age: 3, gender: "Female", color: "Blue", weight: "2.1",
		price: "900", sale: "850", stock: 4, featured: true, vaccinated: true,
		description: "Calm, round-faced and affectionate.", careInstructions: "Weekly brushing."},
	{category: "Cats", name: "Mochi", breed: "Scottish Fold", age: 5, gender: "Male", color: "Cream", weight: "2.8",
		price: "950", stock: 1, vaccinated: true,
		description: "Folded ears and a gentle temperament.", careInstructions: "Check ears weekly."},
	{category: "Birds", name: "Kiwi", breed: "Budgerigar", age: 6, gender: "Male", color: "Green", weight: "0.04",
		price: "35", stock: 12,
		description: "Chatty budgie that loves company.", careInstructions: "Fresh seed and water daily."},
	{category: "Hamsters", name: "Peanut", breed: "Syrian Hamster", age: 2, gender: "Female", color: "Golden", weight: "0.15",
		price: "20", stock: 10,
		description: "Curious and easy to handle.", careInstructions: "Provide a wheel and deep bedding."},
	{category: "Rabbits", name: "Clover", breed: "Holland Lop", age: 4, gender: "Female", color: "White", weight: "1.4",
		price: "120", sale: "99", stock: 3, featured: true,
		description: "Lop-eared bundle of calm.", careInstructions: "Unlimited hay and fresh greens."},
	{category: "Fish", name: "Betta Royale", breed: "Betta splendens", age: 8, gender: "Male", color: "Red/Blue", weight: "0.01",
		price: "15", stock: 20,
		description: "Long-finned betta with vivid colours.", careInstructions: "Heated tank, weekly water change."},
}

// Seed creates the default accounts, and the demo catalog when the catalog
// is empty. Safe to run on every start.
func Seed(ctx context.Context, db *sqlx.DB) error {
	return WithTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, a := range DefaultAccounts {
			h, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO users(id, email, full_name, password_hash, role, is_active)
				VALUES (?, ?, ?, ?, ?, 1)
				ON CONFLICT DO NOTHING
			`, uuid.NewString(), a.Email, a.FullName, string(h), a.Role); err != nil {
				return fmt.Errorf("seed user %s: %w", a.Email, err)
			}
		}

		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		cats := NewCategoryRepo(tx)
		ids := map[string]int64{}
		for _, c := range seedCategories {
			id, err := cats.Create(ctx, c)
			if err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
			ids[c.Name] = id
		}

		pets := NewPetRepo(tx)
		for _, sp := range seedPets {
			p := domain.Pet{
				CategoryID:       ids[sp.category],
				Name:             sp.name,
				Breed:            sp.breed,
				AgeMonths:        sp.age,
				Gender:           sp.gender,
				Color:            sp.color,
				Weight:           decimal.RequireFromString(sp.weight),
				Description:      sp.description,
				Price:            decimal.RequireFromString(sp.price),
				StockQuantity:    sp.stock,
				MainImageURL:     "/static/img/pet.svg",
				IsFeatured:       sp.featured,
				IsActive:         true,
				IsVaccinated:     sp.vaccinated,
				IsDewormed:       sp.vaccinated,
				HealthStatus:     "Healthy",
				CareInstructions: sp.careInstructions,
			}
			if sp.sale != "" {
				p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(sp.sale))
			}
			if _, err := pets.Create(ctx, p); err != nil {
				return fmt.Errorf("seed pet %s: %w", sp.name, err)
			}
		}
		return nil
	})
}
