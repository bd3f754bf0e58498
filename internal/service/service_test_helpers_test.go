package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

type seedProductInput struct {
	ID           string
	Name         string
	Price        int64
	SellerName   string
	SellerHandle string
	Slug         string
	Status       string
	Age          time.Duration
}

func seedProduct(t *testing.T, repo repository.ProductRepository, in seedProductInput) models.Product {
	t.Helper()
	createdAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC).Add(-in.Age)
	product := models.Product{
		ID:           in.ID,
		Name:         in.Name,
		Price:        models.NewMoney(in.Price),
		Currency:     "KES",
		MediaURL:     "https://cdn.example.com/" + in.ID + ".jpg",
		Type:         "image",
		SellerID:     "seller-" + in.SellerHandle,
		SellerName:   in.SellerName,
		SellerHandle: in.SellerHandle,
		Status:       in.Status,
		Slug:         in.Slug,
		CreatedAt:    createdAt,
	}
	if product.Status == "" {
		product.Status = "active"
	}
	doc := ProductToDocument(product)
	if err := repo.Create(context.Background(), &doc); err != nil {
		t.Fatalf("seed product %s failed: %v", in.ID, err)
	}
	return NormalizeProduct(doc)
}

func productIDs(products []models.Product) []string {
	ids := make([]string, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
	}
	return ids
}

func assertIDs(t *testing.T, products []models.Product, want ...string) {
	t.Helper()
	got := productIDs(products)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected ids: want %v got %v", want, got)
	}
}
