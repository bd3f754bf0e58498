package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/repository"
)

func setupCartServiceTest(t *testing.T) (*CartService, *repository.GormProductRepository) {
	t.Helper()
	db := openServiceTestDB(t)
	productRepo := repository.NewProductRepository(db)
	store := NewGormCartStore(repository.NewCartRepository(db))
	svc := NewCartService(productRepo, store, nil, config.CartConfig{MaxItems: 50}, config.CheckoutConfig{CartDeliveryFee: 150})
	return svc, productRepo
}

func TestCartServicePersistsAcrossReload(t *testing.T) {
	svc, repo := setupCartServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "a", Name: "Sandals", Price: 100})
	seedProduct(t, repo, seedProductInput{ID: "b", Name: "Beads", Price: 50, Slug: "beads"})
	ctx := context.Background()
	owner := CartOwner{CustomerID: "u1"}

	if _, err := svc.AddItem(ctx, owner, "a", 1); err != nil {
		t.Fatalf("add a failed: %v", err)
	}
	if _, err := svc.AddItem(ctx, owner, "a", 1); err != nil {
		t.Fatalf("add a again failed: %v", err)
	}
	view, err := svc.AddItem(ctx, owner, "beads", 1)
	if err != nil {
		t.Fatalf("add by slug failed: %v", err)
	}
	if len(view.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(view.Lines))
	}
	if view.Totals.Subtotal.Int64() != 250 || view.Totals.Total.Int64() != 400 {
		t.Fatalf("unexpected totals: %+v", view.Totals)
	}

	reloaded, err := svc.Get(ctx, owner)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(reloaded.Lines) != 2 || reloaded.Lines[0].Product.ID != "a" || reloaded.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected reloaded lines: %+v", reloaded.Lines)
	}
	if reloaded.Lines[0].AddedAt.IsZero() || time.Since(reloaded.Lines[0].AddedAt) > time.Hour {
		t.Fatalf("added_at should reload as a recent timestamp, got %v", reloaded.Lines[0].AddedAt)
	}
	if reloaded.Lines[1].Product.Name != "Beads" || reloaded.Lines[1].Product.Price.Int64() != 50 {
		t.Fatalf("product snapshot lost on reload: %+v", reloaded.Lines[1].Product)
	}
}

func TestCartServiceGuestCartsAreIsolated(t *testing.T) {
	svc, repo := setupCartServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "a", Price: 100})
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, CartOwner{Token: "tok-1"}, "a", 2); err != nil {
		t.Fatalf("guest add failed: %v", err)
	}
	other, err := svc.Get(ctx, CartOwner{Token: "tok-2"})
	if err != nil {
		t.Fatalf("get other guest failed: %v", err)
	}
	if len(other.Lines) != 0 || other.Totals.DeliveryFee.Int64() != 0 {
		t.Fatalf("other guest cart should be empty: %+v", other)
	}
	if _, err := svc.AddItem(ctx, CartOwner{}, "a", 1); !errors.Is(err, ErrCartTokenRequired) {
		t.Fatalf("expected token required, got %v", err)
	}
}

func TestCartServiceRejectsArchivedAndMissingProducts(t *testing.T) {
	svc, repo := setupCartServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "old", Price: 100, Status: "archived"})
	owner := CartOwner{CustomerID: "u1"}

	if _, err := svc.AddItem(context.Background(), owner, "old", 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected product not found for archived product, got %v", err)
	}
	if _, err := svc.AddItem(context.Background(), owner, "nope", 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
}

func TestCartServiceUpdateRemoveAndClear(t *testing.T) {
	svc, repo := setupCartServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "a", Price: 100})
	seedProduct(t, repo, seedProductInput{ID: "b", Price: 20})
	ctx := context.Background()
	owner := CartOwner{CustomerID: "u1"}
	_, _ = svc.AddItem(ctx, owner, "a", 1)
	_, _ = svc.AddItem(ctx, owner, "b", 1)

	view, err := svc.UpdateQuantity(ctx, owner, "a", 4)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if view.Totals.ItemCount != 5 {
		t.Fatalf("unexpected item count: %d", view.Totals.ItemCount)
	}
	view, err = svc.RemoveItem(ctx, owner, "a")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Product.ID != "b" {
		t.Fatalf("unexpected lines after remove: %+v", view.Lines)
	}
	if _, err := svc.UpdateQuantity(ctx, owner, "a", 1); !errors.Is(err, ErrCartItemInvalid) {
		t.Fatalf("expected invalid item after removal, got %v", err)
	}
	if err := svc.Clear(ctx, owner); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	view, _ = svc.Get(ctx, owner)
	if len(view.Lines) != 0 || view.Totals.Total.Int64() != 0 {
		t.Fatalf("cart should be empty after clear: %+v", view)
	}
}

func TestCartServiceOwnerLocksArePruned(t *testing.T) {
	svc, repo := setupCartServiceTest(t)
	seedProduct(t, repo, seedProductInput{ID: "a", Price: 100})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.AddItem(ctx, CartOwner{Token: fmt.Sprintf("tok-%d", i%4)}, "a", 1)
		}(i)
	}
	wg.Wait()

	svc.lockMu.Lock()
	held := len(svc.locks)
	svc.lockMu.Unlock()
	if held != 0 {
		t.Fatalf("owner locks should be released after use, %d left", held)
	}

	if _, err := svc.AddItem(ctx, CartOwner{Token: "tok-9"}, "a", 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.RemoveItem(ctx, CartOwner{Token: "tok-9"}, "a"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	svc.lockMu.Lock()
	held = len(svc.locks)
	svc.lockMu.Unlock()
	if held != 0 {
		t.Fatalf("sequential use should leave no locks, %d left", held)
	}
}
