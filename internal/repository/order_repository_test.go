package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/models"
)

func createTestOrder(t *testing.T, repo *GormOrderRepository, id, customerID string, status constants.OrderStatus) {
	t.Helper()
	order := &models.Order{
		ID:               id,
		OrderNo:          "SS" + id,
		CustomerID:       customerID,
		CustomerPhone:    "0712345678",
		Amount:           models.NewMoney(100),
		DeliveryFee:      models.NewMoney(150),
		Total:            models.NewMoney(250),
		Currency:         constants.CurrencyKES,
		DeliveryLocation: "Westlands",
		Status:           status,
	}
	items := []models.OrderItem{{ProductID: "p1", Name: "Mug", UnitPrice: models.NewMoney(100), Quantity: 1, LineTotal: models.NewMoney(100)}}
	if err := repo.Create(context.Background(), order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
}

func TestOrderRepositoryCreateAndGet(t *testing.T) {
	repo := NewOrderRepository(openRepositoryTestDB(t))
	createTestOrder(t, repo, "o1", "u1", constants.OrderStatusPending)

	order, err := repo.GetByID(context.Background(), "o1")
	if err != nil || order == nil {
		t.Fatalf("get order failed: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].OrderID != "o1" {
		t.Fatalf("unexpected items: %+v", order.Items)
	}
	if order.Total.Int64() != 250 {
		t.Fatalf("unexpected total: %s", order.Total.String())
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("unexpected status: %s", order.Status)
	}
}

func TestOrderRepositoryListFiltersByCustomerAndStatus(t *testing.T) {
	repo := NewOrderRepository(openRepositoryTestDB(t))
	createTestOrder(t, repo, "o1", "u1", constants.OrderStatusPending)
	createTestOrder(t, repo, "o2", "u1", constants.OrderStatusCompleted)
	createTestOrder(t, repo, "o3", "u2", constants.OrderStatusPending)

	orders, total, err := repo.List(context.Background(), OrderListFilter{
		CustomerID: "u1",
		Statuses:   []constants.OrderStatus{constants.OrderStatusPending, constants.OrderStatusInTransit},
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].ID != "o1" {
		t.Fatalf("unexpected list result: total=%d orders=%+v", total, orders)
	}
}

func TestOrderRepositoryTransitionStatusCompareAndSet(t *testing.T) {
	repo := NewOrderRepository(openRepositoryTestDB(t))
	createTestOrder(t, repo, "o1", "u1", constants.OrderStatusPending)

	ok, err := repo.TransitionStatus(context.Background(), "o1", constants.OrderStatusPending, constants.OrderStatusEscrowHeld, nil)
	if err != nil || !ok {
		t.Fatalf("expected transition to apply, ok=%v err=%v", ok, err)
	}
	ok, err = repo.TransitionStatus(context.Background(), "o1", constants.OrderStatusPending, constants.OrderStatusCancelled, nil)
	if err != nil {
		t.Fatalf("stale transition errored: %v", err)
	}
	if ok {
		t.Fatalf("stale transition must not apply")
	}
	order, _ := repo.GetByID(context.Background(), "o1")
	if order.Status != constants.OrderStatusEscrowHeld {
		t.Fatalf("unexpected status: %s", order.Status)
	}
}

func TestOrderRepositoryListStalePending(t *testing.T) {
	db := openRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	createTestOrder(t, repo, "o1", "u1", constants.OrderStatusPending)
	createTestOrder(t, repo, "o2", "u1", constants.OrderStatusEscrowHeld)
	old := time.Now().Add(-2 * time.Hour)
	if err := db.Model(&models.Order{}).Where("id IN ?", []string{"o1", "o2"}).Update("created_at", old).Error; err != nil {
		t.Fatalf("backdate failed: %v", err)
	}
	createTestOrder(t, repo, "o3", "u1", constants.OrderStatusPending)

	orders, err := repo.ListStalePending(context.Background(), time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("list stale failed: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "o1" {
		t.Fatalf("expected only o1, got %+v", orders)
	}
}
