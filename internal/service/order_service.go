package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/queue"
	"github.com/sokosnap/internal/repository"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultOrderMinAmount = 10
	defaultOrderMaxAmount = 150000
	orderHistoryPageSize  = 50
	escrowRefLength       = 8
	escrowRefAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo     repository.OrderRepository
	queueClient   *queue.Client
	currency      string
	minAmount     models.Money
	maxAmount     models.Money
	escrowTimeout time.Duration
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, queueClient *queue.Client, cfg config.OrderConfig) *OrderService {
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = constants.CurrencyKES
	}
	minAmount := cfg.MinAmount
	if minAmount <= 0 {
		minAmount = defaultOrderMinAmount
	}
	maxAmount := cfg.MaxAmount
	if maxAmount <= 0 {
		maxAmount = defaultOrderMaxAmount
	}
	return &OrderService{
		orderRepo:     orderRepo,
		queueClient:   queueClient,
		currency:      currency,
		minAmount:     models.NewMoney(minAmount),
		maxAmount:     models.NewMoney(maxAmount),
		escrowTimeout: time.Duration(cfg.EscrowTimeoutMinutes) * time.Minute,
	}
}

// CreateOrder 根据结算草稿创建待处理订单，返回订单与一次性取件码
func (s *OrderService) CreateOrder(ctx context.Context, draft *OrderDraft) (*models.Order, string, error) {
	if draft == nil || len(draft.Lines) == 0 {
		return nil, "", ErrInvalidOrderItem
	}
	if msg := ValidatePhone(draft.Phone); msg != "" {
		return nil, "", ErrCheckoutInvalid
	}
	if msg := ValidateLocation(draft.Location); msg != "" {
		return nil, "", ErrCheckoutInvalid
	}

	items, amount, err := buildOrderItems(draft.Lines)
	if err != nil {
		return nil, "", err
	}
	if !amount.Equal(draft.Amount) {
		return nil, "", ErrOrderTotalMismatch
	}
	total := amount.Plus(draft.DeliveryFee)
	if !draft.Total.IsZero() && !total.Equal(draft.Total) {
		return nil, "", ErrOrderTotalMismatch
	}
	if total.LessThan(s.minAmount.Decimal) || total.GreaterThan(s.maxAmount.Decimal) {
		return nil, "", ErrInvalidOrderAmount
	}

	releaseCode := generateReleaseCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(releaseCode), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
	}

	customerID := strings.TrimSpace(draft.CustomerID)
	if customerID == "" {
		customerID = constants.GuestCustomerID
	}
	order := &models.Order{
		ID:               newRecordID(),
		OrderNo:          generateOrderNo(),
		CustomerID:       customerID,
		CustomerName:     draft.CustomerName,
		CustomerPhone:    NormalizePhone(draft.Phone),
		SellerID:         resolveOrderSeller(items),
		Amount:           amount,
		DeliveryFee:      draft.DeliveryFee,
		Total:            total,
		Currency:         s.currency,
		Courier:          draft.Courier,
		DeliveryLocation: strings.TrimSpace(draft.Location),
		Status:           constants.OrderStatusPending,
		ReleaseCodeHash:  string(hash),
		FromCart:         draft.FromCart,
	}
	if err := verifyOrderTotals(order); err != nil {
		return nil, "", err
	}
	if err := s.orderRepo.Create(ctx, order, items); err != nil {
		logger.Errorw("order_create_failed",
			"customer_id", customerID,
			"total", total.String(),
			"error", err,
		)
		return nil, "", fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
	}

	if s.escrowTimeout > 0 {
		if err := s.queueClient.EnqueueOrderEscrowTimeout(ctx, queue.OrderEscrowTimeoutPayload{
			OrderID: order.ID,
		}, s.escrowTimeout); err != nil {
			logger.Errorw("order_enqueue_escrow_timeout_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
		}
	}
	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"customer_id", customerID,
		"total", total.String(),
	)
	return order, releaseCode, nil
}

// GetOrderForCustomer 获取买家本人的订单
func (s *OrderService) GetOrderForCustomer(ctx context.Context, id, customerID string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != strings.TrimSpace(customerID) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrder 获取订单详情
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := verifyOrderTotals(order); err != nil {
		logger.Errorw("order_total_drift",
			"order_id", order.ID,
			"amount", order.Amount.String(),
			"delivery_fee", order.DeliveryFee.String(),
			"total", order.Total.String(),
		)
	}
	return order, nil
}

// ListOrderHistory 按分组获取买家订单历史；读取失败返回空列表并记录原因
func (s *OrderService) ListOrderHistory(ctx context.Context, customerID string, phase constants.OrderPhase) []models.Order {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" || customerID == constants.GuestCustomerID {
		return []models.Order{}
	}
	filter := repository.OrderListFilter{
		Page:       1,
		PageSize:   orderHistoryPageSize,
		CustomerID: customerID,
		Statuses:   statusesForPhase(phase),
	}
	orders, _, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		logger.Warnw("order_history_fetch_failed",
			"customer_id", customerID,
			"phase", string(phase),
			"error", err,
		)
		return []models.Order{}
	}
	for i := range orders {
		if err := verifyOrderTotals(&orders[i]); err != nil {
			logger.Errorw("order_total_drift",
				"order_id", orders[i].ID,
				"amount", orders[i].Amount.String(),
				"delivery_fee", orders[i].DeliveryFee.String(),
				"total", orders[i].Total.String(),
			)
		}
	}
	return orders
}

// CancelExpiredOrder 托管超时：订单仍为待处理时取消
func (s *OrderService) CancelExpiredOrder(ctx context.Context, orderID string) (bool, error) {
	now := time.Now()
	applied, err := s.orderRepo.TransitionStatus(ctx, orderID, constants.OrderStatusPending, constants.OrderStatusCancelled, map[string]interface{}{
		"cancelled_at": now,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	if applied {
		logger.Infow("order_escrow_timeout_cancelled", "order_id", orderID)
	}
	return applied, nil
}

// SweepExpiredPending 扫描并取消超时未托管的订单，返回取消数量
func (s *OrderService) SweepExpiredPending(ctx context.Context, now time.Time, limit int) (int, error) {
	if s.escrowTimeout <= 0 {
		return 0, nil
	}
	orders, err := s.orderRepo.ListStalePending(ctx, now.Add(-s.escrowTimeout), limit)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	cancelled := 0
	for _, order := range orders {
		applied, err := s.CancelExpiredOrder(ctx, order.ID)
		if err != nil {
			logger.Warnw("order_escrow_sweep_failed", "order_id", order.ID, "error", err)
			continue
		}
		if applied {
			cancelled++
		}
	}
	return cancelled, nil
}

func statusesForPhase(phase constants.OrderPhase) []constants.OrderStatus {
	if phase == "" {
		return nil
	}
	statuses := make([]constants.OrderStatus, 0, len(constants.AllOrderStatuses))
	for _, status := range constants.AllOrderStatuses {
		if status.Phase() == phase {
			statuses = append(statuses, status)
		}
	}
	return statuses
}

func buildOrderItems(lines []models.CartLine) ([]models.OrderItem, models.Money, error) {
	items := make([]models.OrderItem, 0, len(lines))
	amount := models.NewMoney(0)
	for _, line := range lines {
		if strings.TrimSpace(line.Product.ID) == "" || line.Quantity <= 0 {
			return nil, models.Money{}, ErrInvalidOrderItem
		}
		if line.Product.Price.IsNegative() {
			return nil, models.Money{}, ErrInvalidOrderItem
		}
		lineTotal := line.Product.Price.Times(line.Quantity)
		amount = amount.Plus(lineTotal)
		items = append(items, models.OrderItem{
			ProductID: line.Product.ID,
			SellerID:  line.Product.SellerID,
			Name:      line.Product.Name,
			MediaURL:  line.Product.MediaURL,
			UnitPrice: line.Product.Price,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
		})
	}
	return items, amount, nil
}

// resolveOrderSeller 单一卖家时记录卖家ID，多卖家购物车留空
func resolveOrderSeller(items []models.OrderItem) string {
	seller := ""
	for i, item := range items {
		if i == 0 {
			seller = item.SellerID
			continue
		}
		if item.SellerID != seller {
			return ""
		}
	}
	return seller
}

// verifyOrderTotals 校验 total = amount + delivery_fee
func verifyOrderTotals(order *models.Order) error {
	if order == nil {
		return ErrOrderNotFound
	}
	if !order.Amount.Plus(order.DeliveryFee).Equal(order.Total) {
		return ErrOrderTotalMismatch
	}
	return nil
}

func verifyReleaseCode(order *models.Order, code string) error {
	code = strings.TrimSpace(code)
	if order == nil || order.ReleaseCodeHash == "" || code == "" {
		return ErrReleaseCodeInvalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(order.ReleaseCodeHash), []byte(code)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrReleaseCodeInvalid
		}
		return fmt.Errorf("%w: %v", ErrReleaseCodeInvalid, err)
	}
	return nil
}

func newRecordID() string {
	return ulid.Make().String()
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart := randNumeric(6)
	return fmt.Sprintf("%s%s%s", constants.OrderNoPrefix, now, randPart)
}

// generateReleaseCode 0000-9999 均匀分布的取件码
func generateReleaseCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return randNumeric(constants.ReleaseCodeDigits)
	}
	return fmt.Sprintf("%0*d", constants.ReleaseCodeDigits, n.Int64())
}

func generateEscrowRef() string {
	var b strings.Builder
	b.WriteString(constants.EscrowRefPrefix)
	limit := big.NewInt(int64(len(escrowRefAlphabet)))
	for i := 0; i < escrowRefLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			b.WriteByte(escrowRefAlphabet[0])
			continue
		}
		b.WriteByte(escrowRefAlphabet[n.Int64()])
	}
	return b.String()
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
