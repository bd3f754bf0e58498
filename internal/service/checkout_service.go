package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/repository"

	"github.com/google/uuid"
)

// OrderCreator 下单接口（由订单服务实现）
type OrderCreator interface {
	CreateOrder(ctx context.Context, draft *OrderDraft) (*models.Order, string, error)
}

// Geocoder 逆地理编码接口
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// CoordinateGeocoder 将坐标格式化为可读文本
type CoordinateGeocoder struct{}

// ReverseGeocode 返回 "纬度, 经度 (GPS)" 形式的地址
func (CoordinateGeocoder) ReverseGeocode(_ context.Context, lat, lng float64) (string, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return "", ErrGeolocationUnavailable
	}
	if lat == 0 && lng == 0 {
		return "", ErrGeolocationUnavailable
	}
	return fmt.Sprintf("%.4f, %.4f (GPS)", lat, lng), nil
}

// OpenCheckoutInput 创建结算会话输入
type OpenCheckoutInput struct {
	CustomerID   string
	CustomerName string
	Phone        string
	CartToken    string
	ProductID    string
	Quantity     int
	FromCart     bool
	Courier      string
}

// EditCheckoutInput 编辑结算会话输入
type EditCheckoutInput struct {
	Phone    string
	Location string
	Courier  string
}

// GeolocationInput 定位输入
type GeolocationInput struct {
	Lat   *float64
	Lng   *float64
	Label string
}

type checkoutEntry struct {
	session   *CheckoutSession
	cartOwner CartOwner
}

// CheckoutService 结算会话服务
type CheckoutService struct {
	mu             sync.Mutex
	sessions       map[string]*checkoutEntry
	ttl            time.Duration
	defaultCourier string
	productRepo    repository.ProductRepository
	cartService    *CartService
	orders         OrderCreator
	quoter         *DeliveryQuoter
	geocoder       Geocoder
}

// NewCheckoutService 创建结算服务
func NewCheckoutService(productRepo repository.ProductRepository, cartService *CartService, orders OrderCreator, quoter *DeliveryQuoter, geocoder Geocoder, cfg config.CheckoutConfig) *CheckoutService {
	ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if geocoder == nil {
		geocoder = CoordinateGeocoder{}
	}
	defaultCourier := strings.TrimSpace(cfg.DefaultCourier)
	if _, ok := quoter.Courier(defaultCourier); !ok {
		if couriers := quoter.Couriers(); len(couriers) > 0 {
			defaultCourier = couriers[0].Code
		}
	}
	return &CheckoutService{
		sessions:       make(map[string]*checkoutEntry),
		ttl:            ttl,
		defaultCourier: defaultCourier,
		productRepo:    productRepo,
		cartService:    cartService,
		orders:         orders,
		quoter:         quoter,
		geocoder:       geocoder,
	}
}

// Open 创建结算会话：单品直购或购物车结算
func (s *CheckoutService) Open(ctx context.Context, input OpenCheckoutInput) (*CheckoutSession, error) {
	courier := strings.TrimSpace(input.Courier)
	if courier == "" {
		courier = s.defaultCourier
	}
	if _, ok := s.quoter.Courier(courier); !ok {
		return nil, ErrCourierInvalid
	}
	owner := CartOwner{CustomerID: input.CustomerID, Token: input.CartToken}

	var lines []models.CartLine
	if input.FromCart {
		if s.cartService == nil {
			return nil, ErrCheckoutEmpty
		}
		ledger, err := s.cartService.LoadLedger(ctx, owner)
		if err != nil {
			return nil, err
		}
		lines, err = s.resolveLines(ctx, ledger.Lines())
		if err != nil {
			return nil, err
		}
	} else {
		product, err := lookupActiveProduct(ctx, s.productRepo, input.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProductFetchFailed, err)
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		qty := input.Quantity
		if qty <= 0 {
			qty = 1
		}
		lines = []models.CartLine{{Product: *product, Quantity: qty, AddedAt: time.Now()}}
	}
	if len(lines) == 0 {
		return nil, ErrCheckoutEmpty
	}

	session := NewCheckoutSession(CheckoutSessionOptions{
		ID:           uuid.NewString(),
		CustomerID:   input.CustomerID,
		CustomerName: input.CustomerName,
		Phone:        strings.TrimSpace(input.Phone),
		Courier:      courier,
		FromCart:     input.FromCart,
		Lines:        lines,
	}, s.quoter)

	s.mu.Lock()
	s.sessions[session.ID()] = &checkoutEntry{session: session, cartOwner: owner}
	s.mu.Unlock()
	return session, nil
}

// Get 获取会话；登录买家的会话只允许本人访问
func (s *CheckoutService) Get(id, customerID string) (*CheckoutSession, error) {
	entry, err := s.entry(id, customerID)
	if err != nil {
		return nil, err
	}
	return entry.session, nil
}

// Edit 编辑手机号、地址与配送方式
func (s *CheckoutService) Edit(id, customerID string, input EditCheckoutInput) (EditResult, error) {
	session, err := s.Get(id, customerID)
	if err != nil {
		return EditResult{}, err
	}
	if courier := strings.TrimSpace(input.Courier); courier != "" {
		if err := session.SetCourier(courier); err != nil {
			return EditResult{State: session.State()}, err
		}
	}
	return session.Edit(input.Phone, input.Location)
}

// ApplyGeolocation 用定位结果填充空地址，定位失败时保持手动输入
func (s *CheckoutService) ApplyGeolocation(ctx context.Context, id, customerID string, input GeolocationInput) (EditResult, bool, error) {
	session, err := s.Get(id, customerID)
	if err != nil {
		return EditResult{}, false, err
	}
	label := strings.TrimSpace(input.Label)
	if label == "" && input.Lat != nil && input.Lng != nil {
		resolved, geoErr := s.geocoder.ReverseGeocode(ctx, *input.Lat, *input.Lng)
		if geoErr != nil {
			logger.Infow("checkout_geolocation_unavailable", "session_id", id, "error", geoErr)
		} else {
			label = resolved
		}
	}
	return session.ApplyGeolocation(label)
}

// Submit 提交订单
// 下单写入不受请求取消影响，客户端断开后结果仍会写回会话
func (s *CheckoutService) Submit(ctx context.Context, id, customerID string) (CheckoutView, error) {
	entry, err := s.entry(id, customerID)
	if err != nil {
		return CheckoutView{}, err
	}
	session := entry.session
	if _, err := s.resolveLines(ctx, session.Lines()); err != nil {
		logger.Infow("checkout_submit_product_unavailable", "session_id", id, "error", err)
		return session.View(), err
	}
	draft, err := session.BeginSubmit()
	if err != nil {
		return session.View(), err
	}

	writeCtx := context.WithoutCancel(ctx)
	order, releaseCode, createErr := s.orders.CreateOrder(writeCtx, draft)
	state := session.Complete(order, releaseCode, createErr)
	if state != CheckoutStateConfirmed {
		logger.Warnw("checkout_submit_failed",
			"session_id", id,
			"customer_id", draft.CustomerID,
			"error", createErr,
		)
		if createErr == nil {
			createErr = ErrOrderCreateFailed
		}
		return session.View(), createErr
	}

	if draft.FromCart && s.cartService != nil {
		if err := s.cartService.RemoveOrdered(writeCtx, entry.cartOwner, draft.Lines); err != nil {
			logger.Warnw("checkout_cart_remove_failed", "session_id", id, "error", err)
		}
	}
	logger.Infow("checkout_confirmed",
		"session_id", id,
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"total", order.Total.String(),
	)
	if session.Closed() {
		s.remove(id)
	}
	return session.View(), nil
}

// Close 关闭会话；提交中的会话保留到结果写回后由过期清理回收
func (s *CheckoutService) Close(id, customerID string) error {
	session, err := s.Get(id, customerID)
	if err != nil {
		return err
	}
	session.Close()
	if !session.Submitting() {
		s.remove(id)
	}
	return nil
}

// EvictExpired 清理空闲超时的会话，返回清理数量
func (s *CheckoutService) EvictExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, entry := range s.sessions {
		if entry.session.Submitting() {
			continue
		}
		if now.Sub(entry.session.IdleSince()) > s.ttl {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// ActiveSessions 当前会话数量
func (s *CheckoutService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Couriers 配送方式列表
func (s *CheckoutService) Couriers() []Courier {
	return s.quoter.Couriers()
}

func (s *CheckoutService) entry(id, customerID string) (*checkoutEntry, error) {
	s.mu.Lock()
	entry, ok := s.sessions[strings.TrimSpace(id)]
	s.mu.Unlock()
	if !ok {
		return nil, ErrCheckoutSessionNotFound
	}
	owner := entry.session.CustomerID()
	if owner != constants.GuestCustomerID && owner != strings.TrimSpace(customerID) {
		return nil, ErrCheckoutSessionNotFound
	}
	return entry, nil
}

// resolveLines 按商品库重新解析行项目：下架或不存在的商品拒绝结算，价格以当前商品为准
func (s *CheckoutService) resolveLines(ctx context.Context, lines []models.CartLine) ([]models.CartLine, error) {
	resolved := make([]models.CartLine, 0, len(lines))
	for _, line := range lines {
		product, err := lookupActiveProduct(ctx, s.productRepo, line.Product.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProductFetchFailed, err)
		}
		if product == nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.Product.ID)
		}
		line.Product = *product
		resolved = append(resolved, line)
	}
	return resolved, nil
}

func (s *CheckoutService) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
