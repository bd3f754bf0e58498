package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sokosnap/internal/cache"
	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/repository"
)

// CartOwner 购物车归属：登录买家按用户ID，游客按购物车令牌
type CartOwner struct {
	CustomerID string
	Token      string
}

// IsGuest 是否游客购物车
func (o CartOwner) IsGuest() bool {
	id := strings.TrimSpace(o.CustomerID)
	return id == "" || id == constants.GuestCustomerID
}

func (o CartOwner) storeKey() string {
	if !o.IsGuest() {
		return strings.TrimSpace(o.CustomerID)
	}
	token := strings.TrimSpace(o.Token)
	if token == "" {
		return ""
	}
	return constants.GuestCustomerID + ":" + token
}

// CartStore 购物车持久化接口
type CartStore interface {
	Load(ctx context.Context, owner CartOwner) ([]models.CartLine, error)
	Save(ctx context.Context, owner CartOwner, lines []models.CartLine) error
	Clear(ctx context.Context, owner CartOwner) error
}

// GormCartStore 数据库购物车存储
type GormCartStore struct {
	cartRepo repository.CartRepository
}

// NewGormCartStore 创建数据库购物车存储
func NewGormCartStore(cartRepo repository.CartRepository) *GormCartStore {
	return &GormCartStore{cartRepo: cartRepo}
}

// Load 读取购物车
func (s *GormCartStore) Load(ctx context.Context, owner CartOwner) ([]models.CartLine, error) {
	items, err := s.cartRepo.ListByCustomer(ctx, owner.storeKey())
	if err != nil {
		return nil, err
	}
	lines := make([]models.CartLine, 0, len(items))
	for _, item := range items {
		product := NormalizeProduct(models.ProductDocument{ID: item.ProductID, Data: item.ProductData})
		lines = append(lines, models.CartLine{
			Product:  product,
			Quantity: item.Quantity,
			AddedAt:  item.AddedAt,
		})
	}
	return lines, nil
}

// Save 覆盖写入购物车
func (s *GormCartStore) Save(ctx context.Context, owner CartOwner, lines []models.CartLine) error {
	items := make([]models.CartItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.CartItem{
			ProductID:   line.Product.ID,
			Quantity:    line.Quantity,
			ProductData: ProductToDocument(line.Product).Data,
			AddedAt:     line.AddedAt,
		})
	}
	return s.cartRepo.ReplaceForCustomer(ctx, owner.storeKey(), items)
}

// Clear 清空购物车
func (s *GormCartStore) Clear(ctx context.Context, owner CartOwner) error {
	return s.cartRepo.ClearByCustomer(ctx, owner.storeKey())
}

// RedisCartStore 游客购物车 Redis 存储
type RedisCartStore struct {
	ttl time.Duration
}

// NewRedisCartStore 创建游客购物车存储
func NewRedisCartStore(ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{ttl: ttl}
}

// Load 读取游客购物车
func (s *RedisCartStore) Load(ctx context.Context, owner CartOwner) ([]models.CartLine, error) {
	snapshot, hit, err := cache.GetGuestCart(ctx, owner.Token)
	if err != nil {
		return nil, err
	}
	if !hit || snapshot == nil {
		return []models.CartLine{}, nil
	}
	return snapshot.Lines, nil
}

// Save 写入游客购物车并续期
func (s *RedisCartStore) Save(ctx context.Context, owner CartOwner, lines []models.CartLine) error {
	return cache.SetGuestCart(ctx, &cache.GuestCartSnapshot{Token: owner.Token, Lines: lines}, s.ttl)
}

// Clear 删除游客购物车
func (s *RedisCartStore) Clear(ctx context.Context, owner CartOwner) error {
	return cache.DelGuestCart(ctx, owner.Token)
}

// CartView 购物车视图
type CartView struct {
	Lines  []models.CartLine `json:"lines"`
	Totals CartTotals        `json:"totals"`
}

// CartService 购物车服务
type CartService struct {
	productRepo repository.ProductRepository
	userStore   CartStore
	guestStore  CartStore
	maxItems    int
	deliveryFee models.Money
	lockMu      sync.Mutex
	locks       map[string]*ownerLock
}

// ownerLock 按归属串行化的锁，无人持有时从表中移除
type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// NewCartService 创建购物车服务
func NewCartService(productRepo repository.ProductRepository, userStore, guestStore CartStore, cartCfg config.CartConfig, checkoutCfg config.CheckoutConfig) *CartService {
	if guestStore == nil {
		guestStore = userStore
	}
	return &CartService{
		productRepo: productRepo,
		userStore:   userStore,
		guestStore:  guestStore,
		maxItems:    cartCfg.MaxItems,
		deliveryFee: models.NewMoney(checkoutCfg.CartDeliveryFee),
		locks:       make(map[string]*ownerLock),
	}
}

// Get 获取购物车
func (s *CartService) Get(ctx context.Context, owner CartOwner) (*CartView, error) {
	if owner.storeKey() == "" {
		return &CartView{Lines: []models.CartLine{}, Totals: NewCartLedger(s.maxItems, s.deliveryFee).Totals()}, nil
	}
	ledger, err := s.LoadLedger(ctx, owner)
	if err != nil {
		return nil, err
	}
	return buildCartView(ledger), nil
}

// AddItem 加入商品
func (s *CartService) AddItem(ctx context.Context, owner CartOwner, productID string, qty int) (*CartView, error) {
	product, err := lookupActiveProduct(ctx, s.productRepo, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProductFetchFailed, err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return s.mutate(ctx, owner, func(ledger *CartLedger) error {
		return ledger.AddItem(*product, qty)
	})
}

// UpdateQuantity 设置商品数量
func (s *CartService) UpdateQuantity(ctx context.Context, owner CartOwner, productID string, qty int) (*CartView, error) {
	return s.mutate(ctx, owner, func(ledger *CartLedger) error {
		return ledger.UpdateQuantity(productID, qty)
	})
}

// RemoveItem 移除商品
func (s *CartService) RemoveItem(ctx context.Context, owner CartOwner, productID string) (*CartView, error) {
	return s.mutate(ctx, owner, func(ledger *CartLedger) error {
		ledger.RemoveItem(productID)
		return nil
	})
}

// RemoveOrdered 结算成功后扣减已下单的数量，结算期间新加入的商品保留
func (s *CartService) RemoveOrdered(ctx context.Context, owner CartOwner, ordered []models.CartLine) error {
	_, err := s.mutate(ctx, owner, func(ledger *CartLedger) error {
		for _, line := range ordered {
			remaining := ledger.Quantity(line.Product.ID) - line.Quantity
			if remaining <= 0 {
				ledger.RemoveItem(line.Product.ID)
				continue
			}
			if err := ledger.UpdateQuantity(line.Product.ID, remaining); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, owner CartOwner) error {
	if owner.storeKey() == "" {
		return ErrCartTokenRequired
	}
	unlock := s.lockOwner(owner)
	defer unlock()
	if err := s.storeFor(owner).Clear(ctx, owner); err != nil {
		return fmt.Errorf("%w: %v", ErrCartSaveFailed, err)
	}
	return nil
}

// LoadLedger 读取购物车账本
func (s *CartService) LoadLedger(ctx context.Context, owner CartOwner) (*CartLedger, error) {
	if owner.storeKey() == "" {
		return nil, ErrCartTokenRequired
	}
	lines, err := s.storeFor(owner).Load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartLoadFailed, err)
	}
	return RestoreCartLedger(lines, s.maxItems, s.deliveryFee), nil
}

// mutate 读取账本、执行一次变更并写回，同一归属串行执行
func (s *CartService) mutate(ctx context.Context, owner CartOwner, apply func(ledger *CartLedger) error) (*CartView, error) {
	if owner.storeKey() == "" {
		return nil, ErrCartTokenRequired
	}
	unlock := s.lockOwner(owner)
	defer unlock()

	ledger, err := s.LoadLedger(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := apply(ledger); err != nil {
		return nil, err
	}
	if err := s.storeFor(owner).Save(ctx, owner, ledger.Lines()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartSaveFailed, err)
	}
	return buildCartView(ledger), nil
}

func (s *CartService) storeFor(owner CartOwner) CartStore {
	if owner.IsGuest() {
		return s.guestStore
	}
	return s.userStore
}

func (s *CartService) lockOwner(owner CartOwner) func() {
	key := owner.storeKey()
	s.lockMu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*ownerLock)
	}
	lock, ok := s.locks[key]
	if !ok {
		lock = &ownerLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.lockMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.lockMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.lockMu.Unlock()
	}
}

func buildCartView(ledger *CartLedger) *CartView {
	return &CartView{
		Lines:  ledger.Lines(),
		Totals: ledger.Totals(),
	}
}
