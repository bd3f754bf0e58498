package service

import (
	"strings"
	"sync"
	"time"

	"github.com/sokosnap/internal/models"
)

const defaultCartMaxItems = 50

// CartTotals 购物车派生合计（每次读取时由当前行实时计算）
type CartTotals struct {
	ItemCount   int          `json:"item_count"`
	Subtotal    models.Money `json:"subtotal"`
	DeliveryFee models.Money `json:"delivery_fee"`
	Total       models.Money `json:"total"`
}

// CartLedger 购物车账本
// 所有变更都经由账本方法完成，同一商品最多一行
type CartLedger struct {
	mu          sync.Mutex
	lines       []models.CartLine
	index       map[string]int
	maxItems    int
	deliveryFee models.Money
	now         func() time.Time
}

// NewCartLedger 创建空账本
func NewCartLedger(maxItems int, deliveryFee models.Money) *CartLedger {
	if maxItems <= 0 {
		maxItems = defaultCartMaxItems
	}
	return &CartLedger{
		index:       make(map[string]int),
		maxItems:    maxItems,
		deliveryFee: deliveryFee,
		now:         time.Now,
	}
}

// RestoreCartLedger 从持久化快照恢复账本，重复行按商品合并
func RestoreCartLedger(lines []models.CartLine, maxItems int, deliveryFee models.Money) *CartLedger {
	ledger := NewCartLedger(maxItems, deliveryFee)
	for _, line := range lines {
		id := strings.TrimSpace(line.Product.ID)
		if id == "" || line.Quantity <= 0 {
			continue
		}
		if idx, ok := ledger.index[id]; ok {
			ledger.lines[idx].Quantity += line.Quantity
			continue
		}
		if line.AddedAt.IsZero() {
			line.AddedAt = ledger.now()
		}
		ledger.index[id] = len(ledger.lines)
		ledger.lines = append(ledger.lines, line)
	}
	return ledger
}

// AddItem 加入商品，已存在则累加数量；数量小于 1 时按 1 处理
func (l *CartLedger) AddItem(product models.Product, qty int) error {
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return ErrCartItemInvalid
	}
	if qty <= 0 {
		qty = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx, ok := l.index[id]; ok {
		line := l.lines[idx]
		line.Product = product
		line.Quantity += qty
		l.lines[idx] = line
		return nil
	}
	if len(l.lines) >= l.maxItems {
		return ErrCartFull
	}
	l.index[id] = len(l.lines)
	l.lines = append(l.lines, models.CartLine{
		Product:  product,
		Quantity: qty,
		AddedAt:  l.now(),
	})
	return nil
}

// RemoveItem 移除整行，返回是否存在
func (l *CartLedger) RemoveItem(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeLocked(strings.TrimSpace(id))
}

// UpdateQuantity 精确设置数量，小于等于 0 等同于移除
func (l *CartLedger) UpdateQuantity(id string, qty int) error {
	id = strings.TrimSpace(id)
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.index[id]
	if !ok {
		return ErrCartItemInvalid
	}
	if qty <= 0 {
		l.removeLocked(id)
		return nil
	}
	l.lines[idx].Quantity = qty
	return nil
}

// Clear 清空账本
func (l *CartLedger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	l.index = make(map[string]int)
}

// IsInCart 是否已在购物车
func (l *CartLedger) IsInCart(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.index[strings.TrimSpace(id)]
	return ok
}

// Quantity 获取商品数量，不存在为 0
func (l *CartLedger) Quantity(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx, ok := l.index[strings.TrimSpace(id)]; ok {
		return l.lines[idx].Quantity
	}
	return 0
}

// Lines 返回行项目副本
func (l *CartLedger) Lines() []models.CartLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.CartLine, len(l.lines))
	copy(out, l.lines)
	return out
}

// ItemCount 商品总件数
func (l *CartLedger) ItemCount() int {
	return l.Totals().ItemCount
}

// Subtotal 商品小计
func (l *CartLedger) Subtotal() models.Money {
	return l.Totals().Subtotal
}

// DeliveryFee 配送费，空购物车为 0
func (l *CartLedger) DeliveryFee() models.Money {
	return l.Totals().DeliveryFee
}

// Total 应付合计
func (l *CartLedger) Total() models.Money {
	return l.Totals().Total
}

// Totals 一次性计算全部派生合计
func (l *CartLedger) Totals() CartTotals {
	l.mu.Lock()
	defer l.mu.Unlock()
	totals := CartTotals{
		Subtotal:    models.NewMoney(0),
		DeliveryFee: models.NewMoney(0),
	}
	for _, line := range l.lines {
		totals.ItemCount += line.Quantity
		totals.Subtotal = totals.Subtotal.Plus(line.Product.Price.Times(line.Quantity))
	}
	if len(l.lines) > 0 {
		totals.DeliveryFee = l.deliveryFee
	}
	totals.Total = totals.Subtotal.Plus(totals.DeliveryFee)
	return totals
}

func (l *CartLedger) removeLocked(id string) bool {
	idx, ok := l.index[id]
	if !ok {
		return false
	}
	l.lines = append(l.lines[:idx], l.lines[idx+1:]...)
	delete(l.index, id)
	for i := idx; i < len(l.lines); i++ {
		l.index[l.lines[i].Product.ID] = i
	}
	return true
}
