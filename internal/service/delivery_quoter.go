package service

import (
	"strings"
	"unicode/utf8"

	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/models"
)

const defaultMinLocationLength = 3

// Courier 配送方式
type Courier struct {
	Code  string       `json:"code"`
	Label string       `json:"label"`
	SLA   string       `json:"sla"`
	Price models.Money `json:"price"`
}

// DeliveryQuoter 配送费计算
type DeliveryQuoter struct {
	couriers          []Courier
	byCode            map[string]Courier
	minLocationLength int
}

// DefaultCouriers 内置配送方式
func DefaultCouriers() []config.CourierConfig {
	return []config.CourierConfig{
		{Code: "pickup", Label: "Pickup", Price: 0, SLA: "Collect from seller"},
		{Code: "standard", Label: "Standard", Price: 150, SLA: "Same day"},
		{Code: "express", Label: "Express", Price: 300, SLA: "Within 2 hours"},
	}
}

// NewDeliveryQuoter 创建配送费计算器
func NewDeliveryQuoter(cfg config.DeliveryConfig) *DeliveryQuoter {
	items := cfg.Couriers
	if len(items) == 0 {
		items = DefaultCouriers()
	}
	q := &DeliveryQuoter{
		byCode:            make(map[string]Courier, len(items)),
		minLocationLength: cfg.MinLocationLength,
	}
	if q.minLocationLength <= 0 {
		q.minLocationLength = defaultMinLocationLength
	}
	for _, item := range items {
		code := strings.ToLower(strings.TrimSpace(item.Code))
		if code == "" {
			continue
		}
		if _, exists := q.byCode[code]; exists {
			continue
		}
		price := item.Price
		if price < 0 {
			price = 0
		}
		courier := Courier{
			Code:  code,
			Label: item.Label,
			SLA:   item.SLA,
			Price: models.NewMoney(price),
		}
		q.byCode[code] = courier
		q.couriers = append(q.couriers, courier)
	}
	return q
}

// Couriers 返回可选配送方式
func (q *DeliveryQuoter) Couriers() []Courier {
	out := make([]Courier, len(q.couriers))
	copy(out, q.couriers)
	return out
}

// Courier 按编码获取配送方式
func (q *DeliveryQuoter) Courier(code string) (Courier, bool) {
	courier, ok := q.byCode[strings.ToLower(strings.TrimSpace(code))]
	return courier, ok
}

// Quote 计算配送费；未填写有效地址前不收取配送费
func (q *DeliveryQuoter) Quote(code, location string) (models.Money, error) {
	courier, ok := q.Courier(code)
	if !ok {
		return models.NewMoney(0), ErrCourierInvalid
	}
	if !q.HasLocation(location) {
		return models.NewMoney(0), nil
	}
	return courier.Price, nil
}

// HasLocation 地址长度是否超过计费阈值
func (q *DeliveryQuoter) HasLocation(location string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(location)) > q.minLocationLength
}
