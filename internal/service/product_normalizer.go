package service

import (
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/models"

	"github.com/shopspring/decimal"
)

var (
	slugInvalidCharsRe = regexp.MustCompile(`[^a-z0-9]+`)
	phoneSeparatorRe   = regexp.MustCompile(`[\s-]+`)
)

// 文档字段名（含旧版字段）
const (
	docKeyID           = "id"
	docKeyName         = "name"
	docKeyDescription  = "description"
	docKeyPrice        = "price"
	docKeyCurrency     = "currency"
	docKeyMediaURL     = "mediaUrl"
	docKeyLegacyImg    = "img"
	docKeyType         = "type"
	docKeySellerID     = "sellerId"
	docKeySellerName   = "sellerName"
	docKeySellerHandle = "sellerHandle"
	docKeySellerAvatar = "sellerAvatar"
	docKeyLegacyAvatar = "sellerImg"
	docKeyStatus       = "status"
	docKeySlug         = "slug"
	docKeyLikes        = "likes"
	docKeyComments     = "comments"
	docKeyCreatedAt    = "createdAt"
)

// NormalizeProduct 将存储文档（可能使用旧字段名）转换为规范商品记录
// 缺失或无法解析的字段回落为安全默认值，不返回错误
func NormalizeProduct(doc models.ProductDocument) models.Product {
	data := doc.Data
	if data == nil {
		data = models.JSON{}
	}

	product := models.Product{
		ID:           strings.TrimSpace(doc.ID),
		Name:         docString(data, docKeyName),
		Description:  docString(data, docKeyDescription),
		Price:        parseAmount(data[docKeyPrice]),
		Currency:     strings.ToUpper(docString(data, docKeyCurrency)),
		MediaURL:     docString(data, docKeyMediaURL, docKeyLegacyImg),
		SellerID:     docString(data, docKeySellerID),
		SellerName:   docString(data, docKeySellerName),
		SellerHandle: docString(data, docKeySellerHandle),
		SellerAvatar: docString(data, docKeySellerAvatar, docKeyLegacyAvatar),
		Likes:        parseCount(data[docKeyLikes]),
		Comments:     parseCount(data[docKeyComments]),
	}
	if product.ID == "" {
		product.ID = docString(data, docKeyID)
	}
	if product.Currency == "" {
		product.Currency = constants.CurrencyKES
	}
	if product.SellerID == "" {
		product.SellerID = strings.TrimSpace(doc.SellerID)
	}
	product.Type = normalizeMediaType(docString(data, docKeyType), product.MediaURL)

	product.Status = strings.ToLower(strings.TrimSpace(doc.Status))
	if product.Status == "" {
		product.Status = strings.ToLower(docString(data, docKeyStatus))
	}
	if product.Status == "" {
		product.Status = constants.ProductStatusActive
	}

	if doc.Slug != nil {
		product.Slug = strings.TrimSpace(*doc.Slug)
	}
	if product.Slug == "" {
		product.Slug = docString(data, docKeySlug)
	}

	if createdAt, ok := parseDocTime(data[docKeyCreatedAt]); ok {
		product.CreatedAt = createdAt
	} else if !doc.CreatedAt.IsZero() {
		product.CreatedAt = doc.CreatedAt.UTC()
	}
	return product
}

// NormalizeProducts 批量规范化
func NormalizeProducts(docs []models.ProductDocument) []models.Product {
	products := make([]models.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, NormalizeProduct(doc))
	}
	return products
}

// ProductToDocument 将规范商品写回为规范字段名的文档
func ProductToDocument(product models.Product) models.ProductDocument {
	data := models.JSON{
		docKeyID:           product.ID,
		docKeyName:         product.Name,
		docKeyDescription:  product.Description,
		docKeyPrice:        product.Price.Int64(),
		docKeyCurrency:     product.Currency,
		docKeyMediaURL:     product.MediaURL,
		docKeyType:         product.Type,
		docKeySellerID:     product.SellerID,
		docKeySellerName:   product.SellerName,
		docKeySellerHandle: product.SellerHandle,
		docKeyStatus:       product.Status,
		docKeyLikes:        product.Likes,
		docKeyComments:     product.Comments,
	}
	if product.SellerAvatar != "" {
		data[docKeySellerAvatar] = product.SellerAvatar
	}
	if !product.CreatedAt.IsZero() {
		data[docKeyCreatedAt] = product.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	doc := models.ProductDocument{
		ID:        product.ID,
		Status:    product.Status,
		SellerID:  product.SellerID,
		Data:      data,
		CreatedAt: product.CreatedAt,
	}
	if product.Slug != "" {
		slug := product.Slug
		doc.Slug = &slug
		data[docKeySlug] = slug
	}
	return doc
}

func docString(data models.JSON, keys ...string) string {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok || raw == nil {
			continue
		}
		var value string
		switch v := raw.(type) {
		case string:
			value = v
		case float64:
			value = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			value = strconv.Itoa(v)
		case int64:
			value = strconv.FormatInt(v, 10)
		case json.Number:
			value = v.String()
		}
		value = strings.TrimSpace(value)
		if value != "" {
			return value
		}
	}
	return ""
}

// normalizeMediaType 显式类型优先，否则按媒体地址后缀推断
func normalizeMediaType(raw, mediaURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case constants.MediaTypeImage:
		return constants.MediaTypeImage
	case constants.MediaTypeVideo:
		return constants.MediaTypeVideo
	}
	return inferMediaType(mediaURL)
}

func inferMediaType(mediaURL string) string {
	path := strings.TrimSpace(mediaURL)
	if parsed, err := url.Parse(path); err == nil {
		path = parsed.Path
	} else if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	if strings.HasSuffix(strings.ToLower(path), ".mp4") {
		return constants.MediaTypeVideo
	}
	return constants.MediaTypeImage
}

// parseCount 解析计数：数字、数字字符串、"12.4k"/"1.2M" 简写，负数与非法值为 0
func parseCount(raw interface{}) int64 {
	value, ok := parseCompactNumber(raw)
	if !ok || value.IsNegative() {
		return 0
	}
	return value.IntPart()
}

// parseAmount 解析价格，兼容带币种前缀与千分位的字符串
func parseAmount(raw interface{}) models.Money {
	value, ok := parseCompactNumber(raw)
	if !ok || value.IsNegative() {
		return models.NewMoney(0)
	}
	return models.NewMoneyFromDecimal(value)
}

func parseCompactNumber(raw interface{}) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		return parseCompactNumber(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case int32:
		return decimal.NewFromInt(int64(v)), true
	case json.Number:
		return parseCompactString(v.String())
	case string:
		return parseCompactString(v)
	}
	return decimal.Zero, false
}

func parseCompactString(raw string) (decimal.Decimal, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, prefix := range []string{"kshs", "ksh", "kes"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}
	s = strings.TrimSpace(strings.NewReplacer(",", "", " ", "").Replace(s))
	if s == "" {
		return decimal.Zero, false
	}
	multiplier := decimal.NewFromInt(1)
	switch s[len(s)-1] {
	case 'k':
		multiplier = decimal.NewFromInt(1_000)
		s = s[:len(s)-1]
	case 'm':
		multiplier = decimal.NewFromInt(1_000_000)
		s = s[:len(s)-1]
	case 'b':
		multiplier = decimal.NewFromInt(1_000_000_000)
		s = s[:len(s)-1]
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return value.Mul(multiplier), true
}

// parseDocTime 支持 RFC3339 字符串、Unix 秒/毫秒与 {seconds,nanoseconds} 时间戳对象
func parseDocTime(raw interface{}) (time.Time, bool) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC(), true
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return unixToTime(n)
		}
	case float64:
		return unixToTime(int64(v))
	case int64:
		return unixToTime(v)
	case int:
		return unixToTime(int64(v))
	case map[string]interface{}:
		seconds, ok := parseCompactNumber(firstPresent(v, "seconds", "_seconds"))
		if !ok {
			return time.Time{}, false
		}
		nanos, _ := parseCompactNumber(firstPresent(v, "nanoseconds", "_nanoseconds"))
		return time.Unix(seconds.IntPart(), nanos.IntPart()).UTC(), true
	}
	return time.Time{}, false
}

func firstPresent(m map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return nil
}

func unixToTime(n int64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	// 13 位视为毫秒
	if n >= 1_000_000_000_000 {
		return time.UnixMilli(n).UTC(), true
	}
	return time.Unix(n, 0).UTC(), true
}

// Slugify 将名称转换为 URL 友好的 slug
func Slugify(name string) string {
	slug := slugInvalidCharsRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}

// NormalizePhone 手机号归一为本地 07/01 格式，无法识别时仅去除分隔符
func NormalizePhone(phone string) string {
	stripped := phoneSeparatorRe.ReplaceAllString(strings.TrimSpace(phone), "")
	switch {
	case strings.HasPrefix(stripped, "+254") && len(stripped) == 13:
		return "0" + stripped[4:]
	case strings.HasPrefix(stripped, "254") && len(stripped) == 12:
		return "0" + stripped[3:]
	}
	return stripped
}
