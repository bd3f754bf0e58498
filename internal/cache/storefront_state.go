package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/models"
)

// GuestCartSnapshot 游客购物车快照
// 只保存行项目与更新时间，合计金额由账本实时计算
type GuestCartSnapshot struct {
	Token     string            `json:"token"`
	Lines     []models.CartLine `json:"lines"`
	UpdatedAt int64             `json:"updated_at"`
}

// FeedSnapshot 信息流缓存快照
type FeedSnapshot struct {
	Products []models.Product `json:"products"`
	CachedAt int64            `json:"cached_at"`
}

func guestCartKey(token string) string {
	return fmt.Sprintf("%s:%s", constants.GuestCartCacheKeyPrefix, strings.TrimSpace(token))
}

// GetGuestCart 获取游客购物车
func GetGuestCart(ctx context.Context, token string) (*GuestCartSnapshot, bool, error) {
	if strings.TrimSpace(token) == "" {
		return nil, false, nil
	}
	var snapshot GuestCartSnapshot
	hit, err := GetJSON(ctx, guestCartKey(token), &snapshot)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &snapshot, true, nil
}

// SetGuestCart 写入游客购物车
func SetGuestCart(ctx context.Context, snapshot *GuestCartSnapshot, ttl time.Duration) error {
	if snapshot == nil || strings.TrimSpace(snapshot.Token) == "" {
		return nil
	}
	snapshot.UpdatedAt = time.Now().Unix()
	return SetJSON(ctx, guestCartKey(snapshot.Token), snapshot, ttl)
}

// DelGuestCart 删除游客购物车
func DelGuestCart(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return Del(ctx, guestCartKey(token))
}

// GetFeedSnapshot 获取全站信息流缓存
func GetFeedSnapshot(ctx context.Context) (*FeedSnapshot, bool, error) {
	var snapshot FeedSnapshot
	hit, err := GetJSON(ctx, constants.FeedGlobalCacheKey, &snapshot)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &snapshot, true, nil
}

// SetFeedSnapshot 写入全站信息流缓存
func SetFeedSnapshot(ctx context.Context, products []models.Product, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, constants.FeedGlobalCacheKey, &FeedSnapshot{
		Products: products,
		CachedAt: time.Now().Unix(),
	}, ttl)
}

// DelFeedSnapshot 使全站信息流缓存失效
func DelFeedSnapshot(ctx context.Context) error {
	return Del(ctx, constants.FeedGlobalCacheKey)
}
