package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/repository"
)

// LikeState 点赞状态
type LikeState struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"likes"`
}

// LikeService 点赞服务（先本地生效，远端失败时回滚）
type LikeService struct {
	productRepo repository.ProductRepository
}

// NewLikeService 创建点赞服务
func NewLikeService(productRepo repository.ProductRepository) *LikeService {
	return &LikeService{productRepo: productRepo}
}

// applyLike 切换点赞并调整计数，计数不低于 0
func applyLike(state LikeState) LikeState {
	if state.Liked {
		return LikeState{Liked: false, Count: floorCount(state.Count - 1)}
	}
	return LikeState{Liked: true, Count: state.Count + 1}
}

// revertLike applyLike 的逆操作（切换本身互逆）
func revertLike(state LikeState) LikeState {
	return applyLike(state)
}

// Toggle 切换点赞；写入失败时返回回滚后的状态，不返回错误
func (s *LikeService) Toggle(ctx context.Context, productID string, current LikeState) (LikeState, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return current, ErrProductNotFound
	}
	current.Count = floorCount(current.Count)
	optimistic := applyLike(current)
	delta := int64(1)
	if !optimistic.Liked {
		delta = -1
	}

	doc, err := s.productRepo.MutateData(ctx, productID, func(data models.JSON) error {
		data[docKeyLikes] = floorCount(parseCount(data[docKeyLikes]) + delta)
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrProductDocumentNotFound) {
			return current, ErrProductNotFound
		}
		reverted := revertLike(optimistic)
		logger.Warnw("like_toggle_reverted",
			"product_id", productID,
			"liked", reverted.Liked,
			"likes", reverted.Count,
			"error", err,
		)
		return reverted, nil
	}
	return LikeState{Liked: optimistic.Liked, Count: parseCount(doc.Data[docKeyLikes])}, nil
}

func floorCount(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
