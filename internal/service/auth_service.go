package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService 令牌服务（签发与解析买家/卖家/骑手/客服令牌）
type AuthService struct {
	cfg config.JWTConfig
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg config.JWTConfig) *AuthService {
	return &AuthService{cfg: cfg}
}

// Configured 是否已配置签名密钥
func (s *AuthService) Configured() bool {
	return s != nil && strings.TrimSpace(s.cfg.SecretKey) != ""
}

// Identity 请求身份
type Identity struct {
	UserID string
	Name   string
	Phone  string
	Role   string
}

// IsGuest 是否为游客
func (i Identity) IsGuest() bool {
	return i.UserID == "" || i.UserID == constants.GuestCustomerID
}

// CustomerID 订单与会话使用的买家标识，游客为 guest
func (i Identity) CustomerID() string {
	if i.IsGuest() {
		return constants.GuestCustomerID
	}
	return i.UserID
}

// GuestIdentity 游客身份
func GuestIdentity() Identity {
	return Identity{UserID: constants.GuestCustomerID, Role: constants.RoleBuyer}
}

// JWTClaims JWT 声明
type JWTClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity 转换为请求身份
func (c *JWTClaims) Identity() Identity {
	role := strings.ToLower(strings.TrimSpace(c.Role))
	if role == "" {
		role = constants.RoleBuyer
	}
	return Identity{
		UserID: strings.TrimSpace(c.UserID),
		Name:   strings.TrimSpace(c.Name),
		Phone:  strings.TrimSpace(c.Phone),
		Role:   role,
	}
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(identity Identity) (string, time.Time, error) {
	if strings.TrimSpace(identity.UserID) == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	hours := s.cfg.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := JWTClaims{
		UserID: identity.UserID,
		Name:   identity.Name,
		Phone:  identity.Phone,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrTokenSignFailed, err)
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && strings.TrimSpace(claims.UserID) != "" {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
