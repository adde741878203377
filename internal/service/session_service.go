package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"village-connect/internal/store"
	"village-connect/pkg/errs"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sessionKeyPrefix 会话键前缀（会话存储对本服务不透明，仅通过 KV 读写）
const sessionKeyPrefix = "session:"

// Session 一次已认证会话
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionService 会话管理接口
type SessionService interface {
	Create(ctx context.Context, userID string) (*Session, error)
	// Get 不存在/已过期返回 ErrUnauthenticated
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// sessionService 实现（KV + TTL）
type sessionService struct {
	kv     store.KV
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(kv store.KV, ttl time.Duration, logger *zap.Logger) SessionService {
	return &sessionService{
		kv:     kv,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *sessionService) Create(ctx context.Context, userID string) (*Session, error) {
	session := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKeyPrefix+session.Token, string(payload), s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info("Session created", zap.String("user_id", userID))
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, errs.ErrUnauthenticated
	}

	raw, err := s.kv.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		if err == store.ErrMiss {
			return nil, errs.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	// TTL 之外再做一次显式过期检查（MemoryKV 等实现的防御）
	if time.Now().After(session.ExpiresAt) {
		return nil, errs.ErrUnauthenticated
	}
	return &session, nil
}

func (s *sessionService) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.kv.Del(ctx, sessionKeyPrefix+token)
}
