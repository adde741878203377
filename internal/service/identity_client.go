package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"village-connect/pkg/errs"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// IdentityClaims 身份提供方 userinfo 返回的资料
type IdentityClaims struct {
	Sub             string  `json:"sub"`
	Email           *string `json:"email"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// IdentityProvider 身份提供方边界
// 登录握手本身由提供方完成，这里只用 access token 换取身份资料
type IdentityProvider interface {
	Userinfo(ctx context.Context, accessToken string) (*IdentityClaims, error)
}

// IdentityClient 身份提供方 API 客户端
type IdentityClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewIdentityClient 创建身份提供方客户端
func NewIdentityClient(baseURL string, logger *zap.Logger) *IdentityClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &IdentityClient{
		httpClient: client,
		logger:     logger,
	}
}

// 确保实现了接口
var _ IdentityProvider = (*IdentityClient)(nil)

// Userinfo 用 access token 换取身份资料
// token 无效/过期返回 ErrUnauthenticated
func (c *IdentityClient) Userinfo(ctx context.Context, accessToken string) (*IdentityClaims, error) {
	if accessToken == "" {
		return nil, errs.ErrUnauthenticated
	}

	var claims IdentityClaims
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&claims).
		Get("/userinfo")
	if err != nil {
		c.logger.Error("Identity provider request failed", zap.Error(err))
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		// fallthrough below
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errs.ErrUnauthenticated
	default:
		c.logger.Error("Identity provider returned unexpected status",
			zap.Int("status", resp.StatusCode()),
		)
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode())
	}

	if claims.Sub == "" {
		return nil, fmt.Errorf("identity provider returned empty sub")
	}
	return &claims, nil
}
