package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/readshare/pkg/api"
)

// Error is a non-2xx answer from the server
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status of err if it is an *Error, 0 otherwise
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// TokenSource supplies access tokens for authorized calls
type TokenSource interface {
	// AccessToken returns the current access token
	AccessToken(ctx context.Context) (string, error)

	// Refresh obtains a new access token after the server rejected the current one
	Refresh(ctx context.Context) (string, error)
}

// DefaultScheme is the Authorization scheme used unless SetScheme is called
const DefaultScheme = "Bearer"

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	baseURL    string
	scheme     string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		scheme:  DefaultScheme,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetScheme задает схему заголовка Authorization; она должна входить в AUTH_SCHEMES сервера
func (c *Client) SetScheme(scheme string) {
	if scheme = strings.TrimSpace(scheme); scheme != "" {
		c.scheme = scheme
	}
}

// SetTokenSource подключает источник токенов для авторизованных запросов
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	var resp api.LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обменивает refresh token на новый access token
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.RefreshResponse, error) {
	var resp api.RefreshResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", refreshToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Logout отзывает refresh token на сервере
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", refreshToken, nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// Me возвращает профиль текущего пользователя
func (c *Client) Me(ctx context.Context) (*api.MeResponse, error) {
	var resp api.MeResponse
	if err := c.doAuthorized(ctx, http.MethodGet, "/api/v1/users/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("get profile failed: %w", err)
	}
	return &resp, nil
}

// ListPosts возвращает страницу общей ленты
func (c *Client) ListPosts(ctx context.Context, page, limit int) (*api.PostListResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var resp api.PostListResponse
	if err := c.doAuthorized(ctx, http.MethodGet, "/api/v1/posts?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("list posts failed: %w", err)
	}
	return &resp, nil
}

// CreatePost публикует пост о книге
func (c *Client) CreatePost(ctx context.Context, req api.CreatePostRequest) (*api.Post, error) {
	var resp api.Post
	if err := c.doAuthorized(ctx, http.MethodPost, "/api/v1/posts", req, &resp); err != nil {
		return nil, fmt.Errorf("create post failed: %w", err)
	}
	return &resp, nil
}

// Like ставит лайк посту
func (c *Client) Like(ctx context.Context, postID string) (*api.LikeResponse, error) {
	var resp api.LikeResponse
	path := "/api/v1/posts/" + url.PathEscape(postID) + "/like"
	if err := c.doAuthorized(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("like failed: %w", err)
	}
	return &resp, nil
}

// AddComment добавляет комментарий к посту
func (c *Client) AddComment(ctx context.Context, postID, content string) (*api.Comment, error) {
	var resp api.Comment
	path := "/api/v1/posts/" + url.PathEscape(postID) + "/comments"
	req := api.CreateCommentRequest{Content: content}
	if err := c.doAuthorized(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("add comment failed: %w", err)
	}
	return &resp, nil
}

// doAuthorized выполняет запрос с access токеном; на 401 один раз обновляет токен и повторяет
func (c *Client) doAuthorized(ctx context.Context, method, path string, body, result any) error {
	if c.tokens == nil {
		return fmt.Errorf("no token source configured")
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	err = c.doRequest(ctx, method, path, token, body, result)
	if StatusCode(err) != http.StatusUnauthorized {
		return err
	}

	token, err = c.tokens.Refresh(ctx)
	if err != nil {
		return err
	}

	return c.doRequest(ctx, method, path, token, body, result)
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", c.scheme+" "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
