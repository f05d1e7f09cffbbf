// Package apiclient содержит HTTP-клиент REST API каталога.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"lemiel/internal/middleware"
	"lemiel/internal/model"
)

// APIError - ответ сервера с кодом не из диапазона 2xx
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Config представляет конфигурацию клиента
type Config struct {
	BaseURL  string
	Username string
	Timeout  time.Duration
	Retry    RetryConfig
}

// Client - клиент REST API
type Client struct {
	baseURL  string
	username string
	http     *http.Client
	retry    RetryConfig
	logger   *zap.Logger
}

// New создает клиента
func New(config Config, logger *zap.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		username: config.Username,
		http:     &http.Client{Timeout: timeout},
		retry:    config.Retry,
		logger:   logger,
	}
}

// get выполняет идемпотентный GET с повторами
func (c *Client) get(ctx context.Context, path string, dst any) error {
	return WithRetry(ctx, c.logger, c.retry, func() error {
		return c.do(ctx, http.MethodGet, path, nil, dst)
	})
}

// send выполняет изменяющий запрос один раз
func (c *Client) send(ctx context.Context, method, path string, body, dst any) error {
	return c.do(ctx, method, path, body, dst)
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.Header.Set(middleware.UsernameHeader, c.username)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if dst == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if raw, ok := dst.(*[]byte); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		*raw = data
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		message = body.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}

// Plugs возвращает отображение департамент → плаги
func (c *Client) Plugs(ctx context.Context) (map[string][]model.Plug, error) {
	var result map[string][]model.Plug
	err := c.get(ctx, "/plugs", &result)
	return result, err
}

// UniquePlugs возвращает плаги без повторов
func (c *Client) UniquePlugs(ctx context.Context) ([]model.Plug, error) {
	var result []model.Plug
	err := c.get(ctx, "/plugs/unique", &result)
	return result, err
}

// Plug возвращает плаг по id
func (c *Client) Plug(ctx context.Context, id int) (model.Plug, error) {
	var result model.Plug
	err := c.get(ctx, "/plugs/"+strconv.Itoa(id), &result)
	return result, err
}

// AddPlug создает плаг
func (c *Client) AddPlug(ctx context.Context, input model.PlugInput) (model.Plug, error) {
	var result model.Plug
	err := c.send(ctx, http.MethodPost, "/plugs", input, &result)
	return result, err
}

// DeletePlug удаляет плаг
func (c *Client) DeletePlug(ctx context.Context, id int) (model.Plug, error) {
	var result model.Plug
	err := c.send(ctx, http.MethodDelete, "/plugs/"+strconv.Itoa(id), nil, &result)
	return result, err
}

// Departments возвращает департаменты
func (c *Client) Departments(ctx context.Context) (map[string]model.Department, error) {
	var result map[string]model.Department
	err := c.get(ctx, "/departments", &result)
	return result, err
}

// DepartmentPlugs возвращает плаги департамента
func (c *Client) DepartmentPlugs(ctx context.Context, code string) ([]model.Plug, error) {
	var result []model.Plug
	err := c.get(ctx, "/departments/"+url.PathEscape(code)+"/plugs", &result)
	return result, err
}

// AddDepartment создает департамент
func (c *Client) AddDepartment(ctx context.Context, code, name, emoji string) (model.Department, error) {
	var result model.Department
	body := model.Department{Code: code, Name: name, Emoji: emoji}
	err := c.send(ctx, http.MethodPost, "/departments", body, &result)
	return result, err
}

// DeleteDepartment удаляет департамент
func (c *Client) DeleteDepartment(ctx context.Context, code string) (model.Department, error) {
	var result model.Department
	err := c.send(ctx, http.MethodDelete, "/departments/"+url.PathEscape(code), nil, &result)
	return result, err
}

// Admins возвращает whitelist
func (c *Client) Admins(ctx context.Context) ([]string, error) {
	var result model.AdminsSection
	err := c.get(ctx, "/admins", &result)
	return result.Whitelist, err
}

// AddAdmin добавляет администратора
func (c *Client) AddAdmin(ctx context.Context, username string) (string, error) {
	var result map[string]string
	err := c.send(ctx, http.MethodPost, "/admins", map[string]string{"username": username}, &result)
	return result["username"], err
}

// RemoveAdmin удаляет администратора
func (c *Client) RemoveAdmin(ctx context.Context, username string) (string, error) {
	var result map[string]string
	err := c.send(ctx, http.MethodDelete, "/admins/"+url.PathEscape(username), nil, &result)
	return result["username"], err
}

// Reviews возвращает очереди отзывов
func (c *Client) Reviews(ctx context.Context) (*model.ReviewsSection, error) {
	var result model.ReviewsSection
	if err := c.get(ctx, "/reviews", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitReview отправляет отзыв
func (c *Client) SubmitReview(ctx context.Context, input model.ReviewInput) (model.Review, error) {
	var result model.Review
	err := c.send(ctx, http.MethodPost, "/reviews", input, &result)
	return result, err
}

// ApproveReview одобряет отзыв
func (c *Client) ApproveReview(ctx context.Context, id int64) (model.Review, error) {
	var result model.Review
	err := c.send(ctx, http.MethodPut, "/reviews/"+strconv.FormatInt(id, 10)+"/approve", nil, &result)
	return result, err
}

// RejectReview отклоняет отзыв
func (c *Client) RejectReview(ctx context.Context, id int64) (model.Review, error) {
	var result model.Review
	err := c.send(ctx, http.MethodDelete, "/reviews/"+strconv.FormatInt(id, 10)+"/reject", nil, &result)
	return result, err
}

// DeleteReview удаляет одобренный отзыв
func (c *Client) DeleteReview(ctx context.Context, id int64) (model.Review, error) {
	var result model.Review
	err := c.send(ctx, http.MethodDelete, "/reviews/"+strconv.FormatInt(id, 10), nil, &result)
	return result, err
}

// Logs возвращает журнал по категории
func (c *Client) Logs(ctx context.Context, category string) ([]model.AdminLogEntry, error) {
	path := "/logs"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var result []model.AdminLogEntry
	err := c.get(ctx, path, &result)
	return result, err
}

// ClearLogs очищает журнал
func (c *Client) ClearLogs(ctx context.Context) error {
	return c.send(ctx, http.MethodDelete, "/logs", nil, nil)
}

// Export возвращает config.json
func (c *Client) Export(ctx context.Context) ([]byte, error) {
	var result []byte
	err := c.get(ctx, "/export", &result)
	return result, err
}
