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
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/order-console/internal/metrics"
	"github.com/vladislavdragonenkov/order-console/internal/version"
)

const defaultTimeout = 10 * time.Second

// ErrBaseURLRequired возвращается, если базовый URL бэкенда не задан.
var ErrBaseURLRequired = errors.New("api base url is required")

// Config задаёт параметры клиента REST-бэкенда.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *log.Entry
	Metrics    *metrics.ConsoleMetrics
}

// Client выполняет CRUD-запросы к бэкенду заказов и каталога.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *log.Entry
	metrics *metrics.ConsoleMetrics
}

// NewClient проверяет конфигурацию и создаёт клиента.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, ErrBaseURLRequired
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http(s), got %q", raw)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "api-client")
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		logger:  logger,
		metrics: cfg.Metrics,
	}, nil
}

// BaseURL возвращает нормализованный базовый URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Ping проверяет доступность бэкенда лёгким запросом к каталогу.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.send(ctx, "ping", http.MethodGet, "/products", nil)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Op: "ping", StatusCode: resp.StatusCode, Message: "Backend is not healthy"}
	}
	return nil
}

// request описывает один вызов бэкенда.
type request struct {
	op      string
	method  string
	path    string
	body    any
	failMsg string
	// probeMessage — читать поле "message" из тела ошибки.
	probeMessage bool
}

// do выполняет запрос и декодирует успешный ответ в out (если out != nil).
func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	start := time.Now()
	c.metrics.APIRequestStarted()
	defer func() {
		c.metrics.APIRequestFinished()
		c.metrics.ObserveAPIRequest(req.op, time.Since(start), err)
		entry := c.logger.WithFields(log.Fields{
			"op":          req.op,
			"method":      req.method,
			"path":        req.path,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Warn("backend request failed")
			return
		}
		entry.Debug("backend request completed")
	}()

	resp, err := c.send(ctx, req.op, req.method, req.path, req.body)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Op: req.op, StatusCode: resp.StatusCode, Message: req.failMsg}
		if req.probeMessage {
			if probed := probeErrorMessage(resp.Body); probed != "" {
				apiErr.Message = probed
				apiErr.FromBackend = true
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", req.op, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{Op: op, Message: "Backend is unreachable", Err: err}
	}
	return resp, nil
}

// probeErrorMessage пытается достать {"message": "..."} из тела ошибки.
func probeErrorMessage(body io.Reader) string {
	var payload struct {
		Message any `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&payload); err != nil {
		return ""
	}
	msg, ok := payload.Message.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(msg)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
