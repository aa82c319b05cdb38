package classify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sdejongh/filenorris/pkg/logging"
	"github.com/sdejongh/filenorris/pkg/models"
)

const (
	defaultBaseURL        = "http://localhost:11434"
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryAttempts  = 3
	defaultMaxTextBytes   = 8192
)

// OllamaConfig holds the settings of the Ollama client
type OllamaConfig struct {
	BaseURL        string
	TextModel      string
	ImageModel     string
	TimeoutSeconds int
	MaxTextBytes   int
	MaxAttempts    int
}

// Ollama classifies files through the /api/generate endpoint of an Ollama server
type Ollama struct {
	cfg        OllamaConfig
	httpClient *http.Client
	logger     logging.Logger

	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	sleeper        func(time.Duration)
}

// OllamaOption customizes the client
type OllamaOption func(*Ollama)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(client *http.Client) OllamaOption {
	return func(o *Ollama) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays
func WithRetryBackoff(baseDelay, maxDelay time.Duration) OllamaOption {
	return func(o *Ollama) {
		o.retryBaseDelay = baseDelay
		o.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests)
func WithSleeper(sleeper func(time.Duration)) OllamaOption {
	return func(o *Ollama) {
		o.sleeper = sleeper
	}
}

// WithLogger sets the logger used for retry events
func WithLogger(logger logging.Logger) OllamaOption {
	return func(o *Ollama) {
		o.logger = logging.OrNull(logger)
	}
}

// NewOllama creates an Ollama client
func NewOllama(cfg OllamaConfig, opts ...OllamaOption) *Ollama {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxTextBytes <= 0 {
		cfg.MaxTextBytes = defaultMaxTextBytes
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultRetryAttempts
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	o := &Ollama{
		cfg:            cfg,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         &logging.NullLogger{},
		retryBaseDelay: defaultRetryBaseDelay,
		retryMaxDelay:  defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
	Format string   `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("ollama: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// ClassifyText classifies a text-bearing file. Plain-text formats have their
// leading bytes embedded in the prompt; other documents are described by name.
func (o *Ollama) ClassifyText(ctx context.Context, entry models.FileEntry) (models.Metadata, error) {
	excerpt, err := o.readExcerpt(entry)
	if err != nil {
		return models.Metadata{}, &models.ClassificationError{Path: entry.AbsolutePath, Err: err}
	}

	prompt := textPrompt(entry, excerpt)
	return o.classify(ctx, entry, o.cfg.TextModel, prompt, nil)
}

// ClassifyImage classifies an image file with a vision model
func (o *Ollama) ClassifyImage(ctx context.Context, entry models.FileEntry) (models.Metadata, error) {
	data, err := os.ReadFile(entry.AbsolutePath)
	if err != nil {
		return models.Metadata{}, &models.ClassificationError{Path: entry.AbsolutePath, Err: err}
	}

	images := []string{base64.StdEncoding.EncodeToString(data)}
	return o.classify(ctx, entry, o.cfg.ImageModel, imagePrompt(entry), images)
}

func (o *Ollama) classify(ctx context.Context, entry models.FileEntry, model, prompt string, images []string) (models.Metadata, error) {
	content, err := o.Generate(ctx, model, prompt, images)
	if err != nil {
		return models.Metadata{}, &models.ClassificationError{Path: entry.AbsolutePath, Err: err}
	}

	md, err := ParseMetadata(content)
	if err != nil {
		return models.Metadata{}, &models.ClassificationError{Path: entry.AbsolutePath, Err: parseError(content, err)}
	}
	return md, nil
}

// Generate issues a non-streaming generate request and returns the response text.
// Transient failures are retried with exponential backoff.
func (o *Ollama) Generate(ctx context.Context, model, prompt string, images []string) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", errors.New("ollama generate: model required")
	}

	payload := generateRequest{
		Model:  model,
		Prompt: prompt,
		Images: images,
		Stream: false,
		Format: "json",
	}

	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		content, err := o.generateOnce(ctx, payload)
		if err == nil {
			if strings.TrimSpace(content) != "" {
				return content, nil
			}
			err = errors.New("ollama generate: empty response")
		}

		delay, retry := o.retryDelay(ctx, err, attempt)
		if !retry {
			return "", err
		}
		o.logger.Debug(ctx, "Retrying classification request", logging.Fields{
			"model":   model,
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err.Error(),
		})
		if err := o.sleep(ctx, delay); err != nil {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("ollama generate: failed after %d attempts: %w", o.cfg.MaxAttempts, lastErr)
}

func (o *Ollama) generateOnce(ctx context.Context, payload generateRequest) (string, error) {
	endpoint, err := url.JoinPath(o.cfg.BaseURL, "api", "generate")
	if err != nil {
		return "", fmt.Errorf("ollama request: build url: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ollama request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("ollama request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       snippet(string(body)),
			RetryAfter: retryAfter,
		}
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("ollama request: decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("ollama request: api error: %s", decoded.Error)
	}
	return decoded.Response, nil
}

func (o *Ollama) retryDelay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if attempt >= o.cfg.MaxAttempts || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return o.capDelay(statusErr.RetryAfter), true
			}
			return o.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return o.backoffDelay(attempt), true
	}

	// empty responses happen while a model is still loading
	if strings.Contains(err.Error(), "empty response") {
		return o.backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay doubles the base delay for every attempt: base, 2*base, 4*base...
func (o *Ollama) backoffDelay(attempt int) time.Duration {
	if o.retryBaseDelay <= 0 {
		return 0
	}
	delay := o.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > o.retryMaxDelay/2 {
			return o.capDelay(o.retryMaxDelay)
		}
		delay *= 2
	}
	return o.capDelay(delay)
}

func (o *Ollama) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if o.retryMaxDelay > 0 && delay > o.retryMaxDelay {
		return o.retryMaxDelay
	}
	return delay
}

func (o *Ollama) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if o.sleeper != nil {
		o.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}

// readExcerpt returns the leading bytes of plain-text formats, empty for others
func (o *Ollama) readExcerpt(entry models.FileEntry) (string, error) {
	if !plainTextExtensions[strings.ToLower(entry.Ext())] {
		return "", nil
	}

	f, err := os.Open(entry.AbsolutePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, int64(o.cfg.MaxTextBytes)))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(buf), ""), nil
}
