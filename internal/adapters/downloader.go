package adapters

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"project-dependencies/internal/ports"
	"project-dependencies/internal/shared"
)

const defaultHTTPTimeout = 10 * time.Minute
const defaultHTTPRetries = 3
const defaultHTTPRetryDelay = 500 * time.Millisecond
const maxHTTPRetryDelay = 10 * time.Second
const userAgent = "project-dependencies/1.0"

type httpRetryConfig struct {
	timeout   time.Duration
	retries   int
	baseDelay time.Duration
}

func normalizeHTTPConfig(timeoutSec int, retries int, delayMs int) httpRetryConfig {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	retryCount := retries
	if retryCount <= 0 {
		retryCount = defaultHTTPRetries
	}
	baseDelay := time.Duration(delayMs) * time.Millisecond
	if baseDelay <= 0 {
		baseDelay = defaultHTTPRetryDelay
	}
	return httpRetryConfig{
		timeout:   timeout,
		retries:   retryCount,
		baseDelay: baseDelay,
	}
}

// HTTPDownloaderAdapter fetches prebuilt archives and source tarballs.
// Partial downloads never reach the destination path.
type HTTPDownloaderAdapter struct {
	cfg    httpRetryConfig
	client *http.Client
}

func NewHTTPDownloaderAdapter(timeoutSec int, retries int, delayMs int) HTTPDownloaderAdapter {
	cfg := normalizeHTTPConfig(timeoutSec, retries, delayMs)
	return HTTPDownloaderAdapter{cfg: cfg, client: &http.Client{Timeout: cfg.timeout}}
}

func (a HTTPDownloaderAdapter) Download(ctx context.Context, url string, dest string, checksum string) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to prepare download destination").
			WithCause(err)
	}
	resp, err := a.doRequest(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code := errbuilder.CodeInternal
		if resp.StatusCode == http.StatusNotFound {
			code = errbuilder.CodeNotFound
		}
		return errbuilder.New().
			WithCode(code).
			WithMsg("download failed").
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}

	tmpFile, err := os.CreateTemp(dir, ".download-*.tmp")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create temp file").
			WithCause(err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmpFile, hasher), resp.Body)
	if err != nil {
		tmpFile.Close()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read %s", url)).
			WithCause(err)
	}
	if err := tmpFile.Close(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to close temp file").
			WithCause(err)
	}
	if expected := strings.TrimSpace(checksum); expected != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(actual, expected) {
			return errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("checksum mismatch for %s: got %s", url, actual))
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to finalize download").
			WithCause(err)
	}
	log.Debug().
		Str("url", url).
		Str("path", dest).
		Int64("bytes", written).
		Msg("download complete")
	return nil
}

// doRequest retries network errors, 5xx and 429 responses with capped
// exponential backoff. Other statuses are returned to the caller.
func (a HTTPDownloaderAdapter) doRequest(ctx context.Context, url string) (*http.Response, error) {
	client := a.client
	if client == nil {
		client = &http.Client{Timeout: a.cfg.timeout}
	}
	var lastErr error
	for attempt := 0; attempt < a.cfg.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, canceled(ctx)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to create request").
				WithCause(err)
		}
		req.Header.Set("User-Agent", userAgent)
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, canceled(ctx)
			}
			lastErr = err
			if attempt < a.cfg.retries-1 {
				if err := sleepContext(ctx, httpRetryDelay(attempt, a.cfg)); err != nil {
					return nil, canceled(ctx)
				}
				continue
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request failed").
				WithCause(err)
		}
		if (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) && attempt < a.cfg.retries-1 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			log.Debug().Str("url", url).Int("status", resp.StatusCode).Int("attempt", attempt+1).Msg("retrying download")
			if err := sleepContext(ctx, httpRetryDelay(attempt, a.cfg)); err != nil {
				return nil, canceled(ctx)
			}
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("request failed")
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("request failed").
		WithCause(lastErr)
}

func httpRetryDelay(attempt int, cfg httpRetryConfig) time.Duration {
	delay := cfg.baseDelay * time.Duration(1<<attempt)
	if delay > maxHTTPRetryDelay {
		delay = maxHTTPRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func canceled(ctx context.Context) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("request canceled").
		WithCause(ctx.Err())
}

var _ ports.DownloaderPort = HTTPDownloaderAdapter{}
