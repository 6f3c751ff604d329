package viewer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
)

var ErrDocumentTooLarge = errors.New("document too large")

// Source fetches document bytes.
type Source interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPSource downloads documents over HTTP(S). Server errors and transport failures are retried;
// client errors and oversized bodies are not.
type HTTPSource struct {
	client   *http.Client
	maxBytes int64
	attempts uint
	delay    time.Duration
}

func NewHTTPSource(timeout time.Duration, maxBytes int64, retries uint) *HTTPSource {
	return &HTTPSource{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		attempts: retries + 1,
		delay:    200 * time.Millisecond,
	}
}

type statusError struct {
	code int
}

func (err statusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", err.code, http.StatusText(err.code))
}

func (s *HTTPSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := retry.Do(
		func() error {
			var err error
			data, err = s.fetch(ctx, url)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", url)
	}
	return data, nil
}

func (s *HTTPSource) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, statusError{code: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, retry.Unrecoverable(statusError{code: resp.StatusCode})
	}
	if resp.ContentLength > s.maxBytes {
		return nil, retry.Unrecoverable(ErrDocumentTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxBytes {
		return nil, retry.Unrecoverable(ErrDocumentTooLarge)
	}
	return data, nil
}
