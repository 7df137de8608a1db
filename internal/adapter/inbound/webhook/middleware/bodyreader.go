package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

var ErrBodyTooLarge = errors.New("request body too large")

// ReadBody reads at most limit bytes from body. It gives up when ctx is done
// so a slow client cannot hold the handler past its deadline.
func ReadBody(ctx context.Context, body io.Reader, limit int64) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		n, err := buf.ReadFrom(io.LimitReader(body, limit+1))
		switch {
		case err != nil:
			done <- result{err: fmt.Errorf("reading body: %w", err)}
		case n > limit:
			done <- result{err: ErrBodyTooLarge}
		default:
			done <- result{data: buf.Bytes()}
		}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("reading body: %w", ctx.Err())
	case res := <-done:
		return res.data, res.err
	}
}
