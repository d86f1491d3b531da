package core

// text.go reads an uploaded file into memory as text.
//
// This is the only asynchronous step of a load: everything after ReadText
// returns (Parse, row edits, Serialize) is synchronous. Common file issues
// are handled on the way in:
//
//   - A UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows programs is dropped
//   - Invalid UTF-8 sequences become U+FFFD
//   - Files above the configured limit fail with ErrFileTooLarge

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadText reads r to completion and returns its text. A limit <= 0 means
// unbounded. Reading stops early when ctx is cancelled.
func ReadText(ctx context.Context, r io.Reader, limit int64) (string, error) {
	var src io.Reader = NewBOMSkippingReader(&contextReader{ctx: ctx, r: r})
	if limit > 0 {
		src = io.LimitReader(src, limit+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, limit)
	}

	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}

// NewBOMSkippingReader returns a reader that drops a leading UTF-8 BOM.
func NewBOMSkippingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// contextReader fails reads once its context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
