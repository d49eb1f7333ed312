package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lontok/kala-rag/pkg/errors"
)

func TestErrnoError(t *testing.T) {
	err := errors.ErrExtraction
	assert.Contains(t, err.Error(), "errno 1001")
	assert.Contains(t, err.Error(), "Failed to extract text")
}

func TestWithCause(t *testing.T) {
	cause := fmt.Errorf("unexpected EOF")
	err := errors.ErrExtraction.WithCause(cause)

	assert.Contains(t, err.Error(), "unexpected EOF")
	assert.Equal(t, cause, stderrors.Unwrap(err))

	// 派生错误保持原错误码
	assert.True(t, stderrors.Is(err, errors.ErrExtraction))
}

func TestWithMessagef(t *testing.T) {
	err := errors.ErrUnsupportedFormat.WithMessagef("no extractor for %q", ".xls")
	assert.Contains(t, err.Error(), `no extractor for ".xls"`)
	assert.True(t, stderrors.Is(err, errors.ErrUnsupportedFormat))
}

func TestIsDistinguishesCategories(t *testing.T) {
	err := errors.ErrEmbeddingService.WithCause(fmt.Errorf("timeout"))

	assert.True(t, stderrors.Is(err, errors.ErrEmbeddingService))
	assert.False(t, stderrors.Is(err, errors.ErrEmbeddingDimension))
	assert.False(t, stderrors.Is(err, errors.ErrIndexOperation))
}

func TestLookup(t *testing.T) {
	e, ok := errors.Lookup(errors.ErrInvalidChunkConfig.Code)
	require.True(t, ok)
	assert.Equal(t, errors.ErrInvalidChunkConfig, e)

	_, ok = errors.Lookup(9999)
	assert.False(t, ok)
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, errors.ErrIndexOperation.Code, errors.GetCode(errors.ErrIndexOperation))
	assert.Equal(t, -1, errors.GetCode(fmt.Errorf("plain error")))
}
