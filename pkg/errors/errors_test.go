// Package errors_test provides unit tests for the AppError type, factory
// functions, and error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/dimpat/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"missing key", errors.CodeMissingKey, "record 3 has no patent_id"},
		{"invalid param", errors.CodeInvalidParam, "grid id must not be empty"},
		{"rate limit", errors.CodeRateLimit, "too many requests"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.Contains(t, ae.Stack, "errors_test.go")
		})
	}
}

func TestErrorf_UsesInvalidParam(t *testing.T) {
	t.Parallel()

	ae := errors.Errorf("min year %d after max year %d", 2024, 2014)
	assert.Equal(t, errors.CodeInvalidParam, ae.Code)
	assert.Equal(t, "min year 2024 after max year 2014", ae.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	result := errors.Wrap(nil, errors.CodeInternal, "should not matter")
	assert.Nil(t, result)
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("dial tcp: connection refused")
	wrapped := errors.Wrap(root, errors.CodeDataSourceUnavailable, "dimensions unreachable")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.CodeDataSourceUnavailable, wrapped.Code)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
	assert.True(t, stderrors.Is(wrapped, root))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.CodeMissingKey, "record 0")
	outer := errors.Wrap(inner, errors.CodeUnknown, "normalize")

	require.NotNil(t, outer)
	assert.Equal(t, errors.CodeMissingKey, outer.Code)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.CodeMissingKey, "record 0")
	outer := errors.Wrap(inner, errors.CodeInternal, "unexpected state")

	assert.Equal(t, errors.CodeInternal, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// TestError_Method
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.CodeSinkWrite, "write failed").
		WithDetail("sink=localfs extract=details").
		WithCause(stderrors.New("disk full"))

	assert.Equal(t, "[EXT_003] write failed: sink=localfs extract=details: disk full", ae.Error())
}

func TestError_FormatWithoutDetail(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.CodeNotFound, "input missing")
	assert.Equal(t, "[COMMON_005] input missing", ae.Error())
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWithDetail / TestWithCause
// ─────────────────────────────────────────────────────────────────────────────

func TestWithDetail_SetsDetailOnCopy(t *testing.T) {
	t.Parallel()

	original := errors.New(errors.CodeNotFound, "resource missing")
	detailed := original.WithDetail("id=42")

	assert.Empty(t, original.Detail)
	assert.Equal(t, "id=42", detailed.Detail)
	assert.Equal(t, original.Code, detailed.Code)
}

func TestWithDetail_NilReceiverReturnsNil(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}

func TestWithCause_DoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	original := errors.New(errors.CodeDatabaseError, "database error")
	_ = original.WithCause(stderrors.New("bad connection"))
	assert.Nil(t, original.Cause)
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_FindsCodeThroughFmtWrapping(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.CodeDataSourceTruncated, "truncated")
	err := fmt.Errorf("run: %w", ae)

	assert.True(t, errors.IsCode(err, errors.CodeDataSourceTruncated))
	assert.False(t, errors.IsCode(err, errors.CodeMissingKey))
	assert.False(t, errors.IsCode(nil, errors.CodeMissingKey))
}

func TestIsCode_FindsInnerCode(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.CodeMissingKey, "record 2")
	outer := errors.Wrap(inner, errors.CodeInternal, "normalize")

	assert.True(t, errors.IsCode(outer, errors.CodeMissingKey))
	assert.True(t, errors.IsCode(outer, errors.CodeInternal))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.CodeSinkWrite, errors.GetCode(errors.New(errors.CodeSinkWrite, "x")))
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	assert.False(t, errors.IsFatal(nil))
	assert.False(t, errors.IsFatal(errors.New(errors.CodeSinkWrite, "x")))
	assert.False(t, errors.IsFatal(errors.New(errors.CodeMalformedCategory, "x")))
	assert.True(t, errors.IsFatal(errors.New(errors.CodeMissingKey, "x")))
	assert.True(t, errors.IsFatal(stderrors.New("plain")))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("gone")))
	assert.False(t, errors.IsNotFound(errors.Internal("boom")))
}

func TestConvenienceFactories(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeInvalidParam, errors.InvalidParam("x").Code)
	assert.Equal(t, errors.CodeUnauthorized, errors.Unauthorized("x").Code)
	assert.Equal(t, errors.CodeRateLimit, errors.RateLimit("x").Code)
	assert.Equal(t, errors.CodeInternal, errors.Internal("x").Code)
}

func TestErrInvalidConfig_IsMatchable(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("%w: base url is empty", errors.ErrInvalidConfig)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
}

//Personal.AI order the ending
