package errutil_test

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/tgsd/errutil"
)

func TestTree(t *testing.T) {
	t.Parallel()

	t.Run("NilErr", func(t *testing.T) {
		t.Parallel()
		assert.PanicsWithValue(t, "nil error", func() { errutil.Tree(nil) })
	})

	t.Run("SimpleStringErr", func(t *testing.T) {
		t.Parallel()
		tree := errutil.Tree(fmt.Errorf("simple string error"))
		expected := errutil.ErrInfo{
			Message:  "simple string error",
			TypeName: "*errors.errorString",
			Children: nil,
		}
		assertErrInfoAreEqual(t, expected, tree)
	})

	t.Run("JoinedSimpleStringErrs", func(t *testing.T) {
		t.Parallel()
		tree := errutil.Tree(
			errors.Join(
				fmt.Errorf("simple string error"),
				fmt.Errorf("another simple string error"),
			),
		)
		expected := errutil.ErrInfo{
			Message:  "simple string error\nanother simple string error",
			TypeName: "*errors.joinError",
			Children: []errutil.ErrInfo{
				{
					Message:  "simple string error",
					TypeName: "*errors.errorString",
					Children: nil,
				},
				{
					Message:  "another simple string error",
					TypeName: "*errors.errorString",
					Children: nil,
				},
			},
		}
		assertErrInfoAreEqual(t, expected, tree)
	})

	var ErrRetryable = errors.New("retrayable error")

	t.Run("UnwrapableErr", func(t *testing.T) {
		t.Parallel()
		_, err := os.ReadDir("nonexistent")
		tree := errutil.Tree(
			errors.Join(
				ErrRetryable,
				fmt.Errorf("os.ReadDir error: %w", err),
			),
		)
		expected := errutil.ErrInfo{
			Message:  "retrayable error\nos.ReadDir error: open nonexistent: no such file or directory",
			TypeName: "*errors.joinError",
			Children: []errutil.ErrInfo{
				{
					Message:  "retrayable error",
					TypeName: "*errors.errorString",
					Children: nil,
				},
				{
					Message:  "os.ReadDir error: open nonexistent: no such file or directory",
					TypeName: "*fmt.wrapError",
					Children: []errutil.ErrInfo{
						{
							Message:  "open nonexistent: no such file or directory",
							TypeName: "*fs.PathError",
							Children: []errutil.ErrInfo{
								{
									Message:  "no such file or directory",
									TypeName: "syscall.Errno",
									Children: nil,
								},
							},
						},
					},
				},
			},
		}
		assertErrInfoAreEqual(t, expected, tree)
	})
}

type payloadError struct{ code int }

func (e *payloadError) Error() string { return fmt.Sprintf("status %d", e.code) }

func (e *payloadError) FlawP() flaw.P { return flaw.P{"code": e.code} }

func TestTreePayload(t *testing.T) {
	t.Parallel()

	tree := errutil.Tree(fmt.Errorf("lookup: %w", &payloadError{code: 404}))
	require.Nil(t, tree.Payload)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, flaw.P{"code": 404}, tree.Children[0].Payload)

	p := tree.FlawP()
	_, ok := p["payload"]
	assert.False(t, ok)
	children, ok := p["children"].([]flaw.P)
	require.True(t, ok)
	assert.Equal(t, flaw.P{"code": 404}, children[0]["payload"])
}

func TestErrInfoFlawP(t *testing.T) {
	t.Parallel()

	tree := errutil.Tree(fmt.Errorf("outer: %w", errors.New("inner")))
	p := tree.FlawP()
	assert.Equal(t, "outer: inner", p["message"])
	assert.Equal(t, "*fmt.wrapError", p["type_name"])

	children, ok := p["children"].([]flaw.P)
	require.True(t, ok)
	require.Len(t, children, 1)
	assert.Equal(t, "inner", children[0]["message"])
}

func TestAsFlaw(t *testing.T) {
	t.Parallel()

	t.Run("wraps_plain_error", func(t *testing.T) {
		t.Parallel()
		f := errutil.AsFlaw(errors.New("boom"))
		require.NotNil(t, f)
		assert.Equal(t, "boom", f.Inner)
		assert.True(t, errutil.IsFlaw(f))
	})

	t.Run("keeps_existing_flaw", func(t *testing.T) {
		t.Parallel()
		orig := flaw.From(errors.New("already"))
		wrapped := fmt.Errorf("context: %w", orig)
		assert.Same(t, orig, errutil.AsFlaw(wrapped))
	})
}

func TestAs(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("handler: %w", &errutil.PanicError{Value: "nil map"})
	pe, ok := errutil.As[*errutil.PanicError](err)
	require.True(t, ok)
	assert.Equal(t, "nil map", pe.Value)

	_, ok = errutil.As[*errutil.PanicError](errors.New("other"))
	assert.False(t, ok)
}

func assertErrInfoAreEqual(t *testing.T, expected, actual errutil.ErrInfo) {
	t.Helper()
	assert.Exactly(t, expected.Message, actual.Message, "unequal Message field: expected: %q, actual: %q", expected.Message, actual.Message)
	assert.Exactly(t, expected.TypeName, actual.TypeName, "unequal TypeName field: expected: %q, actual: %q", expected.TypeName, actual.TypeName)
	assert.Len(t, actual.Children, len(expected.Children), "unequal Children length: expected: %d, actual: %d", len(expected.Children), len(actual.Children))
	for i, child := range actual.Children {
		assertErrInfoAreEqual(t, expected.Children[i], child)
	}
}
