package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gcc(t *testing.T) *Extractor {
	t.Helper()
	p, ok := KnownPatterns(TypeGCC)
	require.True(t, ok)
	ex, err := New(p)
	require.NoError(t, err)
	return ex
}

func TestExtractGCC(t *testing.T) {
	res, err := gcc(t).Extract("a.c:1:1: error: x\na.c:2:2: warning: y\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.c:1:1: error: x"}, res.Errors)
	assert.Equal(t, []string{"a.c:2:2: warning: y"}, res.Warnings)
}

func TestExtractCompilerLog(t *testing.T) {
	output := "[1/3] Building C object main.c.obj\r\n" +
		"/home/dev/proj/main/main.c:51:76: error: expected ';' before 'esp_camera_fb_return'\r\r\n" +
		"   51 |     camera_fb_t *fb = esp_camera_fb_get()\r\n" +
		"/home/dev/proj/main/util.c:10:5: warning: unused variable 'x' [-Wunused-variable]\r\n" +
		"\r\n" +
		"ninja: build stopped: subcommand failed.\r\n"

	res, err := gcc(t).Extract(output)
	require.NoError(t, err)

	assert.Equal(t, []string{"/home/dev/proj/main/main.c:51:76: error: expected ';' before 'esp_camera_fb_return'"}, res.Errors)
	assert.Equal(t, []string{"/home/dev/proj/main/util.c:10:5: warning: unused variable 'x' [-Wunused-variable]"}, res.Warnings)
}

func TestExtractTrimsAndKeepsDuplicates(t *testing.T) {
	ex, err := New(Patterns{Errors: []string{"FAILED"}})
	require.NoError(t, err)

	res, err := ex.Extract("   test FAILED   \n\n\t\ntest FAILED\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"test FAILED", "test FAILED"}, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestExtractLineMatchingBothLists(t *testing.T) {
	ex, err := New(Patterns{Errors: []string{"problem"}, Warnings: []string{"problem"}})
	require.NoError(t, err)

	res, err := ex.Extract("a problem here")
	require.NoError(t, err)

	assert.Equal(t, []string{"a problem here"}, res.Errors)
	assert.Equal(t, []string{"a problem here"}, res.Warnings)
}

func TestExtractFirstMatchWins(t *testing.T) {
	ex, err := New(Patterns{Errors: []string{"err", "error", "^e"}})
	require.NoError(t, err)

	res, err := ex.Extract("error one")
	require.NoError(t, err)
	assert.Equal(t, []string{"error one"}, res.Errors)
}

func TestExtractECMAScriptSyntax(t *testing.T) {
	ex, err := New(Patterns{Errors: []string{`^(?!note:).*\bfailed\b`}})
	require.NoError(t, err)

	res, err := ex.Extract("note: retry failed\nlink failed")
	require.NoError(t, err)
	assert.Equal(t, []string{"link failed"}, res.Errors)
}

func TestExtractEmptyOutput(t *testing.T) {
	res, err := gcc(t).Extract("")
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestNewInvalidPattern(t *testing.T) {
	_, err := New(Patterns{Warnings: []string{"(unclosed"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPattern))

	_, err = Extract("x", Patterns{Errors: []string{"[a-"}})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestKnownPatterns(t *testing.T) {
	_, ok := KnownPatterns(TypeCustom)
	assert.False(t, ok)

	p, ok := KnownPatterns(TypeGCC)
	require.True(t, ok)
	p.Errors[0] = "mutated"
	again, _ := KnownPatterns(TypeGCC)
	assert.NotEqual(t, "mutated", again.Errors[0])

	assert.True(t, ValidType("gcc"))
	assert.False(t, ValidType("clang"))
}

func TestExtractMatchTimeout(t *testing.T) {
	ex, err := New(Patterns{Errors: []string{`^(a+)+$`}})
	require.NoError(t, err)

	_, err = ex.Extract(strings.Repeat("a", 64) + "!")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidPattern))
}
