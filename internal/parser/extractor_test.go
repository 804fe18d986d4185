package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T) *DocumentTextExtractor {
	t.Helper()
	e, err := NewDocumentTextExtractor(context.Background())
	require.NoError(t, err)
	return e
}

// 纯文本文件直通
func TestExtractTextPlainText(t *testing.T) {
	e := newTestExtractor(t)

	text, err := e.ExtractText(context.Background(), []byte("Jane Doe\njane@x.com"), "resume.txt")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\njane@x.com", text)
}

// 空内容报错
func TestExtractTextEmpty(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.ExtractText(context.Background(), nil, "resume.txt")
	assert.Error(t, err)
}

// 不支持的格式报错
func TestExtractTextUnsupportedFormat(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.ExtractText(context.Background(), []byte("binary"), "resume.xlsx")
	assert.Error(t, err)
}

// 非UTF8的伪文本文件报错
func TestExtractTextInvalidUTF8(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.ExtractText(context.Background(), []byte{0xff, 0xfe, 0x00, 0x80}, "resume.txt")
	assert.Error(t, err)
}

// 从磁盘文件提取
func TestExtractFromFile(t *testing.T) {
	e := newTestExtractor(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("some resume text"), 0644))

	text, err := e.ExtractFromFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "some resume text", text)

	_, err = e.ExtractFromFile(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
