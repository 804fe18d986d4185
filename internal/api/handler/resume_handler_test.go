package handler

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/krish132005/RESUME-ANALYZER/internal/config"
	"github.com/krish132005/RESUME-ANALYZER/internal/constants"
	"github.com/krish132005/RESUME-ANALYZER/internal/ontology"
	"github.com/krish132005/RESUME-ANALYZER/internal/parser"
	"github.com/krish132005/RESUME-ANALYZER/internal/processor"
	"github.com/krish132005/RESUME-ANALYZER/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *ResumeHandler {
	t.Helper()
	cfg := config.DefaultConfig()
	store := &storage.Storage{}
	resumeParser := parser.NewResumeParser(ontology.Default())
	proc, err := processor.NewResumeProcessor(cfg, store, resumeParser)
	require.NoError(t, err)
	return NewResumeHandler(cfg, store, proc)
}

// 同步解析接口：直接返回结构化结果
func TestHandleParseText(t *testing.T) {
	h := newTestHandler(t)

	record, err := h.HandleParseText(context.Background(), "Jane Doe\njane@x.com\n\nSKILLS\nPython, React")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", record.CandidateName)
	assert.Equal(t, []string{"jane@x.com"}, record.Contact.Emails)
}

// 空文本与纯空白文本报错
func TestHandleParseTextEmpty(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.HandleParseText(context.Background(), "")
	assert.Error(t, err)

	_, err = h.HandleParseText(context.Background(), "   \n\t  ")
	assert.Error(t, err)
}

// 批量解析：单条失败不影响其他条目，结果按输入顺序返回
func TestHandleBatchParse(t *testing.T) {
	h := newTestHandler(t)

	texts := []string{
		"Jane Doe\njane@x.com\n\nSKILLS\nPython",
		"",
		"John Smith\njohn@y.org\n\nSKILLS\nGo",
	}
	results, err := h.HandleBatchParse(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 0, results[0].Index)
	require.NotNil(t, results[0].Record)
	assert.Equal(t, "Jane Doe", results[0].Record.CandidateName)

	assert.NotEmpty(t, results[1].Error)
	assert.Nil(t, results[1].Record)

	require.NotNil(t, results[2].Record)
	assert.Equal(t, "John Smith", results[2].Record.CandidateName)
}

// 批量解析数量限制
func TestHandleBatchParseLimits(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.HandleBatchParse(context.Background(), nil)
	assert.Error(t, err)

	tooMany := make([]string, constants.MaxBatchParseCount+1)
	for i := range tooMany {
		tooMany[i] = "text"
	}
	_, err = h.HandleBatchParse(context.Background(), tooMany)
	assert.Error(t, err)
}

// 上传大小限制：超限请求在触碰任何存储之前被拒绝
func TestHandleResumeUploadSizeLimit(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.HandleResumeUpload(context.Background(), bytes.NewReader(nil),
		constants.MaxUploadSizeBytes+1, "big.pdf", "web_upload")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "超过限制")
}

// 空文件拒绝
func TestHandleResumeUploadEmptyFile(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.HandleResumeUpload(context.Background(), strings.NewReader(""), 0, "empty.pdf", "web_upload")
	assert.Error(t, err)
}

// 结果查询参数校验
func TestHandleGetRecordValidation(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.HandleGetRecord(context.Background(), "")
	assert.Error(t, err)
}

// 存储降级时上传接口返回明确错误而不是崩溃
func TestHandleResumeUploadStorageUnavailable(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.HandleResumeUpload(context.Background(), strings.NewReader("resume bytes"),
		12, "resume.pdf", "web_upload")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未就绪")
}

// 数据库不可用时查询接口返回错误而不是崩溃
func TestHandleGetRecordStorageUnavailable(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.HandleGetRecord(context.Background(), "some-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未就绪")

	_, err = h.HandleListSubmissions(context.Background(), "", 20, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未就绪")

	_, err = h.HandleGetOriginalURL(context.Background(), "some-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未就绪")
}

// 下载地址接口参数校验
func TestHandleGetOriginalURLValidation(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.HandleGetOriginalURL(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "不能为空")
}
