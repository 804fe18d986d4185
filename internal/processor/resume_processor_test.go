package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/krish132005/RESUME-ANALYZER/internal/config"
	"github.com/krish132005/RESUME-ANALYZER/internal/ontology"
	"github.com/krish132005/RESUME-ANALYZER/internal/parser"
	"github.com/krish132005/RESUME-ANALYZER/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTextExtractor 可注入的文本提取桩
type mockTextExtractor struct {
	text string
	err  error
}

func (m *mockTextExtractor) ExtractText(_ context.Context, _ []byte, _ string) (string, error) {
	return m.text, m.err
}

func newTestProcessor(t *testing.T, opts ...ProcessorOption) *ResumeProcessor {
	t.Helper()
	resumeParser := parser.NewResumeParser(ontology.Default())
	p, err := NewResumeProcessor(config.DefaultConfig(), &storage.Storage{}, resumeParser, opts...)
	require.NoError(t, err)
	return p
}

// 构造参数校验
func TestNewResumeProcessorValidation(t *testing.T) {
	resumeParser := parser.NewResumeParser(ontology.Default())

	_, err := NewResumeProcessor(config.DefaultConfig(), nil, resumeParser)
	assert.Error(t, err)

	_, err = NewResumeProcessor(config.DefaultConfig(), &storage.Storage{}, nil)
	assert.Error(t, err)
}

// 同步解析：完整走一遍解析流水线
func TestParseText(t *testing.T) {
	p := newTestProcessor(t)

	record, err := p.ParseText(context.Background(), "Jane Doe\njane@x.com\n\nSKILLS\nPython, React")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", record.CandidateName)
	assert.Equal(t, []string{"Python"}, record.Skills["Programming"])
}

// 空文本报错
func TestParseTextEmpty(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.ParseText(context.Background(), "")
	assert.Error(t, err)
}

// 损坏的消息体直接确认丢弃，不重新入队
func TestHandleUploadedMessageCorruptBody(t *testing.T) {
	p := newTestProcessor(t)

	assert.True(t, p.HandleUploadedMessage([]byte("not json at all")))
}

// 解析器版本：配置缺省时使用默认版本
func TestParserVersionDefaults(t *testing.T) {
	resumeParser := parser.NewResumeParser(ontology.Default())

	p, err := NewResumeProcessor(nil, &storage.Storage{}, resumeParser)
	require.NoError(t, err)
	assert.Equal(t, "1.0", p.parserVersion)

	p, err = NewResumeProcessor(nil, &storage.Storage{}, resumeParser, WithParserVersion("2.3"))
	require.NoError(t, err)
	assert.Equal(t, "2.3", p.parserVersion)
}

// 对象存储未初始化时按下载失败处理，不触发空指针
func TestProcessUploadedStorageUnavailable(t *testing.T) {
	p := newTestProcessor(t, WithTextExtractor(&mockTextExtractor{text: "some resume"}))

	err := p.ProcessUploaded(context.Background(), &storage.ResumeUploadedMessage{
		SubmissionUUID:      "uuid-3",
		OriginalFilePathOSS: "resume/uuid-3/original.pdf",
	})
	require.Error(t, err)

	var procErr *ResumeProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "download", procErr.Op)
}

// 流水线错误类型：解析类错误可被识别出来（消费侧据此决定确认还是重投）
func TestResumeProcessErrorClassification(t *testing.T) {
	parseErr := NewParseError("uuid-1", "提取文本为空")

	var procErr *ResumeProcessError
	require.True(t, errors.As(parseErr, &procErr))
	assert.Equal(t, "parse", procErr.Op)
	assert.True(t, errors.Is(parseErr, ErrParseResumeFailed))

	dlErr := NewDownloadError("uuid-2", "minio unreachable")
	require.True(t, errors.As(dlErr, &procErr))
	assert.NotEqual(t, "parse", procErr.Op)
	assert.True(t, errors.Is(dlErr, ErrResumeDownloadFailed))
}
