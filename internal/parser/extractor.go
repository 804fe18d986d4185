package parser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"

	"github.com/krish132005/RESUME-ANALYZER/internal/logger"
)

// TextExtractor 从简历文件中提取纯文本
type TextExtractor interface {
	// ExtractText 从文件内容提取文本，filename用于推断格式
	ExtractText(ctx context.Context, data []byte, filename string) (string, error)
}

// DocumentTextExtractor 支持PDF和纯文本格式的提取器
type DocumentTextExtractor struct {
	pdfParser *pdf.PDFParser
}

var _ TextExtractor = (*DocumentTextExtractor)(nil)

// NewDocumentTextExtractor 初始化文本提取器。
// PDF解析配置为不按页面分割，以获取整个文档的连续文本。
func NewDocumentTextExtractor(ctx context.Context) (*DocumentTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建PDF解析器失败: %w", err)
	}
	return &DocumentTextExtractor{pdfParser: p}, nil
}

// ExtractText 从文件内容提取文本
func (e *DocumentTextExtractor) ExtractText(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("文件 %s 内容为空", filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return e.extractPDF(ctx, data, filename)
	case ".txt", ".md", "":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("文件 %s 不是有效的UTF-8文本", filename)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("不支持的文件格式: %s", ext)
	}
}

// ExtractFromFile 从文件路径提取文本
func (e *DocumentTextExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("读取文件 %s 失败: %w", filePath, err)
	}
	return e.ExtractText(ctx, data, filePath)
}

func (e *DocumentTextExtractor) extractPDF(ctx context.Context, data []byte, uri string) (string, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs, err := e.pdfParser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(uri),
	)
	if err != nil {
		return "", fmt.Errorf("PDF解析失败 %s: %w", uri, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("PDF解析无结果: %s", uri)
	}

	var sb strings.Builder
	for i, doc := range docs {
		sb.WriteString(doc.Content)
		if i < len(docs)-1 {
			sb.WriteString("\n\n")
		}
	}

	logger.Debug().
		Str("uri", uri).
		Int("chars", sb.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("PDF文本提取完成")
	return sb.String(), nil
}
