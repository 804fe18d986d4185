package parser

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/krish132005/RESUME-ANALYZER/internal/ontology"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T, options ...ParserOption) *ResumeParser {
	t.Helper()
	return NewResumeParser(ontology.Default(), options...)
}

// 端到端：名字、联系方式、经历条目、分类技能一次解析完成
func TestParseEndToEnd(t *testing.T) {
	p := newTestParser(t)

	text := "Jane Doe\njane@x.com\n\nEXPERIENCE\nSoftware Engineer at Acme Corp\nJan 2020 - Present\nBuilt things.\n\nSKILLS\nPython, React"
	record := p.Parse(context.Background(), text)

	assert.Equal(t, "Jane Doe", record.CandidateName)
	assert.Equal(t, []string{"jane@x.com"}, record.Contact.Emails)

	require.Len(t, record.Experience, 1)
	exp := record.Experience[0]
	assert.Equal(t, "Software Engineer", exp.Title)
	assert.Equal(t, "Acme Corp", exp.Company)
	require.NotNil(t, exp.Dates)
	assert.Equal(t, "Jan 2020", exp.Dates.StartDate)
	assert.Equal(t, "Present", exp.Dates.EndDate)
	assert.Equal(t, "Built things.", exp.Description)

	assert.Equal(t, []string{"Python"}, record.Skills["Programming"])
	assert.Equal(t, []string{"React"}, record.Skills["Framework"])
}

// 确定性：同一输入重复解析产生逐位相同的结果
func TestParseDeterministic(t *testing.T) {
	p := newTestParser(t)

	text := "Jane Doe\njane@x.com\n\nEXPERIENCE\nEngineer at Acme\nJan 2020 - Present\nDid work.\n\nSKILLS\nPython, Go, MySQL\n\nEDUCATION\nStanford University\n2014 - 2018"
	first, err := json.Marshal(p.Parse(context.Background(), text))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := json.Marshal(p.Parse(context.Background(), text))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

// 零识别标题：全部内容留在header，raw_sections为空，提取器照常工作
func TestParseNoHeadings(t *testing.T) {
	p := newTestParser(t)

	record := p.Parse(context.Background(), "Jane Doe\njane@x.com\nworked with Python for years")

	assert.Equal(t, "Jane Doe", record.CandidateName)
	assert.Equal(t, []string{"jane@x.com"}, record.Contact.Emails)
	assert.Equal(t, []string{"Python"}, record.Skills["Programming"])
	assert.Empty(t, record.RawSections)
}

// 空输入：结构完整但字段稀疏的Record，绝不返回nil
func TestParseEmptyInput(t *testing.T) {
	p := newTestParser(t)

	record := p.Parse(context.Background(), "")
	require.NotNil(t, record)
	assert.Empty(t, record.CandidateName)
	assert.NotNil(t, record.Contact.Emails)
	assert.NotNil(t, record.Skills)
	assert.NotNil(t, record.Experience)
	assert.NotNil(t, record.RawSections)
}

// 未映射章节进入raw_sections
func TestParseRawSections(t *testing.T) {
	p := newTestParser(t)

	text := "Jane Doe\n\nCERTIFICATIONS\nAWS Certified Developer\n\nHOBBIES\nChess and hiking"
	record := p.Parse(context.Background(), text)

	assert.Equal(t, "AWS Certified Developer", record.Certification)
	assert.Contains(t, record.RawSections, "certifications")
	// hobbies是interests的同义词
	assert.Equal(t, "Chess and hiking", record.Interests)
}

// mockEntityExtractor 可注入的NER桩
type mockEntityExtractor struct {
	name string
	orgs []string
	err  error
}

func (m *mockEntityExtractor) ExtractName(_ context.Context, _ string) (string, error) {
	return m.name, m.err
}

func (m *mockEntityExtractor) ExtractOrganizations(_ context.Context, _ string) ([]string, error) {
	return m.orgs, m.err
}

// 外部NER结果优先于启发式
func TestParseExternalNER(t *testing.T) {
	p := newTestParser(t, WithNameEntityExtractor(&mockEntityExtractor{
		name: "Janet Doette",
		orgs: []string{"Acme Corp"},
	}))

	record := p.Parse(context.Background(), "Jane Doe\njane@x.com")
	assert.Equal(t, "Janet Doette", record.CandidateName)
	assert.Equal(t, []string{"Acme Corp"}, record.OrganizationsDetected)
}

// 外部NER失败时回退启发式，解析不报错
func TestParseNERFailureFallsBack(t *testing.T) {
	p := newTestParser(t, WithNameEntityExtractor(&mockEntityExtractor{
		err: errors.New("ner service unavailable"),
	}))

	record := p.Parse(context.Background(), "Jane Doe\njane@x.com")
	assert.Equal(t, "Jane Doe", record.CandidateName)
}

// NormalizeText：统一换行、压缩连续空行
func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a\nb", NormalizeText("a\r\nb"))
	assert.Equal(t, "a\nb", NormalizeText("a\rb"))
	assert.Equal(t, "a\n\nb", NormalizeText("a\n\n\n\n\nb"))
}

// 语言章节缺失时按常见语言表对全文回退扫描
func TestParseLanguagesFallback(t *testing.T) {
	p := newTestParser(t)

	record := p.Parse(context.Background(), "Jane Doe\nFluent in English and Spanish\n\nSKILLS\nPython")
	assert.Contains(t, record.Languages, "English")
	assert.Contains(t, record.Languages, "Spanish")
}

// 并发解析安全：共享同一个解析器实例
func TestParseConcurrent(t *testing.T) {
	p := newTestParser(t)
	text := "Jane Doe\njane@x.com\n\nSKILLS\nPython, React"

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			record := p.Parse(context.Background(), text)
			assert.Equal(t, "Jane Doe", record.CandidateName)
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
