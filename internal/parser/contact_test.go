package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 邮箱提取：去重且保持首次出现顺序
func TestContactEmailsDedupOrdered(t *testing.T) {
	e := NewContactExtractor()

	info := e.Extract("a@b.com jane.doe@example.org a@b.com A@B.COM")
	assert.Equal(t, []string{"a@b.com", "jane.doe@example.org"}, info.Emails)
}

// 域名里没有点的不算邮箱
func TestContactEmailRequiresDottedDomain(t *testing.T) {
	e := NewContactExtractor()

	info := e.Extract("not-an-email: user@localhost")
	assert.Empty(t, info.Emails)
}

// 电话：不同展示形式但数字相同时去重，保留原始展示形式
func TestContactPhonesNormalizedDedup(t *testing.T) {
	e := NewContactExtractor()

	info := e.Extract("Call +1-234-567-8901 or (234) 567-8901 or 234.567.8901")
	// +1 前缀归一化后带+，与裸10位号码不同，因此保留两条
	require.Len(t, info.Phones, 2)
	assert.Equal(t, "+1-234-567-8901", info.Phones[0])
	assert.Equal(t, "(234) 567-8901", info.Phones[1])
}

// 年份区间（2020-2024）不会被当成电话
func TestContactPhoneRejectsYearRange(t *testing.T) {
	e := NewContactExtractor()

	info := e.Extract("Worked from 2020-2024 on things")
	assert.Empty(t, info.Phones)
}

// LinkedIn/GitHub：单值字段，文档序首个匹配胜出，裸handle补协议
func TestContactProfilesFirstWins(t *testing.T) {
	e := NewContactExtractor()

	text := "linkedin.com/in/jane-doe\nhttps://www.linkedin.com/in/other\ngithub.com/janedoe"
	info := e.Extract(text)

	assert.Equal(t, "https://linkedin.com/in/jane-doe", info.LinkedIn)
	assert.Equal(t, "https://github.com/janedoe", info.GitHub)
}

// 其他网址进入websites，排除linkedin/github域名，去重
func TestContactWebsites(t *testing.T) {
	e := NewContactExtractor()

	text := "https://janedoe.dev https://github.com/janedoe https://janedoe.dev"
	info := e.Extract(text)

	assert.Equal(t, []string{"https://janedoe.dev"}, info.Websites)
}

// 无任何匹配时字段为空列表/空字符串，不是nil错误
func TestContactEmptyInput(t *testing.T) {
	e := NewContactExtractor()

	info := e.Extract("nothing useful here")
	assert.NotNil(t, info.Emails)
	assert.Empty(t, info.Emails)
	assert.NotNil(t, info.Phones)
	assert.Empty(t, info.Phones)
	assert.Empty(t, info.LinkedIn)
	assert.Empty(t, info.GitHub)
}

// 回退扫描：header没有邮箱/电话时改扫全文
func TestContactFallbackScan(t *testing.T) {
	e := NewContactExtractor()

	header := "Jane Doe\nSoftware Engineer"
	full := header + "\n\nReach me at jane@x.com"
	info := e.ExtractWithFallback(header, full)
	assert.Equal(t, []string{"jane@x.com"}, info.Emails)

	// header已有邮箱时不回退
	headerWithEmail := "Jane Doe\nj@d.com"
	info = e.ExtractWithFallback(headerWithEmail, headerWithEmail+"\nother@x.com")
	assert.Equal(t, []string{"j@d.com"}, info.Emails)
}

// 电话归一化规则
func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+12345678901", normalizePhone("+1-234-567-8901"))
	assert.Equal(t, "2345678901", normalizePhone("(234) 567-8901"))
	assert.Equal(t, "2345678901", normalizePhone("234.567.8901"))
}
