package parser

import (
	"regexp"
	"strings"

	"github.com/krish132005/RESUME-ANALYZER/internal/types"
)

// 联系方式匹配模式
var (
	// 邮箱：local-part@domain，域名至少含一个点
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// 电话：容忍分隔符（空格、连字符、点、括号）和可选国家码
	// 例: +1-234-567-8901, (234) 567-8901, 234.567.8901, +91 98765 43210
	phonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[\s\-.]?)?\(?\d{2,4}\)?[\s\-.]?\d{3,5}[\s\-.]?\d{3,5}`)

	// LinkedIn个人主页（URL或裸handle）
	linkedinPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?linkedin\.com/in/[a-zA-Z0-9\-_%]+/?`)

	// GitHub个人主页（URL或裸handle）
	githubPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/[a-zA-Z0-9\-_]+/?`)

	// 一般网址
	websitePattern = regexp.MustCompile(`(?i)https?://[a-zA-Z0-9\-]+(?:\.[a-zA-Z0-9\-]+)+(?:/[^\s]*)?`)

	nonDigit = regexp.MustCompile(`\D`)
)

// ContactExtractor 基于正则的联系方式提取器。无内部状态，可并发使用。
type ContactExtractor struct{}

// NewContactExtractor 创建联系方式提取器
func NewContactExtractor() *ContactExtractor {
	return &ContactExtractor{}
}

// Extract 从文本中提取全部联系方式。
// 任何字段缺失都不是错误：列表为空、可选字段为空字符串。
func (e *ContactExtractor) Extract(text string) types.ContactInfo {
	info := types.ContactInfo{
		Emails:   []string{},
		Phones:   []string{},
		Websites: []string{},
	}

	// 邮箱：按小写去重，保留首次出现的原始形式
	seenEmails := make(map[string]bool)
	for _, email := range emailPattern.FindAllString(text, -1) {
		lower := strings.ToLower(email)
		if !seenEmails[lower] {
			seenEmails[lower] = true
			info.Emails = append(info.Emails, email)
		}
	}

	// 电话：按归一化数字串去重，存储原始展示形式
	seenPhones := make(map[string]bool)
	for _, phone := range phonePattern.FindAllString(text, -1) {
		if !isPlausiblePhone(phone) {
			continue
		}
		normalized := normalizePhone(phone)
		if !seenPhones[normalized] {
			seenPhones[normalized] = true
			info.Phones = append(info.Phones, strings.TrimSpace(phone))
		}
	}

	// LinkedIn / GitHub：单值字段，文档序首个匹配胜出
	if m := linkedinPattern.FindString(text); m != "" {
		info.LinkedIn = ensureHTTPS(m)
	}
	if m := githubPattern.FindString(text); m != "" {
		info.GitHub = ensureHTTPS(m)
	}

	// 其他网址：排除linkedin/github域名，按小写去重
	seenSites := make(map[string]bool)
	for _, url := range websitePattern.FindAllString(text, -1) {
		lower := strings.ToLower(url)
		if strings.Contains(lower, "linkedin.com") || strings.Contains(lower, "github.com") {
			continue
		}
		if !seenSites[lower] {
			seenSites[lower] = true
			info.Websites = append(info.Websites, url)
		}
	}

	return info
}

// ExtractWithFallback 先在主文本（通常是header章节）提取；
// 若邮箱和电话均为空再对全文做一次回退扫描
func (e *ContactExtractor) ExtractWithFallback(primary, full string) types.ContactInfo {
	info := e.Extract(primary)
	if len(info.Emails) == 0 && len(info.Phones) == 0 {
		return e.Extract(full)
	}
	return info
}

// normalizePhone 电话归一化：去掉所有非数字字符，保留开头的+。
// 仅用于比较和去重，不改变存储的展示形式。
func normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	digits := nonDigit.ReplaceAllString(raw, "")
	if strings.HasPrefix(raw, "+") {
		return "+" + digits
	}
	return digits
}

// isPlausiblePhone 电话合法性：7到15位数字。
// 过滤掉年份区间（2020-2024）、邮编等误匹配。
func isPlausiblePhone(raw string) bool {
	n := len(nonDigit.ReplaceAllString(raw, ""))
	return n >= 7 && n <= 15
}

// ensureHTTPS 为裸handle形式的URL补上协议前缀
func ensureHTTPS(url string) string {
	if strings.HasPrefix(strings.ToLower(url), "http") {
		return url
	}
	return "https://" + url
}
