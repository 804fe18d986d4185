package parser

import (
	"context"
	"regexp"
	"strings"
)

// NameEntityExtractor 外部命名实体识别能力的抽象。
// 生产环境可接入NER服务；服务不可用或超时则回退到启发式实现，
// 解析流程本身不会因此失败。
type NameEntityExtractor interface {
	// ExtractName 从文本片段中提取候选人姓名，未识别到返回空字符串
	ExtractName(ctx context.Context, text string) (string, error)
	// ExtractOrganizations 从文本片段中提取组织名列表
	ExtractOrganizations(ctx context.Context, text string) ([]string, error)
}

// 学位匹配模式
var degreePatterns = []string{
	// 完整学位名
	`(?:Bachelor|Master|Doctor)(?:'?s)?(?:\s+of\s+\w+(?:\s+\w+)?)?`,
	// 缩写学位要求带点，避免误配 "Be"、"Ma"、"Ms"
	`B\.\s?(?:Tech|Eng|Sc|A|S|Com|Ed|Arch|Des|Pharm)`,
	`M\.\s?(?:Tech|Eng|Sc|A|S|Com|Ed|BA|Phil|Des|Pharm)`,
	`B\.E\.`,
	`M\.E\.`,
	`B\.?B\.?A\.?`,
	`M\.?B\.?A\.?`,
	`B\.?C\.?A\.?`,
	`M\.?C\.?A\.?`,
	`Ph\.?\s?D\.?`,
	`Diploma(?:\s+in\s+\w+(?:\s+\w+)?)?`,
	`Associate(?:'?s)?(?:\s+(?:of|in)\s+\w+(?:\s+\w+)?)?`,
	// 常见专业名
	`(?:Computer Science|Information Technology|Electrical Engineering|` +
		`Mechanical Engineering|Civil Engineering|Chemical Engineering|` +
		`Electronics|Data Science|Artificial Intelligence|Business Administration|` +
		`Commerce|Economics|Mathematics|Physics|Chemistry|Biology|` +
		`Liberal Arts|Fine Arts|Communications)`,
}

var degreeRegex = regexp.MustCompile(`(?i)` + `(?:` + strings.Join(degreePatterns, ")|(?:") + `)`)

// 院校指示词
var universityIndicators = []string{
	"university", "institute", "college", "school", "academy",
	"iit", "nit", "iiit", "bits", "mit", "stanford", "harvard",
	"polytechnic", "conservatory",
}

// 姓名判定时需要排除的文档关键词
var titleKeywords = []string{
	"resume", "cv", "curriculum", "vitae", "objective", "summary",
	"address", "phone", "email", "experience", "education", "skills",
	"contact", "profile", "http", "www", "linkedin", "github",
	"@", "certification", "project",
}

// 职位指示词，含这些词的行不是姓名
var jobTitleIndicators = []string{
	"engineer", "developer", "analyst", "scientist", "manager",
	"designer", "architect", "consultant", "intern", "lead",
	"director", "officer", "specialist", "coordinator", "administrator",
	"senior", "junior", "staff", "principal", "vp", "executive",
}

// 知名公司表，用于组织名启发式匹配
var knownCompanies = []string{
	"Google", "Microsoft", "Amazon", "Apple", "Meta", "Facebook",
	"Netflix", "Tesla", "IBM", "Oracle", "Intel", "Adobe",
	"Salesforce", "SAP", "Uber", "Airbnb", "Twitter", "LinkedIn",
	"Spotify", "Snap", "Stripe", "Shopify", "Atlassian",
	"Infosys", "TCS", "Wipro", "HCL", "Cognizant", "Accenture",
	"Deloitte", "McKinsey", "BCG", "Goldman Sachs", "JPMorgan",
	"Morgan Stanley", "Cisco", "VMware", "Nvidia", "AMD",
	"Samsung", "Sony", "Huawei", "Qualcomm", "PayPal",
}

var companySuffixes = []string{
	"Inc", "Inc.", "LLC", "Ltd", "Ltd.", "Corp", "Corp.",
	"Corporation", "Company", "Co.", "Group", "Technologies",
	"Solutions", "Services", "Systems", "Consulting",
	"Labs", "Software", "Tech", "Digital", "Global",
	"Pvt", "Private", "Limited",
}

var (
	namePrefixPattern  = regexp.MustCompile(`(?i)^(Name|Candidate Name|Full Name)\s*:?\s*`)
	inlineEmailPattern = regexp.MustCompile(`[\w.\-]+@[\w.\-]+\.\w+`)
	inlineURLPattern   = regexp.MustCompile(`https?://\S+`)
	pipeSepPattern     = regexp.MustCompile(`\|\s+`)
	digitPattern       = regexp.MustCompile(`\d`)
	companyRegex       = buildCompanySuffixRegex()
)

func buildCompanySuffixRegex() *regexp.Regexp {
	escaped := make([]string, len(companySuffixes))
	for i, s := range companySuffixes {
		escaped[i] = regexp.QuoteMeta(s)
	}
	return regexp.MustCompile(`([A-Z][a-zA-Z &#]+)\s+(?:` + strings.Join(escaped, "|") + `)\b`)
}

// HeuristicEntityExtractor NameEntityExtractor 的默认实现：
// 纯启发式，无外部依赖，永不出错
type HeuristicEntityExtractor struct{}

// NewHeuristicEntityExtractor 创建启发式实体提取器
func NewHeuristicEntityExtractor() *HeuristicEntityExtractor {
	return &HeuristicEntityExtractor{}
}

// ExtractName 在前10行中找第一个像人名的行：
// 2到4个首字母大写的纯字母词，不含数字，不含文档/职位关键词
func (h *HeuristicEntityExtractor) ExtractName(_ context.Context, text string) (string, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) < 3 {
			continue
		}

		line = namePrefixPattern.ReplaceAllString(line, "")

		// 同一行可能混有邮箱/网址，先剥离再判断，避免整行被跳过
		clean := inlineEmailPattern.ReplaceAllString(line, "")
		clean = inlineURLPattern.ReplaceAllString(clean, "")
		clean = pipeSepPattern.ReplaceAllString(clean, " ")
		clean = strings.TrimSpace(clean)
		if len(clean) < 3 {
			continue
		}

		lower := strings.ToLower(clean)
		if containsAny(lower, titleKeywords) {
			continue
		}

		words := strings.Fields(clean)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		if !allNameWords(words) {
			continue
		}
		if containsAny(lower, jobTitleIndicators) {
			continue
		}
		if digitPattern.MatchString(clean) {
			continue
		}
		return clean, nil
	}
	return "", nil
}

// ExtractOrganizations 组织名启发式：知名公司表 + 公司后缀模式逐行扫描
func (h *HeuristicEntityExtractor) ExtractOrganizations(_ context.Context, text string) ([]string, error) {
	orgs := []string{}
	seen := make(map[string]bool)

	textLower := strings.ToLower(text)
	for _, company := range knownCompanies {
		lower := strings.ToLower(company)
		if !seen[lower] && wordBoundaryContains(textLower, lower) {
			seen[lower] = true
			orgs = append(orgs, company)
		}
	}

	// 逐行扫描公司后缀模式，避免换行混入匹配
	for _, line := range strings.Split(text, "\n") {
		for _, match := range companyRegex.FindAllString(line, -1) {
			full := strings.TrimSpace(match)
			lower := strings.ToLower(full)
			if !seen[lower] && len(full) < 80 {
				seen[lower] = true
				orgs = append(orgs, full)
			}
		}
	}

	return orgs, nil
}

// ExtractDegrees 提取学位名称，去重保序，过滤4字符以下的噪声片段
func ExtractDegrees(text string) []string {
	degrees := []string{}
	seen := make(map[string]bool)
	for _, match := range degreeRegex.FindAllString(text, -1) {
		cleaned := strings.TrimSpace(match)
		lower := strings.ToLower(cleaned)
		if len(cleaned) >= 4 && !seen[lower] {
			seen[lower] = true
			degrees = append(degrees, cleaned)
		}
	}
	return degrees
}

// ExtractUniversities 按院校指示词逐行提取院校名，
// 合并互为子串的行（保留更完整的一条）
func ExtractUniversities(text string) []string {
	universities := []string{}
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		clean := strings.TrimSpace(line)
		lower := strings.ToLower(clean)
		if clean == "" || len(clean) >= 150 || seen[lower] {
			continue
		}
		if !containsAny(lower, universityIndicators) {
			continue
		}
		seen[lower] = true

		isSubstring := false
		for _, u := range universities {
			if strings.Contains(strings.ToLower(u), lower) {
				isSubstring = true
				break
			}
		}
		if isSubstring {
			continue
		}
		// 当前行更完整时替换掉已有的子串条目
		kept := universities[:0]
		for _, u := range universities {
			if !strings.Contains(lower, strings.ToLower(u)) {
				kept = append(kept, u)
			}
		}
		universities = append(kept, clean)
	}

	return universities
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// wordBoundaryContains 判断needle是否以完整词形式出现在haystack中
func wordBoundaryContains(haystackLower, needleLower string) bool {
	for start := 0; start <= len(haystackLower)-len(needleLower); {
		i := strings.Index(haystackLower[start:], needleLower)
		if i < 0 {
			return false
		}
		b := start + i
		e := b + len(needleLower)
		if boundaryOK(haystackLower, b, e) {
			return true
		}
		start = b + 1
	}
	return false
}

func boundaryOK(text string, b, e int) bool {
	alnum := func(c byte) bool {
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	}
	if b > 0 && alnum(text[b-1]) {
		return false
	}
	if e < len(text) && alnum(text[e]) {
		return false
	}
	return true
}

// allNameWords 判断所有词是否都像人名组成部分：
// 首字母大写（或长度不超过2的连接词），去掉点/连字符/撇号后为纯字母
func allNameWords(words []string) bool {
	for _, w := range words {
		r := []rune(w)
		if len(r) == 0 {
			return false
		}
		first := r[0]
		if !(first >= 'A' && first <= 'Z') && len(r) > 2 {
			return false
		}
		stripped := strings.NewReplacer(".", "", "-", "", "'", "").Replace(w)
		if stripped == "" || !isAlphaOnly(stripped) {
			return false
		}
	}
	return true
}

func isAlphaOnly(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}
