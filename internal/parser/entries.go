package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/krish132005/RESUME-ANALYZER/internal/types"
)

// 日期匹配模式
const monthNames = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|` +
	`Jul(?:y)?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|` +
	`Dec(?:ember)?)`

var (
	// 日期区间: "Jan 2020 - Present", "March 2019 – Dec 2021", "2018 - 2022"
	dateRangePattern = regexp.MustCompile(`(?i)(` + monthNames + `[\s,]*\d{4}|\d{4})` +
		`\s*(?:[-–—]+|to)\s*` +
		`(` + monthNames + `[\s,]*\d{4}|\d{4}|Present|Current|Now|Ongoing)`)

	// 单个日期: "May 2023" 或 "2023"
	singleDatePattern = regexp.MustCompile(`(?i)(` + monthNames + `[\s,]*\d{4}|\d{4})`)

	// GPA: "GPA: 3.8/4.0", "CGPA: 9.2/10", "3.85 GPA"
	// 要求小数点，避免把裸年份（如2016）当成GPA
	gpaPattern = regexp.MustCompile(`(?i)(?:C?GPA|Grade)\s*:?\s*(\d+\.\d+(?:\s*/\s*\d+\.?\d*)?)|` +
		`(\d+\.\d+(?:\s*/\s*\d+\.?\d*)?)\s*(?:C?GPA|Grade)`)

	pipeSplitPattern = regexp.MustCompile(`\s*\|\s*`)
	atSplitPattern   = regexp.MustCompile(`(?i)\s+at\s+`)
	blankLinePattern = regexp.MustCompile(`\n\s*\n`)

	// 行首的项目符号
	bulletPrefixPattern = regexp.MustCompile(`^[\s]*[•●▪‣·◦\-\*–]+[\s]+`)
)

// EntryParser 经历条目解析器：把Experience/Education章节文本
// 结构化为有序的条目列表
type EntryParser struct{}

// NewEntryParser 创建经历条目解析器
func NewEntryParser() *EntryParser {
	return &EntryParser{}
}

// extractDateRange 提取第一个日期区间，保留原始展示字符串
func extractDateRange(text string) *types.DateRange {
	m := dateRangePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return &types.DateRange{
		StartDate: strings.TrimSpace(m[1]),
		EndDate:   strings.TrimSpace(m[2]),
	}
}

// splitEntries 把章节文本切分为独立条目。
//
// 空行是主分隔符，但空行后的块必须看起来像新条目的头部
// （首两行带日期区间，或首行呈 "Title at Company" / 管道分隔等形状），
// 否则视为上一条目的接续段落合并回去，以区分新条目和描述的续行。
// 整段没有空行时退化为按日期区间切分：仅当当前条目已含日期区间时，
// 再次出现的日期行（或头部形状行）才开启新条目，紧邻日期行之前的
// 裸标题行一并归入新条目。
func splitEntries(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	blocks := blankLinePattern.Split(text, -1)
	if len(blocks) > 1 {
		var entries []string
		for _, block := range blocks {
			block = strings.TrimSpace(block)
			if block == "" {
				continue
			}
			if len(entries) > 0 && !blockStartsEntry(block) {
				entries[len(entries)-1] += "\n" + block
			} else {
				entries = append(entries, block)
			}
		}
		return entries
	}

	var entries []string
	var current []string
	currentHasDate := false

	flush := func(carry []string) {
		if len(current) > 0 {
			entries = append(entries, strings.Join(current, "\n"))
		}
		current = carry
		currentHasDate = false
		for _, l := range carry {
			if dateRangePattern.MatchString(l) {
				currentHasDate = true
			}
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lineHasDate := dateRangePattern.MatchString(line)

		if len(current) > 0 && currentHasDate && (lineHasDate || looksLikeEntryHeader(line)) {
			carry := []string{}
			// 日期行触发切分时，其上一行若是裸标题则属于新条目
			if lineHasDate && len(current) > 1 && isBareHeaderLine(current[len(current)-1]) {
				carry = append(carry, current[len(current)-1])
				current = current[:len(current)-1]
			}
			flush(append(carry, line))
			continue
		}

		current = append(current, line)
		currentHasDate = currentHasDate || lineHasDate
	}
	if len(current) > 0 {
		entries = append(entries, strings.Join(current, "\n"))
	}
	return entries
}

// blockStartsEntry 判断空行后的块是否是新条目的开头
func blockStartsEntry(block string) bool {
	lines := nonEmptyLines(block)
	if len(lines) == 0 {
		return false
	}
	// 项目符号开头的块是上一条目描述的接续
	if stripBullet(lines[0]) != lines[0] {
		return false
	}
	head := lines
	if len(head) > 3 {
		head = head[:3]
	}
	for _, line := range head {
		if dateRangePattern.MatchString(line) {
			return true
		}
	}
	return looksLikeEntryHeader(lines[0])
}

// looksLikeEntryHeader 行呈条目头部形状：
// 含日期区间，或短且带 "Title at Company" / 管道 / 逗号 / " - " 分隔结构
func looksLikeEntryHeader(line string) bool {
	if dateRangePattern.MatchString(line) {
		return true
	}
	if len(strings.Fields(line)) > 8 || strings.HasSuffix(line, ".") {
		return false
	}
	if atSplitPattern.MatchString(line) || strings.Contains(line, "|") {
		return true
	}
	// "Title, Company" / "Title - Company"：要求两侧都以大写开头，
	// 避免把描述里的普通逗号句当成新条目
	for _, sep := range []string{", ", " - "} {
		parts := strings.SplitN(line, sep, 2)
		if len(parts) == 2 && startsUpper(parts[0]) && startsUpper(parts[1]) {
			return true
		}
	}
	return false
}

// startsUpper 首个非空白字符是大写字母
func startsUpper(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		return unicode.IsUpper(r)
	}
	return false
}

// isBareHeaderLine 不含日期、非项目符号、较短且无句末标点的行，
// 可能是紧随其后的日期行所属条目的标题行
func isBareHeaderLine(line string) bool {
	if dateRangePattern.MatchString(line) {
		return false
	}
	if stripBullet(line) != line {
		return false
	}
	if len(strings.Fields(line)) > 8 {
		return false
	}
	return !strings.HasSuffix(line, ".")
}

// stripDates 去掉文本中的日期区间和单个日期并清理残留分隔符
func stripDates(text string) string {
	cleaned := dateRangePattern.ReplaceAllString(text, "")
	cleaned = singleDatePattern.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, "|,–-")
	return strings.TrimSpace(cleaned)
}

// stripBullet 去掉行首的项目符号
func stripBullet(line string) string {
	return bulletPrefixPattern.ReplaceAllString(line, "")
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// joinDescription 拼接描述行：去项目符号，丢弃纯日期行（短于40字符的日期行视为噪声）
func joinDescription(lines []string) string {
	var out []string
	for _, line := range lines {
		if dateRangePattern.MatchString(line) && len(line) <= 40 {
			continue
		}
		out = append(out, stripBullet(line))
	}
	return strings.Join(out, "\n")
}

// ParseExperience 解析Experience章节为有序条目列表。
// 非空章节永远不会返回空列表：无法识别任何条目边界时，
// 返回单条仅填充description的条目。
func (p *EntryParser) ParseExperience(sectionText string) []types.ExperienceEntry {
	blocks := splitEntries(sectionText)
	var entries []types.ExperienceEntry

	for _, block := range blocks {
		entry := p.parseExperienceEntry(block)
		if entry.Title != "" || entry.Company != "" {
			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 && strings.TrimSpace(sectionText) != "" {
		return []types.ExperienceEntry{{
			Description: joinDescription(nonEmptyLines(sectionText)),
		}}
	}
	return entries
}

// parseExperienceEntry 解析单条工作经历。
// 条目头部的识别按优先级依次尝试：
//  1. 首行尾部内联日期区间（"Senior Developer    Jan 2020 - Present"）
//  2. "标题行 \n 公司+日期行" 两行结构
//  3. 管道分隔（"Title | Company | 2020 - 2022"）
//  4. " at " 分隔（"Title at Company"）
//  5. "Title - Company" / "Title, Company" 分隔
//  6. 默认：首行为标题，次行为公司
func (p *EntryParser) parseExperienceEntry(block string) types.ExperienceEntry {
	lines := nonEmptyLines(block)
	if len(lines) == 0 {
		return types.ExperienceEntry{}
	}

	entry := types.ExperienceEntry{Dates: extractDateRange(block)}
	firstLine := lines[0]
	descStart := 1

	dateMatch := dateRangePattern.FindStringIndex(firstLine)

	switch {
	case dateMatch != nil && dateMatch[0] > 5:
		// 首行尾部带日期区间，日期之前的部分再按分隔符拆分
		head := strings.TrimSpace(firstLine[:dateMatch[0]])
		head = strings.TrimRight(head, "|,–- ")
		switch {
		case strings.Contains(head, "|"):
			parts := pipeSplitPattern.Split(head, -1)
			entry.Title = strings.TrimSpace(parts[0])
			if len(parts) > 1 {
				entry.Company = strings.TrimSpace(parts[1])
			}
		case atSplitPattern.MatchString(head):
			parts := atSplitPattern.Split(head, 2)
			entry.Title = strings.TrimSpace(parts[0])
			entry.Company = strings.TrimSpace(parts[1])
		default:
			entry.Title = head
			if len(lines) > 1 && isBareHeaderLine(lines[1]) {
				if company := stripDates(lines[1]); company != "" {
					entry.Company = company
					descStart = 2
				}
			}
		}

	case len(lines) > 1 && dateRangePattern.MatchString(lines[1]) && stripDates(lines[1]) != "":
		// 首行是标题，次行含公司和日期。
		// 次行只有日期没有公司时不走此分支，让首行继续按分隔符形状解析
		entry.Title = stripDates(firstLine)
		entry.Company = stripDates(lines[1])
		descStart = 2

	case strings.Contains(firstLine, "|"):
		parts := pipeSplitPattern.Split(firstLine, -1)
		var nonDate []string
		for _, part := range parts {
			if dateRangePattern.MatchString(part) {
				continue
			}
			if m := singleDatePattern.FindString(part); m == strings.TrimSpace(part) && m != "" {
				continue
			}
			nonDate = append(nonDate, part)
		}
		if len(nonDate) >= 2 {
			entry.Title = nonDate[0]
			entry.Company = nonDate[1]
		} else if len(nonDate) == 1 {
			entry.Title = nonDate[0]
		} else {
			entry.Title = firstLine
		}

	case atSplitPattern.MatchString(firstLine):
		parts := atSplitPattern.Split(firstLine, 2)
		entry.Title = strings.TrimSpace(parts[0])
		entry.Company = stripDates(parts[1])

	case strings.Contains(firstLine, " - "):
		parts := strings.SplitN(firstLine, " - ", 2)
		entry.Title = strings.TrimSpace(parts[0])
		entry.Company = stripDates(parts[1])

	case strings.Contains(firstLine, ", "):
		parts := strings.SplitN(firstLine, ", ", 2)
		entry.Title = strings.TrimSpace(parts[0])
		entry.Company = stripDates(parts[1])

	default:
		// 首行不呈任何头部形状且像普通句子时，整块按描述处理
		if !isBareHeaderLine(firstLine) {
			descStart = 0
			break
		}
		entry.Title = stripDates(firstLine)
		if len(lines) > 1 && isBareHeaderLine(lines[1]) {
			if company := stripDates(lines[1]); company != "" {
				entry.Company = company
				descStart = 2
			}
		}
	}

	entry.Title = cleanHeaderField(entry.Title)
	entry.Company = cleanHeaderField(entry.Company)
	entry.Description = joinDescription(lines[descStart:])
	return entry
}

// cleanHeaderField 条目头部字段的最终清理：去掉残留日期和尾部逗号
func cleanHeaderField(field string) string {
	if field == "" {
		return ""
	}
	cleaned := singleDatePattern.ReplaceAllString(field, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimRight(cleaned, ",")
	return strings.TrimSpace(cleaned)
}

// ParseEducation 解析Education章节为有序条目列表。
// 错误语义与ParseExperience相同：非空章节至少返回一条。
func (p *EntryParser) ParseEducation(sectionText string) []types.EducationEntry {
	blocks := splitEntries(sectionText)
	var entries []types.EducationEntry

	for _, block := range blocks {
		entry := p.parseEducationEntry(block)
		if entry.Degree != "" || entry.Institution != "" {
			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 && strings.TrimSpace(sectionText) != "" {
		entry := types.EducationEntry{}
		text := sectionText
		if m := gpaPattern.FindStringSubmatch(text); m != nil {
			entry.GPA = firstNonEmpty(m[1], m[2])
			text = gpaPattern.ReplaceAllString(text, "")
		}
		entry.Details = joinDescription(nonEmptyLines(text))
		return []types.EducationEntry{entry}
	}
	return entries
}

// parseEducationEntry 解析单条教育经历。
// 前3行中：含院校指示词的行作为institution，命中学位模式的行作为degree；
// 都未命中时取前两行里第一条非学位行作为institution。
// GPA从正文中提取并从details里移除。
func (p *EntryParser) parseEducationEntry(block string) types.EducationEntry {
	lines := nonEmptyLines(block)
	if len(lines) == 0 {
		return types.EducationEntry{}
	}

	entry := types.EducationEntry{Dates: extractDateRange(block)}

	if m := gpaPattern.FindStringSubmatch(block); m != nil {
		entry.GPA = firstNonEmpty(m[1], m[2])
	}

	headLines := lines
	if len(headLines) > 3 {
		headLines = headLines[:3]
	}
	for _, line := range headLines {
		lower := strings.ToLower(line)

		if entry.Institution == "" && containsAny(lower, universityIndicators) {
			if inst := stripDates(line); inst != "" {
				entry.Institution = inst
			}
		}

		if entry.Degree == "" && degreeRegex.MatchString(line) {
			degree := dateRangePattern.ReplaceAllString(line, "")
			degree = gpaPattern.ReplaceAllString(degree, "")
			degree = strings.TrimSpace(degree)
			degree = strings.TrimRight(degree, "|,")
			entry.Degree = strings.TrimSpace(degree)
		}
	}

	// 没有命中院校指示词时，取前两行中第一条非学位行
	if entry.Institution == "" {
		fallback := lines
		if len(fallback) > 2 {
			fallback = fallback[:2]
		}
		for _, line := range fallback {
			if line == entry.Degree {
				continue
			}
			if inst := stripDates(gpaPattern.ReplaceAllString(line, "")); inst != "" {
				entry.Institution = inst
				break
			}
		}
	}

	if len(lines) > 2 {
		details := strings.Join(lines[2:], "\n")
		details = gpaPattern.ReplaceAllString(details, "")
		entry.Details = joinDescription(nonEmptyLines(details))
	}
	return entry
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
