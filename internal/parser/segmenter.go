package parser

import (
	"strings"
	"unicode"

	"github.com/krish132005/RESUME-ANALYZER/internal/ontology"
	"github.com/krish132005/RESUME-ANALYZER/internal/types"
)

// SegmenterConfig 章节切分器的配置
type SegmenterConfig struct {
	// 标题候选行的最大词数，超过则不视为标题。0表示使用默认值
	MaxHeadingWords int
}

// DefaultMaxHeadingWords 默认的标题候选行最大词数
const DefaultMaxHeadingWords = 6

// Segmenter 章节切分器：按标题关键词启发式把清洗后的简历文本
// 切分为有序的（规范化标签，原文片段）序列
type Segmenter struct {
	onto *ontology.Ontology
	cfg  SegmenterConfig
}

// NewSegmenter 创建章节切分器
func NewSegmenter(onto *ontology.Ontology, cfg SegmenterConfig) *Segmenter {
	if cfg.MaxHeadingWords <= 0 {
		cfg.MaxHeadingWords = DefaultMaxHeadingWords
	}
	return &Segmenter{onto: onto, cfg: cfg}
}

// Segment 把文本切分为有序章节序列。
//
// 逐行扫描：命中表内标题的行关闭当前章节并开启对应规范化标签的新章节；
// 形如标题但不在表内的行（见 isRawHeading）以其原始文本为标签开启新章节，
// 避免未知标题下的内容被静默合并丢失。首个识别标题之前的所有行归入
// "header" 章节。重复标签的章节按首次出现顺序合并，内容以空行拼接。
// 没有任何识别标题的文档返回单个包含全文的 "header" 章节。
func (s *Segmenter) Segment(text string) []types.Section {
	type accum struct {
		section *types.Section
		lines   []string
	}

	var ordered []*accum
	index := make(map[string]*accum)

	appendLine := func(label string, line string) {
		a, ok := index[label]
		if !ok {
			a = &accum{section: &types.Section{Label: label, Order: len(ordered)}}
			index[label] = a
			ordered = append(ordered, a)
		}
		a.lines = append(a.lines, line)
	}
	openSection := func(label string) {
		if a, ok := index[label]; ok {
			// 同名章节合并：用空行分隔两段内容
			if n := len(a.lines); n > 0 && strings.TrimSpace(a.lines[n-1]) != "" {
				a.lines = append(a.lines, "")
			}
			return
		}
		index[label] = &accum{section: &types.Section{Label: label, Order: len(ordered)}}
		ordered = append(ordered, index[label])
	}

	current := string(types.SectionHeader)
	seenRecognized := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if s.isHeadingCandidate(trimmed) {
			if tag, rest, ok := s.onto.MatchHeadingLine(trimmed); ok {
				current = tag
				seenRecognized = true
				openSection(current)
				if rest != "" {
					appendLine(current, rest)
				}
				continue
			}
			// 未知标题只在出现过识别标题之后才开启新章节，
			// 防止文档头部的姓名等行被误判
			if seenRecognized && s.isRawHeading(trimmed) {
				current = trimmed
				openSection(current)
				continue
			}
		}

		appendLine(current, line)
	}

	sections := make([]types.Section, 0, len(ordered))
	for _, a := range ordered {
		sec := *a.section
		sec.Text = strings.TrimSpace(strings.Join(a.lines, "\n"))
		if sec.Text == "" && sec.Label != string(types.SectionHeader) {
			continue
		}
		sections = append(sections, sec)
	}

	// 空文档也保证返回一个header章节
	if len(sections) == 0 {
		sections = append(sections, types.Section{Label: string(types.SectionHeader)})
	}
	return sections
}

// isHeadingCandidate 标题候选判定：行短（词数不超过阈值）、
// 不以句末标点结尾、且为全大写或首字母大写
func (s *Segmenter) isHeadingCandidate(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	words := strings.Fields(trimmed)
	if len(words) > s.cfg.MaxHeadingWords {
		return false
	}
	last := rune(trimmed[len(trimmed)-1])
	switch last {
	case '.', '!', '?', ';', ',':
		return false
	}
	return isAllUpper(trimmed) || firstLetterUpper(trimmed)
}

// isRawHeading 未知标题的更严格判定：全大写、不含数字。
// 只靠大小写形状无法与经历条目的首行区分，因此比表内标题的判定严格得多。
func (s *Segmenter) isRawHeading(trimmed string) bool {
	if !isAllUpper(trimmed) {
		return false
	}
	return !strings.ContainsFunc(trimmed, unicode.IsDigit)
}

// isAllUpper 至少含一个字母且所有字母均为大写
func isAllUpper(text string) bool {
	hasLetter := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// firstLetterUpper 首个字母为大写
func firstLetterUpper(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r)
		}
	}
	return false
}
