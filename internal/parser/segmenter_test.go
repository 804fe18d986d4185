package parser

import (
	"strings"
	"testing"

	"github.com/krish132005/RESUME-ANALYZER/internal/ontology"
	"github.com/krish132005/RESUME-ANALYZER/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	return NewSegmenter(ontology.Default(), SegmenterConfig{})
}

func sectionByLabel(sections []types.Section, label string) (types.Section, bool) {
	for _, sec := range sections {
		if sec.Label == label {
			return sec, true
		}
	}
	return types.Section{}, false
}

// 标准布局：header + 多个识别标题
func TestSegmentBasicLayout(t *testing.T) {
	seg := newTestSegmenter(t)

	text := "Jane Doe\njane@x.com\n\nEXPERIENCE\nSoftware Engineer at Acme Corp\n\nEDUCATION\nStanford University\n\nSKILLS\nPython, React"
	sections := seg.Segment(text)

	header, ok := sectionByLabel(sections, string(types.SectionHeader))
	require.True(t, ok)
	assert.Contains(t, header.Text, "Jane Doe")
	assert.Contains(t, header.Text, "jane@x.com")

	exp, ok := sectionByLabel(sections, string(types.SectionExperience))
	require.True(t, ok)
	assert.Equal(t, "Software Engineer at Acme Corp", exp.Text)

	edu, ok := sectionByLabel(sections, string(types.SectionEducation))
	require.True(t, ok)
	assert.Equal(t, "Stanford University", edu.Text)

	skills, ok := sectionByLabel(sections, string(types.SectionSkills))
	require.True(t, ok)
	assert.Equal(t, "Python, React", skills.Text)
}

// 零识别标题的文档退化为单个包含全文的header章节
func TestSegmentNoRecognizedHeadings(t *testing.T) {
	seg := newTestSegmenter(t)

	text := "just some plain text\nwith no headings at all\nspanning a few lines."
	sections := seg.Segment(text)

	require.Len(t, sections, 1)
	assert.Equal(t, string(types.SectionHeader), sections[0].Label)
	assert.Equal(t, text, sections[0].Text)
}

// 空文档也返回一个header章节
func TestSegmentEmptyDocument(t *testing.T) {
	seg := newTestSegmenter(t)

	sections := seg.Segment("")
	require.Len(t, sections, 1)
	assert.Equal(t, string(types.SectionHeader), sections[0].Label)
	assert.Equal(t, "", sections[0].Text)
}

// 同义词映射："WORK EXPERIENCE"、"Employment History" 都归到experience
func TestSegmentHeadingSynonyms(t *testing.T) {
	seg := newTestSegmenter(t)

	for _, heading := range []string{"WORK EXPERIENCE", "Employment History", "Professional Experience", "Career History"} {
		sections := seg.Segment("Intro\n\n" + heading + "\nsome content")
		sec, ok := sectionByLabel(sections, string(types.SectionExperience))
		require.True(t, ok, "标题 %q 未映射到experience", heading)
		assert.Equal(t, "some content", sec.Text)
	}
}

// 重复标题按首次出现顺序合并
func TestSegmentDuplicateHeadingsMerge(t *testing.T) {
	seg := newTestSegmenter(t)

	text := "Intro\n\nSKILLS\nPython\n\nEXPERIENCE\nAcme\n\nSKILLS\nReact"
	sections := seg.Segment(text)

	skills, ok := sectionByLabel(sections, string(types.SectionSkills))
	require.True(t, ok)
	assert.Contains(t, skills.Text, "Python")
	assert.Contains(t, skills.Text, "React")

	// skills章节位置保持首次出现处（header之后、experience之前）
	var labels []string
	for _, sec := range sections {
		labels = append(labels, sec.Label)
	}
	assert.Equal(t, []string{"header", "skills", "experience"}, labels)
}

// 标题与内容同行："SKILLS: Python, Java" 冒号后的内容进入章节
func TestSegmentInlineHeadingContent(t *testing.T) {
	seg := newTestSegmenter(t)

	sections := seg.Segment("Intro\n\nSKILLS: Python, Java")
	skills, ok := sectionByLabel(sections, string(types.SectionSkills))
	require.True(t, ok)
	assert.Equal(t, "Python, Java", skills.Text)
}

// 未知标题（全大写、无数字）以原文为标签开启新章节，不并入上一章节
func TestSegmentUnknownHeadingStartsRawSection(t *testing.T) {
	seg := newTestSegmenter(t)

	text := "Intro\n\nEXPERIENCE\nAcme Corp\n\nMISCELLANEOUS\nsome other stuff"
	sections := seg.Segment(text)

	raw, ok := sectionByLabel(sections, "MISCELLANEOUS")
	require.True(t, ok)
	assert.Equal(t, "some other stuff", raw.Text)

	exp, _ := sectionByLabel(sections, string(types.SectionExperience))
	assert.NotContains(t, exp.Text, "some other stuff")
}

// 首个识别标题之前的全大写行（如姓名缩写行）不会被当成未知标题
func TestSegmentNoRawHeadingBeforeFirstRecognized(t *testing.T) {
	seg := newTestSegmenter(t)

	text := "JANE DOE\njane@x.com\n\nSKILLS\nPython"
	sections := seg.Segment(text)

	header, ok := sectionByLabel(sections, string(types.SectionHeader))
	require.True(t, ok)
	assert.Contains(t, header.Text, "JANE DOE")
	_, ok = sectionByLabel(sections, "JANE DOE")
	assert.False(t, ok)
}

// 超过词数阈值的行不是标题候选
func TestSegmentLongLineNotHeading(t *testing.T) {
	seg := newTestSegmenter(t)

	longLine := "Experience with seven or more words should never be treated as heading"
	require.Greater(t, len(strings.Fields(longLine)), DefaultMaxHeadingWords)

	sections := seg.Segment("Intro\n\n" + longLine + "\nmore text")
	_, ok := sectionByLabel(sections, string(types.SectionExperience))
	assert.False(t, ok)
}

// 句末标点结尾的短行不是标题候选
func TestSegmentPunctuatedLineNotHeading(t *testing.T) {
	seg := newTestSegmenter(t)

	sections := seg.Segment("Intro\n\nSkills improved.\nmore text")
	_, ok := sectionByLabel(sections, string(types.SectionSkills))
	assert.False(t, ok)
}

// "experienced" 之类前缀命中但后随字母的行不是标题
func TestSegmentPrefixWordNotHeading(t *testing.T) {
	seg := newTestSegmenter(t)

	sections := seg.Segment("Intro\n\nExperienced Developer\nmore text")
	_, ok := sectionByLabel(sections, string(types.SectionExperience))
	assert.False(t, ok)
}

// Order字段保持文档位置
func TestSegmentOrderPreserved(t *testing.T) {
	seg := newTestSegmenter(t)

	sections := seg.Segment("Intro\n\nEDUCATION\nStanford\n\nEXPERIENCE\nAcme")
	for i, sec := range sections {
		assert.Equal(t, i, sec.Order, "章节 %s 的Order不正确", sec.Label)
	}
}
