package parser

import (
	"sort"
	"strings"

	"github.com/krish132005/RESUME-ANALYZER/internal/ontology"
	"github.com/krish132005/RESUME-ANALYZER/internal/types"
)

// SkillMatcher 技能匹配器：把文本片段与技能知识库比对，
// 别名解析到规范名，结果按类别分组
type SkillMatcher struct {
	onto *ontology.Ontology
}

// NewSkillMatcher 创建技能匹配器
func NewSkillMatcher(onto *ontology.Ontology) *SkillMatcher {
	return &SkillMatcher{onto: onto}
}

// Match 在文本中查找知识库技能。
//
// 表面形式按长度降序匹配，命中的文本区间被占用后不再参与更短形式的匹配，
// 因此 "React.js" 条目存在时，文本 "Built with React.js" 不会同时命中
// 独立的 "React" 条目。同一规范名经多个别名命中只记录一次。
// 返回 类别 -> 规范名列表（首次命中顺序，去重）。
func (m *SkillMatcher) Match(text string) types.SkillMap {
	textLower := strings.ToLower(text)

	type hit struct {
		canonical string
		category  string
		pos       int // 文本中的首次命中位置，用于稳定排序
	}

	var claimed [][2]int
	overlaps := func(span [2]int) bool {
		for _, c := range claimed {
			if span[0] < c[1] && c[0] < span[1] {
				return true
			}
		}
		return false
	}

	matched := make(map[string]bool)
	var hits []hit

	// SurfaceForms 已按长度降序排列
	for _, sf := range m.onto.SurfaceForms() {
		spans := sf.FindSpansLower(textLower)
		firstPos := -1
		for _, span := range spans {
			if overlaps(span) {
				continue
			}
			claimed = append(claimed, span)
			if firstPos < 0 {
				firstPos = span[0]
			}
		}
		if firstPos < 0 || matched[sf.Canonical] {
			continue
		}
		matched[sf.Canonical] = true
		hits = append(hits, hit{canonical: sf.Canonical, category: sf.Category, pos: firstPos})
	}

	// 按文本中的出现位置排序，保证"首次出现顺序"与匹配顺序无关
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].pos < hits[j].pos
	})

	result := types.SkillMap{}
	for _, h := range hits {
		result[h.category] = append(result[h.category], h.canonical)
	}
	return result
}

// Flatten 把分类结果压平为去重且排序的技能名列表
func Flatten(skills types.SkillMap) []string {
	seen := make(map[string]bool)
	flat := make([]string, 0, len(skills))
	for _, names := range skills {
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				flat = append(flat, name)
			}
		}
	}
	sort.Strings(flat)
	return flat
}
