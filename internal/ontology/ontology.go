package ontology

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultOntologyYAML []byte

// SkillEntry 技能知识库中的一条技能：规范名、所属类别、别名列表
type SkillEntry struct {
	CanonicalName string   `yaml:"canonical_name" json:"canonical_name"`
	Category      string   `yaml:"category" json:"category"`
	Aliases       []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// File 知识库文件的磁盘结构（YAML）
type File struct {
	// 规范化章节标签 -> 标题同义词列表
	Headings map[string][]string `yaml:"headings"`
	// 技能条目列表
	Skills []SkillEntry `yaml:"skills"`
}

// headingSynonym 一条标题同义词及其对应的规范化标签
type headingSynonym struct {
	synonym string // 已小写
	tag     string
}

// SurfaceForm 技能的一个可搜索表面形式（规范名本身或某个别名）
type SurfaceForm struct {
	Form      string // 原始表面形式
	Canonical string // 对应的规范技能名
	Category  string // 所属类别

	formLower string
}

// FindSpansLower 在已小写的文本中查找该表面形式的全部边界感知出现位置。
// 边界定义：表面形式两侧均不能紧邻字母或数字，
// 这样 "Java" 不会命中 "JavaScript"，"C++" 等含特殊字符的技能也能正确匹配。
// RE2不支持环视，且正则扫描会吞掉相邻匹配的分隔符，因此用索引扫描实现。
func (s SurfaceForm) FindSpansLower(textLower string) [][2]int {
	var spans [][2]int
	for start := 0; start <= len(textLower)-len(s.formLower); {
		i := strings.Index(textLower[start:], s.formLower)
		if i < 0 {
			break
		}
		b := start + i
		e := b + len(s.formLower)
		if boundaryBefore(textLower, b) && boundaryAfter(textLower, e) {
			spans = append(spans, [2]int{b, e})
		}
		start = b + 1
	}
	return spans
}

// MatchesLower 对已小写的文本做边界感知存在性判断
func (s SurfaceForm) MatchesLower(textLower string) bool {
	return len(s.FindSpansLower(textLower)) > 0
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func boundaryBefore(text string, i int) bool {
	return i == 0 || !isAlnum(text[i-1])
}

func boundaryAfter(text string, i int) bool {
	return i >= len(text) || !isAlnum(text[i])
}

// Ontology 只读的解析知识库：标题同义词表 + 技能表。
// 进程启动时加载一次，解析过程中不会被修改，可在多个goroutine间安全共享。
type Ontology struct {
	headings []headingSynonym // 按同义词长度降序
	surfaces []SurfaceForm    // 按表面形式长度降序
}

// Load 从YAML文件加载知识库
func Load(path string) (*Ontology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取知识库文件失败 %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 从YAML字节解析知识库
func Parse(data []byte) (*Ontology, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析知识库YAML失败: %w", err)
	}
	return Build(&f)
}

// Default 返回内置的默认知识库。
// 内置数据保证合法，构建失败视为程序缺陷。
func Default() *Ontology {
	o, err := Parse(defaultOntologyYAML)
	if err != nil {
		panic(fmt.Sprintf("内置知识库损坏: %v", err))
	}
	return o
}

// Build 从文件结构构建查找索引
func Build(f *File) (*Ontology, error) {
	o := &Ontology{}

	for tag, synonyms := range f.Headings {
		for _, syn := range synonyms {
			syn = strings.TrimSpace(strings.ToLower(syn))
			if syn == "" {
				continue
			}
			o.headings = append(o.headings, headingSynonym{synonym: syn, tag: tag})
		}
	}
	// 长同义词优先（最具体），长度相同按字典序保证确定性
	sort.SliceStable(o.headings, func(i, j int) bool {
		if len(o.headings[i].synonym) != len(o.headings[j].synonym) {
			return len(o.headings[i].synonym) > len(o.headings[j].synonym)
		}
		return o.headings[i].synonym < o.headings[j].synonym
	})

	for _, skill := range f.Skills {
		if skill.CanonicalName == "" {
			return nil, fmt.Errorf("技能条目缺少canonical_name（类别: %s）", skill.Category)
		}
		forms := append([]string{skill.CanonicalName}, skill.Aliases...)
		seen := make(map[string]bool, len(forms))
		for _, form := range forms {
			form = strings.TrimSpace(form)
			lower := strings.ToLower(form)
			if lower == "" || seen[lower] {
				continue
			}
			seen[lower] = true
			o.surfaces = append(o.surfaces, SurfaceForm{
				Form:      form,
				Canonical: skill.CanonicalName,
				Category:  skill.Category,
				formLower: lower,
			})
		}
	}
	// 长表面形式优先，避免 "Node" 遮蔽 "Node.js"
	sort.SliceStable(o.surfaces, func(i, j int) bool {
		if len(o.surfaces[i].formLower) != len(o.surfaces[j].formLower) {
			return len(o.surfaces[i].formLower) > len(o.surfaces[j].formLower)
		}
		return o.surfaces[i].formLower < o.surfaces[j].formLower
	})

	return o, nil
}

// MatchHeadingLine 判断一行文本是否为表内标题行，并映射到规范化标签。
// 同义词必须位于行首，其后只允许结束或一个冒号（冒号后的同行内容作为rest返回，
// 兼容 "SKILLS: Python, React" 这种标题与内容同行的写法）。
// 多个同义词同时命中时最长者胜出。
func (o *Ontology) MatchHeadingLine(line string) (tag string, rest string, ok bool) {
	trimmed := strings.TrimSpace(line)
	lower := strings.ToLower(trimmed)
	if lower == "" {
		return "", "", false
	}
	for _, h := range o.headings {
		if !strings.HasPrefix(lower, h.synonym) {
			continue
		}
		rem := strings.TrimSpace(trimmed[len(h.synonym):])
		if rem == "" {
			return h.tag, "", true
		}
		if strings.HasPrefix(rem, ":") || strings.HasPrefix(rem, "：") {
			return h.tag, strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(rem, "："), ":")), true
		}
		// 前缀命中但后随其他字符（如 "experienced"），不是标题
	}
	return "", "", false
}

// SurfaceForms 返回按长度降序排列的全部技能表面形式
func (o *Ontology) SurfaceForms() []SurfaceForm {
	return o.surfaces
}

// HeadingCount 返回加载的标题同义词条数
func (o *Ontology) HeadingCount() int {
	return len(o.headings)
}

// SkillSurfaceCount 返回加载的技能表面形式条数
func (o *Ontology) SkillSurfaceCount() int {
	return len(o.surfaces)
}

// NormalizeHeading 标题归一化：小写、去首尾空白、去尾部冒号
func NormalizeHeading(raw string) string {
	cleaned := strings.TrimSpace(strings.ToLower(raw))
	cleaned = strings.TrimRight(cleaned, ":：")
	return strings.TrimSpace(cleaned)
}
