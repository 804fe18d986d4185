package parser

import (
	"context"
	"strings"

	"github.com/krish132005/RESUME-ANALYZER/internal/logger"
	"github.com/krish132005/RESUME-ANALYZER/internal/ontology"
	"github.com/krish132005/RESUME-ANALYZER/internal/types"
)

// 语言能力回退扫描使用的常见语言表
var commonLanguages = []string{
	"English", "Spanish", "French", "German", "Chinese", "Mandarin",
	"Japanese", "Korean", "Hindi", "Arabic", "Portuguese", "Russian",
	"Italian", "Bengali", "Telugu", "Marathi", "Tamil", "Urdu",
	"Gujarati", "Kannada", "Malayalam", "Odia", "Punjabi",
}

// 联系方式回退扫描取全文开头的字符数
const contactScanPrefixLen = 800

// ResumeParser 简历解析流水线：切分 -> 提取 -> 组装。
// 无内部可变状态，知识库只读，可在多个goroutine间并发调用Parse。
type ResumeParser struct {
	onto      *ontology.Ontology
	segmenter *Segmenter
	contacts  *ContactExtractor
	skills    *SkillMatcher
	entries   *EntryParser
	entities  NameEntityExtractor
	fallback  *HeuristicEntityExtractor
}

// ParserOption 解析器配置选项
type ParserOption func(*ResumeParser)

// WithNameEntityExtractor 接入外部NER能力。
// 外部能力出错或无结果时自动回退到内置启发式。
func WithNameEntityExtractor(e NameEntityExtractor) ParserOption {
	return func(p *ResumeParser) {
		p.entities = e
	}
}

// WithSegmenterConfig 设置章节切分器配置
func WithSegmenterConfig(cfg SegmenterConfig) ParserOption {
	return func(p *ResumeParser) {
		p.segmenter = NewSegmenter(p.onto, cfg)
	}
}

// NewResumeParser 创建简历解析器
func NewResumeParser(onto *ontology.Ontology, options ...ParserOption) *ResumeParser {
	p := &ResumeParser{
		onto:     onto,
		contacts: NewContactExtractor(),
		skills:   NewSkillMatcher(onto),
		entries:  NewEntryParser(),
		fallback: NewHeuristicEntityExtractor(),
	}
	p.segmenter = NewSegmenter(onto, SegmenterConfig{})
	p.entities = p.fallback

	for _, option := range options {
		option(p)
	}
	return p
}

// NormalizeText 输入文本归一化：统一换行符，压缩连续空行。
// 字节级的PDF/DOCX清洗在外部边界完成，这里只做最后的行归一化。
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return text
}

// Parse 把清洗后的简历文本解析为结构化Record。
//
// 纯计算、确定性、总是成功：稀疏或无法识别的输入产生字段稀疏
// 但结构完整的Record，绝不返回错误。ctx仅透传给外部NER能力。
func (p *ResumeParser) Parse(ctx context.Context, text string) *types.Record {
	record := types.NewRecord()

	cleaned := NormalizeText(text)
	if strings.TrimSpace(cleaned) == "" {
		return record
	}

	// 1. 章节切分
	sections := p.segmenter.Segment(cleaned)
	byLabel := make(map[string]string, len(sections))
	for _, sec := range sections {
		byLabel[sec.Label] = sec.Text
	}
	headerText := byLabel[string(types.SectionHeader)]

	// 2. 联系方式：header + contact章节 + 全文开头，全部为空时回退全文扫描
	contactText := headerText
	if contact, ok := byLabel[string(types.SectionContact)]; ok {
		contactText += "\n" + contact
	}
	contactText += "\n" + prefixOf(cleaned, contactScanPrefixLen)
	record.Contact = p.contacts.ExtractWithFallback(contactText, cleaned)

	// 3. 候选人姓名：NER能力作用于header，失败则启发式回退
	nameSource := headerText
	if strings.TrimSpace(nameSource) == "" {
		nameSource = cleaned
	}
	record.CandidateName = p.extractName(ctx, nameSource)

	// 4. 组织名检测
	record.OrganizationsDetected = p.extractOrganizations(ctx, cleaned)

	// 5. 技能：skills章节（缺失时全文）+ experience + projects
	skillsText, ok := byLabel[string(types.SectionSkills)]
	if !ok {
		skillsText = cleaned
	}
	if exp, ok := byLabel[string(types.SectionExperience)]; ok {
		skillsText += "\n" + exp
	}
	if proj, ok := byLabel[string(types.SectionProjects)]; ok {
		skillsText += "\n" + proj
	}
	record.Skills = p.skills.Match(skillsText)
	record.SkillsList = Flatten(record.Skills)

	// 6. 经历条目
	if exp, ok := byLabel[string(types.SectionExperience)]; ok {
		record.Experience = p.entries.ParseExperience(exp)
	}
	if edu, ok := byLabel[string(types.SectionEducation)]; ok {
		record.Education = p.entries.ParseEducation(edu)
	}

	// 7. 学位与院校检测：优先education章节，否则全文
	entityText := byLabel[string(types.SectionEducation)]
	if strings.TrimSpace(entityText) == "" {
		entityText = cleaned
	}
	record.DegreesDetected = ExtractDegrees(entityText)
	record.UniversitiesDetected = ExtractUniversities(entityText)

	// 8. 直通文本字段
	record.Summary = byLabel[string(types.SectionSummary)]
	record.Projects = byLabel[string(types.SectionProjects)]
	record.Frameworks = byLabel[string(types.SectionFrameworks)]
	record.Certification = byLabel[string(types.SectionCertifications)]
	record.Awards = byLabel[string(types.SectionAwards)]
	record.Interests = byLabel[string(types.SectionInterests)]
	record.Languages = p.resolveLanguages(byLabel[string(types.SectionLanguages)], cleaned)

	// 9. 未映射到结构化字段的章节原样保留
	for _, sec := range sections {
		switch sec.Label {
		case string(types.SectionHeader), string(types.SectionSkills),
			string(types.SectionExperience), string(types.SectionEducation):
			continue
		}
		record.RawSections[sec.Label] = sec.Text
	}

	return record
}

// extractName 先走配置的NER能力，出错或无结果时回退内置启发式
func (p *ResumeParser) extractName(ctx context.Context, text string) string {
	name, err := p.entities.ExtractName(ctx, text)
	if err != nil {
		logger.Warn().Err(err).Msg("NER姓名提取失败，回退启发式")
	}
	if name != "" {
		return name
	}
	if p.entities == NameEntityExtractor(p.fallback) {
		return ""
	}
	name, _ = p.fallback.ExtractName(ctx, text)
	return name
}

// extractOrganizations NER组织提取，失败或为空时回退启发式
func (p *ResumeParser) extractOrganizations(ctx context.Context, text string) []string {
	orgs, err := p.entities.ExtractOrganizations(ctx, text)
	if err != nil {
		logger.Warn().Err(err).Msg("NER组织提取失败，回退启发式")
	}
	if len(orgs) > 0 {
		return orgs
	}
	if p.entities == NameEntityExtractor(p.fallback) {
		if orgs == nil {
			return []string{}
		}
		return orgs
	}
	orgs, _ = p.fallback.ExtractOrganizations(ctx, text)
	if orgs == nil {
		orgs = []string{}
	}
	return orgs
}

// resolveLanguages 优先使用languages章节，缺失或过短时
// 按常见语言表对全文做词边界回退扫描
func (p *ResumeParser) resolveLanguages(sectionText, fullText string) string {
	if len(strings.TrimSpace(sectionText)) >= 3 {
		return sectionText
	}
	fullLower := strings.ToLower(fullText)
	var found []string
	for _, lang := range commonLanguages {
		if wordBoundaryContains(fullLower, strings.ToLower(lang)) {
			found = append(found, lang)
		}
	}
	return strings.Join(found, ", ")
}

func prefixOf(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n]
}
