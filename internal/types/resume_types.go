package types

// SectionTag 表示简历章节的规范化标签
type SectionTag string

const (
	// SectionHeader 首个识别标题之前的文本（通常包含姓名和联系方式）
	SectionHeader SectionTag = "header"
	// SectionContact 联系方式章节
	SectionContact SectionTag = "contact"
	// SectionSummary 个人简介/求职目标章节
	SectionSummary SectionTag = "summary"
	// SectionSkills 技能章节
	SectionSkills SectionTag = "skills"
	// SectionExperience 工作经历章节
	SectionExperience SectionTag = "experience"
	// SectionEducation 教育经历章节
	SectionEducation SectionTag = "education"
	// SectionProjects 项目经历章节
	SectionProjects SectionTag = "projects"
	// SectionCertifications 证书章节
	SectionCertifications SectionTag = "certifications"
	// SectionPublications 论文/出版物章节
	SectionPublications SectionTag = "publications"
	// SectionAwards 获奖章节
	SectionAwards SectionTag = "awards"
	// SectionLanguages 语言能力章节
	SectionLanguages SectionTag = "languages"
	// SectionInterests 兴趣爱好章节
	SectionInterests SectionTag = "interests"
	// SectionReferences 推荐人章节
	SectionReferences SectionTag = "references"
	// SectionFrameworks 框架/工具章节
	SectionFrameworks SectionTag = "frameworks"
	// SectionVolunteer 志愿活动章节
	SectionVolunteer SectionTag = "volunteer"
)

// Section 简历章节结构。Label 是规范化标签、"header"，或未识别标题的原始文本。
// Order 保留章节在文档中的出现顺序。
type Section struct {
	Label string // 规范化标签或原始标题文本
	Text  string // 章节正文
	Order int    // 文档内顺序（从0开始）
}

// IsCanonical 判断章节标签是否为已知的规范化标签
func (s Section) IsCanonical() bool {
	switch SectionTag(s.Label) {
	case SectionHeader, SectionContact, SectionSummary, SectionSkills,
		SectionExperience, SectionEducation, SectionProjects,
		SectionCertifications, SectionPublications, SectionAwards,
		SectionLanguages, SectionInterests, SectionReferences,
		SectionFrameworks, SectionVolunteer:
		return true
	}
	return false
}

// ContactInfo 联系方式信息
type ContactInfo struct {
	Emails   []string `json:"emails"`             // 邮箱列表（去重，保序）
	Phones   []string `json:"phones"`             // 电话列表（展示形式，按数字归一化去重）
	LinkedIn string   `json:"linkedin,omitempty"` // LinkedIn个人主页，取首个匹配
	GitHub   string   `json:"github,omitempty"`   // GitHub个人主页，取首个匹配
	Websites []string `json:"websites"`           // 其他网址（去重，保序）
}

// DateRange 日期区间。日期保留原始展示字符串，不做日历运算。
// EndDate 可能为字面量 "Present"。
type DateRange struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// ExperienceEntry 单条工作经历
type ExperienceEntry struct {
	Title       string     `json:"title,omitempty"`
	Company     string     `json:"company,omitempty"`
	Dates       *DateRange `json:"dates,omitempty"`
	Description string     `json:"description"`
}

// EducationEntry 单条教育经历
type EducationEntry struct {
	Degree      string     `json:"degree,omitempty"`
	Institution string     `json:"institution,omitempty"`
	Dates       *DateRange `json:"dates,omitempty"`
	GPA         string     `json:"gpa,omitempty"`
	Details     string     `json:"details"`
}

// SkillMap 类别名 -> 规范化技能名有序列表（首次出现顺序，去重）
type SkillMap map[string][]string

// Record 一次解析的最终结构化输出。每次Parse调用都会生成新的Record，
// 返回后即视为不可变。
type Record struct {
	CandidateName string            `json:"candidate_name,omitempty"`
	Contact       ContactInfo       `json:"contact"`
	Summary       string            `json:"summary,omitempty"`
	Skills        SkillMap          `json:"skills"`
	SkillsList    []string          `json:"skills_list"`
	Experience    []ExperienceEntry `json:"experience"`
	Education     []EducationEntry  `json:"education"`
	Projects      string            `json:"projects,omitempty"`
	Frameworks    string            `json:"frameworks,omitempty"`
	Certification string            `json:"certifications,omitempty"`
	Awards        string            `json:"awards,omitempty"`
	Languages     string            `json:"languages,omitempty"`
	Interests     string            `json:"interests,omitempty"`

	// 实体检测结果（NER或启发式回退）
	OrganizationsDetected []string `json:"organizations_detected"`
	DegreesDetected       []string `json:"degrees_detected"`
	UniversitiesDetected  []string `json:"universities_detected"`

	// 未映射到结构化字段的章节，按标题（规范化或原始）原样保留
	RawSections map[string]string `json:"raw_sections"`
}

// DisplayTitle 派生展示用头衔：取第一条工作经历的职位名
func (r *Record) DisplayTitle() string {
	if len(r.Experience) > 0 {
		return r.Experience[0].Title
	}
	return ""
}

// NewRecord 创建所有集合字段均已初始化的空Record，
// 保证序列化时输出 [] / {} 而不是 null
func NewRecord() *Record {
	return &Record{
		Contact: ContactInfo{
			Emails:   []string{},
			Phones:   []string{},
			Websites: []string{},
		},
		Skills:                SkillMap{},
		SkillsList:            []string{},
		Experience:            []ExperienceEntry{},
		Education:             []EducationEntry{},
		OrganizationsDetected: []string{},
		DegreesDetected:       []string{},
		UniversitiesDetected:  []string{},
		RawSections:           map[string]string{},
	}
}
