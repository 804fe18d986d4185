package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// "Title at Company" 形状 + 独立日期行
func TestParseExperienceAtSeparator(t *testing.T) {
	p := NewEntryParser()

	entries := p.ParseExperience("Software Engineer at Acme Corp\nJan 2020 - Present\nBuilt things.")
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "Software Engineer", e.Title)
	assert.Equal(t, "Acme Corp", e.Company)
	require.NotNil(t, e.Dates)
	assert.Equal(t, "Jan 2020", e.Dates.StartDate)
	assert.Equal(t, "Present", e.Dates.EndDate)
	assert.Equal(t, "Built things.", e.Description)
}

// 管道分隔："Title | Company | 日期"
func TestParseExperiencePipeSeparator(t *testing.T) {
	p := NewEntryParser()

	entries := p.ParseExperience("Backend Developer | Initech | Mar 2019 - Dec 2021\nWrote services.")
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "Backend Developer", e.Title)
	assert.Equal(t, "Initech", e.Company)
	require.NotNil(t, e.Dates)
	assert.Equal(t, "Mar 2019", e.Dates.StartDate)
	assert.Equal(t, "Dec 2021", e.Dates.EndDate)
}

// 两行结构：标题行 + 公司带日期行
func TestParseExperienceTwoLineHeader(t *testing.T) {
	p := NewEntryParser()

	entries := p.ParseExperience("Senior Analyst\nGlobex Corporation, 2018 - 2022\nAnalyzed data.\nImproved process.")
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "Senior Analyst", e.Title)
	assert.Equal(t, "Globex Corporation", e.Company)
	require.NotNil(t, e.Dates)
	assert.Equal(t, "2018", e.Dates.StartDate)
	assert.Equal(t, "2022", e.Dates.EndDate)
	assert.Contains(t, e.Description, "Analyzed data.")
	assert.Contains(t, e.Description, "Improved process.")
}

// 逗号分隔的无日期条目："Title, Company" 形状也是条目边界
func TestParseExperienceCommaSeparatedBlocks(t *testing.T) {
	p := NewEntryParser()

	entries := p.ParseExperience("Software Engineer, Acme Corp\nBuilt the platform\n\nProduct Manager, Initech\nRan the roadmap")
	require.Len(t, entries, 2)

	assert.Equal(t, "Software Engineer", entries[0].Title)
	assert.Equal(t, "Acme Corp", entries[0].Company)
	assert.Equal(t, "Built the platform", entries[0].Description)

	assert.Equal(t, "Product Manager", entries[1].Title)
	assert.Equal(t, "Initech", entries[1].Company)
	assert.Equal(t, "Ran the roadmap", entries[1].Description)
}

// " - " 分隔的无日期条目
func TestParseExperienceDashSeparatedBlocks(t *testing.T) {
	p := NewEntryParser()

	entries := p.ParseExperience("Data Analyst - Hooli\nCrunched numbers\n\nConsultant - Globex\nAdvised clients")
	require.Len(t, entries, 2)

	assert.Equal(t, "Data Analyst", entries[0].Title)
	assert.Equal(t, "Hooli", entries[0].Company)
	assert.Equal(t, "Consultant", entries[1].Title)
	assert.Equal(t, "Globex", entries[1].Company)
}

// 逗号后接小写的描述段落仍并入上一条目，不被误判为新条目头
func TestParseExperienceCommaDescriptionNotSplit(t *testing.T) {
	p := NewEntryParser()

	entries := p.ParseExperience("Engineer at Acme\nJan 2020 - Present\nBuilt services\n\nLed team of 5, shipped v2 and v3")
	require.Len(t, entries, 1)
	assert.Equal(t, "Engineer", entries[0].Title)
	assert.Contains(t, entries[0].Description, "Led team of 5, shipped v2 and v3")
}

// 空行分隔多个条目，保持文档顺序
func TestParseExperienceMultipleEntries(t *testing.T) {
	p := NewEntryParser()

	text := "Engineer at Acme\nJan 2020 - Present\nDid work.\n\nIntern at Initech\nMay 2019 - Aug 2019\nLearned stuff."
	entries := p.ParseExperience(text)
	require.Len(t, entries, 2)

	assert.Equal(t, "Engineer", entries[0].Title)
	assert.Equal(t, "Acme", entries[0].Company)
	assert.Equal(t, "Intern", entries[1].Title)
	assert.Equal(t, "Initech", entries[1].Company)
}

// 空行后的项目符号块是上一条目描述的接续，不是新条目
func TestParseExperienceBulletContinuation(t *testing.T) {
	p := NewEntryParser()

	text := "Engineer at Acme\nJan 2020 - Present\n\n- Built the platform\n- Shipped features"
	entries := p.ParseExperience(text)
	require.Len(t, entries, 1)

	assert.Equal(t, "Engineer", entries[0].Title)
	assert.Contains(t, entries[0].Description, "Built the platform")
	assert.Contains(t, entries[0].Description, "Shipped features")
}

// 无空行时按日期区间切分，日期行前的裸标题行归入新条目
func TestParseExperienceDateBoundaryFallback(t *testing.T) {
	p := NewEntryParser()

	text := "Engineer at Acme\nJan 2020 - Present\nDid work.\nIntern at Initech\nMay 2019 - Aug 2019\nLearned stuff."
	entries := p.ParseExperience(text)
	require.Len(t, entries, 2)

	assert.Equal(t, "Engineer", entries[0].Title)
	assert.Equal(t, "Intern", entries[1].Title)
	assert.Equal(t, "Initech", entries[1].Company)
}

// 无法识别任何条目边界的非空章节返回单条仅含description的条目
func TestParseExperienceNoBoundariesFallback(t *testing.T) {
	p := NewEntryParser()

	text := "worked on various projects over the years doing many different things"
	entries := p.ParseExperience(text)
	require.Len(t, entries, 1)

	assert.Empty(t, entries[0].Title)
	assert.Empty(t, entries[0].Company)
	assert.Equal(t, text, entries[0].Description)
}

// 空章节返回空列表
func TestParseExperienceEmptySection(t *testing.T) {
	p := NewEntryParser()
	assert.Empty(t, p.ParseExperience("   \n  "))
}

// 首行尾部内联日期区间
func TestParseExperienceInlineTrailingDates(t *testing.T) {
	p := NewEntryParser()

	entries := p.ParseExperience("Senior Developer    Jan 2020 - Present\nUmbrella Corp\nShipped code.")
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "Senior Developer", e.Title)
	assert.Equal(t, "Umbrella Corp", e.Company)
	assert.Equal(t, "Shipped code.", e.Description)
}

// 教育条目：学位 + 院校 + 日期 + GPA提取
func TestParseEducationBasic(t *testing.T) {
	p := NewEntryParser()

	text := "Bachelor of Science in Computer Science\nStanford University\n2016 - 2020\nGPA: 3.9/4.0\nDean's list."
	entries := p.ParseEducation(text)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Contains(t, e.Degree, "Bachelor of Science")
	assert.Equal(t, "Stanford University", e.Institution)
	require.NotNil(t, e.Dates)
	assert.Equal(t, "2016", e.Dates.StartDate)
	assert.Equal(t, "2020", e.Dates.EndDate)
	assert.Equal(t, "3.9/4.0", e.GPA)
	assert.NotContains(t, e.Details, "3.9")
	assert.Contains(t, e.Details, "Dean's list.")
}

// GPA各种写法
func TestGPAPatterns(t *testing.T) {
	cases := map[string]string{
		"GPA: 3.8":       "3.8",
		"GPA 3.8/4.0":    "3.8/4.0",
		"CGPA: 9.2/10":   "9.2/10",
		"3.85 GPA":       "3.85",
		"Grade: 3.7/4.0": "3.7/4.0",
	}
	for input, want := range cases {
		m := gpaPattern.FindStringSubmatch(input)
		require.NotNil(t, m, "未匹配: %q", input)
		got := firstNonEmpty(m[1], m[2])
		assert.Equal(t, want, normalizeSpaces(got), "输入: %q", input)
	}

	// 裸年份不是GPA
	assert.Nil(t, gpaPattern.FindStringSubmatch("graduated 2016"))
}

func normalizeSpaces(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r != ' ' {
			out = append(out, r)
		}
	}
	return string(out)
}

// 院校指示词缺失时取前两行中第一条非学位行作为institution
func TestParseEducationInstitutionFallback(t *testing.T) {
	p := NewEntryParser()

	text := "B.Tech in Computer Science\nIIT Bombay\n2014 - 2018"
	entries := p.ParseEducation(text)
	require.Len(t, entries, 1)

	assert.Equal(t, "IIT Bombay", entries[0].Institution)
	assert.Contains(t, entries[0].Degree, "B.Tech")
}

// 日期区间提取：多种分隔符与Present/Current
func TestDateRangeExtraction(t *testing.T) {
	cases := []struct {
		input string
		start string
		end   string
	}{
		{"Jan 2020 - Present", "Jan 2020", "Present"},
		{"March 2019 – Dec 2021", "March 2019", "Dec 2021"},
		{"2018 - 2022", "2018", "2022"},
		{"June 2017 to August 2019", "June 2017", "August 2019"},
		{"Sep 2021 - Current", "Sep 2021", "Current"},
	}
	for _, c := range cases {
		dr := extractDateRange(c.input)
		require.NotNil(t, dr, "未匹配: %q", c.input)
		assert.Equal(t, c.start, dr.StartDate, "输入: %q", c.input)
		assert.Equal(t, c.end, dr.EndDate, "输入: %q", c.input)
	}

	assert.Nil(t, extractDateRange("no dates here"))
}
