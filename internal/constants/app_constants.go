package constants

const (
	// DefaultParserVersion 未在配置中指定时写入解析结果的解析器版本
	DefaultParserVersion = "1.0"

	// OriginalFileField 上传表单中简历文件的字段名
	OriginalFileField = "file"

	// MaxUploadSizeBytes 单个简历文件的大小上限
	MaxUploadSizeBytes = 10 << 20 // 10MB

	// MaxBatchParseCount 批量解析接口单次最多接受的文本数
	MaxBatchParseCount = 50
)

// 简历提交状态机
const (
	StatusPendingParsing = "PENDING_PARSING"
	StatusProcessing     = "PROCESSING"
	StatusParsed         = "PARSED"
	StatusParseFailed    = "PARSE_FAILED"
)
