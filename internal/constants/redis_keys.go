package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// FileModulePrefix 文件模块
	FileModulePrefix = "file"
	// RecordModulePrefix 解析结果模块
	RecordModulePrefix = "record"

	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityMD5ToUUID MD5到UUID的映射实体
	EntityMD5ToUUID = "md5_to_uuid"
	// EntityCache 缓存实体
	EntityCache = "cache"

	// KeyFileMD5Set 原始文件MD5集合，用于上传去重 (SET)
	// 格式: app:file:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet

	// KeyTextMD5Set 提取文本MD5集合，用于解析去重 (SET)
	// 格式: app:file:dedup_set:text
	KeyTextMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet + ":text"

	// KeyFileMD5ToSubmissionUUID MD5到SubmissionUUID的映射 (STRING)
	// 格式: app:file:md5_to_uuid:{md5}
	KeyFileMD5ToSubmissionUUID = AppPrefix + ":" + FileModulePrefix + ":" + EntityMD5ToUUID + ":%s"

	// KeyRecordCache 解析结果JSON缓存 (STRING)
	// 格式: app:record:cache:{submissionUUID}
	KeyRecordCache = AppPrefix + ":" + RecordModulePrefix + ":" + EntityCache + ":%s"
)
