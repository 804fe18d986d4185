package storage

import "time"

// ResumeUploadedMessage 简历上传完成事件，投递到待解析队列
type ResumeUploadedMessage struct {
	SubmissionUUID      string    `json:"submission_uuid"`
	SubmissionTimestamp time.Time `json:"submission_timestamp"`
	SourceChannel       string    `json:"source_channel,omitempty"`
	OriginalFilename    string    `json:"original_filename"`
	OriginalFilePathOSS string    `json:"original_file_path_oss"` // MinIO中的对象键
	RawFileMD5          string    `json:"raw_file_md5,omitempty"` // 原始文件的MD5，失败时用于回滚去重集合
}

// ResumeParsedMessage 简历解析完成事件
type ResumeParsedMessage struct {
	SubmissionUUID    string `json:"submission_uuid"`
	ProcessingStatus  string `json:"processing_status"`
	ParsedTextPathOSS string `json:"parsed_text_path_oss,omitempty"`
	CandidateName     string `json:"candidate_name,omitempty"`
	ProcessingTime    int64  `json:"processing_time,omitempty"` // Unix时间戳
	Error             string `json:"error,omitempty"`
}
