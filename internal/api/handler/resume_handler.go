package handler

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/krish132005/RESUME-ANALYZER/internal/config"
	"github.com/krish132005/RESUME-ANALYZER/internal/constants"
	"github.com/krish132005/RESUME-ANALYZER/internal/logger"
	"github.com/krish132005/RESUME-ANALYZER/internal/processor"
	"github.com/krish132005/RESUME-ANALYZER/internal/storage"
	"github.com/krish132005/RESUME-ANALYZER/internal/storage/models"
	"github.com/krish132005/RESUME-ANALYZER/internal/types"

	"github.com/gofrs/uuid/v5"
)

// 上传响应中的状态值
const (
	StatusSubmitted        = "SUBMITTED_FOR_PROCESSING"
	StatusDuplicateSkipped = "DUPLICATE_FILE_SKIPPED"
)

// ResumeHandler 简历接口处理器，负责协调上传、同步解析与结果查询
type ResumeHandler struct {
	cfg             *config.Config
	storage         *storage.Storage
	processorModule *processor.ResumeProcessor
}

// NewResumeHandler 创建一个新的简历接口处理器
func NewResumeHandler(
	cfg *config.Config,
	storage *storage.Storage,
	processorModule *processor.ResumeProcessor,
) *ResumeHandler {
	return &ResumeHandler{
		cfg:             cfg,
		storage:         storage,
		processorModule: processorModule,
	}
}

// ResumeUploadResponse 简历上传响应
type ResumeUploadResponse struct {
	SubmissionUUID string `json:"submission_uuid"`
	Status         string `json:"status"`
}

// HandleResumeUpload 处理简历上传请求
//
// 流程：读取文件 -> 文件MD5去重 -> 上传MinIO -> 写入提交记录 -> 发布上传事件。
// 去重命中时直接返回已有提交的UUID，不再重复入库。
func (h *ResumeHandler) HandleResumeUpload(ctx context.Context, reader io.Reader, fileSize int64,
	filename string, sourceChannel string) (*ResumeUploadResponse, error) {

	if fileSize > constants.MaxUploadSizeBytes {
		return nil, fmt.Errorf("文件大小超过限制: %d > %d", fileSize, constants.MaxUploadSizeBytes)
	}

	// 0. 读取文件内容并计算文件本身的MD5 (reader只能读一次，需要在上传MinIO前完成)
	fileBytes, err := io.ReadAll(io.LimitReader(reader, constants.MaxUploadSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("读取上传文件内容失败: %w", err)
	}
	if len(fileBytes) > constants.MaxUploadSizeBytes {
		return nil, fmt.Errorf("文件大小超过限制: %d", constants.MaxUploadSizeBytes)
	}
	if len(fileBytes) == 0 {
		return nil, fmt.Errorf("上传文件内容为空")
	}

	// 上传链路依赖对象存储、数据库和消息队列，部分初始化失败时明确拒绝而不是中途崩溃
	if h.storage.MinIO == nil || h.storage.MySQL == nil || h.storage.RabbitMQ == nil {
		return nil, fmt.Errorf("存储服务未就绪，暂不接受上传")
	}

	sum := md5.Sum(fileBytes)
	rawFileMD5 := hex.EncodeToString(sum[:])

	// 1. 文件级去重：同一文件重复上传直接跳过
	// Redis不可用时降级为不去重，继续处理
	if h.storage.Redis != nil {
		exists, err := h.storage.Redis.CheckAndAddRawFileMD5(ctx, rawFileMD5)
		if err != nil {
			logger.Warn().Err(err).Str("md5", rawFileMD5).Msg("文件MD5去重检查失败，继续处理")
		} else if exists {
			prevUUID, err := h.storage.Redis.GetSubmissionUUIDByFileMD5(ctx, rawFileMD5)
			if err != nil && err != storage.ErrNotFound {
				logger.Warn().Err(err).Str("md5", rawFileMD5).Msg("查询重复文件对应的提交UUID失败")
			}
			logger.Info().Str("md5", rawFileMD5).Str("submission_uuid", prevUUID).Msg("检测到重复文件，跳过处理")
			return &ResumeUploadResponse{
				SubmissionUUID: prevUUID,
				Status:         StatusDuplicateSkipped,
			}, nil
		}
	}

	// 2. 生成提交UUID (v7，时间有序)
	submissionID, err := uuid.NewV7()
	if err != nil {
		h.rollbackFileMD5(ctx, rawFileMD5)
		return nil, fmt.Errorf("生成提交UUID失败: %w", err)
	}
	submissionUUID := submissionID.String()

	fileExt := strings.ToLower(filepath.Ext(filename))
	if fileExt == "" {
		fileExt = ".pdf"
	}

	// 3. 上传原始文件到MinIO
	objectKey, _, err := h.storage.MinIO.UploadOriginal(ctx, submissionUUID, fileExt, bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		h.rollbackFileMD5(ctx, rawFileMD5)
		return nil, fmt.Errorf("上传文件到对象存储失败: %w", err)
	}

	// 4. 记录MD5到UUID的映射，便于重复上传时返回原提交
	if h.storage.Redis != nil {
		if err := h.storage.Redis.MapFileMD5ToSubmission(ctx, rawFileMD5, submissionUUID); err != nil {
			logger.Warn().Err(err).Str("submission_uuid", submissionUUID).Msg("记录文件MD5映射失败")
		}
	}

	// 5. 写入提交记录，状态为待解析
	submission := &models.ResumeSubmission{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: time.Now(),
		SourceChannel:       sourceChannel,
		OriginalFilename:    filename,
		OriginalFilePathOSS: objectKey,
		RawFileMD5:          rawFileMD5,
		ProcessingStatus:    constants.StatusPendingParsing,
	}
	if err := h.storage.MySQL.CreateResumeSubmission(ctx, submission); err != nil {
		h.rollbackUpload(ctx, rawFileMD5, objectKey)
		return nil, fmt.Errorf("创建简历提交记录失败: %w", err)
	}

	// 6. 发布上传事件，交给消费者异步解析
	msg := &storage.ResumeUploadedMessage{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: submission.SubmissionTimestamp,
		SourceChannel:       sourceChannel,
		OriginalFilename:    filename,
		OriginalFilePathOSS: objectKey,
		RawFileMD5:          rawFileMD5,
	}
	if err := h.storage.RabbitMQ.PublishJSON(ctx, h.cfg.RabbitMQ.ResumeEventsExchange, h.cfg.RabbitMQ.UploadedRoutingKey, msg, true); err != nil {
		h.rollbackUpload(ctx, rawFileMD5, objectKey)
		return nil, fmt.Errorf("发布简历上传事件失败: %w", err)
	}

	logger.Info().
		Str("submission_uuid", submissionUUID).
		Str("filename", filename).
		Str("object_key", objectKey).
		Msg("简历上传成功，已进入解析队列")

	return &ResumeUploadResponse{
		SubmissionUUID: submissionUUID,
		Status:         StatusSubmitted,
	}, nil
}

// rollbackFileMD5 上传流程失败时把文件MD5从去重集合中移除，允许重试
func (h *ResumeHandler) rollbackFileMD5(ctx context.Context, rawFileMD5 string) {
	if h.storage.Redis == nil {
		return
	}
	if err := h.storage.Redis.RemoveRawFileMD5(ctx, rawFileMD5); err != nil {
		logger.Warn().Err(err).Str("md5", rawFileMD5).Msg("回滚文件MD5去重记录失败")
	}
}

// rollbackUpload 对象已入MinIO但后续步骤失败时，清理对象和MD5去重记录
func (h *ResumeHandler) rollbackUpload(ctx context.Context, rawFileMD5, objectKey string) {
	h.rollbackFileMD5(ctx, rawFileMD5)
	if err := h.storage.MinIO.DeleteOriginal(ctx, objectKey); err != nil {
		logger.Warn().Err(err).Str("object_key", objectKey).Msg("清理已上传的原始文件失败")
	}
}

// ParseTextRequest 同步文本解析请求
type ParseTextRequest struct {
	Text string `json:"text"`
}

// HandleParseText 同步解析一段简历文本，不落库
func (h *ResumeHandler) HandleParseText(ctx context.Context, text string) (*types.Record, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("简历文本为空")
	}
	return h.processorModule.ParseText(ctx, text)
}

// BatchParseRequest 批量文本解析请求
type BatchParseRequest struct {
	Texts []string `json:"texts"`
}

// BatchParseItem 批量解析中单条文本的结果
type BatchParseItem struct {
	Index  int           `json:"index"`
	Record *types.Record `json:"record,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// HandleBatchParse 批量同步解析简历文本
// 单条失败不影响其他条目，结果按输入顺序返回
func (h *ResumeHandler) HandleBatchParse(ctx context.Context, texts []string) ([]BatchParseItem, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("批量解析文本列表为空")
	}
	if len(texts) > constants.MaxBatchParseCount {
		return nil, fmt.Errorf("批量解析数量超过限制: %d > %d", len(texts), constants.MaxBatchParseCount)
	}

	results := make([]BatchParseItem, len(texts))
	for i, text := range texts {
		item := BatchParseItem{Index: i}
		if strings.TrimSpace(text) == "" {
			item.Error = "简历文本为空"
			results[i] = item
			continue
		}
		record, err := h.processorModule.ParseText(ctx, text)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Record = record
		}
		results[i] = item
	}
	return results, nil
}

// RecordResponse 解析结果查询响应
type RecordResponse struct {
	SubmissionUUID   string        `json:"submission_uuid"`
	ProcessingStatus string        `json:"processing_status"`
	ParserVersion    string        `json:"parser_version,omitempty"`
	ParseError       string        `json:"parse_error,omitempty"`
	Record           *types.Record `json:"record,omitempty"`
}

// HandleGetRecord 查询某次提交的解析结果：优先读Redis缓存，未命中回源MySQL
func (h *ResumeHandler) HandleGetRecord(ctx context.Context, submissionUUID string) (*RecordResponse, error) {
	if submissionUUID == "" {
		return nil, fmt.Errorf("submission_uuid不能为空")
	}

	// 1. 先查缓存
	if h.storage.Redis != nil {
		cached, err := h.storage.Redis.GetCachedParsedRecord(ctx, submissionUUID)
		if err == nil && cached != "" {
			var record types.Record
			if err := json.Unmarshal([]byte(cached), &record); err == nil {
				return &RecordResponse{
					SubmissionUUID:   submissionUUID,
					ProcessingStatus: constants.StatusParsed,
					Record:           &record,
				}, nil
			}
			logger.Warn().Err(err).Str("submission_uuid", submissionUUID).Msg("缓存中的解析结果反序列化失败，回源数据库")
		} else if err != nil && err != storage.ErrNotFound {
			logger.Warn().Err(err).Str("submission_uuid", submissionUUID).Msg("读取解析结果缓存失败，回源数据库")
		}
	}

	// 2. 回源MySQL
	if h.storage.MySQL == nil {
		return nil, fmt.Errorf("数据库服务未就绪")
	}
	submission, err := h.storage.MySQL.GetResumeSubmission(ctx, submissionUUID)
	if err != nil {
		return nil, err
	}

	resp := &RecordResponse{
		SubmissionUUID:   submission.SubmissionUUID,
		ProcessingStatus: submission.ProcessingStatus,
		ParserVersion:    submission.ParserVersion,
		ParseError:       submission.ParseError,
	}
	if len(submission.ParsedRecord) > 0 {
		var record types.Record
		if err := json.Unmarshal(submission.ParsedRecord, &record); err != nil {
			return nil, fmt.Errorf("反序列化解析结果失败: %w", err)
		}
		resp.Record = &record
	}
	return resp, nil
}

// OriginalURLResponse 原始文件下载地址响应
type OriginalURLResponse struct {
	SubmissionUUID string `json:"submission_uuid"`
	URL            string `json:"url"`
	ExpiresIn      int64  `json:"expires_in_seconds"`
}

// HandleGetOriginalURL 为某次提交的原始文件生成预签名下载URL
func (h *ResumeHandler) HandleGetOriginalURL(ctx context.Context, submissionUUID string) (*OriginalURLResponse, error) {
	if submissionUUID == "" {
		return nil, fmt.Errorf("submission_uuid不能为空")
	}
	if h.storage.MySQL == nil || h.storage.MinIO == nil {
		return nil, fmt.Errorf("存储服务未就绪")
	}

	submission, err := h.storage.MySQL.GetResumeSubmission(ctx, submissionUUID)
	if err != nil {
		return nil, err
	}
	if submission.OriginalFilePathOSS == "" {
		return nil, fmt.Errorf("该提交没有关联的原始文件")
	}

	expiry := 15 * time.Minute
	url, err := h.storage.MinIO.GetPresignedURL(ctx, submission.OriginalFilePathOSS, expiry)
	if err != nil {
		return nil, fmt.Errorf("生成下载地址失败: %w", err)
	}
	return &OriginalURLResponse{
		SubmissionUUID: submissionUUID,
		URL:            url,
		ExpiresIn:      int64(expiry.Seconds()),
	}, nil
}

// SubmissionSummary 提交记录列表项
type SubmissionSummary struct {
	SubmissionUUID   string    `json:"submission_uuid"`
	OriginalFilename string    `json:"original_filename"`
	SourceChannel    string    `json:"source_channel,omitempty"`
	ProcessingStatus string    `json:"processing_status"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// HandleListSubmissions 按状态分页查询提交记录
func (h *ResumeHandler) HandleListSubmissions(ctx context.Context, status string, limit, offset int) ([]SubmissionSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if h.storage.MySQL == nil {
		return nil, fmt.Errorf("数据库服务未就绪")
	}

	submissions, err := h.storage.MySQL.ListResumeSubmissions(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}

	summaries := make([]SubmissionSummary, 0, len(submissions))
	for _, s := range submissions {
		summaries = append(summaries, SubmissionSummary{
			SubmissionUUID:   s.SubmissionUUID,
			OriginalFilename: s.OriginalFilename,
			SourceChannel:    s.SourceChannel,
			ProcessingStatus: s.ProcessingStatus,
			SubmittedAt:      s.SubmissionTimestamp,
		})
	}
	return summaries, nil
}
