package processor

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/krish132005/RESUME-ANALYZER/internal/config"
	"github.com/krish132005/RESUME-ANALYZER/internal/constants"
	"github.com/krish132005/RESUME-ANALYZER/internal/logger"
	"github.com/krish132005/RESUME-ANALYZER/internal/parser"
	"github.com/krish132005/RESUME-ANALYZER/internal/storage"
	"github.com/krish132005/RESUME-ANALYZER/internal/tracing"
	"github.com/krish132005/RESUME-ANALYZER/internal/types"
)

var processorTracer = otel.Tracer("resume-analyzer/processor")

// ResumeProcessor 简历处理流水线。
// 消费上传事件：下载原始文件、提取文本、解析为结构化记录、
// 落库并发布解析完成事件。
type ResumeProcessor struct {
	Extractor parser.TextExtractor
	Parser    *parser.ResumeParser
	Storage   *storage.Storage

	parserVersion  string
	recordCacheTTL time.Duration
	cfg            *config.Config
}

// ProcessorOption 处理器配置选项
type ProcessorOption func(*ResumeProcessor)

// WithTextExtractor 替换文本提取器，主要用于测试
func WithTextExtractor(extractor parser.TextExtractor) ProcessorOption {
	return func(p *ResumeProcessor) {
		p.Extractor = extractor
	}
}

// WithParserVersion 设置记录在解析结果上的版本号
func WithParserVersion(version string) ProcessorOption {
	return func(p *ResumeProcessor) {
		p.parserVersion = version
	}
}

// WithRecordCacheTTL 设置解析结果在Redis中的缓存时间
func WithRecordCacheTTL(ttl time.Duration) ProcessorOption {
	return func(p *ResumeProcessor) {
		p.recordCacheTTL = ttl
	}
}

// NewResumeProcessor 创建简历处理器
func NewResumeProcessor(cfg *config.Config, store *storage.Storage, resumeParser *parser.ResumeParser, opts ...ProcessorOption) (*ResumeProcessor, error) {
	if store == nil {
		return nil, fmt.Errorf("存储服务不能为空")
	}
	if resumeParser == nil {
		return nil, fmt.Errorf("简历解析器不能为空")
	}

	version := constants.DefaultParserVersion
	if cfg != nil && cfg.Parser.Version != "" {
		version = cfg.Parser.Version
	}

	p := &ResumeProcessor{
		Parser:         resumeParser,
		Storage:        store,
		parserVersion:  version,
		recordCacheTTL: 24 * time.Hour,
		cfg:            cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ParseText 同步解析已清洗的简历文本
func (p *ResumeProcessor) ParseText(ctx context.Context, text string) (*types.Record, error) {
	if text == "" {
		return nil, fmt.Errorf("简历文本不能为空")
	}

	ctx, span := processorTracer.Start(ctx, "ResumeProcessor.ParseText",
		trace.WithAttributes(
			attribute.Int("text.length", len(text)),
			attribute.String("text.preview", tracing.SafeResumeContent(text)),
		))
	defer span.End()

	record := p.Parser.Parse(ctx, parser.NormalizeText(text))

	span.SetAttributes(
		attribute.String("record.candidate_name", tracing.MaskPII(record.CandidateName)),
		attribute.Int("record.skill_count", len(record.SkillsList)),
	)
	span.SetStatus(codes.Ok, "")
	return record, nil
}

// HandleUploadedMessage 消费回调。返回true确认消息，false重新入队。
func (p *ResumeProcessor) HandleUploadedMessage(body []byte) bool {
	var msg storage.ResumeUploadedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		// 消息体损坏，重试无意义，直接确认丢弃
		logger.Error().Err(err).Msg("解析上传消息失败，丢弃")
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := p.ProcessUploaded(ctx, &msg); err != nil {
		logger.Error().Err(err).Str("submission_uuid", msg.SubmissionUUID).Msg("处理上传简历失败")
		// 解析类失败已在库中标记为PARSE_FAILED并确认；仅基础设施错误重新入队
		var procErr *ResumeProcessError
		if errors.As(err, &procErr) && procErr.Op == "parse" {
			return true
		}
		return false
	}
	return true
}

// ProcessUploaded 处理一条简历上传事件：
// 下载、提取文本、去重、解析、落库、归并候选人、发布解析完成事件。
func (p *ResumeProcessor) ProcessUploaded(ctx context.Context, msg *storage.ResumeUploadedMessage) error {
	ctx, span := processorTracer.Start(ctx, "ResumeProcessor.ProcessUploaded",
		trace.WithAttributes(
			attribute.String("submission.uuid", msg.SubmissionUUID),
			attribute.String("submission.filename",
				tracing.SafeAttributeValue("filename", msg.OriginalFilename, tracing.DefaultMaxLength)),
		))
	defer span.End()

	uuid := msg.SubmissionUUID

	if p.Storage.MinIO == nil {
		err := fmt.Errorf("对象存储未初始化")
		tracing.RecordError(span, err, tracing.ErrorTypeMinIO)
		return NewDownloadError(uuid, err.Error())
	}

	// 标记进入处理中，失败不阻断流程
	if p.Storage.MySQL != nil {
		if err := p.Storage.MySQL.UpdateResumeProcessingStatus(ctx, uuid, constants.StatusProcessing); err != nil {
			logger.Warn().Err(err).Str("submission_uuid", uuid).Msg("更新处理中状态失败")
		}
	}

	// 1. 下载原始文件
	data, err := p.Storage.MinIO.GetOriginal(ctx, msg.OriginalFilePathOSS)
	if err != nil {
		tracing.RecordErrorWithInfo(span, err, tracing.ErrorTypeMinIO,
			attribute.String("object.key", msg.OriginalFilePathOSS))
		return NewDownloadError(uuid, err.Error())
	}

	// 2. 提取纯文本
	if p.Extractor == nil {
		return NewExtractError(uuid, "文本提取器未配置")
	}
	text, err := p.Extractor.ExtractText(ctx, data, msg.OriginalFilename)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeParser)
		p.markParseFailed(ctx, msg, fmt.Sprintf("提取文本失败: %v", err))
		return NewParseError(uuid, err.Error())
	}

	normalized := parser.NormalizeText(text)
	if normalized == "" {
		p.markParseFailed(ctx, msg, "提取文本为空")
		return NewParseError(uuid, "提取文本为空")
	}

	// 3. 文本级去重（同一内容换了文件名重复投递）
	textMD5 := md5Hex(normalized)
	if p.Storage.Redis != nil {
		if dup, derr := p.Storage.Redis.CheckAndAddParsedTextMD5(ctx, textMD5); derr != nil {
			logger.Warn().Err(derr).Str("submission_uuid", uuid).Msg("文本MD5去重检查失败，继续处理")
		} else if dup {
			logger.Info().Str("submission_uuid", uuid).Str("text_md5", textMD5).Msg("提取文本与历史提交重复")
			span.SetAttributes(attribute.Bool("text.duplicate", true))
		}
	}

	// 4. 提取文本归档到对象存储
	parsedTextPath, err := p.Storage.MinIO.UploadParsedText(ctx, uuid, normalized)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeMinIO)
		return NewStoreError(uuid, err.Error())
	}

	if p.Storage.MySQL != nil {
		if err := p.Storage.MySQL.UpdateResumeRawTextMD5(ctx, uuid, textMD5); err != nil {
			return NewDatabaseError(uuid, err.Error())
		}
		updates := map[string]interface{}{
			"parsed_text_path_oss": parsedTextPath,
		}
		if err := p.Storage.MySQL.UpdateResumeSubmissionFields(ctx, uuid, updates); err != nil {
			return NewUpdateError(uuid, err.Error())
		}
	}

	// 5. 结构化解析
	record := p.Parser.Parse(ctx, normalized)

	// 6. 落库
	if p.Storage.MySQL != nil {
		if err := p.Storage.MySQL.SaveParsedRecord(ctx, uuid, record, p.parserVersion); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeDB)
			return NewDatabaseError(uuid, err.Error())
		}
		p.linkCandidate(ctx, uuid, record)
	}

	// 7. 缓存解析结果
	if p.Storage.Redis != nil {
		if recordJSON, jerr := json.Marshal(record); jerr == nil {
			if cerr := p.Storage.Redis.CacheParsedRecord(ctx, uuid, string(recordJSON), p.recordCacheTTL); cerr != nil {
				logger.Warn().Err(cerr).Str("submission_uuid", uuid).Msg("缓存解析结果失败")
			}
		}
	}

	// 8. 发布解析完成事件
	if err := p.publishParsed(ctx, &storage.ResumeParsedMessage{
		SubmissionUUID:    uuid,
		ProcessingStatus:  constants.StatusParsed,
		ParsedTextPathOSS: parsedTextPath,
		CandidateName:     record.CandidateName,
		ProcessingTime:    time.Now().Unix(),
	}); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		return err
	}

	span.SetAttributes(
		attribute.Int("record.experience_count", len(record.Experience)),
		attribute.Int("record.skill_count", len(record.SkillsList)),
	)
	span.SetStatus(codes.Ok, "")
	logger.Info().
		Str("submission_uuid", uuid).
		Str("candidate", tracing.MaskPII(record.CandidateName)).
		Int("skills", len(record.SkillsList)).
		Msg("简历解析完成")
	return nil
}

// linkCandidate 按联系方式归并候选人并关联到提交记录。
// 没有任何联系方式时跳过，不算失败。
func (p *ResumeProcessor) linkCandidate(ctx context.Context, submissionUUID string, record *types.Record) {
	var email, phone string
	if len(record.Contact.Emails) > 0 {
		email = record.Contact.Emails[0]
	}
	if len(record.Contact.Phones) > 0 {
		phone = record.Contact.Phones[0]
	}
	if email == "" && phone == "" {
		return
	}

	candidate, err := p.Storage.MySQL.FindOrCreateCandidate(ctx, record.CandidateName, email, phone)
	if err != nil {
		logger.Warn().Err(err).Str("submission_uuid", submissionUUID).Msg("归并候选人失败")
		return
	}
	if err := p.Storage.MySQL.LinkSubmissionToCandidate(ctx, submissionUUID, candidate.CandidateID); err != nil {
		logger.Warn().Err(err).Str("submission_uuid", submissionUUID).Msg("关联候选人失败")
	}
}

// markParseFailed 标记解析失败并发布失败事件
func (p *ResumeProcessor) markParseFailed(ctx context.Context, msg *storage.ResumeUploadedMessage, reason string) {
	uuid := msg.SubmissionUUID
	// 失败原因可能包含整段解析器报错，截断后再入库
	reason = tracing.TruncateString(reason, 500)
	if p.Storage.MySQL != nil {
		if err := p.Storage.MySQL.MarkResumeParseFailed(ctx, uuid, reason); err != nil {
			logger.Error().Err(err).Str("submission_uuid", uuid).Msg("标记解析失败状态出错")
		}
	}
	// 回滚文件MD5，允许修复后重新上传同一文件
	if p.Storage.Redis != nil && msg.RawFileMD5 != "" {
		if err := p.Storage.Redis.RemoveRawFileMD5(ctx, msg.RawFileMD5); err != nil {
			logger.Warn().Err(err).Str("submission_uuid", uuid).Msg("回滚文件MD5失败")
		}
	}

	if p.cfg != nil {
		failed := &storage.ResumeParsedMessage{
			SubmissionUUID:   uuid,
			ProcessingStatus: constants.StatusParseFailed,
			ProcessingTime:   time.Now().Unix(),
			Error:            reason,
		}
		if p.Storage.RabbitMQ != nil {
			if err := p.Storage.RabbitMQ.PublishJSON(ctx, p.cfg.RabbitMQ.ResumeEventsExchange, p.cfg.RabbitMQ.FailedRoutingKey, failed, true); err != nil {
				logger.Warn().Err(err).Str("submission_uuid", uuid).Msg("发布解析失败事件出错")
			}
		}
	}
}

func (p *ResumeProcessor) publishParsed(ctx context.Context, msg *storage.ResumeParsedMessage) error {
	if p.Storage.RabbitMQ == nil || p.cfg == nil {
		return nil
	}
	if err := p.Storage.RabbitMQ.PublishJSON(ctx, p.cfg.RabbitMQ.ResumeEventsExchange, p.cfg.RabbitMQ.ParsedRoutingKey, msg, true); err != nil {
		logger.Warn().Err(err).Str("submission_uuid", msg.SubmissionUUID).Msg("发布解析完成事件失败")
		return NewPublishError(msg.SubmissionUUID, err.Error())
	}
	return nil
}

// StartUploadConsumer 启动上传队列消费者，关闭返回的channel可停止消费
func (p *ResumeProcessor) StartUploadConsumer() (chan struct{}, error) {
	if p.Storage.RabbitMQ == nil || p.cfg == nil {
		return nil, fmt.Errorf("消息队列未初始化")
	}
	return p.Storage.RabbitMQ.StartConsumer(p.cfg.RabbitMQ.UploadQueue, p.cfg.RabbitMQ.PrefetchCount, p.HandleUploadedMessage)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
