package router

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/krish132005/RESUME-ANALYZER/internal/api/handler"
	"github.com/krish132005/RESUME-ANALYZER/internal/config"
	"github.com/krish132005/RESUME-ANALYZER/internal/constants"
	"github.com/krish132005/RESUME-ANALYZER/internal/storage"
	"github.com/krish132005/RESUME-ANALYZER/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/keyauth"
	oteltrace "go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const requestIDHeader = "X-Request-ID"

// RegisterRoutes 注册 API 路由
// 配置了Server.APIKey时，/api/v1下的所有接口需要携带 Authorization: Bearer <key>
func RegisterRoutes(h *server.Hertz, cfg *config.Config, resumeHandler *handler.ResumeHandler) {
	h.Use(requestID())

	api := h.Group("/api/v1")

	if cfg.Server.APIKey != "" {
		apiKey := cfg.Server.APIKey
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
			}),
		))
	}

	api.POST("/resume/upload", func(c context.Context, ctx *app.RequestContext) {
		// 获取上传的文件
		fileHeader, err := ctx.FormFile(constants.OriginalFileField)
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}

		// 获取来源渠道
		sourceChannel := ctx.PostForm("source_channel")
		if sourceChannel == "" {
			sourceChannel = "web_upload" // 默认值
		}

		// 打开文件
		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
			return
		}
		defer file.Close()

		// 处理上传
		resp, err := resumeHandler.HandleResumeUpload(
			c,
			file,
			fileHeader.Size,
			fileHeader.Filename,
			sourceChannel,
		)
		if err != nil {
			tracing.RecordHTTPError(oteltrace.SpanFromContext(c), err, consts.StatusInternalServerError)
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	// 同步解析一段简历文本，直接返回结构化结果
	api.POST("/resume/parse", func(c context.Context, ctx *app.RequestContext) {
		var req handler.ParseTextRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}

		record, err := resumeHandler.HandleParseText(c, req.Text)
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, record)
	})

	// 批量同步解析
	api.POST("/resume/parse/batch", func(c context.Context, ctx *app.RequestContext) {
		var req handler.BatchParseRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}

		results, err := resumeHandler.HandleBatchParse(c, req.Texts)
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, utils.H{"results": results})
	})

	// 查询某次提交的解析结果
	api.GET("/resume/:submission_uuid", func(c context.Context, ctx *app.RequestContext) {
		submissionUUID := ctx.Param("submission_uuid")

		resp, err := resumeHandler.HandleGetRecord(c, submissionUUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, storage.ErrNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "提交记录不存在"})
				return
			}
			tracing.RecordHTTPError(oteltrace.SpanFromContext(c), err, consts.StatusInternalServerError)
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	// 获取原始文件的预签名下载地址
	api.GET("/resume/:submission_uuid/original", func(c context.Context, ctx *app.RequestContext) {
		submissionUUID := ctx.Param("submission_uuid")

		resp, err := resumeHandler.HandleGetOriginalURL(c, submissionUUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "提交记录不存在"})
				return
			}
			tracing.RecordHTTPError(oteltrace.SpanFromContext(c), err, consts.StatusInternalServerError)
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	// 按状态分页查询提交记录
	api.GET("/resume", func(c context.Context, ctx *app.RequestContext) {
		status := ctx.Query("status")
		limit := queryInt(ctx, "limit", 20)
		offset := queryInt(ctx, "offset", 0)

		summaries, err := resumeHandler.HandleListSubmissions(c, status, limit, offset)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, utils.H{"submissions": summaries})
	})

	// 健康检查不走鉴权
	h.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

// requestID 为每个请求补全 X-Request-ID，便于日志和链路关联
func requestID() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := string(ctx.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Header(requestIDHeader, id)
		ctx.Next(c)
	}
}

func queryInt(ctx *app.RequestContext, key string, def int) int {
	v := ctx.Query(key)
	if v == "" {
		return def
	}
	n := 0
	for _, ch := range v {
		if ch < '0' || ch > '9' {
			return def
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
