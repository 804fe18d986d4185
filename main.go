package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krish132005/RESUME-ANALYZER/internal/api/handler"
	"github.com/krish132005/RESUME-ANALYZER/internal/api/router"
	"github.com/krish132005/RESUME-ANALYZER/internal/config"
	applogger "github.com/krish132005/RESUME-ANALYZER/internal/logger"
	"github.com/krish132005/RESUME-ANALYZER/internal/ontology"
	"github.com/krish132005/RESUME-ANALYZER/internal/parser"
	"github.com/krish132005/RESUME-ANALYZER/internal/processor"
	"github.com/krish132005/RESUME-ANALYZER/internal/storage"
	"github.com/krish132005/RESUME-ANALYZER/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，为空时按默认路径搜索")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		applogger.Fatal().Err(err).Msg("加载配置失败")
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 链路追踪
	if cfg.Tracing.Enabled {
		shutdownTracing, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			applogger.Fatal().Err(err).Msg("初始化链路追踪失败")
		}
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := shutdownTracing(shutdownCtx); err != nil {
				applogger.Warn().Err(err).Msg("关闭链路追踪失败")
			}
		}()
		glog.Info("链路追踪初始化成功")
	}

	// 存储层：MySQL / Redis / MinIO / RabbitMQ
	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		applogger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 技能词表：优先配置路径，缺省用内置词表
	var onto *ontology.Ontology
	if cfg.Parser.OntologyPath != "" {
		onto, err = ontology.Load(cfg.Parser.OntologyPath)
		if err != nil {
			applogger.Fatal().Err(err).Str("path", cfg.Parser.OntologyPath).Msg("加载技能词表失败")
		}
		glog.Infof("技能词表加载成功: %s", cfg.Parser.OntologyPath)
	} else {
		onto = ontology.Default()
		glog.Info("使用内置技能词表")
	}

	// 解析流水线
	var parserOpts []parser.ParserOption
	if cfg.Parser.MaxHeadingWords > 0 {
		parserOpts = append(parserOpts, parser.WithSegmenterConfig(parser.SegmenterConfig{
			MaxHeadingWords: cfg.Parser.MaxHeadingWords,
		}))
	}
	resumeParser := parser.NewResumeParser(onto, parserOpts...)

	extractor, err := parser.NewDocumentTextExtractor(ctx)
	if err != nil {
		applogger.Fatal().Err(err).Msg("初始化文档文本提取器失败")
	}

	resumeProcessor, err := processor.NewResumeProcessor(cfg, storageManager, resumeParser,
		processor.WithTextExtractor(extractor),
	)
	if err != nil {
		applogger.Fatal().Err(err).Msg("初始化简历处理器失败")
	}
	glog.Info("简历处理器初始化成功")

	// 上传事件消费者
	if storageManager.RabbitMQ != nil {
		if _, err := resumeProcessor.StartUploadConsumer(); err != nil {
			applogger.Fatal().Err(err).Msg("启动简历上传消费者失败")
		}
		glog.Info("简历上传消费者启动成功")
	} else {
		glog.Warn("RabbitMQ未初始化，跳过上传消费者，仅提供同步解析接口")
	}

	resumeHandler := handler.NewResumeHandler(cfg, storageManager, resumeProcessor)

	// HTTP服务器
	serverOpts := []hertzconfig.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	}
	var tracerCfg *hertztracing.Config
	if cfg.Tracing.Enabled {
		tracer, tcfg := hertztracing.NewServerTracer()
		serverOpts = append(serverOpts, tracer)
		tracerCfg = tcfg
	}
	h := server.Default(serverOpts...)
	if tracerCfg != nil {
		h.Use(hertztracing.ServerMiddleware(tracerCfg))
	}

	router.RegisterRoutes(h, cfg, resumeHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			applogger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		applogger.Error().Err(err).Msg("服务器关闭失败")
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化zerolog，并把Hertz的hlog桥接到同一份输出
func initLogger(cfg *config.Config) {
	applogger.Init(cfg.Logger)

	applogger.Logger = applogger.Logger.With().
		Str("app", cfg.Tracing.ServiceName).
		Logger()

	hertzLogger := hertzadapter.From(applogger.Logger)
	glog.SetLogger(hertzLogger)
	switch cfg.Logger.Level {
	case "debug":
		glog.SetLevel(glog.LevelDebug)
	case "warn":
		glog.SetLevel(glog.LevelWarn)
	case "error":
		glog.SetLevel(glog.LevelError)
	default:
		glog.SetLevel(glog.LevelInfo)
	}
}
