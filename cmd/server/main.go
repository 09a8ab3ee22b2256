package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ats-evaluator/internal/api/handler"
	"ats-evaluator/internal/api/router"
	"ats-evaluator/internal/bootstrap"
	"ats-evaluator/internal/config"
	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/notify"
	"ats-evaluator/internal/outbox"
	"ats-evaluator/internal/processor"
	"ats-evaluator/internal/storage"
	"ats-evaluator/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "配置校验失败: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := logger.Init(bootstrap.LoggerConfig(cfg.Logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	hlog.SetLogger(hertzadapter.From(logger.Logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.ProviderConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化追踪失败")
	}

	st, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer st.Close()

	httpClient := bootstrap.NewHTTPClient(&cfg.LLM)
	models, err := bootstrap.NewModels(ctx, &cfg.LLM, httpClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化LLM客户端失败")
	}

	hub := notify.NewHub(nil)
	notifiers := []processor.ProgressNotifier{hub, notify.NewLogNotifier(nil)}
	extras := bootstrap.Extras{}
	if st.RabbitMQ != nil {
		notifiers = append(notifiers, notify.NewAMQPNotifier(st.RabbitMQ, cfg.RabbitMQ.ProgressExchange, nil))
	}
	extras.Notifier = notify.NewMultiNotifier(notifiers...)
	if st.Redis != nil {
		extras.Cache = st.Redis
	}

	var relay *outbox.MessageRelay
	if st.MySQL != nil {
		exchange := ""
		if st.RabbitMQ != nil {
			exchange = cfg.RabbitMQ.ProgressExchange
			relay = outbox.NewMessageRelay(st.MySQL.DB(), st.RabbitMQ)
			relay.Start()
		}
		extras.Recorder = storage.NewAuditRepository(st.MySQL, exchange)
	}

	pipeline, err := bootstrap.NewPipeline(ctx, cfg, models, extras)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化评估流水线失败")
	}

	handlerOpts := []handler.Option{
		handler.WithRunTimeout(config.GetDuration(cfg.Pipeline.RunTimeout, handler.DefaultRunTimeout)),
	}
	if st.MinIO != nil {
		handlerOpts = append(handlerOpts, handler.WithDocumentFetcher(st.MinIO))
	}
	evaluationHandler := handler.NewEvaluationHandler(pipeline, handlerOpts...)

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBodyMB<<20),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		hlog.CtxInfof(c, "%s %s -> %d (%s)", string(ctx.Method()), string(ctx.Path()), ctx.Response.StatusCode(), time.Since(start))
	})

	router.RegisterRoutes(h, router.Routes{
		Evaluation: evaluationHandler,
		Hub:        hub,
		APIKeys:    cfg.Server.APIKeys,
	})
	logger.Info().Str("address", cfg.Server.Address).Bool("api_key_auth", len(cfg.Server.APIKeys) > 0).Msg("HTTP 服务器启动中")

	go func() {
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	if relay != nil {
		relay.Stop()
		logger.Info().Msg("消息中继服务已停止")
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("关闭追踪失败")
	}
	logger.Info().Msg("优雅退出完成")
}
