// evaluate 在本地文件上运行评估流水线并输出排序后的 JSON。
//
//	evaluate --jd job.txt [--out ranked.json] [--parallel] cv1.pdf cv2.pdf ...
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ats-evaluator/internal/bootstrap"
	"ats-evaluator/internal/config"
	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/notify"
	"ats-evaluator/internal/processor"
	"ats-evaluator/internal/types"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/pflag"
)

func main() {
	var (
		configPath string
		jdPath     string
		outPath    string
		parallel   bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.StringVar(&jdPath, "jd", "", "Path to the job description text file (required)")
	pflag.StringVar(&outPath, "out", "", "Write ranked JSON to this file instead of stdout")
	pflag.BoolVar(&parallel, "parallel", false, "Evaluate the five categories concurrently")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: %s --jd job.txt [flags] cv1.pdf [cv2.pdf ...]\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if jdPath == "" || pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(configPath, jdPath, outPath, parallel, pflag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, jdPath, outPath string, parallel bool, cvPaths []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if parallel {
		cfg.Pipeline.ParallelCategories = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	// CLI 的日志写到 stderr，stdout 只输出结果
	logCfg := bootstrap.LoggerConfig(cfg.Logger)
	logCfg.Format = "pretty"
	logCfg.Stderr = true
	closeLog, err := logger.Init(logCfg)
	if err != nil {
		return err
	}
	defer closeLog()

	jd, err := os.ReadFile(jdPath)
	if err != nil {
		return fmt.Errorf("读取JD失败: %w", err)
	}
	docs, err := readDocuments(cvPaths)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Pipeline.RunTimeout, 10*time.Minute))
	defer cancel()

	models, err := bootstrap.NewModels(ctx, &cfg.LLM, bootstrap.NewHTTPClient(&cfg.LLM))
	if err != nil {
		return err
	}
	pipeline, err := bootstrap.NewPipeline(ctx, cfg, models, bootstrap.Extras{
		Notifier: notify.NewLogNotifier(nil),
	})
	if err != nil {
		return err
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("生成运行ID失败: %w", err)
	}
	applicants, err := pipeline.Run(ctx, processor.Request{
		RunID:          runID.String(),
		SessionID:      "cli",
		JobDescription: string(jd),
		Documents:      docs,
	})
	if err != nil {
		return err
	}
	if applicants == nil {
		applicants = []*types.Applicant{}
	}

	out, err := json.MarshalIndent(applicants, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化结果失败: %w", err)
	}
	if outPath == "" {
		_, err = fmt.Fprintln(os.Stdout, string(out))
		return err
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("写入结果失败: %w", err)
	}
	logger.Info().Str("path", outPath).Int("applicants", len(applicants)).Msg("结果已写入")
	return nil
}

func readDocuments(paths []string) ([]types.Document, error) {
	docs := make([]types.Document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("读取 %s 失败: %w", p, err)
		}
		docs = append(docs, types.Document{Name: filepath.Base(p), Data: data})
	}
	return docs, nil
}
