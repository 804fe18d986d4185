package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/krish132005/RESUME-ANALYZER/internal/logger"
	"github.com/krish132005/RESUME-ANALYZER/internal/ontology"
	"github.com/krish132005/RESUME-ANALYZER/internal/parser"
	"github.com/krish132005/RESUME-ANALYZER/internal/types"

	"github.com/spf13/pflag"
)

// 命令行参数定义
var (
	filePath     = pflag.StringP("file", "f", "", "单个简历文件路径 (pdf/txt)")
	dirPath      = pflag.StringP("dir", "d", "", "批量解析目录，处理目录下所有pdf/txt文件")
	outPath      = pflag.StringP("out", "o", "", "输出路径：单文件模式为JSON文件，目录模式为输出目录，空则输出到stdout")
	ontologyPath = pflag.String("ontology", "", "技能词表YAML路径，空则使用内置词表")
	pretty       = pflag.Bool("pretty", true, "JSON缩进输出")
	timeoutSec   = pflag.Int("timeout", 60, "单个文件的解析超时(秒)")
)

func main() {
	pflag.Parse()

	logger.Init(logger.Config{Level: "warn", Format: "pretty"})

	if *filePath == "" && *dirPath == "" {
		fmt.Fprintln(os.Stderr, "错误: 必须通过 --file 或 --dir 指定输入")
		pflag.Usage()
		os.Exit(1)
	}

	onto, err := loadOntology(*ontologyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载技能词表失败: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	extractor, err := parser.NewDocumentTextExtractor(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化文本提取器失败: %v\n", err)
		os.Exit(1)
	}
	resumeParser := parser.NewResumeParser(onto)

	if *filePath != "" {
		if err := parseOne(ctx, extractor, resumeParser, *filePath, *outPath); err != nil {
			fmt.Fprintf(os.Stderr, "解析失败 %s: %v\n", *filePath, err)
			os.Exit(1)
		}
		return
	}

	if err := parseDir(ctx, extractor, resumeParser, *dirPath, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "批量解析失败: %v\n", err)
		os.Exit(1)
	}
}

func loadOntology(path string) (*ontology.Ontology, error) {
	if path == "" {
		return ontology.Default(), nil
	}
	return ontology.Load(path)
}

// parseOne 解析单个文件，结果写到outPath或stdout
func parseOne(ctx context.Context, extractor *parser.DocumentTextExtractor, p *parser.ResumeParser, inputPath, outputPath string) error {
	record, err := parseFile(ctx, extractor, p, inputPath)
	if err != nil {
		return err
	}

	data, err := marshalRecord(record)
	if err != nil {
		return err
	}

	if outputPath == "" {
		fmt.Println(string(data))
		return nil
	}
	return os.WriteFile(outputPath, data, 0644)
}

// parseDir 解析目录下所有支持的文件，每个文件输出同名.json
func parseDir(ctx context.Context, extractor *parser.DocumentTextExtractor, p *parser.ResumeParser, inputDir, outputDir string) error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return fmt.Errorf("读取目录失败: %w", err)
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	var parsed, failed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".pdf" && ext != ".txt" && ext != ".md" {
			continue
		}

		inputPath := filepath.Join(inputDir, entry.Name())
		record, err := parseFile(ctx, extractor, p, inputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "跳过 %s: %v\n", entry.Name(), err)
			failed++
			continue
		}

		data, err := marshalRecord(record)
		if err != nil {
			fmt.Fprintf(os.Stderr, "跳过 %s: %v\n", entry.Name(), err)
			failed++
			continue
		}

		if outputDir == "" {
			fmt.Printf("=== %s ===\n%s\n", entry.Name(), string(data))
		} else {
			base := strings.TrimSuffix(entry.Name(), ext)
			outPath := filepath.Join(outputDir, base+".json")
			if err := os.WriteFile(outPath, data, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "写入 %s 失败: %v\n", outPath, err)
				failed++
				continue
			}
		}
		parsed++
	}

	fmt.Fprintf(os.Stderr, "完成: 成功 %d, 失败 %d\n", parsed, failed)
	if parsed == 0 && failed > 0 {
		return fmt.Errorf("所有文件解析失败")
	}
	return nil
}

func parseFile(ctx context.Context, extractor *parser.DocumentTextExtractor, p *parser.ResumeParser, inputPath string) (*types.Record, error) {
	fileCtx, cancel := context.WithTimeout(ctx, time.Duration(*timeoutSec)*time.Second)
	defer cancel()

	text, err := extractor.ExtractFromFile(fileCtx, inputPath)
	if err != nil {
		return nil, err
	}

	normalized := parser.NormalizeText(text)
	if strings.TrimSpace(normalized) == "" {
		return nil, fmt.Errorf("提取到的文本为空")
	}

	return p.Parse(fileCtx, normalized), nil
}

func marshalRecord(record *types.Record) ([]byte, error) {
	if *pretty {
		return json.MarshalIndent(record, "", "  ")
	}
	return json.Marshal(record)
}
