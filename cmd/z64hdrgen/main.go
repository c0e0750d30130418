package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	cfgpkg "z64hdrgen/internal/config"
	"z64hdrgen/internal/diag"
	"z64hdrgen/internal/patch"
	"z64hdrgen/internal/symtab"
	"z64hdrgen/pkg/contract"
)

var (
	patchRun   = patch.Run
	symtabLoad = symtab.Load
)

// 简化的 CLI：同步 include → 应用规则集 → 解析符号表（可选报告）。
func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()
	corrID := genCorrID()
	// 在任何 ENV 读取前加载工作目录下的 .env（不覆盖已有 ENV）。
	_ = godotenv.Load()
	// 先占位默认，解析/合并配置后以最终 level/dir 重建
	logger := diag.NewLogger(corrID, "info")

	var (
		flagConfig        string
		flagIncludeRoot   string
		flagRules         string
		flagSourceInclude string
		flagStaging       bool
		flagReport        string
		flagSkipSymbols   bool
		flagInitDir       string
		flagStatus        bool
	)
	flag.StringVar(&flagConfig, "config", "", "配置文件路径（JSON）；缺省读取 ./config.json（若存在）")
	flag.StringVar(&flagIncludeRoot, "include-root", "", "被修补的 include 目录（覆盖配置）")
	flag.StringVar(&flagRules, "rules", "", "规则集文件 .json/.yaml（覆盖配置）")
	flag.StringVar(&flagSourceInclude, "source-include", "", "修补前同步的源 include 目录；\"-\" 关闭同步（覆盖配置）")
	flag.BoolVar(&flagStaging, "staging", false, "在暂存副本上修补，全部成功后换入（覆盖配置）")
	flag.StringVar(&flagReport, "report", "", "符号比较报告输出路径（覆盖配置）")
	flag.BoolVar(&flagSkipSymbols, "skip-symbols", false, "跳过符号表解析阶段")
	flag.StringVar(&flagInitDir, "init-config", "", "在指定目录生成默认 config.json 与 .env 模板（不覆盖）；不带值时默认当前目录")
	flag.BoolVar(&flagStatus, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")
	normalizeInitArg()
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		return 3
	}
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	// --init-config: 生成模板并退出
	if initDir := strings.TrimSpace(flagInitDir); initDir != "" {
		if err := initConfig(initDir); err != nil {
			fprintf(os.Stderr, "生成默认配置失败: %v\n", err)
			logger.Error("cli", string(diag.Classify(err)), "init-config failed", &start)
			return 3
		}
		return 0
	}

	// JSON 配置（文件或 ENV: Z64HDR_CONFIG_JSON）
	var cfgJSON []byte
	if s := os.Getenv(cfgpkg.EnvPrefix + "CONFIG_JSON"); s != "" {
		cfgJSON = []byte(s)
	}
	if flagConfig == "" {
		flagConfig = os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE")
	}
	if flagConfig == "" {
		if _, err := os.Stat("config.json"); err == nil {
			flagConfig = "config.json"
		}
	}

	cfg := cfgpkg.Defaults()
	if flagConfig != "" || len(cfgJSON) > 0 {
		base, err := cfgpkg.LoadJSON(flagConfig, cfgJSON)
		if err != nil {
			fprintf(os.Stderr, "配置解析失败: %v\n", err)
			logger.Error("cli", string(diag.CodeConfig), "config parse failed", &start)
			return 3
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		fprintf(os.Stderr, "环境变量解析失败: %v\n", err)
		logger.Error("cli", string(diag.CodeConfig), "env parse failed", &start)
		return 3
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	// CLI 覆盖（仅显式给出的旗标）
	overCLI := cfgpkg.Config{
		IncludeRoot:   flagIncludeRoot,
		Rules:         flagRules,
		SourceInclude: flagSourceInclude,
		Report:        flagReport,
	}
	if explicit["staging"] {
		overCLI.Staging = &flagStaging
	}
	cfg = cfgpkg.Merge(cfg, overCLI)

	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(os.Stderr, "配置校验失败: %v\n", err)
		_ = dumpConfig(cfg)
		logger.Error("cli", string(diag.CodeConfig), "validate failed", &start)
		return 3
	}

	// 使用最终配置中的日志级别与目录重建 logger
	_ = logger.Close()
	logger = diag.NewLoggerDir(corrID, cfg.Logging.Level, effDir(cfg.Logging.Dir))
	defer logger.Close()

	comp, set, sources, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(os.Stderr, "装配失败: %v\n", err)
		logger.Error("cli", string(diag.Classify(err)), "assemble failed", &start)
		return 3
	}

	term := diag.NewTerminal(os.Stderr, flagStatus)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)

	logger.DebugStart("config", "effective", "", "", map[string]string{
		"include_root":   set.IncludeRoot,
		"source_include": set.SourceInclude,
		"rules":          cfg.Rules,
		"staging":        strconv.FormatBool(set.Staging),
		"symbols":        strconv.Itoa(len(sources)),
		"store":          cfg.Components.Store,
	})

	t := logger.Start("cli", "patch")
	if err := patchRun(context.Background(), comp, set, logger); err != nil {
		code := diag.Classify(err)
		logger.Error("cli", string(code), "first error", &start)
		diag.IncOp("cli", "error", "error")
		if code != diag.CodeUnknown {
			diag.IncError("cli", string(code))
		}
		if !errors.Is(err, context.Canceled) {
			fprintf(os.Stderr, "修补失败: %v\n", err)
		}
		var re *contract.RuleError
		if set.Staging && errors.As(err, &re) {
			fprintf(os.Stderr, "提示：暂存模式，%s 未被修改\n", set.IncludeRoot)
		}
		if errors.Is(err, contract.ErrConfig) {
			return 3
		}
		return 1
	}
	t.Finish("patch", 0)

	if !flagSkipSymbols && len(sources) > 0 {
		st := logger.Start("cli", "symbols")
		tables, err := symtabLoad(context.Background(), sources, logger)
		if err != nil {
			logger.Error("cli", string(diag.Classify(err)), "first error", &start)
			fprintf(os.Stderr, "符号表解析失败: %v\n", err)
			return 1
		}
		if cfg.Report != "" {
			if err := writeReport(cfg.Report, tables); err != nil {
				logger.Error("cli", string(diag.Classify(err)), "report failed", &start)
				fprintf(os.Stderr, "报告写出失败: %v\n", err)
				return 1
			}
		}
		var n int64
		for _, tb := range tables {
			n += int64(len(tb.Symbols))
		}
		st.Finish("symbols", n)
	}
	diag.IncOp("cli", "finish", "success")
	diag.ObserveDuration("cli", "finish", time.Since(start).Milliseconds())
	return 0
}

func fprintf(w *os.File, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func effDir(d string) string {
	if strings.TrimSpace(d) == "" {
		return diag.DefaultLogDir
	}
	return d
}

func dumpConfig(c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, _ = os.Stderr.Write(append([]byte("有效配置:\n"), b...))
	_, _ = os.Stderr.Write([]byte("\n"))
	return nil
}

// writeReport 写出符号比较报告（同目录临时文件 + rename）。
func writeReport(path string, tables []symtab.Table) error {
	if path == "-" {
		return symtab.WriteReport(os.Stdout, tables)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := symtab.WriteReport(f, tables); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func initConfig(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeConfig(filepath.Join(dir, "config.json"), cfgpkg.DefaultTemplateConfig()); err != nil {
		return err
	}
	// .env 失败仅提示
	if err := writeDotEnv(filepath.Join(dir, ".env")); err != nil {
		fprintf(os.Stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
	}
	return nil
}

// writeConfig 写出配置；"-" 写到 stdout。已存在的文件不覆盖（返回错误）。
func writeConfig(path string, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(b, '\n'))
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(b, '\n'))
	return err
}

// writeDotEnv 生成 .env 模板；文件已存在时跳过。
func writeDotEnv(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	var b strings.Builder
	b.WriteString("# 由 --init-config 生成；优先级：CLI > ENV(.env) > JSON\n")
	b.WriteString("# 配置来源（可二选一）\n")
	b.WriteString("# " + cfgpkg.EnvPrefix + "CONFIG_FILE=\n")
	b.WriteString("# " + cfgpkg.EnvPrefix + "CONFIG_JSON=\n\n")
	b.WriteString(cfgpkg.TemplateEnv())
	_, err = f.WriteString(b.String())
	return err
}

func genCorrID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(b[:])
}

// normalizeInitArg: 允许 --init-config 在未提供路径值时采用当前目录 "."。
//
//	--init-config                => 等价于 --init-config .
//	--init-config=out
//	--init-config out
func normalizeInitArg() {
	args := os.Args
	if len(args) <= 1 {
		return
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	for i := 1; i < len(args); i++ {
		a := args[i]
		out = append(out, a)
		if a == "--init-config" || a == "-init-config" {
			if i == len(args)-1 || strings.HasPrefix(args[i+1], "-") {
				out = append(out, ".")
			}
		}
	}
	os.Args = out
}
