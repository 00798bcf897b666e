package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/John-Robertt/MicroTrends/internal/app/run"
	"github.com/John-Robertt/MicroTrends/internal/config"
	"github.com/John-Robertt/MicroTrends/internal/domain"
	"github.com/John-Robertt/MicroTrends/internal/hydrate"
	"github.com/John-Robertt/MicroTrends/internal/infra/fsx"
	"github.com/John-Robertt/MicroTrends/internal/infra/httpx"
	"github.com/John-Robertt/MicroTrends/internal/infra/logx"
	"github.com/John-Robertt/MicroTrends/internal/platform"
	"github.com/John-Robertt/MicroTrends/internal/platform/mock"
	"github.com/John-Robertt/MicroTrends/internal/platform/webapi"
	"github.com/John-Robertt/MicroTrends/internal/report"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	case "hydrate":
		if code := hydrateCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

// runArgs 保留“是否显式指定”的信息，保证 CLI 覆盖配置文件可实现。
type runArgs struct {
	SeedDir string
	OutDir  string

	Platform    string
	PlatformSet bool

	Cron string
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		SeedDir:     ra.SeedDir,
		OutDir:      ra.OutDir,
		Platform:    ra.Platform,
		PlatformSet: ra.PlatformSet,
		CronSpec:    ra.Cron,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置错误：%v\n", err)
		return 1
	}

	log, err := logx.New(eff.LogLevel, eff.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "日志初始化失败：%v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	client, err := buildClient(eff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "平台初始化失败：%v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if eff.CronSpec != "" {
		return runOnSchedule(ctx, eff, client, log)
	}
	return runOnce(ctx, eff, client, log)
}

func runOnce(ctx context.Context, eff config.EffectiveConfig, client platform.Client, log *zap.Logger) int {
	snap, err := run.Execute(ctx, eff, client, log, newPhaseUI(os.Stderr))
	if err != nil {
		log.Error("运行失败", zap.Error(err))
		return 1
	}

	path, err := report.WriteSnapshot(eff.OutDir, eff.OutputPrefix, snap)
	if err != nil {
		log.Error("快照落盘失败", zap.Error(err))
		return 1
	}

	// stdout 只输出快照路径：方便管道接下游（jq、上传脚本）。
	fmt.Println(path)
	return 0
}

// runOnSchedule 按 cron 表达式周期性执行完整运行，直到收到退出信号。
// 单次运行失败只记日志，不终止调度（下个周期照常跑）。
func runOnSchedule(ctx context.Context, eff config.EffectiveConfig, client platform.Client, log *zap.Logger) int {
	c := cron.New()
	_, err := c.AddFunc(eff.CronSpec, func() {
		if code := runOnce(ctx, eff, client, log); code != 0 {
			log.Warn("本周期运行失败，等待下个周期", zap.String("cron", eff.CronSpec))
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cron 表达式无效：%q：%v\n", eff.CronSpec, err)
		return 2
	}

	log.Info("进入调度模式", zap.String("cron", eff.CronSpec))
	c.Start()
	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	log.Info("调度已退出")
	return 0
}

func buildClient(eff config.EffectiveConfig) (platform.Client, error) {
	httpClient, err := httpx.NewClient(eff.ProxyURL, eff.MSToken, eff.Locale)
	if err != nil {
		return nil, err
	}
	reg, err := platform.NewRegistry(
		webapi.New(httpClient, ""),
		mock.New(),
	)
	if err != nil {
		return nil, err
	}
	client, ok := reg.Get(eff.Platform)
	if !ok {
		return nil, fmt.Errorf("未注册的平台实现：%q", eff.Platform)
	}
	return client, nil
}

func parseRunArgs(args []string) (runArgs, error) {
	var ra runArgs
	for i := 0; i < len(args); i++ {
		name, val, hasVal := splitFlag(args[i])
		need := func() (string, error) {
			if hasVal {
				return val, nil
			}
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s 需要一个值", name)
			}
			i++
			return args[i], nil
		}

		switch name {
		case "--seed-dir":
			v, err := need()
			if err != nil {
				return runArgs{}, err
			}
			ra.SeedDir = v
		case "--out-dir":
			v, err := need()
			if err != nil {
				return runArgs{}, err
			}
			ra.OutDir = v
		case "--platform":
			v, err := need()
			if err != nil {
				return runArgs{}, err
			}
			ra.Platform = v
			ra.PlatformSet = true
		case "--cron":
			v, err := need()
			if err != nil {
				return runArgs{}, err
			}
			ra.Cron = v
		default:
			return runArgs{}, fmt.Errorf("未知参数：%q", args[i])
		}
	}
	return ra, nil
}

// hydrateOutput 是独立补水子命令的输出契约。
type hydrateOutput struct {
	Meta   hydrateMeta        `json:"meta"`
	Items  []domain.SoundMeta `json:"items"`
	Errors []hydrate.IDError  `json:"errors"`
}

type hydrateMeta struct {
	Input          string  `json:"input"`
	Output         string  `json:"output"`
	SoundCount     int     `json:"sound_count"`
	Hydrated       int     `json:"hydrated"`
	Errors         int     `json:"errors"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	MSTokenPresent bool    `json:"ms_token_present"`
	ProxyPresent   bool    `json:"proxy_present"`
}

func hydrateCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printHydrateUsage()
			return 0
		}
	}

	input := "seed_sounds.txt"
	output := "sound_hydration.json"
	sleep := 500 * time.Millisecond
	platformName := ""
	platformSet := false

	for i := 0; i < len(args); i++ {
		name, val, hasVal := splitFlag(args[i])
		need := func() (string, error) {
			if hasVal {
				return val, nil
			}
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s 需要一个值", name)
			}
			i++
			return args[i], nil
		}

		var v string
		var err error
		switch name {
		case "--input":
			if v, err = need(); err == nil {
				input = v
			}
		case "--output":
			if v, err = need(); err == nil {
				output = v
			}
		case "--sleep":
			if v, err = need(); err == nil {
				sleep, err = time.ParseDuration(v)
			}
		case "--platform":
			if v, err = need(); err == nil {
				platformName = v
				platformSet = true
			}
		default:
			err = fmt.Errorf("未知参数：%q", args[i])
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
			printHydrateUsage()
			return 2
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	eff, err := config.LoadEffective(cwd, config.CLIArgs{Platform: platformName, PlatformSet: platformSet})
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置错误：%v\n", err)
		return 1
	}

	log, err := logx.New(eff.LogLevel, eff.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "日志初始化失败：%v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ids, err := hydrate.ReadIDFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if len(ids) == 0 {
		fmt.Fprintf(os.Stderr, "%q 里没有声音 ID\n", input)
		return 1
	}

	client, err := buildClient(eff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "平台初始化失败：%v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	items, idErrs, err := hydrate.New(client, sleep, log).List(ctx, ids)
	if err != nil {
		log.Error("补水中断", zap.Error(err))
		return 1
	}

	out := hydrateOutput{
		Meta: hydrateMeta{
			Input:          input,
			Output:         output,
			SoundCount:     len(ids),
			Hydrated:       len(items),
			Errors:         len(idErrs),
			ElapsedSeconds: math.Round(time.Since(started).Seconds()*1000) / 1000,
			MSTokenPresent: eff.MSToken != "",
			ProxyPresent:   eff.ProxyURL != "",
		},
		Items:  items,
		Errors: idErrs,
	}
	if out.Items == nil {
		out.Items = []domain.SoundMeta{}
	}
	if out.Errors == nil {
		out.Errors = []hydrate.IDError{}
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "输出序列化失败：%v\n", err)
		return 1
	}
	b = append(b, '\n')

	dir, name := filepath.Split(filepath.Clean(output))
	if dir == "" {
		dir = "."
	}
	if err := fsx.WriteFileAtomicReplace(dir, name, b); err != nil {
		fmt.Fprintf(os.Stderr, "输出写入失败：%v\n", err)
		return 1
	}

	fmt.Println(filepath.Join(dir, name))
	if len(idErrs) > 0 {
		fmt.Fprintf(os.Stderr, "失败 %d 个声音 ID（详见输出文件 errors）\n", len(idErrs))
	}
	return 0
}

func splitFlag(arg string) (name, val string, hasVal bool) {
	if i := strings.IndexByte(arg, '='); i >= 0 {
		return arg[:i], arg[i+1:], true
	}
	return arg, "", false
}

func isHelp(a string) bool {
	switch a {
	case "-h", "--help", "help":
		return true
	}
	return false
}

func printUsage() {
	fmt.Fprint(os.Stderr, `microtrends —— 短视频趋势信号采集与打分

用法：
  microtrends run      [--seed-dir DIR] [--out-dir DIR] [--platform webapi|mock] [--cron SPEC]
  microtrends hydrate  [--input FILE] [--output FILE] [--sleep DUR] [--platform webapi|mock]

配置文件 microtrends.yaml（可选）依次在 --seed-dir、当前目录下查找；
凭证走环境变量 MS_TOKEN / PROXY_URL。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stderr, `用法：microtrends run [选项]

选项：
  --seed-dir DIR   种子文件目录（默认当前目录）
  --out-dir DIR    快照输出目录（默认当前目录）
  --platform NAME  平台实现：webapi（默认）或 mock（离线假数据）
  --cron SPEC      调度模式：按 cron 表达式周期执行（默认单次运行）
`)
}

func printHydrateUsage() {
	fmt.Fprint(os.Stderr, `用法：microtrends hydrate [选项]

选项：
  --input FILE     声音 ID 输入（.txt 按行 / .json 数组或 sounds 等键，默认 seed_sounds.txt）
  --output FILE    输出 JSON（默认 sound_hydration.json）
  --sleep DUR      两次查询间隔（默认 500ms）
  --platform NAME  平台实现：webapi（默认）或 mock
`)
}
