package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultPlatform 是平台实现的最终默认值（当 CLI 与配置文件都未指定时）。
	DefaultPlatform = "webapi"

	configName = "microtrends"
)

// CLIArgs 只包含 CLI 暴露的入口项，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：CLI 显式值必须能覆盖配置文件。
type CLIArgs struct {
	SeedDir string
	OutDir  string

	Platform    string
	PlatformSet bool

	CronSpec string
}

// EffectiveConfig 是合并并做最小规范化后的最终配置。
//
// 约束：
// - 流水线入口只消费该结构，不再读任何全局可变量
// - 全部阈值/上限/间隔显式成字段，单测可以用小值构造确定性运行
type EffectiveConfig struct {
	SeedDir string
	OutDir  string

	OutputPrefix string

	Platform string
	MSToken  string
	ProxyURL string
	Locale   string

	LogLevel  string
	LogFormat string

	TrendingTarget int
	TrendingBatch  int
	StallLimit     int

	MaxAccounts     int
	PerAccountLimit int
	MaxHashtags     int
	PerHashtagLimit int
	MaxSounds       int
	PerSoundLimit   int

	AddTopHashtags     int
	AddTopCreators     int
	AddTopSuggestWords int
	AddTopSounds       int
	MinHashtagLen      int

	RequestInterval   time.Duration
	SoundInfoInterval time.Duration

	EmergingThreshold int64
	TopicsK           int

	CronSpec string
}

// fileConfig 对应 microtrends.yaml 的解析结构（全部可缺省）。
type fileConfig struct {
	SeedDir      string `mapstructure:"seed_dir"`
	OutDir       string `mapstructure:"out_dir"`
	OutputPrefix string `mapstructure:"output_prefix"`

	Platform string `mapstructure:"platform"`
	MSToken  string `mapstructure:"ms_token"`
	ProxyURL string `mapstructure:"proxy_url"`
	Locale   string `mapstructure:"locale"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	TrendingTarget int `mapstructure:"trending_target"`
	TrendingBatch  int `mapstructure:"trending_batch"`
	StallLimit     int `mapstructure:"stall_limit"`

	MaxAccounts     int `mapstructure:"max_accounts"`
	PerAccountLimit int `mapstructure:"per_account_limit"`
	MaxHashtags     int `mapstructure:"max_hashtags"`
	PerHashtagLimit int `mapstructure:"per_hashtag_limit"`
	MaxSounds       int `mapstructure:"max_sounds"`
	PerSoundLimit   int `mapstructure:"per_sound_limit"`

	AddTopHashtags     int `mapstructure:"add_top_hashtags"`
	AddTopCreators     int `mapstructure:"add_top_creators"`
	AddTopSuggestWords int `mapstructure:"add_top_suggest_words"`
	AddTopSounds       int `mapstructure:"add_top_sounds"`
	MinHashtagLen      int `mapstructure:"min_hashtag_len"`

	RequestInterval   time.Duration `mapstructure:"request_interval"`
	SoundInfoInterval time.Duration `mapstructure:"sound_info_interval"`

	EmergingThreshold int64 `mapstructure:"emerging_threshold"`
	TopicsK           int   `mapstructure:"topics_k"`
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取配置文件（可选）并与 CLI 参数、环境变量合并为最终配置。
//
// 发现规则（固定）：
// - 依次在 CLI seed_dir、cwd 下找 microtrends.yaml；都不存在则全用默认值
//
// 覆盖优先级（固定）：
// - platform/seed_dir/out_dir/cron：CLI > config > 默认
// - ms_token/proxy_url：环境变量 MS_TOKEN / PROXY_URL > config
// - 其他字段：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if strings.TrimSpace(cli.SeedDir) != "" {
		v.AddConfigPath(absCleanFrom(cwdAbs, cli.SeedDir))
	}
	v.AddConfigPath(cwdAbs)

	_ = v.BindEnv("ms_token", "MS_TOKEN")
	_ = v.BindEnv("proxy_url", "PROXY_URL")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: v.ConfigFileUsed(), Err: err}
		}
		// 没有配置文件不算错误：默认值 + 环境变量足以跑一次运行。
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: v.ConfigFileUsed(), Err: err}
	}

	return merge(cwdAbs, cli, fc, v.ConfigFileUsed())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("seed_dir", ".")
	v.SetDefault("out_dir", ".")
	v.SetDefault("output_prefix", "microtrends")
	v.SetDefault("platform", DefaultPlatform)
	v.SetDefault("locale", "en-AU")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetDefault("trending_target", 300)
	v.SetDefault("trending_batch", 25)
	v.SetDefault("stall_limit", 6)

	v.SetDefault("max_accounts", 200)
	v.SetDefault("per_account_limit", 2)
	v.SetDefault("max_hashtags", 240)
	v.SetDefault("per_hashtag_limit", 2)
	v.SetDefault("max_sounds", 240)
	v.SetDefault("per_sound_limit", 3)

	v.SetDefault("add_top_hashtags", 100)
	v.SetDefault("add_top_creators", 100)
	v.SetDefault("add_top_suggest_words", 30)
	v.SetDefault("add_top_sounds", 100)
	v.SetDefault("min_hashtag_len", 3)

	v.SetDefault("request_interval", "1s")
	v.SetDefault("sound_info_interval", "500ms")

	v.SetDefault("emerging_threshold", 1000)
	v.SetDefault("topics_k", 25)
}

func merge(cwdAbs string, cli CLIArgs, fc fileConfig, cfgPath string) (EffectiveConfig, error) {
	// platform：CLI > config > 默认
	platform := fc.Platform
	if cli.PlatformSet {
		platform = cli.Platform
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if err := validatePlatform(platform); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	seedDir := fc.SeedDir
	if strings.TrimSpace(cli.SeedDir) != "" {
		seedDir = cli.SeedDir
	}
	outDir := fc.OutDir
	if strings.TrimSpace(cli.OutDir) != "" {
		outDir = cli.OutDir
	}

	proxyURL := strings.TrimSpace(fc.ProxyURL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("proxy_url 无效：%q", proxyURL)}
		}
	}

	eff := EffectiveConfig{
		SeedDir: absCleanFrom(cwdAbs, seedDir),
		OutDir:  absCleanFrom(cwdAbs, outDir),

		OutputPrefix: strings.TrimSpace(fc.OutputPrefix),

		Platform: platform,
		MSToken:  strings.TrimSpace(fc.MSToken),
		ProxyURL: proxyURL,
		Locale:   strings.TrimSpace(fc.Locale),

		LogLevel:  fc.LogLevel,
		LogFormat: fc.LogFormat,

		TrendingTarget: fc.TrendingTarget,
		TrendingBatch:  fc.TrendingBatch,
		StallLimit:     fc.StallLimit,

		MaxAccounts:     fc.MaxAccounts,
		PerAccountLimit: fc.PerAccountLimit,
		MaxHashtags:     fc.MaxHashtags,
		PerHashtagLimit: fc.PerHashtagLimit,
		MaxSounds:       fc.MaxSounds,
		PerSoundLimit:   fc.PerSoundLimit,

		AddTopHashtags:     fc.AddTopHashtags,
		AddTopCreators:     fc.AddTopCreators,
		AddTopSuggestWords: fc.AddTopSuggestWords,
		AddTopSounds:       fc.AddTopSounds,
		MinHashtagLen:      fc.MinHashtagLen,

		RequestInterval:   fc.RequestInterval,
		SoundInfoInterval: fc.SoundInfoInterval,

		EmergingThreshold: fc.EmergingThreshold,
		TopicsK:           fc.TopicsK,

		CronSpec: strings.TrimSpace(cli.CronSpec),
	}

	if err := validateNumbers(eff); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return eff, nil
}

func validatePlatform(p string) error {
	switch p {
	case "webapi", "mock":
		return nil
	case "":
		return fmt.Errorf("platform 不能为空")
	default:
		return fmt.Errorf("platform 只能是 webapi 或 mock，实际是 %q", p)
	}
}

func validateNumbers(eff EffectiveConfig) error {
	positives := map[string]int{
		"trending_target":   eff.TrendingTarget,
		"trending_batch":    eff.TrendingBatch,
		"stall_limit":       eff.StallLimit,
		"per_account_limit": eff.PerAccountLimit,
		"per_hashtag_limit": eff.PerHashtagLimit,
		"per_sound_limit":   eff.PerSoundLimit,
		"min_hashtag_len":   eff.MinHashtagLen,
		"topics_k":          eff.TopicsK,
	}
	for name, val := range positives {
		if val < 1 {
			return fmt.Errorf("%s 必须 >= 1，实际是 %d", name, val)
		}
	}
	nonNegatives := map[string]int{
		"max_accounts":          eff.MaxAccounts,
		"max_hashtags":          eff.MaxHashtags,
		"max_sounds":            eff.MaxSounds,
		"add_top_hashtags":      eff.AddTopHashtags,
		"add_top_creators":      eff.AddTopCreators,
		"add_top_suggest_words": eff.AddTopSuggestWords,
		"add_top_sounds":        eff.AddTopSounds,
	}
	for name, val := range nonNegatives {
		if val < 0 {
			return fmt.Errorf("%s 不能为负，实际是 %d", name, val)
		}
	}
	if eff.RequestInterval < 0 {
		return fmt.Errorf("request_interval 不能为负")
	}
	if eff.SoundInfoInterval < 0 {
		return fmt.Errorf("sound_info_interval 不能为负")
	}
	if eff.EmergingThreshold < 0 {
		return fmt.Errorf("emerging_threshold 不能为负")
	}
	if eff.OutputPrefix == "" {
		return fmt.Errorf("output_prefix 不能为空")
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" || p == "." {
		return base
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}
