package collect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/John-Robertt/MicroTrends/internal/domain"
	"github.com/John-Robertt/MicroTrends/internal/extract"
	"github.com/John-Robertt/MicroTrends/internal/platform"
)

// Collector 驱动四种采集策略，统一限速与单元级失败隔离。
//
// 约束：
// - 单元严格串行，每个单元之间强制间隔 Interval（对上游限速的礼貌）
// - 单元失败只变成 skip（带原因），绝不让整个阶段中断
// - 所有等待点都响应 ctx：调用方可用外部 deadline 包住整次运行
type Collector struct {
	Client   platform.Client
	Interval time.Duration
	Log      *zap.Logger
}

func New(client platform.Client, interval time.Duration, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{Client: client, Interval: interval, Log: log}
}

// Trending 做无界批量拉取：运行内按 ID 去重，直到凑满 target，
// 或连续 stallLimit 个批次没有新 item（stall，正常早停，不是错误）。
//
// 趋势批次本身的取数错误会向上传播：趋势是整次运行的必选输入，
// 拿不到就没有可信的输出（与单元级失败不同）。
func (c *Collector) Trending(ctx context.Context, target, batch, stallLimit int) ([]domain.VideoRecord, domain.PhaseSummary, error) {
	sum := domain.PhaseSummary{Phase: "trending"}
	seen := make(map[string]struct{}, target)
	rows := make([]domain.VideoRecord, 0, target)

	stall := 0
	for len(rows) < target {
		raws, err := c.Client.Trending(ctx, batch)
		if err != nil {
			return nil, sum, fmt.Errorf("趋势批次拉取失败：%w", err)
		}
		sum.Units++

		var fresh int
		for _, raw := range raws {
			rec := extract.Record(raw, "trending")
			if rec.ID == "" {
				continue
			}
			if _, ok := seen[rec.ID]; ok {
				continue
			}
			seen[rec.ID] = struct{}{}
			rows = append(rows, rec)
			fresh++
		}

		if fresh == 0 {
			stall++
			if stall >= stallLimit {
				c.Log.Info("趋势采集 stall 终止",
					zap.Int("rows", len(rows)),
					zap.Int("target", target),
					zap.Int("empty_batches", stall))
				break
			}
		} else {
			stall = 0
			sum.OK++
		}

		if err := c.pace(ctx); err != nil {
			return rows, sum, err
		}
	}

	if len(rows) > target {
		rows = rows[:target]
	}
	return rows, sum, nil
}

// Accounts 逐个账号拉取最新发布。
func (c *Collector) Accounts(ctx context.Context, usernames []string, perUser int) ([]domain.VideoRecord, domain.PhaseSummary, error) {
	return c.units(ctx, "accounts", usernames, func(u string) (string, bool) {
		u = strings.TrimSpace(strings.TrimPrefix(u, "@"))
		return u, u != ""
	}, func(ctx context.Context, u string) ([]platform.Raw, error) {
		return c.Client.AccountVideos(ctx, u, perUser)
	}, func(u string) string {
		return "account:" + u
	})
}

// Hashtags 逐个话题拉取。
func (c *Collector) Hashtags(ctx context.Context, tags []string, perTag int) ([]domain.VideoRecord, domain.PhaseSummary, error) {
	return c.units(ctx, "hashtags", tags, func(t string) (string, bool) {
		t = strings.TrimSpace(strings.TrimPrefix(t, "#"))
		return t, t != ""
	}, func(ctx context.Context, t string) ([]platform.Raw, error) {
		return c.Client.HashtagVideos(ctx, t, perTag)
	}, func(t string) string {
		return "hashtag:" + t
	})
}

// Sounds 逐个声音 ID 拉取引用视频。
func (c *Collector) Sounds(ctx context.Context, soundIDs []string, perSound int) ([]domain.VideoRecord, domain.PhaseSummary, error) {
	return c.units(ctx, "sounds", soundIDs, func(s string) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	}, func(ctx context.Context, s string) ([]platform.Raw, error) {
		return c.Client.SoundVideos(ctx, s, perSound)
	}, func(s string) string {
		return "sound:" + s
	})
}

// units 是账号/话题/声音三种策略的共同骨架：
// 规范化单元 -> 取数 -> 提取 -> 失败降级为 skip -> 限速间隔。
func (c *Collector) units(
	ctx context.Context,
	phase string,
	raw []string,
	normalize func(string) (string, bool),
	fetch func(context.Context, string) ([]platform.Raw, error),
	sourceTag func(string) string,
) ([]domain.VideoRecord, domain.PhaseSummary, error) {
	sum := domain.PhaseSummary{Phase: phase}
	var rows []domain.VideoRecord

	for _, u := range raw {
		unit, ok := normalize(u)
		if !ok {
			continue
		}
		sum.Units++

		raws, err := fetch(ctx, unit)
		if err != nil {
			// ctx 取消是结构性终止，不能当成单元失败吞掉。
			if ctx.Err() != nil {
				return rows, sum, ctx.Err()
			}
			sum.Skipped++
			sum.Skips = append(sum.Skips, domain.UnitSkip{Unit: unit, Reason: err.Error()})
			c.Log.Warn("单元取数失败，跳过",
				zap.String("phase", phase),
				zap.String("unit", unit),
				zap.Error(err))
		} else {
			for _, r := range raws {
				rows = append(rows, extract.Record(r, sourceTag(unit)))
			}
			sum.OK++
		}

		if err := c.pace(ctx); err != nil {
			return rows, sum, err
		}
	}
	return rows, sum, nil
}

// pace 等待一个限速间隔；ctx 取消立即返回。
func (c *Collector) pace(ctx context.Context) error {
	if c.Interval <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.Interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
