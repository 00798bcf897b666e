package run

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/John-Robertt/MicroTrends/internal/collect"
	"github.com/John-Robertt/MicroTrends/internal/config"
	"github.com/John-Robertt/MicroTrends/internal/domain"
	"github.com/John-Robertt/MicroTrends/internal/hydrate"
	"github.com/John-Robertt/MicroTrends/internal/merge"
	"github.com/John-Robertt/MicroTrends/internal/platform"
	"github.com/John-Robertt/MicroTrends/internal/report"
	"github.com/John-Robertt/MicroTrends/internal/score"
	"github.com/John-Robertt/MicroTrends/internal/seed"
)

// Execute 按固定阶段顺序跑完一次采集运行，返回可直接序列化的快照。
//
// 阶段顺序（严格串行，阶段间不重叠）：
// 趋势 -> 种子扩张 -> 账号 -> 话题 -> 声音 -> 声音补水 -> 合并 -> 池级打分 -> 汇总
//
// 错误模型：
// - 种子文件不可读、趋势取数失败：结构性错误，直接返回
// - 单元级失败：collect/hydrate 内部降级为 skip，不会到达这里
// - 本函数不设超时；需要取消的调用方用带 deadline 的 ctx 包住
func Execute(ctx context.Context, eff config.EffectiveConfig, client platform.Client, log *zap.Logger, obs Observer) (domain.Snapshot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if obs != nil {
		obs.OnStart(eff)
	}

	started := time.Now()
	date := started.Format("2006-01-02")

	store := seed.NewStore(eff.SeedDir)
	col := collect.New(client, eff.RequestInterval, log)

	// 1) 趋势采集。
	phaseStart := time.Now()
	trendingRows, trendingSum, err := col.Trending(ctx, eff.TrendingTarget, eff.TrendingBatch, eff.StallLimit)
	if err != nil {
		return domain.Snapshot{}, err
	}
	phaseDone(obs, "trending", map[string]any{"rows": len(trendingRows)}, phaseStart)

	// 2) 种子扩张：只吃趋势子集，写回四个种子文件。
	phaseStart = time.Now()
	exp := seed.FromTrending(trendingRows, seed.Limits{
		TopHashtags:     eff.AddTopHashtags,
		TopCreators:     eff.AddTopCreators,
		TopSuggestWords: eff.AddTopSuggestWords,
		TopSounds:       eff.AddTopSounds,
		MinHashtagLen:   eff.MinHashtagLen,
	})

	var appended domain.SeedAppended
	if appended.AddedCreators, err = store.AppendDedup(seed.AccountsFile, exp.Creators); err != nil {
		return domain.Snapshot{}, err
	}
	if appended.AddedHashtags, err = store.AppendDedup(seed.HashtagsFile, exp.Hashtags); err != nil {
		return domain.Snapshot{}, err
	}
	if appended.AddedSuggestWords, err = store.AppendDedup(seed.SuggestWordsFile, exp.SuggestWords); err != nil {
		return domain.Snapshot{}, err
	}
	if appended.AddedSounds, err = store.AppendDedup(seed.SoundsFile, exp.Sounds); err != nil {
		return domain.Snapshot{}, err
	}

	// 建议词 -> 话题候选，同样进话题种子文件（计数单独上报）。
	var tagCandidates []string
	for _, phrase := range exp.SuggestWords {
		tagCandidates = append(tagCandidates, seed.PhraseToHashtagCandidates(phrase, eff.MinHashtagLen)...)
	}
	if appended.AddedHashtagsFromSuggest, err = store.AppendDedup(seed.HashtagsFile, tagCandidates); err != nil {
		return domain.Snapshot{}, err
	}
	appended.Files = domain.SeedFiles{
		BigAccounts:      seed.AccountsFile,
		SeedHashtags:     seed.HashtagsFile,
		SeedSuggestWords: seed.SuggestWordsFile,
		SeedSounds:       seed.SoundsFile,
	}
	phaseDone(obs, "seed-expand", map[string]any{
		"creators":              appended.AddedCreators,
		"hashtags":              appended.AddedHashtags,
		"hashtags_from_suggest": appended.AddedHashtagsFromSuggest,
		"suggest_words":         appended.AddedSuggestWords,
		"sounds":                appended.AddedSounds,
	}, phaseStart)

	// 3) 读回扩张后的种子，驱动后续阶段（截断到各阶段上限）。
	allAccounts, err := store.Accounts()
	if err != nil {
		return domain.Snapshot{}, err
	}
	allTags, err := store.Hashtags()
	if err != nil {
		return domain.Snapshot{}, err
	}
	allSounds, err := store.Sounds()
	if err != nil {
		return domain.Snapshot{}, err
	}

	phaseStart = time.Now()
	accountRows, accountSum, err := col.Accounts(ctx, capList(allAccounts, eff.MaxAccounts), eff.PerAccountLimit)
	if err != nil {
		return domain.Snapshot{}, err
	}
	phaseDone(obs, "accounts", map[string]any{"rows": len(accountRows), "skipped": accountSum.Skipped}, phaseStart)

	phaseStart = time.Now()
	hashtagRows, hashtagSum, err := col.Hashtags(ctx, capList(allTags, eff.MaxHashtags), eff.PerHashtagLimit)
	if err != nil {
		return domain.Snapshot{}, err
	}
	phaseDone(obs, "hashtags", map[string]any{"rows": len(hashtagRows), "skipped": hashtagSum.Skipped}, phaseStart)

	phaseStart = time.Now()
	soundRows, soundSum, err := col.Sounds(ctx, capList(allSounds, eff.MaxSounds), eff.PerSoundLimit)
	if err != nil {
		return domain.Snapshot{}, err
	}
	phaseDone(obs, "sounds", map[string]any{"rows": len(soundRows), "skipped": soundSum.Skipped}, phaseStart)

	// 4) 声音补水：只取趋势子集里出现过的声音 ID（升序，结果可复现）。
	phaseStart = time.Now()
	hyd := hydrate.New(client, eff.SoundInfoInterval, log)
	soundMeta, err := hyd.SoundMeta(ctx, trendingSoundIDs(trendingRows))
	if err != nil {
		return domain.Snapshot{}, err
	}
	phaseDone(obs, "hydrate", map[string]any{"sounds": len(soundMeta)}, phaseStart)

	// 5) 合并 + 计数回填 + 池级打分。
	all := make([]domain.VideoRecord, 0, len(trendingRows)+len(accountRows)+len(hashtagRows)+len(soundRows))
	all = append(all, trendingRows...)
	all = append(all, accountRows...)
	all = append(all, hashtagRows...)
	all = append(all, soundRows...)
	merged := merge.Merge(all)

	for i := range merged {
		if m, ok := soundMeta[merged[i].Music.ID]; ok {
			merged[i].Music.VideoCount = m.VideoCount
		}
	}

	privileged := make(map[string]struct{}, len(allAccounts))
	for _, u := range allAccounts {
		privileged[u] = struct{}{}
	}
	score.Apply(merged, privileged)

	// 6) 汇总快照。
	snap := domain.Snapshot{
		Meta: domain.Meta{
			Date:           date,
			MSTokenPresent: eff.MSToken != "",
			ProxyPresent:   eff.ProxyURL != "",
			Counts: domain.Counts{
				Trending:    len(trendingRows),
				AccountsRaw: len(accountRows),
				HashtagsRaw: len(hashtagRows),
				SoundsRaw:   len(soundRows),
			},
			SeedAppended: appended,
			Targets: domain.Targets{
				TrendingTarget:  eff.TrendingTarget,
				AccountsChecked: min(eff.MaxAccounts, len(allAccounts)),
				PerAccountLimit: eff.PerAccountLimit,
				HashtagsChecked: min(eff.MaxHashtags, len(allTags)),
				PerHashtagLimit: eff.PerHashtagLimit,
				SoundsChecked:   min(eff.MaxSounds, len(allSounds)),
				PerSoundLimit:   eff.PerSoundLimit,
			},
			Phases:         []domain.PhaseSummary{trendingSum, accountSum, hashtagSum, soundSum},
			ElapsedSeconds: round3(time.Since(started).Seconds()),
		},
		Topics:         report.Topics(merged, eff.TopicsK),
		SoundMeta:      soundMeta,
		EmergingSounds: hydrate.Emerging(soundMeta, eff.EmergingThreshold),
		Items:          merged,
	}
	snap.Finalize()

	log.Info("运行完成",
		zap.Int("unique_total", snap.Meta.Counts.UniqueTotal),
		zap.Float64("elapsed_seconds", snap.Meta.ElapsedSeconds))
	return snap, nil
}

// trendingSoundIDs 返回趋势子集里出现过的去重声音 ID（升序）。
func trendingSoundIDs(rows []domain.VideoRecord) []string {
	set := make(map[string]struct{})
	for i := range rows {
		if sid := rows[i].Music.ID; sid != "" {
			set[sid] = struct{}{}
		}
	}
	ids := make([]string, 0, len(set))
	for sid := range set {
		ids = append(ids, sid)
	}
	sort.Strings(ids)
	return ids
}

func phaseDone(obs Observer, name string, fields map[string]any, started time.Time) {
	if obs != nil {
		obs.OnPhaseDone(name, fields, time.Since(started))
	}
}

func capList(in []string, n int) []string {
	if n >= 0 && len(in) > n {
		return in[:n]
	}
	return in
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
