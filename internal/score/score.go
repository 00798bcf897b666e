package score

import (
	"math"
	"strings"

	"github.com/John-Robertt/MicroTrends/internal/domain"
)

// 稀有性判定：语料内出现次数 <= rareCutoff 的话题/声音视为稀有。
const rareCutoff = 2

const (
	rareHashtagBonus    = 0.5
	rareHashtagBonusCap = 3.0
	rareSoundBonus      = 1.0
	bigAccountBonus     = 1.0
)

// Apply 做池级（第二阶段）打分：在完整合并语料上就地写入每条记录的最终 Score。
//
// 拆成两阶段的原因：稀有性只有在全语料可见之后才有意义，
// 单条记录在提取时算不出自己的话题/声音在池子里有多罕见。
//
// privileged 是“重点账号”集合（全小写 handle）。
func Apply(rows []domain.VideoRecord, privileged map[string]struct{}) {
	hashtagFreq := make(map[string]int)
	soundFreq := make(map[string]int)

	for i := range rows {
		for _, h := range rows[i].Hashtags {
			hashtagFreq[h]++
		}
		if sid := rows[i].Music.ID; sid != "" {
			soundFreq[sid]++
		}
	}

	for i := range rows {
		s := rows[i].ScoreBase

		rareHits := 0
		for _, h := range rows[i].Hashtags {
			if hashtagFreq[h] <= rareCutoff {
				rareHits++
			}
		}
		s += math.Min(rareHashtagBonusCap, float64(rareHits)*rareHashtagBonus)

		if sid := rows[i].Music.ID; sid != "" && soundFreq[sid] <= rareCutoff {
			s += rareSoundBonus
		}

		if au := strings.ToLower(rows[i].Author.UniqueID); au != "" {
			if _, ok := privileged[au]; ok {
				s += bigAccountBonus
			}
		}

		rows[i].Score = round4(s)
	}
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
