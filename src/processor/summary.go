package processor

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/montanaflynn/stats"
)

// Summary 页面顶部的指标卡片
// Empty 为true时其余字段都是零值
type Summary struct {
	Count         int     `json:"count"`
	MeanAge       float64 `json:"mean_age"`
	MedianAge     float64 `json:"median_age"`
	TotalWorth    float64 `json:"total_worth"`
	MedianWorth   float64 `json:"median_worth"`
	P90Worth      float64 `json:"p90_worth"`
	SelfMadeShare float64 `json:"self_made_share"`
	Empty         bool    `json:"empty"`
}

func Summarize(df dataframe.DataFrame) Summary {
	if df.Nrow() == 0 {
		return Summary{Empty: true}
	}

	s := Summary{Count: df.Nrow()}

	ages := stats.Float64Data(Ages(df))
	if len(ages) > 0 {
		s.MeanAge, _ = ages.Mean()
		s.MedianAge, _ = ages.Median()
	}

	worths := stats.Float64Data(Worths(df))
	if len(worths) > 0 {
		s.TotalWorth, _ = worths.Sum()
		s.MedianWorth, _ = worths.Median()
		s.P90Worth, _ = worths.Percentile(90)
	}

	var selfMade, known int
	for _, c := range SelfMadeSplit(df) {
		known += c.Count
		if SelfMadeLabel(c.Key) == "Self-made" {
			selfMade += c.Count
		}
	}
	if known > 0 {
		s.SelfMadeShare = float64(selfMade) / float64(known)
	}
	return s
}
