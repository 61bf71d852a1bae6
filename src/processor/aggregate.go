package processor

import (
	"BillionairesDashboard/src/datasource/file"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/stat"
)

// Count 类别 -> 数量
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Mean 类别 -> 均值
type Mean struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	N     int     `json:"n"`
}

// PairCount (industries, gender) 组合的数量
type PairCount struct {
	Industry string `json:"industry"`
	Gender   string `json:"gender"`
	Count    int    `json:"count"`
}

// ValueCounts 按数量降序，数量相同时按首次出现顺序；缺失值不计
func ValueCounts(df dataframe.DataFrame, colname string) []Count {
	counts := []Count{}
	if df.Nrow() == 0 || !file.HasColumn(df, colname) {
		return counts
	}

	index := make(map[string]int)
	col := df.Col(colname)
	for i := 0; i < col.Len(); i++ {
		e := col.Elem(i)
		if e.IsNA() {
			continue
		}
		v := e.String()
		pos, ok := index[v]
		if !ok {
			pos = len(counts)
			index[v] = pos
			counts = append(counts, Count{Key: v})
		}
		counts[pos].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// TopN 前n个类别，结果长度为 min(n, 类别数)
func TopN(df dataframe.DataFrame, colname string, n int) []Count {
	counts := ValueCounts(df, colname)
	if n < 0 {
		n = 0
	}
	if n < len(counts) {
		counts = counts[:n]
	}
	return counts
}

func TopCountries(df dataframe.DataFrame, n int) []Count {
	return TopN(df, file.ColCountry, n)
}

func TopIndustries(df dataframe.DataFrame, n int) []Count {
	return TopN(df, file.ColIndustries, n)
}

// Ages 非缺失的年龄，用于直方图和KDE
func Ages(df dataframe.DataFrame) []float64 {
	return nonMissing(df, file.ColAge)
}

// Worths 非缺失的finalWorth
func Worths(df dataframe.DataFrame) []float64 {
	return nonMissing(df, file.ColFinalWorth)
}

func nonMissing(df dataframe.DataFrame, colname string) []float64 {
	vals := []float64{}
	if df.Nrow() == 0 || !file.HasColumn(df, colname) {
		return vals
	}
	col := df.Col(colname)
	for i := 0; i < col.Len(); i++ {
		e := col.Elem(i)
		if e.IsNA() {
			continue
		}
		vals = append(vals, e.Float())
	}
	return vals
}

// AgeWorth age、finalWorth都不缺失的点，用于散点图
func AgeWorth(df dataframe.DataFrame) []Point {
	points := []Point{}
	if df.Nrow() == 0 {
		return points
	}
	ages := df.Col(file.ColAge)
	worths := df.Col(file.ColFinalWorth)
	for i := 0; i < df.Nrow(); i++ {
		a, w := ages.Elem(i), worths.Elem(i)
		if a.IsNA() || w.IsNA() {
			continue
		}
		points = append(points, Point{X: a.Float(), Y: w.Float()})
	}
	return points
}

func SelfMadeSplit(df dataframe.DataFrame) []Count {
	return ValueCounts(df, file.ColSelfMade)
}

func GenderSplit(df dataframe.DataFrame) []Count {
	return ValueCounts(df, file.ColGender)
}

// MeanWorthByGender 按gender分组的finalWorth均值，组按首次出现顺序
func MeanWorthByGender(df dataframe.DataFrame) []Mean {
	means := []Mean{}
	if df.Nrow() == 0 {
		return means
	}

	groups := make(map[string][]float64)
	var order []string
	genders := df.Col(file.ColGender)
	worths := df.Col(file.ColFinalWorth)
	for i := 0; i < df.Nrow(); i++ {
		g, w := genders.Elem(i), worths.Elem(i)
		if g.IsNA() || w.IsNA() {
			continue
		}
		key := g.String()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], w.Float())
	}

	for _, key := range order {
		vals := groups[key]
		means = append(means, Mean{Key: key, Value: stat.Mean(vals, nil), N: len(vals)})
	}
	return means
}

// IndustryGender 前n个行业里每个gender的数量
// 行业按TopIndustries的顺序，gender按首次出现顺序
func IndustryGender(df dataframe.DataFrame, n int) []PairCount {
	pairs := []PairCount{}
	top := TopIndustries(df, n)
	if len(top) == 0 {
		return pairs
	}

	rank := make(map[string]int, len(top))
	for i, c := range top {
		rank[c.Key] = i
	}

	counts := make([]map[string]int, len(top))
	for i := range counts {
		counts[i] = make(map[string]int)
	}
	var genders []string
	seen := make(map[string]bool)

	industries := df.Col(file.ColIndustries)
	gender := df.Col(file.ColGender)
	for i := 0; i < df.Nrow(); i++ {
		ind, g := industries.Elem(i), gender.Elem(i)
		if ind.IsNA() || g.IsNA() {
			continue
		}
		r, ok := rank[ind.String()]
		if !ok {
			continue
		}
		key := g.String()
		if !seen[key] {
			seen[key] = true
			genders = append(genders, key)
		}
		counts[r][key]++
	}

	for i, c := range top {
		for _, g := range genders {
			if cnt := counts[i][g]; cnt > 0 {
				pairs = append(pairs, PairCount{Industry: c.Key, Gender: g, Count: cnt})
			}
		}
	}
	return pairs
}

// Relabel 替换类别显示名，未映射的保持原样
func Relabel(counts []Count, label func(string) string) []Count {
	out := make([]Count, len(counts))
	for i, c := range counts {
		out[i] = Count{Key: label(c.Key), Count: c.Count}
	}
	return out
}

// SelfMadeLabel TRUE/FALSE -> 页面上的名称
func SelfMadeLabel(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return "Self-made"
	case "false", "0", "no":
		return "Herdeiro"
	}
	return v
}

// GenderLabel M/F -> 页面上的名称
func GenderLabel(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "M":
		return "Masculino"
	case "F":
		return "Feminino"
	}
	return v
}
