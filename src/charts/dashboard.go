package charts

import (
	"BillionairesDashboard/src/config"
	"BillionairesDashboard/src/processor"
	"errors"
	"fmt"
)

// 图表id，与ChartConfig的key一致
const (
	IDCountries      = "countries"
	IDIndustries     = "industries"
	IDAge            = "age"
	IDSelfMade       = "selfmade"
	IDGender         = "gender"
	IDWorthGender    = "worth_gender"
	IDIndustryGender = "industry_gender"
	IDWorth          = "worth"
	IDAgeWorth       = "age_worth"
)

// IDs 页面上的显示顺序
var IDs = []string{
	IDCountries, IDIndustries, IDIndustryGender, IDAge, IDAgeWorth,
	IDSelfMade, IDGender, IDWorthGender, IDWorth,
}

// ErrUnknownChart 没有这个图表id
var ErrUnknownChart = errors.New("unknown chart")

func optionsFor(cc *config.ChartConfig, id string) Options {
	opts := Options{}
	if cc == nil {
		return opts
	}
	opts.Title = cc.GetTitle(id)
	opts.Color = cc.GetColor(id)
	opts.XLabel, opts.YLabel = cc.GetLabels(id)
	return opts
}

// Build 根据一次渲染周期的结果生成一个图表
func Build(d *processor.Dashboard, cc *config.ChartConfig, id string) (Chart, error) {
	opts := optionsFor(cc, id)

	switch id {
	case IDCountries:
		return CountBar(id, d.TopCountries, opts), nil
	case IDIndustries:
		return CountBar(id, d.TopIndustries, opts), nil
	case IDIndustryGender:
		return StackedBar(id, d.IndustryGender, opts), nil
	case IDAge:
		return AgeDistribution(id, d.Ages, d.AgeDensity, d.MeanAge, opts)
	case IDAgeWorth:
		return Scatter(id, d.AgeWorth, opts)
	case IDSelfMade:
		return Pie(id, processor.Relabel(d.SelfMade, processor.SelfMadeLabel), opts), nil
	case IDGender:
		return Pie(id, processor.Relabel(d.Gender, processor.GenderLabel), opts), nil
	case IDWorthGender:
		means := make([]processor.Mean, len(d.WorthByGender))
		for i, m := range d.WorthByGender {
			means[i] = m
			means[i].Key = processor.GenderLabel(m.Key)
		}
		return MeanBar(id, means, opts), nil
	case IDWorth:
		return Histogram(id, d.Worths, DefaultBins, opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownChart, id)
}

// BuildAll 按IDs顺序生成全部图表
func BuildAll(d *processor.Dashboard, cc *config.ChartConfig) (map[string]Chart, error) {
	out := make(map[string]Chart, len(IDs))
	for _, id := range IDs {
		c, err := Build(d, cc, id)
		if err != nil {
			return nil, err
		}
		out[id] = c
	}
	return out, nil
}
