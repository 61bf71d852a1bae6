package processor

import (
	"BillionairesDashboard/src/datasource/file"
	"BillionairesDashboard/src/storage"
	"BillionairesDashboard/src/telemetry"
	"context"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Dashboard 一次渲染周期的全部聚合结果，每次重新计算
type Dashboard struct {
	CycleID string       `json:"cycle_id"`
	Params  FilterParams `json:"params"`
	AgeMin  int          `json:"age_min"` // 数据集观测到的年龄范围
	AgeMax  int          `json:"age_max"`
	Total   int          `json:"total"`
	Rows    int          `json:"rows"` // 过滤后的行数

	Summary        Summary     `json:"summary"`
	TopCountries   []Count     `json:"top_countries"`
	TopIndustries  []Count     `json:"top_industries"`
	Ages           []float64   `json:"ages"`
	AgeDensity     []Point     `json:"age_density"`
	MeanAge        *float64    `json:"mean_age"` // 没有数据时为nil
	Worths         []float64   `json:"worths"`
	AgeWorth       []Point     `json:"age_worth"`
	SelfMade       []Count     `json:"self_made"`
	Gender         []Count     `json:"gender"`
	WorthByGender  []Mean      `json:"worth_by_gender"`
	IndustryGender []PairCount `json:"industry_gender"`
}

// Empty 过滤结果为空
func (d *Dashboard) Empty() bool {
	return d.Rows == 0
}

// Pipeline 过滤 -> 聚合，不保存任何跨周期状态
type Pipeline struct {
	logger  *storage.Logger
	metrics *telemetry.Metrics
}

func NewPipeline(logger *storage.Logger, metrics *telemetry.Metrics) *Pipeline {
	return &Pipeline{logger: logger, metrics: metrics}
}

// Run 对缓存的数据集执行一次完整的重新计算
func (p *Pipeline) Run(ctx context.Context, df dataframe.DataFrame, params FilterParams) (*Dashboard, error) {
	cycleID := uuid.NewString()
	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("cycle", cycleID),
		attribute.Int("top_n_countries", params.TopNCountries),
		attribute.Int("top_n_industries", params.TopNIndustries),
		attribute.Int("age_min", params.AgeMin),
		attribute.Int("age_max", params.AgeMax),
	)

	if err := params.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid params")
		p.metrics.RenderCycle("invalid", 0)
		return nil, err
	}

	t1 := time.Now()
	d := &Dashboard{
		CycleID: cycleID,
		Params:  params,
		Total:   df.Nrow(),
	}
	d.AgeMin, d.AgeMax, _ = file.AgeBounds(df)

	_, fspan := telemetry.Tracer().Start(ctx, "pipeline.filter")
	filtered := FilterByAge(df, params.AgeMin, params.AgeMax)
	fspan.SetAttributes(attribute.Int("rows", filtered.Nrow()))
	fspan.End()
	if filtered.Err != nil {
		span.RecordError(filtered.Err)
		span.SetStatus(codes.Error, "filter failed")
		return nil, filtered.Err
	}
	d.Rows = filtered.Nrow()

	_, aspan := telemetry.Tracer().Start(ctx, "pipeline.aggregate")
	p.aggregate(d, filtered)
	aspan.End()

	p.metrics.RenderCycle("ok", d.Rows)
	if p.logger != nil {
		p.logger.With("cycle", cycleID).Debug("渲染周期完成",
			"rows", d.Rows,
			"total", d.Total,
			"elapsed", time.Since(t1).String(),
		)
	}
	return d, nil
}

func (p *Pipeline) aggregate(d *Dashboard, filtered dataframe.DataFrame) {
	params := d.Params

	d.Summary = Summarize(filtered)
	d.TopCountries = TopCountries(filtered, params.TopNCountries)
	d.TopIndustries = TopIndustries(filtered, params.TopNIndustries)
	d.Ages = Ages(filtered)
	d.AgeDensity = KDE(d.Ages, KDEPoints)
	if d.AgeDensity == nil {
		d.AgeDensity = []Point{}
	}
	if mean, ok := MeanOf(d.Ages); ok {
		d.MeanAge = &mean
	}
	d.Worths = Worths(filtered)
	d.AgeWorth = AgeWorth(filtered)
	d.SelfMade = SelfMadeSplit(filtered)
	d.Gender = GenderSplit(filtered)
	d.WorthByGender = MeanWorthByGender(filtered)
	d.IndustryGender = IndustryGender(filtered, params.TopNIndustries)
}
