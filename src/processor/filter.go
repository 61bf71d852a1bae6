package processor

import (
	"BillionairesDashboard/src/datasource/file"
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidParams 滑块参数越界
var ErrInvalidParams = errors.New("invalid filter parameters")

// 滑块范围
const (
	MaxTopNCountries  = 30
	MaxTopNIndustries = 18
	DefaultTopN       = 10
)

var validate = validator.New()

// FilterParams 一次渲染的用户输入，不跨周期保存
type FilterParams struct {
	TopNCountries  int `json:"top_n_countries" validate:"min=1,max=30"`
	TopNIndustries int `json:"top_n_industries" validate:"min=1,max=18"`
	AgeMin         int `json:"age_min" validate:"ltefield=AgeMax"`
	AgeMax         int `json:"age_max"`
}

// DefaultParams 默认top10，年龄取数据集全部范围
func DefaultParams(minAge, maxAge int) FilterParams {
	return FilterParams{
		TopNCountries:  DefaultTopN,
		TopNIndustries: DefaultTopN,
		AgeMin:         minAge,
		AgeMax:         maxAge,
	}
}

func (p FilterParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}

// FilterByAge 保留 lo <= age <= hi 的行，顺序不变，可能为空
func FilterByAge(df dataframe.DataFrame, lo, hi int) dataframe.DataFrame {
	return df.FilterAggregation(
		dataframe.And,
		dataframe.F{Colname: file.ColAge, Comparator: series.GreaterEq, Comparando: float64(lo)},
		dataframe.F{Colname: file.ColAge, Comparator: series.LessEq, Comparando: float64(hi)},
	)
}
