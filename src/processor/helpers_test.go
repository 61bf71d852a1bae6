package processor

import (
	"BillionairesDashboard/src/datasource/file"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/require"
)

// frame 从字符串记录构造与LoadDataset相同类型的DataFrame
// 列: id, country, age, industries, gender, finalWorth, selfMade
func frame(t *testing.T, rows ...[]string) dataframe.DataFrame {
	t.Helper()
	records := [][]string{{"id", file.ColCountry, file.ColAge, file.ColIndustries, file.ColGender, file.ColFinalWorth, file.ColSelfMade}}
	records = append(records, rows...)
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(map[string]series.Type{
			file.ColAge:        series.Float,
			file.ColFinalWorth: series.Float,
		}),
		dataframe.NaNValues([]string{"", "NaN"}),
	)
	require.NoError(t, df.Err)
	return df
}

// exampleFrame 三条记录的示例数据
func exampleFrame(t *testing.T) dataframe.DataFrame {
	return frame(t,
		[]string{"1", "US", "30", "Technology", "M", "1000", "TRUE"},
		[]string{"2", "US", "70", "Finance", "F", "3000", "FALSE"},
		[]string{"3", "FR", "50", "Technology", "M", "2000", "TRUE"},
	)
}
