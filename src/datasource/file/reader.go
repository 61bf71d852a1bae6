// reader.go
package file

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"gonum.org/v1/gonum/stat"
)

// ErrDataLoad 数据集无法加载(文件缺失、格式错误、缺少必要列)
var ErrDataLoad = errors.New("data load failure")

// 仪表盘用到的列
const (
	ColAge        = "age"
	ColCountry    = "country"
	ColIndustries = "industries"
	ColGender     = "gender"
	ColFinalWorth = "finalWorth"
	ColSelfMade   = "selfMade"
)

var requiredColumns = []string{ColAge, ColCountry, ColIndustries, ColGender, ColFinalWorth, ColSelfMade}

// 读取时视为缺失值的内容
var naValues = []string{"", "NA", "NaN", "nan", "<nil>"}

// Schema 清洗规则：保留前KeepColumns列，再删除DropColumns
type Schema struct {
	KeepColumns int
	DropColumns []string
}

func DefaultSchema() Schema {
	return Schema{
		KeepColumns: 14,
		DropColumns: []string{"city", "organization", "status"},
	}
}

// LoadDataset 读取csv或xlsx数据集并清洗
func LoadDataset(path string, schema Schema, sheetName string) (dataframe.DataFrame, error) {
	var (
		df  dataframe.DataFrame
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		df, err = ReadXLSX(path, sheetName)
	default:
		df, err = ReadCSV(path)
	}
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	return Clean(df, schema)
}

func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		// age先按字符串读入，Clean里逐个解析，非数字报错而不是当作缺失
		dataframe.WithTypes(map[string]series.Type{
			ColFinalWorth: series.Float,
		}),
		dataframe.NaNValues(naValues),
	}
}

// ReadCSV 读取csv为DataFrame，数值列为Float，其余为String
func ReadCSV(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: 打开csv失败: %w", ErrDataLoad, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, loadOptions()...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: 解析csv失败 %s: %w", ErrDataLoad, path, df.Err)
	}
	return df, nil
}

// ReadXLSX 读取xlsx工作表，第一行为标题行
func ReadXLSX(path, sheetName string) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: xlsx open file false: %w", ErrDataLoad, err)
	}

	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: excel文件中没有工作表", ErrDataLoad)
	}
	sheet, ok := xlFile.Sheet[sheetName]
	if !ok {
		sheet = xlFile.Sheets[0]
	}

	records, err := sheetRecords(sheet)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	df := dataframe.LoadRecords(records, loadOptions()...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: 转换为dataframe失败: %w", ErrDataLoad, df.Err)
	}
	return df, nil
}

// sheetRecords 把工作表转为二维字符串，短行补空
func sheetRecords(sheet *xlsx.Sheet) ([][]string, error) {
	if len(sheet.Rows) == 0 {
		return nil, fmt.Errorf("%w: 工作表 %s 为空", ErrDataLoad, sheet.Name)
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, cell.Value)
	}

	records := make([][]string, 0, len(sheet.Rows))
	records = append(records, headers)
	for _, row := range sheet.Rows[1:] {
		if row == nil {
			continue
		}
		rec := make([]string, len(headers))
		for i, cell := range row.Cells {
			if i < len(headers) { // 确保不超出列数范围
				rec[i] = cell.Value
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Clean 删除多余列并填补age、country的缺失值
func Clean(df dataframe.DataFrame, schema Schema) (dataframe.DataFrame, error) {
	// 1. 只保留前N列
	if schema.KeepColumns > 0 && df.Ncol() > schema.KeepColumns {
		idx := make([]int, schema.KeepColumns)
		for i := range idx {
			idx[i] = i
		}
		df = df.Select(idx)
	}

	// 2. 删除不需要的列
	var drop []string
	for _, name := range schema.DropColumns {
		if HasColumn(df, name) {
			drop = append(drop, name)
		}
	}
	if len(drop) > 0 {
		df = df.Drop(drop)
	}

	for _, name := range requiredColumns {
		if !HasColumn(df, name) {
			return dataframe.DataFrame{}, fmt.Errorf("%w: 缺少列 %s", ErrDataLoad, name)
		}
	}

	// 3. age 用均值填补
	ages, err := parseAges(df.Col(ColAge))
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	df = df.Mutate(series.New(ages, series.Float, ColAge))
	mean, ok := MeanAge(df)
	if !ok {
		return dataframe.DataFrame{}, fmt.Errorf("%w: age列没有有效值", ErrDataLoad)
	}
	for i, a := range ages {
		if math.IsNaN(a) {
			ages[i] = mean
		}
	}
	df = df.Mutate(series.New(ages, series.Float, ColAge))

	// 4. country 用众数填补
	mode, ok := ModeCountry(df)
	if !ok {
		return dataframe.DataFrame{}, fmt.Errorf("%w: country列没有有效值", ErrDataLoad)
	}
	col := df.Col(ColCountry)
	countries := col.Records()
	for i := range countries {
		if col.Elem(i).IsNA() {
			countries[i] = mode
		}
	}
	df = df.Mutate(series.New(countries, series.String, ColCountry))

	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %w", ErrDataLoad, df.Err)
	}
	return df, nil
}

// parseAges 缺失值为NaN，其余必须是数字
func parseAges(col series.Series) ([]float64, error) {
	ages := make([]float64, col.Len())
	for i := range ages {
		e := col.Elem(i)
		if e.IsNA() {
			ages[i] = math.NaN()
			continue
		}
		if col.Type() != series.String {
			ages[i] = e.Float()
			continue
		}
		raw := strings.TrimSpace(e.String())
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: age列第%d行不是数字: %q", ErrDataLoad, i+2, raw)
		}
		ages[i] = v
	}
	return ages, nil
}

// MeanAge 非缺失age的算术平均
func MeanAge(df dataframe.DataFrame) (float64, bool) {
	col := df.Col(ColAge)
	vals := make([]float64, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		e := col.Elem(i)
		if e.IsNA() {
			continue
		}
		vals = append(vals, e.Float())
	}
	if len(vals) == 0 {
		return 0, false
	}
	return stat.Mean(vals, nil), true
}

// ModeCountry 出现次数最多的country，并列时取最先出现的
func ModeCountry(df dataframe.DataFrame) (string, bool) {
	col := df.Col(ColCountry)
	counts := make(map[string]int)
	var order []string
	for i := 0; i < col.Len(); i++ {
		e := col.Elem(i)
		if e.IsNA() {
			continue
		}
		v := e.String()
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best, bestCount > 0
}

// AgeBounds 数据集中观测到的最小、最大年龄
func AgeBounds(df dataframe.DataFrame) (int, int, bool) {
	if df.Nrow() == 0 || !HasColumn(df, ColAge) {
		return 0, 0, false
	}
	ages := df.Col(ColAge).Float()
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, a := range ages {
		if math.IsNaN(a) {
			continue
		}
		lo = math.Min(lo, a)
		hi = math.Max(hi, a)
	}
	if math.IsInf(lo, 1) {
		return 0, 0, false
	}
	return int(math.Floor(lo)), int(math.Ceil(hi)), true
}

// HasColumn 判断DataFrame是否有某列
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}
