package utils

import (
	"BillionairesDashboard/src/processor"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// FormatInt 按页面语言加千位分隔符，例如 2640 -> "2.640"
func FormatInt(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatMillions finalWorth的单位是百万美元
func FormatMillions(v float64) string {
	if v >= 1000 {
		return printer.Sprintf("US$ %.1f bi", v/1000)
	}
	return printer.Sprintf("US$ %.0f mi", v)
}

// 导出的工作表名
const (
	SheetSummary        = "Resumo"
	SheetCountries      = "Países"
	SheetIndustries     = "Indústrias"
	SheetSelfMade       = "Self-made"
	SheetGender         = "Gênero"
	SheetWorthByGender  = "Patrimônio por gênero"
	SheetIndustryGender = "Indústria x gênero"
)

// ExportAggregates 把一次渲染周期的聚合表写成xlsx，每张表一个工作表
func ExportAggregates(d *processor.Dashboard, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("重命名工作表失败: %w", err)
	}

	summary := [][]interface{}{
		{"Filtro idade", fmt.Sprintf("%d - %d", d.Params.AgeMin, d.Params.AgeMax)},
		{"Bilionários", d.Rows},
		{"Total no dataset", d.Total},
		{"Patrimônio total (milhões US$)", d.Summary.TotalWorth},
		{"Patrimônio mediano (milhões US$)", d.Summary.MedianWorth},
		{"Self-made (%)", d.Summary.SelfMadeShare * 100},
	}
	if d.MeanAge != nil {
		summary = append(summary, []interface{}{"Idade média", *d.MeanAge})
	}
	if err := writeRows(f, SheetSummary, []interface{}{"Métrica", "Valor"}, summary); err != nil {
		return err
	}

	countSheets := []struct {
		name   string
		header string
		counts []processor.Count
	}{
		{SheetCountries, "País", d.TopCountries},
		{SheetIndustries, "Indústria", d.TopIndustries},
		{SheetSelfMade, "Tipo", processor.Relabel(d.SelfMade, processor.SelfMadeLabel)},
		{SheetGender, "Gênero", processor.Relabel(d.Gender, processor.GenderLabel)},
	}
	for _, s := range countSheets {
		rows := make([][]interface{}, len(s.counts))
		for i, c := range s.counts {
			rows[i] = []interface{}{c.Key, c.Count}
		}
		if err := writeRows(f, s.name, []interface{}{s.header, "Quantidade"}, rows); err != nil {
			return err
		}
	}

	rows := make([][]interface{}, len(d.WorthByGender))
	for i, m := range d.WorthByGender {
		rows[i] = []interface{}{processor.GenderLabel(m.Key), m.Value, m.N}
	}
	if err := writeRows(f, SheetWorthByGender, []interface{}{"Gênero", "Patrimônio médio", "N"}, rows); err != nil {
		return err
	}

	rows = make([][]interface{}, len(d.IndustryGender))
	for i, p := range d.IndustryGender {
		rows[i] = []interface{}{p.Industry, processor.GenderLabel(p.Gender), p.Count}
	}
	if err := writeRows(f, SheetIndustryGender, []interface{}{"Indústria", "Gênero", "Quantidade"}, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheetName string, header []interface{}, rows [][]interface{}) error {
	if idx, _ := f.GetSheetIndex(sheetName); idx < 0 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return fmt.Errorf("创建工作表%s失败: %w", sheetName, err)
		}
	}

	// 写入列名
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	// 写入数据
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// SaveToExcel 把清洗后的数据集保存为xlsx
func SaveToExcel(df dataframe.DataFrame, filePath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"

	// 写入列名
	colNames := df.Names()
	for i, name := range colNames {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, name)
	}

	// 写入数据，缺失值留空
	for colIdx, colName := range colNames {
		col := df.Col(colName)
		for rowIdx := 0; rowIdx < col.Len(); rowIdx++ {
			e := col.Elem(rowIdx)
			if e.IsNA() {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, e.Val())
		}
	}

	// 保存文件
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}
