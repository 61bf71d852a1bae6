package web

import (
	"BillionairesDashboard/src/charts"
	"BillionairesDashboard/src/processor"
	"BillionairesDashboard/src/utils"
	"bytes"
	"fmt"
	"html/template"
	"net/http"
)

const pageTitle = "Análise do Dataset Billionaires Statistics (2023)"

var funcMap = template.FuncMap{
	"formatInt":      utils.FormatInt,
	"formatMillions": utils.FormatMillions,
	"percent": func(v float64) string {
		return fmt.Sprintf("%.1f%%", v*100)
	},
}

// tab 页面上的一个标签页
type tab struct {
	ID     string
	Name   string
	Charts []chartView
}

type chartView struct {
	ID    string
	Title string
	Empty bool
	URI   template.URL
}

var tabLayout = []struct {
	id, name string
	charts   []string
}{
	{"paises", "Países", []string{charts.IDCountries}},
	{"industrias", "Indústrias", []string{charts.IDIndustries, charts.IDIndustryGender}},
	{"idade", "Idade", []string{charts.IDAge, charts.IDAgeWorth}},
	{"selfmade", "Self-made", []string{charts.IDSelfMade}},
	{"genero", "Gênero", []string{charts.IDGender, charts.IDWorthGender}},
	{"patrimonio", "Patrimônio", []string{charts.IDWorth}},
}

type pageData struct {
	Title     string
	Error     string
	Dashboard *processor.Dashboard
	Params    processor.FilterParams
	Limits    struct{ Countries, Industries int }
	Tabs      []tab
	ActiveTab string
}

// activeTab 未知或缺失时回到第一个标签页
func activeTab(r *http.Request) string {
	id := r.URL.Query().Get(paramTab)
	for _, t := range tabLayout {
		if t.id == id {
			return id
		}
	}
	return tabLayout[0].id
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: pageTitle, ActiveTab: activeTab(r)}
	data.Limits.Countries = processor.MaxTopNCountries
	data.Limits.Industries = processor.MaxTopNIndustries

	d, err := s.runCycle(r)
	if err != nil {
		s.logCycleError(r, err)
		data.Error = messageFor(err)
		s.renderPage(w, statusFor(err), data)
		return
	}
	data.Dashboard = d
	data.Params = d.Params

	all, err := charts.BuildAll(d, s.charts)
	if err != nil {
		s.logger.Error("生成图表失败", "error", err)
		data.Error = err.Error()
		s.renderPage(w, http.StatusInternalServerError, data)
		return
	}

	for _, t := range tabLayout {
		tb := tab{ID: t.id, Name: t.name}
		for _, id := range t.charts {
			c := all[id]
			uri, err := charts.DataURI(c)
			if err != nil {
				s.logger.Error("渲染图表失败", "chart", id, "error", err)
				continue
			}
			tb.Charts = append(tb.Charts, chartView{
				ID:    id,
				Title: c.Title(),
				Empty: c.Empty(),
				URI:   template.URL(uri),
			})
		}
		data.Tabs = append(data.Tabs, tb)
	}

	s.renderPage(w, http.StatusOK, data)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logger.Error("渲染页面失败", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
