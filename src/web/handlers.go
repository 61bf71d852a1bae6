package web

import (
	"BillionairesDashboard/src/charts"
	"BillionairesDashboard/src/datasource/file"
	"BillionairesDashboard/src/processor"
	"BillionairesDashboard/src/utils"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// 查询参数
const (
	paramCountries  = "countries"
	paramIndustries = "industries"
	paramAgeMin     = "age_min"
	paramAgeMax     = "age_max"
	paramTab        = "tab" // 当前标签页，只影响页面
)

const dataLoadMessage = "Não foi possível carregar o dataset."

type errorResponse struct {
	Error string `json:"error"`
}

// parseParams 缺失的参数取默认值，年龄夹到数据集的范围内
// top-N是否越界由Pipeline.Run校验
func parseParams(r *http.Request, minAge, maxAge int) (processor.FilterParams, error) {
	p := processor.DefaultParams(minAge, maxAge)
	q := r.URL.Query()

	fields := []struct {
		name string
		dst  *int
	}{
		{paramCountries, &p.TopNCountries},
		{paramIndustries, &p.TopNIndustries},
		{paramAgeMin, &p.AgeMin},
		{paramAgeMax, &p.AgeMax},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(q.Get(f.name))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("%w: %s=%q", processor.ErrInvalidParams, f.name, raw)
		}
		*f.dst = v
	}

	p.AgeMin = clamp(p.AgeMin, minAge, maxAge)
	p.AgeMax = clamp(p.AgeMax, minAge, maxAge)
	return p, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// runCycle 读取缓存的数据集，解析参数，执行一次完整的重新计算
func (s *Server) runCycle(r *http.Request) (*processor.Dashboard, error) {
	info, err := s.data.Get(s.cfg.DataFile)
	if err != nil {
		s.metrics.RenderCycle("load_failed", 0)
		return nil, err
	}
	df := info.DataFrame()

	minAge, maxAge, _ := file.AgeBounds(df)
	params, err := parseParams(r, minAge, maxAge)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Run(r.Context(), df, params)
}

func statusFor(err error) int {
	if errors.Is(err, processor.ErrInvalidParams) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// messageFor 数据加载失败时只给出一条消息，不暴露内部错误
func messageFor(err error) string {
	if errors.Is(err, processor.ErrInvalidParams) {
		return err.Error()
	}
	return dataLoadMessage
}

func (s *Server) logCycleError(r *http.Request, err error) {
	if s.logger == nil {
		return
	}
	if errors.Is(err, file.ErrDataLoad) {
		s.logger.Error("加载数据集失败", "path", s.cfg.DataFile, "error", err)
		return
	}
	s.logger.Warning("渲染周期失败", "query", r.URL.RawQuery, "error", err)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	s.logCycleError(r, err)
	render.Status(r, statusFor(err))
	render.JSON(w, r, errorResponse{Error: messageFor(err)})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.runCycle(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, d)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(chi.URLParam(r, "id"), ".svg")
	if !utils.Contains(charts.IDs, id) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: fmt.Sprintf("gráfico desconhecido: %s", id)})
		return
	}

	d, err := s.runCycle(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	c, err := charts.Build(d, s.charts, id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := c.Render(w); err != nil {
		s.logger.Error("渲染图表失败", "chart", id, "error", err)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	d, err := s.runCycle(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="billionaires.xlsx"`)
	if err := utils.ExportAggregates(d, w); err != nil {
		s.logger.Error("导出xlsx失败", "error", err)
	}
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	n := s.data.Clear()
	s.logger.Info("缓存已清空", "entries", n)
	render.JSON(w, r, map[string]int{"cleared": n})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}
