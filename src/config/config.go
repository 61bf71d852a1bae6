package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix 环境变量前缀，例如 BILLIONAIRES_DATA_FILE
const EnvPrefix = "BILLIONAIRES"

// Config 结构体定义了应用程序的配置结构
type Config struct {
	Server struct {
		Addr            string   `json:"addr" envconfig:"ADDR" validate:"required"` // 监听地址
		ReadTimeout     Duration `json:"read_timeout" envconfig:"READ_TIMEOUT"`
		WriteTimeout    Duration `json:"write_timeout" envconfig:"WRITE_TIMEOUT"`
		ShutdownTimeout Duration `json:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"` // 优雅退出等待时间
		PidFile         string   `json:"pid_file" envconfig:"PID_FILE"`                 // pid文件，供reload工具发送SIGHUP
	} `json:"server"`

	DataFile    string   `json:"data_file" envconfig:"DATA_FILE" validate:"required"`    // 数据集路径(csv或xlsx)
	SheetName   string   `json:"sheet_name" envconfig:"SHEET_NAME"`                      // xlsx数据集的工作表
	KeepColumns int      `json:"keep_columns" envconfig:"KEEP_COLUMNS" validate:"min=1"` // 保留前N列
	DropColumns []string `json:"drop_columns" envconfig:"DROP_COLUMNS"`                  // 额外删除的列
	WatchData   bool     `json:"watch_data" envconfig:"WATCH_DATA"`                      // 数据文件变化时清空缓存

	LogName       string   `json:"log_name" envconfig:"LOG_NAME" validate:"required"`
	LogMaxSize    string   `json:"log_max_size" envconfig:"LOG_MAX_SIZE" validate:"required"`
	RotateCheck   Duration `json:"rotate_check" envconfig:"ROTATE_CHECK"` // 日志轮转检查间隔
	TraceStdout   bool     `json:"trace_stdout" envconfig:"TRACE_STDOUT"`
	EnableMetrics bool     `json:"enable_metrics" envconfig:"ENABLE_METRICS"`
}

// ChartConfig 图表的标题和颜色，按图表id索引
type ChartConfig struct {
	Titles map[string]string `json:"titles"`
	Colors map[string]string `json:"colors"`
	XLabel map[string]string `json:"x_labels"`
	YLabel map[string]string `json:"y_labels"`
}

var (
	once                sync.Once
	instance            *Config
	chartConfigInstance *ChartConfig
	loadErr             error
	mu                  sync.RWMutex

	validate = validator.New()
)

// LoadConfig 只加载一次配置，之后直接返回缓存的结果
func LoadConfig(jsonFolder, jsonFile, chartJsonFile string) (*Config, *ChartConfig, error) {
	once.Do(func() {
		instance, chartConfigInstance, loadErr = loadConfigs(jsonFolder, jsonFile, chartJsonFile)
	})
	return instance, chartConfigInstance, loadErr
}

func loadConfigs(jsonFolder, jsonFile, chartJsonFile string) (*Config, *ChartConfig, error) {
	// .env 不存在时忽略
	if err := godotenv.Load(filepath.Join(jsonFolder, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("读取.env失败: %w", err)
	}

	configFile := filepath.Join(jsonFolder, jsonFile)
	chartConfigFile := filepath.Join(jsonFolder, chartJsonFile)

	configData, err := readOptionalFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	chartConfigData, err := readOptionalFile(chartConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取图表配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	ccfgChan := make(chan *ChartConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseChartConfig(chartConfigData, ccfgChan, errChan)

	cfg, ccfg, err := waitForResults(cfgChan, ccfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("配置校验失败: %w", err)
	}

	return cfg, ccfg, nil
}

// readOptionalFile 文件不存在时返回nil，使用默认配置
func readOptionalFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	cfg := Default()
	if len(data) > 0 {
		if err := json.Unmarshal(data, cfg); err != nil {
			errChan <- fmt.Errorf("解析Config失败: %w", err)
			return
		}
	}
	resultChan <- cfg
}

func parseChartConfig(data []byte, resultChan chan<- *ChartConfig, errChan chan<- error) {
	ccfg := DefaultChartConfig()
	if len(data) > 0 {
		var override ChartConfig
		if err := json.Unmarshal(data, &override); err != nil {
			errChan <- fmt.Errorf("解析ChartConfig失败: %w", err)
			return
		}
		ccfg.merge(&override)
	}
	resultChan <- ccfg
}

func waitForResults(
	cfgChan <-chan *Config,
	ccfgChan <-chan *ChartConfig,
	errChan <-chan error,
) (*Config, *ChartConfig, error) {
	var (
		cfg    *Config
		ccfg   *ChartConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-ccfgChan:
			ccfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || ccfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, ccfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "配置加载遇到多个错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// Default 返回带默认值的配置
func Default() *Config {
	cfg := &Config{
		DataFile:      "data/Billionaires Statistics Dataset.csv",
		SheetName:     "Sheet1",
		KeepColumns:   14,
		DropColumns:   []string{"city", "organization", "status"},
		WatchData:     true,
		LogName:       "app.log",
		LogMaxSize:    "10 * 1024 * 1024",
		RotateCheck:   Duration(time.Minute),
		EnableMetrics: true,
	}
	cfg.Server.Addr = ":8080"
	cfg.Server.ReadTimeout = Duration(15 * time.Second)
	cfg.Server.WriteTimeout = Duration(30 * time.Second)
	cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	cfg.Server.PidFile = "dashboard.pid"
	return cfg
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.Decode(s)
}

// MarshalJSON 实现json.Marshaler接口
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Decode 实现envconfig.Decoder接口
func (d *Duration) Decode(value string) error {
	dur, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Std 转回time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultChartConfig 默认图表标题(葡语，与页面一致)和颜色
func DefaultChartConfig() *ChartConfig {
	return &ChartConfig{
		Titles: map[string]string{
			"countries":       "Top países com mais bilionários",
			"industries":      "Top indústrias com mais bilionários",
			"age":             "Distribuição de idade",
			"selfmade":        "Self-made vs herdeiros",
			"gender":          "Distribuição por gênero",
			"worth_gender":    "Patrimônio médio por gênero",
			"industry_gender": "Gênero por indústria",
			"worth":           "Distribuição do patrimônio",
			"age_worth":       "Idade vs patrimônio",
		},
		Colors: map[string]string{
			"countries":    "#4F46E5",
			"industries":   "#10B981",
			"age":          "#F59E0B",
			"worth_gender": "#EF4444",
			"worth":        "#8B5CF6",
			"age_worth":    "#06B6D4",
		},
		XLabel: map[string]string{
			"countries":    "País",
			"industries":   "Indústria",
			"age":          "Idade",
			"worth":        "Patrimônio (milhões US$)",
			"age_worth":    "Idade",
			"worth_gender": "Gênero",
		},
		YLabel: map[string]string{
			"countries":    "Quantidade",
			"industries":   "Quantidade",
			"age":          "Densidade",
			"worth":        "Quantidade",
			"age_worth":    "Patrimônio (milhões US$)",
			"worth_gender": "Patrimônio médio (milhões US$)",
		},
	}
}

func (cc *ChartConfig) merge(o *ChartConfig) {
	for k, v := range o.Titles {
		cc.Titles[k] = v
	}
	for k, v := range o.Colors {
		cc.Colors[k] = v
	}
	for k, v := range o.XLabel {
		cc.XLabel[k] = v
	}
	for k, v := range o.YLabel {
		cc.YLabel[k] = v
	}
}

func (cc *ChartConfig) GetTitle(id string) string {
	mu.RLock()
	defer mu.RUnlock()
	return cc.Titles[id]
}

func (cc *ChartConfig) GetColor(id string) string {
	mu.RLock()
	defer mu.RUnlock()
	return cc.Colors[id]
}

// GetLabels 返回图表的x、y轴标签
func (cc *ChartConfig) GetLabels(id string) (string, string) {
	mu.RLock()
	defer mu.RUnlock()
	return cc.XLabel[id], cc.YLabel[id]
}
