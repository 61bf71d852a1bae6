package main

import (
	"BillionairesDashboard/src/config"
	"BillionairesDashboard/src/datasource/file"
	"BillionairesDashboard/src/processor"
	"BillionairesDashboard/src/storage"
	"BillionairesDashboard/src/telemetry"
	"BillionairesDashboard/src/utils"
	"BillionairesDashboard/src/web"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"golang.org/x/sync/errgroup"
)

func main() {
	jsonFolder := flag.String("config", "./config", "配置文件目录")
	dump := flag.String("dump", "", "把清洗后的数据集保存为xlsx后退出")
	flag.Parse()

	cfg, ccfg, err := config.LoadConfig(*jsonFolder, "config.json", "chartconfig.json")
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Close()

	if err := run(cfg, ccfg, logger, *dump); err != nil {
		logger.Fatal("服务异常退出", "error", err)
		logger.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, ccfg *config.ChartConfig, logger *storage.Logger, dump string) error {
	shutdownTracing, err := telemetry.SetupTracing(cfg.TraceStdout)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	metrics := telemetry.NewMetrics()
	schema := file.Schema{KeepColumns: cfg.KeepColumns, DropColumns: cfg.DropColumns}
	cache := file.NewCache(file.SchemaLoader(schema, cfg.SheetName), metrics)

	// 启动时先加载一次，失败时页面会显示错误信息
	t1 := time.Now()
	info, err := cache.Get(cfg.DataFile)
	if err != nil {
		logger.Error("加载数据集失败", "path", cfg.DataFile, "error", err)
		if dump != "" {
			return err
		}
	} else {
		logger.Info("数据集加载完成", "path", info.FullPath, "rows", info.DataFrame().Nrow(), "elapsed", time.Since(t1).String())
	}

	if dump != "" {
		if err := utils.SaveToExcel(info.DataFrame(), dump); err != nil {
			return err
		}
		logger.Info("处理后的数据已保存", "path", dump)
		return nil
	}

	pipeline := processor.NewPipeline(logger, metrics)
	server, err := web.NewServer(cfg, ccfg, cache, pipeline, logger, metrics)
	if err != nil {
		return err
	}

	if err := writePidFile(cfg.Server.PidFile); err != nil {
		logger.Warning("写入pid文件失败", "path", cfg.Server.PidFile, "error", err)
	} else {
		defer os.Remove(cfg.Server.PidFile)
	}

	// 日志轮转检查
	c := cron.New()
	cronSpec := fmt.Sprintf("@every %s", cfg.RotateCheck.Std())
	err = c.AddFunc(cronSpec, func() {
		if err := logger.CheckRotate(cfg); err != nil {
			logger.Error("日志轮转失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("创建定时任务失败: %w", err)
	}
	c.Start()
	defer c.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})

	if cfg.WatchData {
		monitor, err := file.NewFileMonitor(cfg.DataFile)
		if err != nil {
			logger.Warning("无法监控数据文件", "path", cfg.DataFile, "error", err)
		} else {
			g.Go(func() error {
				return monitor.Run(gctx, func(path string) {
					if cache.Invalidate(path) {
						logger.Info("数据文件已变化，缓存已失效", "path", path)
					}
				}, func(err error) {
					logger.Warning("数据文件监控出错", "path", cfg.DataFile, "error", err)
				})
			})
		}
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	g.Go(func() error {
		reloadLoop(gctx, hup, cache, logger)
		return nil
	})

	logger.Info("仪表盘已启动，按Ctrl+C退出", "addr", cfg.Server.Addr, "pid", os.Getpid())
	return g.Wait()
}

// reloadLoop 收到SIGHUP时清空缓存并重新打开日志文件
func reloadLoop(ctx context.Context, sigChan <-chan os.Signal, cache *file.Cache, logger *storage.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			n := cache.Clear()
			if err := logger.Reopen(""); err != nil {
				logger.Error("重新打开日志文件失败", "error", err)
			}
			logger.Info("Received signal: "+sig.String()+", reloaded", "cleared", n)
		}
	}
}

func writePidFile(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}
