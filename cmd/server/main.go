package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/sokosnap/internal/app"
	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiDim       = "\033[2m"
	ansiGreen     = "\033[32m"
	ansiBlue      = "\033[34m"
	ansiCyan      = "\033[36m"
	ansiBrightMag = "\033[95m"
)

func main() {
	var (
		mode        string
		configPath  string
		migrateOnly bool
	)
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.StringVar(&configPath, "config", "", "配置文件路径，默认查找 ./config.yml")
	flag.BoolVar(&migrateOnly, "migrate-only", false, "仅执行数据库迁移后退出")
	flag.Parse()

	printStartupBanner()

	cfg := config.LoadFrom(configPath)
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if isWeakSecret(cfg.JWT.SecretKey) {
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
		stdLog.Printf("警告: JWT secret 过弱或仍为默认值，建议在生产环境中更换")
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}
	if migrateOnly {
		logger.Infow("server_migrate_only_done", "driver", cfg.Database.Driver)
		logger.Sync()
		return
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	})
	logger.Sync()
	if err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiBrightMag + "╔══════════════════════════════════════════════════════════════╗" + ansiReset)
	fmt.Println(ansiBrightMag + "║                  🛒 SokoSnap API 启动中                      ║" + ansiReset)
	fmt.Println(ansiBrightMag + "╚══════════════════════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiCyan + "███████╗ ██████╗ ██╗  ██╗ ██████╗ ███████╗███╗   ██╗ █████╗ ██████╗ " + ansiReset)
	fmt.Println(ansiCyan + "██╔════╝██╔═══██╗██║ ██╔╝██╔═══██╗██╔════╝████╗  ██║██╔══██╗██╔══██╗" + ansiReset)
	fmt.Println(ansiCyan + "███████╗██║   ██║█████╔╝ ██║   ██║███████╗██╔██╗ ██║███████║██████╔╝" + ansiReset)
	fmt.Println(ansiCyan + "╚════██║██║   ██║██╔═██╗ ██║   ██║╚════██║██║╚██╗██║██╔══██║██╔═══╝ " + ansiReset)
	fmt.Println(ansiCyan + "███████║╚██████╔╝██║  ██╗╚██████╔╝███████║██║ ╚████║██║  ██║██║     " + ansiReset)
	fmt.Println(ansiCyan + "╚══════╝ ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═╝  ╚═══╝╚═╝  ╚═╝╚═╝     " + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "Social commerce storefront · M-Pesa escrow checkout" + ansiReset)
	fmt.Println(ansiBlue + "• Modes:   -mode=all | api | worker" + ansiReset)
	fmt.Println(ansiBlue + "• Config:  -config=path/to/config.yml" + ansiReset)
	fmt.Println(ansiBlue + "• Health:  GET /health" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
