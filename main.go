package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"

	"github.com/decker502/freehim-editor/pkg/app"
	"github.com/decker502/freehim-editor/pkg/config"
	"github.com/decker502/freehim-editor/pkg/editor"
	"github.com/decker502/freehim-editor/pkg/grid"
	"github.com/decker502/freehim-editor/pkg/logger"
	"github.com/decker502/freehim-editor/pkg/scenes"
	"github.com/decker502/freehim-editor/pkg/settings"
)

func main() {
	levelPath := flag.String("level", "", "关卡文件路径（启动时加载）")
	configPath := flag.String("config", "", "编辑器配置文件路径（默认使用内置配置）")
	verbose := flag.Bool("verbose", false, "输出调试日志")
	flag.Parse()

	if err := run(*levelPath, *configPath, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "freehim-editor:", err)
		os.Exit(1)
	}
}

func run(levelPath, configPath string, verbose bool) error {
	cfg, err := config.LoadEditorConfig(configPath, defaultConfig)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Verbose = true
	}

	log, err := logger.New(cfg.Verbose, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	// gdata 不可用时降级为仅内存设置
	gdataManager, err := gdata.Open(gdata.Config{AppName: cfg.AppName})
	if err != nil {
		log.Warn("persistent settings unavailable", zap.Error(err))
		gdataManager = nil
	}
	settingsManager := settings.NewSettingsManager(gdataManager, log)

	session := editor.NewSession(editor.Options{SaveDir: cfg.SaveDir, Logger: log})

	scene := scenes.NewEditorScene(scenes.EditorSceneConfig{
		Session:  session,
		Settings: settingsManager,
		Layout: grid.Layout{
			OriginX:  float64(cfg.OriginX),
			OriginY:  float64(cfg.OriginY),
			CellSize: float64(cfg.CellSize),
			Columns:  cfg.Grid.Columns,
			Rows:     cfg.Grid.Rows,
		},
		ExportDir: cfg.ExportDir,
		Logger:    log,
	})
	// 加载失败时从空关卡开始，错误显示在状态栏
	if levelPath != "" {
		if err := scene.OpenLevel(levelPath); err != nil {
			log.Warn("failed to open level", zap.String("path", levelPath), zap.Error(err))
		}
	}

	a := app.NewApp(app.Config{
		Title:        "Freehim Level Editor",
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		Logger:       log,
	}, scene)
	a.ConfigureWindow()

	log.Info("editor started",
		zap.String("save_dir", cfg.SaveDir),
		zap.String("export_dir", cfg.ExportDir),
		zap.String("level", levelPath),
	)
	return ebiten.RunGame(a)
}
