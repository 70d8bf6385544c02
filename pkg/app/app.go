// Package app 提供编辑器应用的 ebiten.Game 包装
//
// main 包负责加载配置、创建会话和场景，然后交给 App 运行。
package app

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
)

// Config 应用启动配置
type Config struct {
	Title        string
	WindowWidth  int
	WindowHeight int
	Logger       *zap.Logger // 可为 nil
}

// App 实现 ebiten.Game 接口
type App struct {
	sceneManager *SceneManager
	title        string
	width        int
	height       int
	logger       *zap.Logger

	pendingWindowSizeReset   bool // 退出全屏后延迟恢复窗口大小
	windowSizeResetCountdown int
}

// NewApp 创建应用并以 initial 作为初始场景
func NewApp(cfg Config, initial Scene) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sm := NewSceneManager()
	sm.SwitchTo(initial)
	return &App{
		sceneManager: sm,
		title:        cfg.Title,
		width:        cfg.WindowWidth,
		height:       cfg.WindowHeight,
		logger:       logger.With(zap.String("component", "app")),
	}
}

// ConfigureWindow 设置窗口标题、大小，并接管窗口关闭事件
func (a *App) ConfigureWindow() {
	ebiten.SetWindowSize(a.width, a.height)
	ebiten.SetWindowTitle(a.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
}

// Update 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	if ebiten.IsWindowBeingClosed() {
		if !a.sceneManager.SaveOnExit() {
			a.logger.Warn("scene failed to save on exit")
		}
		return ebiten.Termination
	}

	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(a.width, a.height)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			// 等窗口管理器处理完再恢复大小
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	a.sceneManager.Update(1.0 / float64(ebiten.TPS()))
	return nil
}

// Draw 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 全屏时用黑色填充留边，线性滤波缩放
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸，与窗口实际大小无关
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.width, a.height
}

// SceneManager 返回场景管理器
func (a *App) SceneManager() *SceneManager {
	return a.sceneManager
}
