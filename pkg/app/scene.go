package app

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene 一个界面场景（目前只有编辑器场景）
type Scene interface {
	// Update 更新场景逻辑，deltaTime 为距上一次更新的秒数
	Update(deltaTime float64)

	// Draw 绘制场景
	Draw(screen *ebiten.Image)
}

// Saveable 可选接口：窗口关闭时需要保存状态的场景
type Saveable interface {
	// SaveOnExit 返回 false 表示保存失败（程序仍会退出）
	SaveOnExit() bool
}
