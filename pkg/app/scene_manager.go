package app

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// SceneManager 管理当前活动场景，任意时刻只有一个场景的 Update/Draw 被调用
type SceneManager struct {
	current Scene
}

// NewSceneManager 创建场景管理器，初始没有活动场景
func NewSceneManager() *SceneManager {
	return &SceneManager{}
}

// SwitchTo 切换活动场景
func (sm *SceneManager) SwitchTo(scene Scene) {
	sm.current = scene
}

// Current 返回当前活动场景，没有时返回 nil
func (sm *SceneManager) Current() Scene {
	return sm.current
}

// Update 更新当前场景
func (sm *SceneManager) Update(deltaTime float64) {
	if sm.current != nil {
		sm.current.Update(deltaTime)
	}
}

// Draw 绘制当前场景
func (sm *SceneManager) Draw(screen *ebiten.Image) {
	if sm.current != nil {
		sm.current.Draw(screen)
	}
}

// SaveOnExit 如果当前场景实现了 Saveable，调用其 SaveOnExit
func (sm *SceneManager) SaveOnExit() bool {
	if s, ok := sm.current.(Saveable); ok {
		return s.SaveOnExit()
	}
	return true
}
