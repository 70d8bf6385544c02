// embed.go - 默认配置嵌入声明
// 必须放在项目根目录（与 data/ 同级），//go:embed 只能嵌入当前包目录及其子目录的文件
package main

import _ "embed"

//go:embed data/editor.yaml
var defaultConfig []byte
