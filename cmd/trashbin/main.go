// Package main 启动回收站清理服务
package main

import (
	"fmt"
	"os"

	"github.com/yeisme/trashbin/pkg/cmd"
)

//	@title			Trashbin Expiry API
//	@version		1.0
//	@description	回收站清理服务的运维接口：手动清理、批处理偏移量、调度器任务与健康检查.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
