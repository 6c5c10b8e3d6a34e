package testtool

import (
	"net/http"
	_ "net/http/pprof" // 匯入後會自動註冊 pprof endpoint

	"joa_realtime/pkg/config"
	"joa_realtime/pkg/logger"

	"go.uber.org/zap"
)

// StartPprof 非 production 時在 addr 啟動 pprof 監控伺服器
func StartPprof(addr string) {
	if config.IsProduction() || addr == "" {
		logger.Log.Info("pprof is disabled")
		return
	}

	go func() {
		logger.Log.Info("Starting pprof server", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Log.Warn("pprof server failed", zap.Error(err))
		}
	}()
}

// pprof 提供以下分析端點：
// 	•	/debug/pprof/ → 顯示所有可用的分析數據
// 	•	/debug/pprof/goroutine → 顯示所有 Goroutines
// 	•	/debug/pprof/heap → 顯示記憶體分配
// 	•	/debug/pprof/profile → 執行 30 秒 CPU 分析
//
// go tool pprof http://localhost:6060/debug/pprof/goroutine
// 可以找出 relay 連線的 goroutine 是否有洩漏
