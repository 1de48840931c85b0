package safe

import (
	"TradeYa/logger"
)

// Go 带 recover 的后台协程，panic 只记日志不拖垮进程
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
