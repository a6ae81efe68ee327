package cache

import (
	"time"
)

// TimeUntilNextMarketOpen は次の市場オープン（日本時間9時）までの期間を返します。
// 取引時間外に取得した株価はこの期間までキャッシュしても鮮度を失いません。
func TimeUntilNextMarketOpen() time.Duration {
	loc, _ := time.LoadLocation("Asia/Tokyo")
	now := time.Now().In(loc)

	// 次の9時を計算
	nextOpen := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, loc)

	// 今日の9時が既に過ぎている場合は明日の9時を使用
	if now.After(nextOpen) {
		nextOpen = nextOpen.Add(24 * time.Hour)
	}

	return nextOpen.Sub(now)
}
