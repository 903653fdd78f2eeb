// Package api はブートストラップノードの管理用HTTP APIを提供する。
//
//	GET /api/status   待ち受けアドレス、保存件数、稼働時間
//	GET /api/metrics  メトリクスのスナップショット
//	GET /ws           イベントをJSONで逐次配信するWebSocket
//
// APIはストアを読み取るだけで、書き換えることはない。
package api
