// Package server はブートストラップノードのTCPサーバーを提供する。
//
// Serverはリスナーで接続を受け付け、接続ごとにゴルーチンを起動する。
// 各接続では1行のリクエストを読み取り、共有ストアに適用して1行の応答を返し、
// 接続を閉じる。
//
// # 応答
//
// - Store: 値を保存して Ack
// - Lookup: ヒット時は Store 形式の LookupResult、ミス時は Ack
// - Join, Ping, Pong, FileRequest, FileData: Ack
//
// # エラー方針
//
// - 受付失敗: ログに記録し、短いバックオフの後にループを継続
// - 読み取り・書き込み失敗: その接続のみ終了
// - デコード失敗: 応答せずに接続を閉じ、WARNで記録
//
// # 使用例
//
//	st := store.New()
//	srv := server.New(st, server.WithIdleTimeout(30*time.Second))
//	if err := srv.ListenAndServe(ctx, "0.0.0.0:8080"); err != nil {
//	    log.Fatal(err)
//	}
package server
