package store

import "sync"

// Backend はコネクションハンドラが依存するストア操作
type Backend interface {
	Put(key, value string)
	Get(key string) (string, bool)
}

// Ensure Store implements Backend
var _ Backend = (*Store)(nil)

// Entry はキーと値のペア
type Entry struct {
	Key   string
	Value string
}

// Store はブートストラップノードが保持するインメモリKVS。
// 全ての操作は単一のミューテックスで直列化される
type Store struct {
	mu   sync.Mutex
	data map[string]string
}

// New は空のストアを作成する
func New() *Store {
	return &Store{
		data: make(map[string]string),
	}
}

// Put はキーに値を設定する。既存の値は上書きされる
func (s *Store) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Get はキーに対応する値を取得する
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, exists := s.data[key]
	return value, exists
}

// Len は保持しているエントリ数を返す（管理APIのステータス用）
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
