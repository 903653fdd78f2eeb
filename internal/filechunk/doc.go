// Package filechunk はファイルを固定長のチャンクに分割し、
// 内容の16進ダイジェストを計算する。
//
// ダイジェストは SHA-256 が既定で、BLAKE3 も選べる。
package filechunk
