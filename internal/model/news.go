// Package model はドメインモデルを定義する。
package model

import "time"

// NewsSource は市況ニュースの取得元（RSS/Atomフィード）を表す。
type NewsSource struct {
	ID                string
	FeedURL           string
	SiteURL           string
	Title             string
	ETag              string
	LastModified      string
	FetchStatus       FetchStatus
	ConsecutiveErrors int
	ErrorMessage      string
	NextFetchAt       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FetchStatus はニュースソースのフェッチ状態を表す。
type FetchStatus string

const (
	// FetchStatusActive はアクティブなフェッチ状態。
	FetchStatusActive FetchStatus = "active"
	// FetchStatusError はエラーによるフェッチ停止状態。
	FetchStatusError FetchStatus = "error"
)

// NewsItem は取得済みの市況ニュース記事を表す。
// SummaryHTMLはサニタイズ済み。
type NewsItem struct {
	ID          string
	SourceID    string
	GuidOrID    string
	Title       string
	Link        string
	SummaryHTML string
	Author      string
	PublishedAt *time.Time
	FetchedAt   time.Time
	CreatedAt   time.Time
}

// ParsedNewsItem はフィードパーサーから取得した未保存の記事データを表す。
type ParsedNewsItem struct {
	GuidOrID    string
	Title       string
	Link        string
	Summary     string // 未サニタイズ
	Author      string
	PublishedAt *time.Time
}
