package model

import "time"

// RunRecord 一次代理调用的元数据（不含响应体）
type RunRecord struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	Endpoint       string    `bson:"endpoint" json:"endpoint"`
	Method         string    `bson:"method" json:"method"`
	URL            string    `bson:"url" json:"url"`
	Status         int       `bson:"status" json:"status"`                                       // status returned by the proxy
	UpstreamStatus int       `bson:"upstreamStatus,omitempty" json:"upstream_status,omitempty"` // 0 when the call never completed
	DurationMs     int64     `bson:"durationMs" json:"duration_ms"`
	Error          string    `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"created_at"` // UTC
}
