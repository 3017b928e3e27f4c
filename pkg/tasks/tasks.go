// Package tasks 定义通过 Kafka 传递的任务结构。
package tasks

// DispatchTask 是一次救护车调度任务。
type DispatchTask struct {
	RequestID string   `json:"request_id"`
	UserID    uint     `json:"user_id"`
	Address   string   `json:"address"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
}
