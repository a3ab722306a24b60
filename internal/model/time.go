package model

import (
	"fmt"
	"time"
)

// LocalTime 在序列化时输出 "YYYY-MM-DD HH:MM:SS" 格式，供管理端列表展示。
type LocalTime time.Time

const timeFormat = "2006-01-02 15:04:05"

// MarshalJSON 实现 json.Marshaler 接口。
func (t LocalTime) MarshalJSON() ([]byte, error) {
	formatted := fmt.Sprintf("\"%s\"", time.Time(t).Format(timeFormat))
	return []byte(formatted), nil
}
