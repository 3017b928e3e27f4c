package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout 是接口中日期字段使用的格式。
const DateLayout = "2006-01-02"

// Date 在 JSON 中以 "YYYY-MM-DD" 表示的日期。
type Date time.Time

// MarshalJSON implements the json.Marshaler interface.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", time.Time(d).Format(DateLayout))), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	*d = Date(t)
	return nil
}

// Time 返回底层 time.Time。
func (d Date) Time() time.Time {
	return time.Time(d)
}

// IsZero 判断日期是否未设置。
func (d Date) IsZero() bool {
	return time.Time(d).IsZero()
}
