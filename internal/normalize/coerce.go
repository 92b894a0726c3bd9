package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// present 判断取值是否有效：nil 与空白字符串视为缺失。
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case []byte:
		return strings.TrimSpace(string(x)) != ""
	}
	return true
}

// ToInt 尽力将任意取值转换为整数；无法解析时返回 0，负数原样保留。
// 支持 "1.2万"、"3亿"、"10w+"、"1,024" 以及 "12abc"（取前导数字）等写法。
func ToInt(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return clampUint(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return clampUint(x)
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case json.Number:
		return parseCount(x.String())
	case []byte:
		return parseCount(string(x))
	case string:
		return parseCount(x)
	}
	return 0
}

// floatToInt 截断为整数，超出 int64 范围时饱和到边界。
func floatToInt(f float64) int64 {
	switch {
	case math.IsNaN(f), math.IsInf(f, 0):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func clampUint(u uint64) int64 {
	if u > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(u)
}

var countUnits = []struct {
	suffix string
	mult   float64
}{
	{"亿", 1e8},
	{"万", 1e4},
	{"w", 1e4},
	{"W", 1e4},
	{"k", 1e3},
	{"K", 1e3},
}

func parseCount(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "+")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	mult := 1.0
	for _, u := range countUnits {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			mult = u.mult
			break
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if mult > 1 {
			// 带单位的计数按四舍五入，避免 1.2*1e4 的浮点误差
			return floatToInt(math.Round(f * mult))
		}
		return floatToInt(f)
	}
	return leadingInt(s)
}

// leadingInt 取字符串开头的整数部分（可带符号），没有数字时返回 0。
func leadingInt(s string) int64 {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

// ToTime 解析时间：RFC3339、常见日期格式、Unix 秒或毫秒；失败返回 def。
func ToTime(v any, def time.Time) time.Time {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return def
		}
		return x
	case string:
		return parseTime(x, def)
	case []byte:
		return parseTime(string(x), def)
	case json.Number:
		return parseTime(x.String(), def)
	case nil, bool:
		return def
	}
	if n := ToInt(v); n > 0 {
		return epoch(n)
	}
	return def
}

func parseTime(s string, def time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	// 8 位纯数字按紧凑日期 20060102 处理，而非 Unix 秒
	if len(s) == 8 {
		if t, err := time.ParseInLocation("20060102", s, time.Local); err == nil {
			return t
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return def
		}
		return epoch(n)
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return def
}

// epoch 按数量级区分秒与毫秒（MediaCrawler 的 time 字段为毫秒）。
func epoch(n int64) time.Time {
	if n >= 1e12 {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}

// ToString 将取值转为字符串；浮点数不使用科学计数法，避免长 id 变形。
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case []byte:
		return strings.TrimSpace(string(x))
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// CleanText 去掉 HTML 标记并反转义实体，例如 B 站搜索标题中的 <em class="keyword">。
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
