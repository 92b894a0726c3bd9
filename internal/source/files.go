package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"crawl-dashboard/internal/logx"
	"crawl-dashboard/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV 读取目录下全部 *.csv，首行为表头。
type CSV struct{ dir string }

func (s *CSV) Kind() Kind       { return KindCSV }
func (s *CSV) Location() string { return s.dir }

func (s *CSV) Fetch(ctx context.Context) ([]model.Record, error) {
	return eachFile(ctx, s.dir, ".csv", readCSV)
}

// JSON 读取目录下全部 *.json：数组、{"data":[...]} 或单个对象。
type JSON struct{ dir string }

func (s *JSON) Kind() Kind       { return KindJSON }
func (s *JSON) Location() string { return s.dir }

func (s *JSON) Fetch(ctx context.Context) ([]model.Record, error) {
	return eachFile(ctx, s.dir, ".json", readJSON)
}

// XLSX 读取目录下全部 *.xlsx 的每个工作表，首行为表头。
type XLSX struct{ dir string }

func (s *XLSX) Kind() Kind       { return KindXLSX }
func (s *XLSX) Location() string { return s.dir }

func (s *XLSX) Fetch(ctx context.Context) ([]model.Record, error) {
	return eachFile(ctx, s.dir, ".xlsx", readXLSX)
}

// eachFile 依次解析目录下的文件；单个文件失败记录告警后跳过，目录不可读则整体失败。
func eachFile(ctx context.Context, dir, ext string, parse func(io.Reader) ([]model.Record, error)) ([]model.Record, error) {
	files, err := listFiles(dir, ext)
	if err != nil {
		return nil, err
	}
	var all []model.Record
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := parseFile(path, parse)
		if err != nil {
			logx.Warnf("解析文件失败，已跳过：%s 错误=%v", path, err)
			continue
		}
		logx.Debugf("读取 %s：%d 条", path, len(recs))
		all = append(all, recs...)
	}
	return all, nil
}

func parseFile(path string, parse func(io.Reader) ([]model.Record, error)) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return parse(f)
}

func readCSV(r io.Reader) ([]model.Record, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(b, utf8BOM)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	var out []model.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		out = append(out, zipRow(header, row))
	}
	return out, nil
}

// zipRow 将表头与一行数据组合为记录；多出的列忽略，缺少的列不出现。
func zipRow(header, row []string) model.Record {
	rec := make(model.Record, len(header))
	for i, h := range header {
		if h == "" || i >= len(row) {
			continue
		}
		rec[h] = row[i]
	}
	return rec
}

func readJSON(r io.Reader) ([]model.Record, error) {
	dec := json.NewDecoder(r)
	// 保留大整数精度（抖音 aweme_id 超过 2^53）
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	switch v := raw.(type) {
	case []any:
		return objects(v), nil
	case map[string]any:
		if data, ok := v["data"].([]any); ok {
			return objects(data), nil
		}
		return []model.Record{v}, nil
	}
	return nil, fmt.Errorf("decode json: unexpected top-level %T", raw)
}

// objects 保留数组中的对象元素，其余类型跳过。
func objects(items []any) []model.Record {
	out := make([]model.Record, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func readXLSX(r io.Reader) ([]model.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	var out []model.Record
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}
		header := rows[0]
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
		for _, row := range rows[1:] {
			if len(row) == 0 {
				continue
			}
			out = append(out, zipRow(header, row))
		}
	}
	return out, nil
}
