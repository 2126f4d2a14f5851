package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportWorkbook 把记录列表写成单工作表 xlsx；列顺序取第一条记录的 JSON 字段顺序
func ExportWorkbook(sheet string, items any) ([]byte, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	rows := gjson.ParseBytes(raw).Array()

	var headers []string
	if len(rows) > 0 {
		rows[0].ForEach(func(key, _ gjson.Result) bool {
			headers = append(headers, key.String())
			return true
		})
	}

	f := excelize.NewFile()
	defer f.Close()

	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	// 默认工作表重命名为记录类型
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 表头
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 数据行；嵌套对象写成 JSON 文本
	for i, row := range rows {
		for col, header := range headers {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, cellValue(row.Get(gjsonEscape(header)))); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.True, gjson.False:
		return v.Bool()
	case gjson.Number:
		return v.Float()
	case gjson.String:
		return v.String()
	default:
		return v.Raw
	}
}

// gjsonEscape 字段名中的路径特殊字符需要转义
func gjsonEscape(key string) string {
	var b bytes.Buffer
	for _, c := range key {
		switch c {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
