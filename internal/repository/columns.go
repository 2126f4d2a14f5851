package repository

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// column struct 字段与表列的映射
type column struct {
	name  string
	index []int
}

var columnCache sync.Map // reflect.Type -> []column

// columnsOf 读取 db tag；"-" 与无 tag 字段不映射
func columnsOf(t reflect.Type) []column {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]column)
	}
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("db"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, column{name: name, index: f.Index})
	}
	columnCache.Store(t, cols)
	return cols
}

func columnNames(cols []column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

// insertArgs 全部映射列及其值
func insertArgs(v any) ([]string, []any) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	cols := columnsOf(rv.Type())
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = rv.FieldByIndex(c.index).Interface()
	}
	return columnNames(cols), args
}

// setClause 由补丁结构体中非 nil 字段生成 "col = $n"；argN 为第一个占位符序号
func setClause(patch any, argN int) ([]string, []any) {
	rv := reflect.Indirect(reflect.ValueOf(patch))
	var sets []string
	var args []any
	for _, c := range columnsOf(rv.Type()) {
		f := rv.FieldByIndex(c.index)
		switch f.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
			if f.IsNil() {
				continue
			}
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, argN))
		args = append(args, f.Interface())
		argN++
	}
	return sets, args
}

func placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ph, ", ")
}
