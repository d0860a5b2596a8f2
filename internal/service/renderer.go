package service

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/valyala/fasttemplate"
)

// ── 通知模板渲染 ──
//
// 占位符语法 {{ key }}，点号访问嵌套字段（{{ user.name }}）
// 缺失的键渲染为空字符串，渲染过程不返回错误

const (
	tplStart = "{{"
	tplEnd   = "}}"
)

// Render 渲染纯文本模板
func Render(tpl string, data map[string]interface{}) string {
	return render(tpl, data, false)
}

// RenderHTML 渲染 HTML 模板，替换值做 HTML 转义
func RenderHTML(tpl string, data map[string]interface{}) string {
	return render(tpl, data, true)
}

func render(tpl string, data map[string]interface{}, escape bool) string {
	out, err := fasttemplate.ExecuteFuncStringWithErr(tpl, tplStart, tplEnd, func(w io.Writer, tag string) (int, error) {
		v, ok := lookup(data, strings.TrimSpace(tag))
		if !ok {
			return 0, nil
		}
		s := stringify(v)
		if escape {
			s = html.EscapeString(s)
		}
		return io.WriteString(w, s)
	})
	if err != nil {
		return tpl
	}
	return out
}

// lookup 按点号路径逐层查找
func lookup(data map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	var cur interface{} = data
	for _, key := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]interface{}:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case map[string]interface{}, map[string]string, []interface{}:
		// 非标量不展开
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// Preview 截取内容预览，超过 100 个字符时追加省略号
func Preview(content string) string {
	const max = 100
	r := []rune(content)
	if len(r) <= max {
		return content
	}
	return string(r[:max]) + "..."
}
