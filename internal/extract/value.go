package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind JSON值类型标签
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Member 对象成员(保留文档顺序)
type Member struct {
	Key   string
	Value *Value
}

// Value 最小JSON值类型
// 标准库的map[string]interface{}会丢失对象成员顺序,而片段的输出顺序
// 依赖成员在文档中的出现顺序,因此通过json.Decoder逐token构建
type Value struct {
	Kind    Kind
	Bool    bool
	Num     string // 保留原始数字文本,避免精度/格式漂移
	Str     string
	Elems   []*Value
	Members []Member
}

// Parse 解析JSON字节流为Value树
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, fmt.Errorf("解析JSON失败: %w", err)
	}
	return v, nil
}

// parseValue 从decoder读取下一个完整的值
func parseValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return valueFromToken(dec, tok)
}

func valueFromToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			v := &Value{Kind: KindObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("对象键类型异常: %v", keyTok)
				}
				child, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				v.Members = append(v.Members, Member{Key: key, Value: child})
			}
			// 消费闭合的'}'
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return v, nil
		case '[':
			v := &Value{Kind: KindArray}
			for dec.More() {
				child, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				v.Elems = append(v.Elems, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return v, nil
		}
		return nil, fmt.Errorf("意外的JSON分隔符: %v", t)
	case string:
		return &Value{Kind: KindString, Str: t}, nil
	case json.Number:
		return &Value{Kind: KindNumber, Num: t.String()}, nil
	case bool:
		return &Value{Kind: KindBool, Bool: t}, nil
	case nil:
		return &Value{Kind: KindNull}, nil
	}
	return nil, fmt.Errorf("意外的JSON token: %v", tok)
}

// IsComposite 是否为复合值(对象或数组)
func (v *Value) IsComposite() bool {
	return v != nil && (v.Kind == KindObject || v.Kind == KindArray)
}

// Field 按名称查找对象成员
// 非对象或成员不存在时返回 (nil, false)
func (v *Value) Field(name string) (*Value, bool) {
	if v == nil || v.Kind != KindObject {
		return nil, false
	}
	for i := range v.Members {
		if v.Members[i].Key == name {
			return v.Members[i].Value, true
		}
	}
	return nil, false
}

// Canonical 按文档顺序的紧凑序列化
// 用作单次提取过程中复合节点的去重键: 字节级相同的子树只处理一次,
// 成员顺序不同的结构等价子树视为不同(接受的近似)
func (v *Value) Canonical() string {
	var b strings.Builder
	v.canonical(&b)
	return b.String()
}

func (v *Value) canonical(b *strings.Builder) {
	if v == nil {
		b.WriteString("null")
		return
	}
	switch v.Kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindNumber:
		b.WriteString(v.Num)
	case KindString:
		writeQuoted(b, v.Str)
	case KindArray:
		b.WriteByte('[')
		for i, el := range v.Elems {
			if i > 0 {
				b.WriteByte(',')
			}
			el.canonical(b)
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i := range v.Members {
			if i > 0 {
				b.WriteByte(',')
			}
			writeQuoted(b, v.Members[i].Key)
			b.WriteByte(':')
			v.Members[i].Value.canonical(b)
		}
		b.WriteByte('}')
	}
}

func writeQuoted(b *strings.Builder, s string) {
	quoted, err := json.Marshal(s)
	if err != nil {
		// json.Marshal对string不会失败,保底写回原文
		b.WriteString(`"` + s + `"`)
		return
	}
	b.Write(quoted)
}
