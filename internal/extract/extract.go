// Package extract 实现API响应树的文本片段提取
// 输入是任意形状的JSON值(内部API的文档载荷),输出是去重后的有序文本片段列表
package extract

import "strings"

// FragmentSeparator 片段拼接分隔符(记录text字段使用)
const FragmentSeparator = "\n\n"

// LinkLabel href片段在节点无text字段时使用的标签
const LinkLabel = "Link"

// SeenSet 单次提取过程的去重集合
// 混合存放四类键: 复合节点的规范序列化、已输出的文本、href、src
// 仅在一次Extract调用链内有效,用完即弃
type SeenSet map[string]struct{}

// NewSeenSet 创建去重集合
func NewSeenSet() SeenSet {
	return make(SeenSet)
}

// Has 检查键是否已存在
func (s SeenSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Add 标记键为已见
func (s SeenSet) Add(key string) {
	s[key] = struct{}{}
}

// Extract 递归提取节点的文本片段
//
// 规则:
//  1. 非复合节点(标量/null)返回空,不报错
//  2. 复合节点按规范序列化去重: 字节级重复的子树整体跳过
//  3. 对象节点按顺序提取自身字段: text(trim后非空且未见) →
//     "<text或Link>: <href>"(href未见) → "Image: <src>"(src未见)
//  4. 自身片段之后,按文档顺序递归数组元素/对象成员值
//
// 深度仅受调用栈限制,数百层嵌套的输入必须可处理
func Extract(node *Value, seen SeenSet) []string {
	if !node.IsComposite() {
		return nil
	}

	key := node.Canonical()
	if seen.Has(key) {
		return nil
	}
	seen.Add(key)

	var fragments []string

	if node.Kind == KindObject {
		fragments = appendOwnFragments(fragments, node, seen)
	}

	switch node.Kind {
	case KindArray:
		for _, el := range node.Elems {
			fragments = append(fragments, Extract(el, seen)...)
		}
	case KindObject:
		for i := range node.Members {
			fragments = append(fragments, Extract(node.Members[i].Value, seen)...)
		}
	}

	return fragments
}

// appendOwnFragments 提取节点自身的text/href/src片段
func appendOwnFragments(fragments []string, node *Value, seen SeenSet) []string {
	label := LinkLabel

	if text, ok := node.Field("text"); ok && text.Kind == KindString {
		trimmed := strings.TrimSpace(text.Str)
		if trimmed != "" {
			// href片段的标签优先使用节点自身的text
			label = trimmed

			if !seen.Has(trimmed) {
				fragments = append(fragments, trimmed)
				seen.Add(trimmed)
			}
		}
	}

	if href, ok := node.Field("href"); ok && href.Kind == KindString && !seen.Has(href.Str) {
		fragments = append(fragments, label+": "+href.Str)
		seen.Add(href.Str)
	}

	if src, ok := node.Field("src"); ok && src.Kind == KindString && !seen.Has(src.Str) {
		fragments = append(fragments, "Image: "+src.Str)
		seen.Add(src.Str)
	}

	return fragments
}

// Join 将片段列表拼接为记录文本
func Join(fragments []string) string {
	return strings.Join(fragments, FragmentSeparator)
}
