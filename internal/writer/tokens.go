package writer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// tokenEncoding 输出文件token估算使用的编码
const tokenEncoding = "cl100k_base"

// newTokenCounter 构造基于tiktoken的token计数函数
// 返回的函数对超过上限的文本返回 (0, false) 哨兵
func newTokenCounter() (func(text string, ceiling int) (int, bool), error) {
	encoder, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return nil, fmt.Errorf("加载编码 %s 失败: %w", tokenEncoding, err)
	}

	return func(text string, ceiling int) (int, bool) {
		count := len(encoder.Encode(text, nil, nil))
		if count > ceiling {
			return 0, false
		}
		return count, true
	}, nil
}
