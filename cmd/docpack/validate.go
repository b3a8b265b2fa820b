package main

import (
	"fmt"

	"github.com/RecoveryAshes/DocPack/internal/core"
	"github.com/RecoveryAshes/DocPack/internal/models"
)

// ValidateFlags 在爬取开始前验证合并后的配置
// 任何一项非法都直接返回错误,不进入爬取流程
func ValidateFlags(config *core.Config) error {
	if config.Crawl.URL == "" {
		return fmt.Errorf("必须指定种子URL (-u)")
	}
	if err := models.ValidateURL(config.Crawl.URL); err != nil {
		return fmt.Errorf("无效的种子URL: %w", err)
	}
	if len(config.Crawl.Match) == 0 {
		return fmt.Errorf("必须指定至少一个链接匹配模式 (-m)")
	}
	if err := config.Validate(); err != nil {
		return err
	}
	return nil
}
