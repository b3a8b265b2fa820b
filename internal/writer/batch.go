// Package writer 实现采集记录的批量打包输出
// 爬取结束后单线程运行: 按glob顺序读取落盘的记录文件,按字节大小和
// token估算双重上限分批,写出顺序编号的JSON数组文件
package writer

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/DocPack/internal/models"
	"github.com/RecoveryAshes/DocPack/internal/utils"
)

// Writer 批量输出写入器
type Writer struct {
	recordsDir string
	outputDir  string
	config     models.OutputConfig

	// countTokens 计算序列化记录的token数
	// 返回 (数量, true);单条记录自身超过上限时返回 (0, false) 哨兵
	countTokens func(text string, ceiling int) (int, bool)
}

// NewWriter 创建写入器
// 配置了token上限时加载tokenizer,加载失败直接报错(快速失败)
func NewWriter(recordsDir string, config models.OutputConfig) (*Writer, error) {
	w := &Writer{
		recordsDir: recordsDir,
		outputDir:  config.BaseDir,
		config:     config,
	}

	if config.MaxTokens > 0 {
		counter, err := newTokenCounter()
		if err != nil {
			return nil, fmt.Errorf("初始化token计数器失败: %w", err)
		}
		w.countTokens = counter
	}

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	return w, nil
}

// Write 执行打包输出
// 返回最后写入的文件路径,没有任何输出时返回空字符串
func (w *Writer) Write() (string, error) {
	pattern := filepath.Join(w.recordsDir, "*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("查找记录文件失败 [%s]: %w", pattern, err)
	}

	utils.Infof("📦 发现 %d 个采集记录文件", len(files))

	maxBytes := int64(math.MaxInt64)
	if w.config.MaxFileSizeMB > 0 {
		maxBytes = int64(w.config.MaxFileSizeMB) * 1024 * 1024
	}
	maxTokens := math.MaxInt
	if w.config.MaxTokens > 0 {
		maxTokens = w.config.MaxTokens
	}

	var (
		batch           []models.PageRecord
		batchBytes      int64
		estimatedTokens int
		fileIndex       = 1
		lastFile        string
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		name := fmt.Sprintf("%s-%d.json", w.config.Stem(), fileIndex)
		path := filepath.Join(w.outputDir, name)

		data, err := json.MarshalIndent(batch, "", "  ")
		if err != nil {
			return fmt.Errorf("序列化批次失败: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("写入输出文件失败 [%s]: %w", path, err)
		}

		utils.Infof("💾 写入输出文件: %s (%d 条记录, %d 字节)", name, len(batch), len(data))

		fileIndex++
		lastFile = path
		batch = nil
		batchBytes = 0
		// 注意: token估算不在此处清零,仅在token溢出分支通过减半重置
		return nil
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("读取记录文件失败 [%s]: %w", file, err)
		}

		var record models.PageRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return "", fmt.Errorf("解析记录文件失败 [%s]: %w", file, err)
		}

		serialized, err := json.Marshal(record)
		if err != nil {
			return "", fmt.Errorf("序列化记录失败 [%s]: %w", file, err)
		}
		recordBytes := int64(len(serialized))

		// 字节上限: 贪心分批,加入会超限时先落盘当前批次
		if batchBytes+recordBytes > maxBytes {
			if err := flush(); err != nil {
				return "", err
			}
		}

		// token上限: 估算溢出时落盘并以本条记录token数的一半重启估算,
		// 避免下一条记录立即再次触发溢出
		if w.countTokens != nil {
			count, within := w.countTokens(string(serialized), maxTokens)
			switch {
			case !within:
				// 单条记录自身超过上限: 照常加入批次,不参与token统计
				utils.Warnf("单条记录token数超过上限 %d,仍写入输出: %s", maxTokens, record.URL)
				batch = append(batch, record)
			case estimatedTokens+count > maxTokens:
				if err := flush(); err != nil {
					return "", err
				}
				estimatedTokens = count / 2
				batch = append(batch, record)
			default:
				batch = append(batch, record)
				estimatedTokens += count
			}
		} else {
			batch = append(batch, record)
		}

		batchBytes += recordBytes
	}

	if err := flush(); err != nil {
		return "", err
	}

	if lastFile == "" {
		utils.Warn("没有可写出的记录")
	} else {
		utils.Infof("✅ 打包完成: 共 %d 个输出文件, 最后一个: %s", fileIndex-1, lastFile)
	}

	return lastFile, nil
}
