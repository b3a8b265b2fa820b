package crawlers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/RecoveryAshes/DocPack/internal/models"
	"github.com/google/uuid"
)

// RecordStore 采集记录存储
// 每条记录写入独立JSON文件(UUID文件名),页面间无共享可变状态,
// 多个页面并发落盘时只需保护计数器
type RecordStore struct {
	dir   string
	mu    sync.Mutex
	count int
}

// NewRecordStore 创建记录存储,确保目录存在
func NewRecordStore(dir string) (*RecordStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建记录目录失败 [%s]: %w", dir, err)
	}
	return &RecordStore{dir: dir}, nil
}

// Save 持久化一条采集记录
// 缺失字段在落盘前填充缺省值
func (s *RecordStore) Save(record models.PageRecord) error {
	record.ApplyDefaults()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化记录失败: %w", err)
	}

	path := filepath.Join(s.dir, uuid.New().String()+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入记录文件失败 [%s]: %w", path, err)
	}

	s.mu.Lock()
	s.count++
	s.mu.Unlock()

	return nil
}

// Count 已落盘的记录数
func (s *RecordStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Dir 记录目录路径
func (s *RecordStore) Dir() string {
	return s.dir
}
