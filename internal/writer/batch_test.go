package writer

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/RecoveryAshes/DocPack/internal/models"
)

// writeRecords 按给定顺序写入记录文件(文件名保证glob顺序)
func writeRecords(t *testing.T, dir string, records []models.PageRecord) {
	t.Helper()
	for i, rec := range records {
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			t.Fatalf("序列化测试记录失败: %v", err)
		}
		name := filepath.Join(dir, fmt.Sprintf("%03d.json", i))
		if err := os.WriteFile(name, data, 0644); err != nil {
			t.Fatalf("写入测试记录失败: %v", err)
		}
	}
}

func readBatch(t *testing.T, path string) []models.PageRecord {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取输出文件失败 [%s]: %v", path, err)
	}
	var batch []models.PageRecord
	if err := json.Unmarshal(data, &batch); err != nil {
		t.Fatalf("解析输出文件失败 [%s]: %v", path, err)
	}
	return batch
}

func newTestWriter(t *testing.T, config models.OutputConfig, counter func(string, int) (int, bool)) (*Writer, string) {
	t.Helper()
	recordsDir := t.TempDir()
	config.BaseDir = t.TempDir()
	return &Writer{
		recordsDir:  recordsDir,
		outputDir:   config.BaseDir,
		config:      config,
		countTokens: counter,
	}, recordsDir
}

func TestWrite_字节上限贪心分批(t *testing.T) {
	// 5条约0.4MB的记录,单文件上限1MB → 2/2/1共3个文件(贪心,非最优装箱)
	w, recordsDir := newTestWriter(t, models.OutputConfig{
		FileName:      "data.json",
		MaxFileSizeMB: 1,
	}, nil)

	text := strings.Repeat("a", 400*1024)
	var records []models.PageRecord
	for i := 0; i < 5; i++ {
		records = append(records, models.PageRecord{
			Title: fmt.Sprintf("page-%d", i),
			URL:   fmt.Sprintf("https://x.test/%d", i),
			Text:  text,
		})
	}
	writeRecords(t, recordsDir, records)

	last, err := w.Write()
	if err != nil {
		t.Fatalf("Write() 失败: %v", err)
	}
	if filepath.Base(last) != "data-3.json" {
		t.Errorf("最后文件名 = %s, want data-3.json", filepath.Base(last))
	}

	wantCounts := []int{2, 2, 1}
	for i, want := range wantCounts {
		path := filepath.Join(w.outputDir, fmt.Sprintf("data-%d.json", i+1))
		batch := readBatch(t, path)
		if len(batch) != want {
			t.Errorf("文件%d记录数 = %d, want %d", i+1, len(batch), want)
		}
	}
	if _, err := os.Stat(filepath.Join(w.outputDir, "data-4.json")); !os.IsNotExist(err) {
		t.Error("不应产生第4个输出文件")
	}
}

func TestWrite_Token上限溢出减半重置(t *testing.T) {
	// 每条记录固定10 token,上限25:
	// r0(10) r1(20) r2溢出→落盘[r0,r1],估算=5,追加r2
	// r3(15) r4(25,不溢出) r5溢出→落盘[r2,r3,r4],剩余[r5]
	w, recordsDir := newTestWriter(t, models.OutputConfig{
		FileName:  "data.json",
		MaxTokens: 25,
	}, func(text string, ceiling int) (int, bool) {
		return 10, true
	})

	var records []models.PageRecord
	for i := 0; i < 6; i++ {
		records = append(records, models.PageRecord{
			Title: fmt.Sprintf("t%d", i),
			URL:   fmt.Sprintf("https://x.test/%d", i),
			Text:  "body",
		})
	}
	writeRecords(t, recordsDir, records)

	if _, err := w.Write(); err != nil {
		t.Fatalf("Write() 失败: %v", err)
	}

	wantCounts := []int{2, 3, 1}
	for i, want := range wantCounts {
		batch := readBatch(t, filepath.Join(w.outputDir, fmt.Sprintf("data-%d.json", i+1)))
		if len(batch) != want {
			t.Errorf("文件%d记录数 = %d, want %d", i+1, len(batch), want)
		}
	}
}

func TestWrite_单条记录超token上限仍写出(t *testing.T) {
	// 哨兵记录不参与token统计,但不会被丢弃
	w, recordsDir := newTestWriter(t, models.OutputConfig{
		FileName:  "data.json",
		MaxTokens: 100,
	}, func(text string, ceiling int) (int, bool) {
		if strings.Contains(text, "huge") {
			return 0, false
		}
		return 10, true
	})

	writeRecords(t, recordsDir, []models.PageRecord{
		{Title: "a", URL: "https://x.test/a", Text: "small"},
		{Title: "b", URL: "https://x.test/b", Text: "huge payload"},
		{Title: "c", URL: "https://x.test/c", Text: "small"},
	})

	if _, err := w.Write(); err != nil {
		t.Fatalf("Write() 失败: %v", err)
	}

	batch := readBatch(t, filepath.Join(w.outputDir, "data-1.json"))
	if len(batch) != 3 {
		t.Fatalf("记录数 = %d, want 3 (超限记录不得丢弃)", len(batch))
	}
	if batch[1].Title != "b" {
		t.Errorf("记录顺序错误: %v", batch)
	}
}

func TestWrite_往返一致(t *testing.T) {
	w, recordsDir := newTestWriter(t, models.OutputConfig{FileName: "out.json"}, nil)

	records := []models.PageRecord{
		{Title: "第一页", URL: "https://x.test/1", Text: "内容一\n\n链接: https://x.test"},
		{Title: "second", URL: "https://x.test/2", Text: "line\twith\ttabs"},
		{Title: `quo"ted`, URL: "https://x.test/3", Text: "emoji 🚀 content"},
	}
	writeRecords(t, recordsDir, records)

	last, err := w.Write()
	if err != nil {
		t.Fatalf("Write() 失败: %v", err)
	}

	got := readBatch(t, last)
	if !reflect.DeepEqual(got, records) {
		t.Errorf("往返结果不一致:\ngot=%+v\nwant=%+v", got, records)
	}
}

func TestWrite_无记录返回空路径(t *testing.T) {
	w, _ := newTestWriter(t, models.OutputConfig{FileName: "data.json"}, nil)

	last, err := w.Write()
	if err != nil {
		t.Fatalf("Write() 失败: %v", err)
	}
	if last != "" {
		t.Errorf("空输入应返回空路径, 实际: %s", last)
	}

	entries, err := os.ReadDir(w.outputDir)
	if err != nil {
		t.Fatalf("读取输出目录失败: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("空输入不应产生输出文件: %v", entries)
	}
}

func TestWrite_字节触发落盘不重置token估算(t *testing.T) {
	// 字节落盘与token落盘相互独立: 字节触发的落盘只清空批次和字节计数
	tokensSeen := 0
	w, recordsDir := newTestWriter(t, models.OutputConfig{
		FileName:      "data.json",
		MaxFileSizeMB: 1,
		MaxTokens:     math.MaxInt / 2, // 实际不触发token落盘
	}, func(text string, ceiling int) (int, bool) {
		tokensSeen++
		return 7, true
	})

	text := strings.Repeat("b", 600*1024)
	writeRecords(t, recordsDir, []models.PageRecord{
		{Title: "a", URL: "https://x.test/a", Text: text},
		{Title: "b", URL: "https://x.test/b", Text: text},
		{Title: "c", URL: "https://x.test/c", Text: text},
	})

	if _, err := w.Write(); err != nil {
		t.Fatalf("Write() 失败: %v", err)
	}

	// 0.6MB×3,上限1MB → 每条一个文件
	for i := 1; i <= 3; i++ {
		batch := readBatch(t, filepath.Join(w.outputDir, fmt.Sprintf("data-%d.json", i)))
		if len(batch) != 1 {
			t.Errorf("文件%d记录数 = %d, want 1", i, len(batch))
		}
	}
	if tokensSeen != 3 {
		t.Errorf("token计数调用次数 = %d, want 3", tokensSeen)
	}
}
