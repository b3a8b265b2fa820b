package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestInitLogger(t *testing.T) {
	tempDir := t.TempDir()

	config := LogConfig{
		Level:      "debug",
		LogDir:     tempDir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	err := InitLogger(config)
	if err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Errorf("日志目录未创建: %s", tempDir)
	}

	Info("测试信息日志")
	Warn("测试警告日志")
	Debug("测试调试日志")

	// 等待日志写入
	time.Sleep(100 * time.Millisecond)

	mainLogPath := filepath.Join(tempDir, "docpack.log")
	if _, err := os.Stat(mainLogPath); os.IsNotExist(err) {
		t.Errorf("主日志文件未创建: %s", mainLogPath)
	}
}

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	config := LogConfig{
		Level:      "info",
		LogDir:     tempDir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   false,
	}

	err := InitLogger(config)
	if err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	Info("信息日志测试")
	Infof("格式化信息日志: %s", "测试")
	Warn("警告日志测试")
	Warnf("格式化警告日志: %d", 123)
	Debug("调试日志测试 - 级别为info时不应写入")
	Debugf("格式化调试日志: %v", true)

	time.Sleep(100 * time.Millisecond)

	mainLogPath := filepath.Join(tempDir, "docpack.log")
	content, err := os.ReadFile(mainLogPath)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}

	if len(content) == 0 {
		t.Error("日志文件为空")
	}
}

func TestErrorLogFiltered(t *testing.T) {
	tempDir := t.TempDir()

	err := InitLogger(LogConfig{
		Level:      "info",
		LogDir:     tempDir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   false,
	})
	if err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	Info("普通信息,不应出现在错误日志中")
	Errorf("错误信息: %s", "磁盘已满")

	time.Sleep(100 * time.Millisecond)

	errorLogPath := filepath.Join(tempDir, "docpack_error.log")
	content, err := os.ReadFile(errorLogPath)
	if err != nil {
		t.Fatalf("读取错误日志文件失败: %v", err)
	}

	if len(content) == 0 {
		t.Error("错误日志文件为空,error级别日志未写入")
	}
}

func TestLevelWriter(t *testing.T) {
	var buf mockWriter
	w := &levelWriter{Writer: &buf, MinLevel: zerolog.ErrorLevel}

	if _, err := w.WriteLevel(zerolog.InfoLevel, []byte("info")); err != nil {
		t.Fatalf("WriteLevel失败: %v", err)
	}
	if buf.written != 0 {
		t.Errorf("info级别不应写入,实际写入 %d 字节", buf.written)
	}

	if _, err := w.WriteLevel(zerolog.ErrorLevel, []byte("error")); err != nil {
		t.Fatalf("WriteLevel失败: %v", err)
	}
	if buf.written != 5 {
		t.Errorf("error级别应写入5字节,实际写入 %d 字节", buf.written)
	}
}

type mockWriter struct {
	written int
}

func (m *mockWriter) Write(p []byte) (int, error) {
	m.written += len(p)
	return len(p), nil
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != "info" {
		t.Errorf("默认日志级别错误: 期望 'info', 得到 '%s'", config.Level)
	}
	if config.LogDir != "logs" {
		t.Errorf("默认日志目录错误: 期望 'logs', 得到 '%s'", config.LogDir)
	}
	if config.MaxSize != 10 {
		t.Errorf("默认最大大小错误: 期望 10, 得到 %d", config.MaxSize)
	}
	if !config.Compress {
		t.Error("默认应该启用压缩")
	}
}
