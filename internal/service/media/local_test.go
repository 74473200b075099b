package media

import (
	"context"
	"io"
	"strings"
	"testing"
)

// ========== LocalStorage 测试 ==========

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir(), "/media/")
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	path, err := storage.Save(ctx, &SaveRequest{
		FileName:    "report.pdf",
		ContentType: "application/pdf",
		Size:        9,
		Reader:      strings.NewReader("some data"),
		UserID:      "user-1",
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasPrefix(path, "user-1/") || !strings.HasSuffix(path, ".pdf") {
		t.Errorf("storage path = %q, want user-scoped path with extension", path)
	}

	reader, err := storage.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if string(content) != "some data" {
		t.Errorf("content = %q", content)
	}

	// URL前缀拼接去掉多余斜杠
	url := storage.GetURL(path)
	if !strings.HasPrefix(url, "/media/user-1/") {
		t.Errorf("url = %q", url)
	}

	if err := storage.Delete(ctx, path); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := storage.Get(ctx, path); err == nil {
		t.Error("Get() succeeded after delete")
	}

	// 重复删除不报错
	if err := storage.Delete(ctx, path); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestLocalStorageInfersExtension(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	path, err := storage.Save(ctx, &SaveRequest{
		FileName:    "noext",
		ContentType: "image/png",
		Reader:      strings.NewReader("png bytes"),
		UserID:      "u",
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasSuffix(path, ".png") {
		t.Errorf("path = %q, want inferred .png extension", path)
	}
}

// ========== extensionByContentType 测试 ==========

func TestExtensionByContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"application/pdf", ".pdf"},
		{"text/plain", ".txt"},
		{"image/jpeg", ".jpg"},
		{"video/mp4", ".mp4"},
		{"application/unknown", ".bin"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := extensionByContentType(tt.contentType); got != tt.want {
				t.Errorf("extensionByContentType(%q) = %q, want %q", tt.contentType, got, tt.want)
			}
		})
	}
}
