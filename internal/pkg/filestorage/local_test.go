package filestorage

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func multipartHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = part.Write(content)
	_ = w.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestLocalStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, "/uploads", ".png", ".jpg")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	public, err := ls.SaveFile(multipartHeader(t, "me.PNG", []byte("img")), "profiles")
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if !strings.HasPrefix(public, "/uploads/profiles/") || !strings.HasSuffix(public, ".png") {
		t.Fatalf("unexpected public path %q", public)
	}

	physical := filepath.Join(dir, "profiles", filepath.Base(public))
	if _, err := os.Stat(physical); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}

	if err := ls.DeleteFile(public); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := os.Stat(physical); !os.IsNotExist(err) {
		t.Fatalf("file still present after delete")
	}
	if err := ls.DeleteFile(public); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
}

func TestLocalStorageRejectsExtension(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "/uploads", ".png")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if _, err := ls.SaveFile(multipartHeader(t, "script.sh", []byte("#!")), "profiles"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}
