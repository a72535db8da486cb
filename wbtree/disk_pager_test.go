package wbtree

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"SamplingDB/types"
)

// TestDiskPagerBasicOperations tests allocate, write, read and reopen
func TestDiskPagerBasicOperations(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "test_index.idx")

	pager, err := NewOnDiskPager(indexPath, 0)
	if err != nil {
		t.Fatalf("Failed to create disk pager: %v", err)
	}

	pageID, err := pager.AllocatePage()
	if err != nil {
		t.Fatalf("Failed to allocate page: %v", err)
	}
	if pageID != 1 {
		t.Errorf("Expected first page ID to be 1, got %d", pageID)
	}

	testData := make([]byte, types.PageSize)
	copy(testData, []byte("Hello, Disk Pager!"))
	if err := pager.WritePage(pageID, testData); err != nil {
		t.Fatalf("Failed to write page: %v", err)
	}

	readData, err := pager.ReadPage(pageID)
	if err != nil {
		t.Fatalf("Failed to read page: %v", err)
	}
	if !bytes.Equal(testData, readData) {
		t.Errorf("Data mismatch: expected %q, got %q", string(testData[:20]), string(readData[:20]))
	}

	pageID2, err := pager.AllocatePage()
	if err != nil {
		t.Fatalf("Failed to allocate second page: %v", err)
	}
	if pageID2 != 2 {
		t.Errorf("Expected second page ID to be 2, got %d", pageID2)
	}

	if err := pager.Close(); err != nil {
		t.Fatalf("Failed to close pager: %v", err)
	}

	// reopen and read back
	pager, err = NewOnDiskPager(indexPath, 0)
	if err != nil {
		t.Fatalf("Failed to reopen disk pager: %v", err)
	}
	defer pager.Close()

	if pager.TotalPages() != 3 {
		t.Errorf("Expected 3 pages after reopen, got %d", pager.TotalPages())
	}
	readData, err = pager.ReadPage(pageID)
	if err != nil {
		t.Fatalf("Failed to read page after reopen: %v", err)
	}
	if !bytes.Equal(testData, readData) {
		t.Errorf("Data mismatch after reopen")
	}
}

// TestDiskPagerErrors tests reads past the end, bad sizes and closed pagers
func TestDiskPagerErrors(t *testing.T) {
	pager, err := NewOnDiskPager(filepath.Join(t.TempDir(), "err.idx"), 512)
	if err != nil {
		t.Fatalf("Failed to create disk pager: %v", err)
	}

	if _, err := pager.ReadPage(40); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound reading past the end, got %v", err)
	}
	if err := pager.WritePage(1, make([]byte, 100)); err == nil {
		t.Errorf("Expected error writing a short page")
	}

	pager.Close()
	if _, err := pager.ReadPage(1); !errors.Is(err, ErrPagerClosed) {
		t.Errorf("Expected ErrPagerClosed, got %v", err)
	}
	if _, err := pager.AllocatePage(); !errors.Is(err, ErrPagerClosed) {
		t.Errorf("Expected ErrPagerClosed, got %v", err)
	}
}

// TestInMemoryPager tests the in-memory pager contract
func TestInMemoryPager(t *testing.T) {
	pager := NewInMemoryPagerSize(256)

	id, err := pager.AllocatePage()
	if err != nil || id != 1 {
		t.Fatalf("Expected page 1, got %d (%v)", id, err)
	}

	data := make([]byte, 256)
	data[0] = 7
	if err := pager.WritePage(id, data); err != nil {
		t.Fatalf("Failed to write page: %v", err)
	}
	data[0] = 9 // must not leak into the stored page

	got, err := pager.ReadPage(id)
	if err != nil {
		t.Fatalf("Failed to read page: %v", err)
	}
	if got[0] != 7 {
		t.Errorf("Expected stored byte 7, got %d", got[0])
	}

	if err := pager.DeallocatePage(id); err != nil {
		t.Fatalf("Failed to free page: %v", err)
	}
	if _, err := pager.ReadPage(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after free, got %v", err)
	}

	pager.Close()
	if err := pager.Sync(); !errors.Is(err, ErrPagerClosed) {
		t.Errorf("Expected ErrPagerClosed, got %v", err)
	}
}
