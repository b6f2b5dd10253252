package debuglog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFormat(t *testing.T) {
	at := time.Date(2014, 3, 29, 13, 4, 5, 0, time.UTC)
	got := Format(at, "hello")
	want := "[2014-03-29 13:04:05] " + strings.Repeat("=", 80) + "\nhello\n\n"
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Format() wrong result (-got+want):\n%s", diff)
	}
}

func TestWriteAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	at := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	l := New(path)
	l.now = func() time.Time { return at }

	for _, msg := range []string{"one", "two"} {
		if err := l.Write(msg); err != nil {
			t.Fatalf("Write(%q) got err: %v", msg, err)
		}
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Format(at, "one") + Format(at, "two")
	if diff := cmp.Diff(string(bs), want); diff != "" {
		t.Errorf("log contents wrong (-got+want):\n%s", diff)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm&0o600 != 0o600 {
		t.Errorf("log file mode = %v, want owner read/write", perm)
	}
}

func TestNoPath(t *testing.T) {
	var l Logger
	if err := l.Write("x"); !errors.Is(err, ErrNoPath) {
		t.Errorf("zero Logger Write() err = %v, want ErrNoPath", err)
	}
	if err := Write("", "x"); !errors.Is(err, ErrNoPath) {
		t.Errorf("Write(\"\") err = %v, want ErrNoPath", err)
	}

	path := filepath.Join(t.TempDir(), "later.log")
	l.SetPath(path)
	if got := l.Path(); got != path {
		t.Errorf("Path() = %q, want %q", got, path)
	}
	if err := l.Write("x"); err != nil {
		t.Errorf("Write() after SetPath got err: %v", err)
	}
}

func TestWriteBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "debug.log")
	if err := Write(path, "x"); err == nil {
		t.Error("Write() to a missing directory succeeded")
	}
}

func TestConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	l := New(path)

	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Write("record"); err != nil {
				t.Errorf("Write() got err: %v", err)
			}
		}()
	}
	wg.Wait()

	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(bs), "\nrecord\n\n"); got != n {
		t.Errorf("found %d whole records, want %d", got, n)
	}
}
