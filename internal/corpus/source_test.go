package corpus

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zstd"

	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
)

func writeCorpusFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing corpus file: %v", err)
	}
	return path
}

func drain(t *testing.T, src Source) []string {
	t.Helper()
	var docs []string
	for {
		doc, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return docs
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		docs = append(docs, doc)
	}
}

func TestCheckFormat(t *testing.T) {
	for _, format := range []string{FormatRaw, FormatCustom, FormatThePile} {
		if err := CheckFormat(format); err != nil {
			t.Errorf("CheckFormat(%q): %v", format, err)
		}
	}
	if err := CheckFormat("parquet"); !errors.Is(err, apperrors.ErrUnknownFormat) {
		t.Errorf("CheckFormat(parquet) error = %v, want ErrUnknownFormat", err)
	}
}

func TestOpenRejectsUnknownFormat(t *testing.T) {
	path := writeCorpusFile(t, "corpus.txt", "a\n")
	if _, err := Open(path, "parquet", ""); !errors.Is(err, apperrors.ErrUnknownFormat) {
		t.Errorf("Open(parquet) error = %v, want ErrUnknownFormat", err)
	}
}

func TestRawFormat(t *testing.T) {
	path := writeCorpusFile(t, "corpus.txt", "the cat sat on the mat\n\nsecond document here\n")
	src, err := Open(path, FormatRaw, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	got := drain(t, src)
	want := []string{"the cat sat on the mat", "second document here"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("raw documents = %v, want %v", got, want)
	}
}

func TestCustomFormat(t *testing.T) {
	path := writeCorpusFile(t, "corpus.jsonl",
		`{"body":"first doc","meta":"x"}
{"body":"second doc"}
`)
	src, err := Open(path, FormatCustom, "body")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	got := drain(t, src)
	want := []string{"first doc", "second doc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("custom documents = %v, want %v", got, want)
	}
}

func TestCustomFormatDefaultsTextKey(t *testing.T) {
	path := writeCorpusFile(t, "corpus.jsonl", `{"text":"doc via default key"}
`)
	src, err := Open(path, FormatCustom, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	got := drain(t, src)
	if len(got) != 1 || got[0] != "doc via default key" {
		t.Errorf("documents = %v", got)
	}
}

func TestCustomFormatSkipsMalformedRecords(t *testing.T) {
	path := writeCorpusFile(t, "corpus.jsonl",
		`{"text":"good one"}
not json at all
{"text":42}
{"other":"field"}
{"text":"good two"}
`)
	src, err := Open(path, FormatCustom, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	got := drain(t, src)
	want := []string{"good one", "good two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("documents = %v, want %v", got, want)
	}
	ls, ok := src.(*lineSource)
	if !ok {
		t.Fatalf("source type = %T", src)
	}
	if ls.Skipped() != 3 {
		t.Errorf("Skipped = %d, want 3", ls.Skipped())
	}
}

func TestThePileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl.zst")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating file: %v", err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	payload := `{"text":"pile doc one","meta":{"pile_set_name":"Github"}}
{"text":"pile doc two","meta":{"pile_set_name":"Wikipedia (en)"}}
`
	if _, err := zw.Write([]byte(payload)); err != nil {
		t.Fatalf("writing zstd payload: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zstd writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing file: %v", err)
	}

	src, err := Open(path, FormatThePile, "ignored")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	got := drain(t, src)
	want := []string{"pile doc one", "pile doc two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pile documents = %v, want %v", got, want)
	}
}

func TestNextHonorsContext(t *testing.T) {
	path := writeCorpusFile(t, "corpus.txt", "a\nb\n")
	src, err := Open(path, FormatRaw, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestExpandFile(t *testing.T) {
	path := writeCorpusFile(t, "corpus.txt", "a\n")
	files, err := Expand(path)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if !reflect.DeepEqual(files, []string{path}) {
		t.Errorf("Expand(file) = %v", files)
	}
}

func TestExpandDirectoryRecursiveSorted(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "shard")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "a.txt"),
		filepath.Join(sub, "c.txt"),
	} {
		if err := os.WriteFile(name, []byte("x\n"), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	files, err := Expand(dir)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(sub, "c.txt"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("Expand(dir) = %v, want %v", files, want)
	}
}

func TestExpandMissingPath(t *testing.T) {
	if _, err := Expand(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expand(missing) returned nil error")
	}
}
