package postgresadapter

import (
	"bytes"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// The upsert column lists must track the model: keys drive conflict
// detection, everything else must be replaced on overwrite.
func TestArchiveUpsertColumnsMatchModel(t *testing.T) {
	keys := make(map[string]bool)
	for _, column := range archiveKeyColumns {
		keys[column.Name] = true
	}
	updates := make(map[string]bool)
	for _, name := range archiveUpdateColumns {
		updates[name] = true
	}

	modelType := reflect.TypeOf(archiveObjectModel{})
	for i := 0; i < modelType.NumField(); i++ {
		tag := modelType.Field(i).Tag.Get("gorm")
		var column string
		for _, part := range strings.Split(tag, ";") {
			if name, ok := strings.CutPrefix(part, "column:"); ok {
				column = name
			}
		}
		if column == "" {
			t.Fatalf("field %s has no column tag", modelType.Field(i).Name)
		}

		primary := strings.Contains(tag, "primaryKey")
		if primary && !keys[column] {
			t.Fatalf("primary key column %q missing from conflict columns", column)
		}
		if !primary && !updates[column] {
			t.Fatalf("column %q would be stale after overwrite", column)
		}
		delete(keys, column)
		delete(updates, column)
	}
	for column := range keys {
		t.Fatalf("conflict column %q not present on the model", column)
	}
	for column := range updates {
		t.Fatalf("update column %q not present on the model", column)
	}
}

func TestGzipBytesRoundTrip(t *testing.T) {
	payload := []byte(`{"id":"abc123","sessions":[{"id":"s1"}]}`)

	compressed, err := gzipBytes(payload)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	reader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("open gzip stream failed: %v", err)
	}
	defer reader.Close()

	restored, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("decompress failed: %v", err)
	}
	if !bytes.Equal(restored, payload) {
		t.Fatalf("round trip mismatch: %s", restored)
	}
}
