package sources_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"birdwatch/internal/etl"
	_ "birdwatch/internal/etl/sources"
)

func readAll(t *testing.T, typ string, cfg etl.SourceConfig) ([]etl.Record, error) {
	t.Helper()
	src, err := etl.GetSource(typ)
	if err != nil {
		t.Fatal(err)
	}
	recCh, errCh := src.Read(context.Background(), cfg)
	var out []etl.Record
	for rec := range recCh {
		out = append(out, rec)
	}
	return out, <-errCh
}

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCSVFile_KeepsCellsAsStrings(t *testing.T) {
	path := write(t, "in.csv", "name;latitude;country\nGrackle;30.26715;NO\n1984;;no\n")
	recs, err := readAll(t, "csv_file", etl.SourceConfig{"filePath": path, "delimiter": ";"})
	if err != nil {
		t.Fatal(err)
	}
	want := []map[string]any{
		{"name": "Grackle", "latitude": "30.26715", "country": "NO"},
		{"name": "1984", "latitude": nil, "country": "no"},
	}
	if len(recs) != len(want) {
		t.Fatalf("got %d records", len(recs))
	}
	for i := range want {
		if !reflect.DeepEqual(recs[i].Data, want[i]) {
			t.Errorf("record %d = %v, want %v", i, recs[i].Data, want[i])
		}
	}
}

func TestCSVFile_NoHeader(t *testing.T) {
	path := write(t, "in.csv", "a,1\n")
	recs, err := readAll(t, "csv_file", etl.SourceConfig{"filePath": path, "hasHeader": "false"})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Data["col_1"] != "a" || recs[0].Data["col_2"] != "1" {
		t.Errorf("unexpected records: %v", recs)
	}
}

func TestJSONFile_DataPath(t *testing.T) {
	path := write(t, "in.json", `{"data": {"items": [{"name": "Grackle"}, {"name": "Dove"}]}}`)
	recs, err := readAll(t, "json_file", etl.SourceConfig{"filePath": path, "dataPath": "data.items"})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[1].Data["name"] != "Dove" {
		t.Errorf("unexpected records: %v", recs)
	}

	if _, err := readAll(t, "json_file", etl.SourceConfig{"filePath": write(t, "bad.json", `[1, 2]`)}); err == nil {
		t.Error("expected error for non-object items")
	}
}

func TestSourceForExtension(t *testing.T) {
	for ext, typ := range map[string]string{".csv": "csv_file", ".json": "json_file"} {
		src, err := etl.SourceForExtension(ext)
		if err != nil || src.Spec().Type != typ {
			t.Errorf("%s: got %v, %v", ext, src, err)
		}
	}
	if _, err := etl.SourceForExtension(".xml"); err == nil {
		t.Error("expected error for .xml")
	}
}
