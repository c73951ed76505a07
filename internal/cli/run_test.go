package cli

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"binu8-translator/internal/config"
	"binu8-translator/internal/filewalker"
	"binu8-translator/internal/worker"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// buildScript assembles an unversioned container with empty code tables.
func buildScript(strs ...string) []byte {
	var b []byte
	b = append(b, le32(0)...)
	b = append(b, le32(0)...)
	b = append(b, le32(uint32(len(strs)+1))...)
	b = append(b, 1, 2, 3, 4, 5)
	for _, s := range append(strs, "terminal") {
		b = append(b, le32(uint32(len(s)+1))...)
		b = append(b, s...)
		b = append(b, 0)
	}
	return append(b, 0xCA, 0xFE)
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		WorkerCount:   2,
		ScriptExt:     ".binu8",
		ScriptExclude: "__global.binu8",
		LogLevel:      "error",
	}
}

func TestDumpImportScenario(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	src := buildScript("Hello", "World")
	writeFile(t, filepath.Join(scripts, "ch1", "s01.binu8"), src)
	writeFile(t, filepath.Join(scripts, "__global.binu8"), buildScript("global"))

	csvPath := filepath.Join(dir, "strings.csv")
	ctx := context.Background()
	if err := runDump(ctx, testConfig(), scripts, csvPath); err != nil {
		t.Fatalf("dump: %v", err)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := "file,id,original,translation\r\nch1/s01.binu8,0,Hello,\r\nch1/s01.binu8,1,World,\r\n"
	if string(data) != want {
		t.Fatalf("csv:\nwant %q\ngot  %q", want, data)
	}

	translated := strings.Replace(string(data), "0,Hello,", "0,Hello,Bonjour", 1)
	writeFile(t, csvPath, []byte(translated))

	out := filepath.Join(dir, "out")
	if err := runImport(ctx, testConfig(), scripts, csvPath, out); err != nil {
		t.Fatalf("import: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(out, "ch1", "s01.binu8"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if exp := buildScript("Bonjour", "World"); !bytes.Equal(got, exp) {
		t.Fatalf("output:\nwant %x\ngot  %x", exp, got)
	}
	if _, err := os.Stat(filepath.Join(out, "__global.binu8")); !os.IsNotExist(err) {
		t.Fatalf("excluded file should not be written, stat err=%v", err)
	}
}

func TestImportWithoutCSV(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	src := buildScript("line\none", "two")
	writeFile(t, filepath.Join(scripts, "a.binu8"), src)

	out := filepath.Join(dir, "out")
	err := runImport(context.Background(), testConfig(), scripts, filepath.Join(dir, "missing.csv"), out)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(out, "a.binu8"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, src) {
		t.Fatalf("want identical output\nwant %x\ngot  %x", src, got)
	}
}

func TestImportIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	writeFile(t, filepath.Join(scripts, "bad.binu8"), []byte{0x01})
	good := buildScript("ok")
	writeFile(t, filepath.Join(scripts, "good.binu8"), good)

	out := filepath.Join(dir, "out")
	err := runImport(context.Background(), testConfig(), scripts, filepath.Join(dir, "none.csv"), out)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files failed") {
		t.Fatalf("want partial failure, got %v", err)
	}

	got, err := os.ReadFile(filepath.Join(out, "good.binu8"))
	if err != nil {
		t.Fatalf("good file not written: %v", err)
	}
	if !bytes.Equal(got, good) {
		t.Fatalf("good file changed")
	}
}

func TestDumpEscapesNewlines(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	writeFile(t, filepath.Join(scripts, "a.binu8"), buildScript("one\r\ntwo"))

	csvPath := filepath.Join(dir, "strings.csv")
	if err := runDump(context.Background(), testConfig(), scripts, csvPath); err != nil {
		t.Fatalf("dump: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.Contains(string(data), `a.binu8,0,one\r\ntwo,`) {
		t.Fatalf("unexpected csv %q", data)
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.binu8")
	writeFile(t, p, buildScript("Hello", "World"))

	var buf bytes.Buffer
	if err := runInspect(&buf, []string{p}); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"unversioned", "0x8", "Hello"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}

	if err := runInspect(&buf, []string{filepath.Join(dir, "missing.binu8")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRootCommandWiring(t *testing.T) {
	cmd := newRootCmd(testConfig())
	for _, name := range []string{"dump", "import", "inspect"} {
		if c, _, err := cmd.Find([]string{name}); err != nil || c.Name() != name {
			t.Fatalf("subcommand %s not registered: %v", name, err)
		}
	}
}

func TestDumpIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	writeFile(t, filepath.Join(scripts, "bad.binu8"), []byte{0x01})
	writeFile(t, filepath.Join(scripts, "good.binu8"), buildScript("kept"))

	csvPath := filepath.Join(dir, "strings.csv")
	err := runDump(context.Background(), testConfig(), scripts, csvPath)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files failed") {
		t.Fatalf("want partial failure, got %v", err)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.Contains(string(data), "good.binu8,0,kept,") {
		t.Fatalf("good file rows missing from %q", data)
	}
	if strings.Contains(string(data), "bad.binu8") {
		t.Fatalf("bad file should have no rows: %q", data)
	}
}

func TestReportFailuresSkipped(t *testing.T) {
	tasks := []worker.Task[filewalker.FileEntry, string]{
		{Input: filewalker.FileEntry{RelPath: "a.binu8"}, Done: true},
		{Input: filewalker.FileEntry{RelPath: "b.binu8"}},
	}
	err := reportFailures(tasks)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files skipped") {
		t.Fatalf("want skipped error, got %v", err)
	}

	tasks[1].Done = true
	if err := reportFailures(tasks); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
