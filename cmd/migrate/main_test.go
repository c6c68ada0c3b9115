package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestVersionFromFile(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"001_init.up.sql", 1, false},
		{"042_add_icons.up.sql", 42, false},
		{"noversion.sql", 0, true},
		{"abc_bad.up.sql", 0, true},
	}
	for _, tc := range cases {
		got, err := versionFromFile(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("versionFromFile(%q) error = nil, want error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("versionFromFile(%q) = %d, %v, want %d", tc.in, got, err, tc.want)
		}
	}
}

func TestUpFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"002_links.up.sql",
		"001_init.up.sql",
		"001_init.down.sql",
		"notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("-- sql"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	got, err := upFiles(dir)
	if err != nil {
		t.Fatalf("upFiles: %v", err)
	}
	want := []string{"001_init.up.sql", "002_links.up.sql"}
	if len(got) != len(want) {
		t.Fatalf("upFiles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("upFiles[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
