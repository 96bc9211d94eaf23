package path

import (
	"os"
	"path/filepath"
	"testing"
)

func newTranslator(t *testing.T) (*Translator, string) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "work", "Docs"), 0755)
	tr, err := New(map[string]string{"Work": filepath.Join(root, "work"), "ram": root}, "work:")
	if err != nil {
		t.Fatal(err)
	}
	return tr, root
}

func TestAmiToSysPath(t *testing.T) {
	tr, root := newTranslator(t)
	work := filepath.Join(root, "work")
	tr.Chdir("work:docs")
	tests := []struct {
		ami string
		sys string
		ok  bool
	}{
		{"work:", work, true},
		{"WORK:foo", filepath.Join(work, "foo"), true},
		{"ram:a/b", filepath.Join(root, "a", "b"), true},
		{"work:docs/readme", filepath.Join(work, "Docs", "readme"), true},
		{"readme", filepath.Join(work, "Docs", "readme"), true},
		{"/other", filepath.Join(work, "other"), true},
		{"a//b", filepath.Join(work, "Docs", "b"), true},
		{"work:docs/", filepath.Join(work, "Docs"), true},
		{":top", filepath.Join(work, "top"), true},
		{"//", "", false},
		{"work:/x", "", false},
		{"nope:x", "", false},
		{"work:a/../b", "", false},
		{"work:./b", "", false},
		{"work:a:b", "", false},
	}
	for _, test := range tests {
		got, ok := tr.AmiToSysPath(test.ami)
		if ok != test.ok || got != test.sys {
			t.Errorf("AmiToSysPath(%q) = %q, %v; want %q, %v", test.ami, got, ok, test.sys, test.ok)
		}
	}
}

func TestChdir(t *testing.T) {
	tr, _ := newTranslator(t)
	if err := tr.Chdir("docs"); err == nil {
		t.Error("relative chdir should fail")
	}
	if err := tr.Chdir("missing:"); err == nil {
		t.Error("chdir to unknown volume should fail")
	}
	if err := tr.Chdir("Work:Docs/sub"); err != nil {
		t.Fatal(err)
	}
	if tr.Cwd() != "work:Docs/sub" {
		t.Errorf("Cwd = %q", tr.Cwd())
	}
}

func TestVolumes(t *testing.T) {
	tr, root := newTranslator(t)
	tr.AddVolume("vol10:", root)
	tr.AddVolume("vol9", root)
	got := tr.Volumes()
	want := []string{"ram", "vol9", "vol10", "work"}
	if len(got) != len(want) {
		t.Fatalf("Volumes = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Volumes = %v, want %v", got, want)
		}
	}
	if err := tr.AddVolume("a/b", root); err == nil {
		t.Error("slash in volume name should fail")
	}
	if dir, ok := tr.VolumePath("RAM:"); !ok || dir != root {
		t.Errorf("VolumePath = %q, %v", dir, ok)
	}
}
