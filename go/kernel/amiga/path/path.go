// Package path maps AmigaDOS path names ("vol:dir/file") onto host paths.
package path

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lunixbochs/fvbommel-util/sortorder"
	"github.com/pkg/errors"
)

// Translator resolves guest paths against a set of volumes and a
// current directory. Volume names and path components match case-insensitively.
type Translator struct {
	volumes map[string]string
	cwdVol  string
	cwd     []string
}

func New(volumes map[string]string, cwd string) (*Translator, error) {
	t := &Translator{volumes: make(map[string]string)}
	for name, dir := range volumes {
		if err := t.AddVolume(name, dir); err != nil {
			return nil, err
		}
	}
	if err := t.Chdir(cwd); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Translator) AddVolume(name, dir string) error {
	name = strings.TrimSuffix(name, ":")
	if name == "" || strings.ContainsAny(name, ":/") {
		return errors.Errorf("invalid volume name %q", name)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, "volume %s", name)
	}
	t.volumes[strings.ToLower(name)] = abs
	return nil
}

// Volumes lists volume names in natural order.
func (t *Translator) Volumes() []string {
	names := make([]string, 0, len(t.volumes))
	for name := range t.volumes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return sortorder.NaturalLess(names[i], names[j]) })
	return names
}

func (t *Translator) VolumePath(name string) (string, bool) {
	dir, ok := t.volumes[strings.ToLower(strings.TrimSuffix(name, ":"))]
	return dir, ok
}

// Chdir sets the current directory. It must be absolute ("vol:dir").
func (t *Translator) Chdir(amiPath string) error {
	if !strings.Contains(amiPath, ":") {
		return errors.Errorf("current dir %q has no volume", amiPath)
	}
	vol, parts, ok := t.resolve(amiPath)
	if !ok {
		return errors.Errorf("current dir %q does not resolve", amiPath)
	}
	t.cwdVol, t.cwd = vol, parts
	return nil
}

// Cwd returns the current directory in "vol:dir" form.
func (t *Translator) Cwd() string {
	return t.cwdVol + ":" + strings.Join(t.cwd, "/")
}

// resolve splits amiPath into a volume and a clean component list.
func (t *Translator) resolve(amiPath string) (string, []string, bool) {
	var vol string
	var parts []string
	rest := amiPath
	if i := strings.IndexByte(amiPath, ':'); i >= 0 {
		vol = strings.ToLower(amiPath[:i])
		rest = amiPath[i+1:]
		if vol == "" {
			vol = t.cwdVol
		}
		if _, ok := t.volumes[vol]; !ok {
			return "", nil, false
		}
		if strings.Contains(rest, ":") {
			return "", nil, false
		}
	} else {
		vol = t.cwdVol
		parts = append(parts, t.cwd...)
	}
	if rest == "" {
		return vol, parts, true
	}
	comps := strings.Split(rest, "/")
	// a trailing slash names the directory itself
	if len(comps) > 1 && comps[len(comps)-1] == "" {
		comps = comps[:len(comps)-1]
	}
	for _, c := range comps {
		switch c {
		case "":
			if len(parts) == 0 {
				return "", nil, false
			}
			parts = parts[:len(parts)-1]
		case ".", "..":
			return "", nil, false
		default:
			parts = append(parts, c)
		}
	}
	return vol, parts, true
}

// AmiToSysPath translates a guest path. It fails for unknown volumes,
// paths climbing above a volume root and host-only names like "..".
func (t *Translator) AmiToSysPath(amiPath string) (string, bool) {
	vol, parts, ok := t.resolve(amiPath)
	if !ok {
		return "", false
	}
	sysPath := t.volumes[vol]
	for _, c := range parts {
		sysPath = filepath.Join(sysPath, matchCase(sysPath, c))
	}
	return sysPath, true
}

// matchCase returns the existing entry of dir equal to name ignoring case,
// or name itself.
func matchCase(dir, name string) string {
	if _, err := os.Lstat(filepath.Join(dir, name)); err == nil {
		return name
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return name
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name(), name) {
			return e.Name()
		}
	}
	return name
}
