// assets/embed.go
//
// Files compiled into the server binary:
//   - rules/*.yaml: bundled rulesets (standard.yaml is the default game).
//   - sql/*.sql: SQLite migrations, applied in lexical order.
package assets

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed rules/*.yaml sql/*.sql
var FS embed.FS

// DefaultRuleset is the name of the ruleset served when none is configured.
const DefaultRuleset = "standard"

// Ruleset returns the raw YAML of a bundled ruleset by name (without extension).
func Ruleset(name string) ([]byte, error) {
	return FS.ReadFile(path.Join("rules", name+".yaml"))
}

// Rulesets lists the names of the bundled rulesets.
func Rulesets() ([]string, error) {
	return listNames("rules", ".yaml")
}

// Migrations lists the migration file paths (inside FS) in apply order.
func Migrations() ([]string, error) {
	names, err := listNames("sql", ".sql")
	if err != nil {
		return nil, err
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = path.Join("sql", n+".sql")
	}
	return out, nil
}

func listNames(dir, ext string) ([]string, error) {
	entries, err := fs.ReadDir(FS, dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(out)
	return out, nil
}
