// Package process looks up running executables by name.
package process

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"
)

// TeamsExecutables are the process names of the Teams desktop clients.
//
//nolint:gochecknoglobals // Read-only lookup table.
var TeamsExecutables = []string{"Teams.exe", "ms-teams.exe", "teams", "MSTeams"}

// Running reports whether any process matches one of names.
// Matching ignores case and a trailing ".exe".
func Running(names ...string) (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[normalize(name)] = struct{}{}
	}

	for _, p := range processList {
		if _, ok := wanted[normalize(p.Executable())]; ok {
			return true, nil
		}
	}

	return false, nil
}

func normalize(name string) string {
	name = strings.ToLower(filepath.Base(name))

	return strings.TrimSuffix(name, ".exe")
}
