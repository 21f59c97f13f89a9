package engine

import (
	"fmt"

	"github.com/flemzord/loadout/internal/compiler"
	"github.com/flemzord/loadout/internal/config"
	"github.com/flemzord/loadout/internal/workspace"
)

// Input is the merged compilation input: the sections to pack and the subset
// under integrity monitoring.
type Input struct {
	Sections []compiler.Section
	Critical map[string]bool
}

// LoadInput reads section sources from the workspace and merges per-name
// configuration on top: frontmatter wins for priority, criticality is the
// union of frontmatter flags and the configured list.
func LoadInput(ws *workspace.Workspace, cfg *config.Config) (Input, error) {
	sources, err := workspace.LoadSources(ws.SectionsDir())
	if err != nil {
		return Input{}, fmt.Errorf("engine: load sections: %w", err)
	}

	in := Input{
		Sections: make([]compiler.Section, 0, len(sources)),
		Critical: make(map[string]bool),
	}
	for _, name := range cfg.Sections.Critical {
		in.Critical[name] = true
	}

	for _, src := range sources {
		priority := src.Priority
		if priority == 0 {
			priority = cfg.Sections.Priorities[src.Name]
		}
		in.Sections = append(in.Sections, compiler.Section{
			Name:     src.Name,
			Content:  src.Content,
			Priority: priority,
		})
		if src.Critical {
			in.Critical[src.Name] = true
		}
	}
	return in, nil
}
