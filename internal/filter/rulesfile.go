package filter

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/reflectic/curation-cli/internal/model"
)

// ruleFile is the YAML shape for operator-supplied filter rules. Extra rules
// are appended to the matching built-in family; unknown family names are
// rejected.
//
//	harmful:
//	  - descriptor: crypto scams
//	    severity: high
//	    contains: ["guaranteed returns", "get rich"]
type ruleFile struct {
	Harmful    []fileRule `yaml:"harmful"`
	Bias       []fileRule `yaml:"bias"`
	LowQuality []fileRule `yaml:"low_quality"`
}

type fileRule struct {
	Descriptor string   `yaml:"descriptor"`
	Severity   string   `yaml:"severity"`
	Contains   []string `yaml:"contains"`
}

// LoadFamilies returns the built-in families extended with rules from the
// YAML file at path. An empty path returns the defaults unchanged.
func LoadFamilies(path string) ([]Family, error) {
	families := DefaultFamilies()
	if path == "" {
		return families, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "filter: read rules file %s", path)
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, eris.Wrapf(err, "filter: parse rules file %s", path)
	}

	extend := func(name string, extras []fileRule) error {
		for i := range families {
			if families[i].Name != name {
				continue
			}
			for _, fr := range extras {
				if fr.Descriptor == "" || len(fr.Contains) == 0 {
					return eris.Errorf("filter: rule in family %s missing descriptor or patterns", name)
				}
				if !model.KnownSeverity(fr.Severity) {
					return eris.Errorf("filter: unknown severity %q in family %s", fr.Severity, name)
				}
				families[i].Rules = append(families[i].Rules,
					substringRule(fr.Descriptor, model.Severity(fr.Severity), fr.Contains...))
			}
			return nil
		}
		return eris.Errorf("filter: unknown family %s", name)
	}

	if err := extend("harmful", rf.Harmful); err != nil {
		return nil, err
	}
	if err := extend("bias", rf.Bias); err != nil {
		return nil, err
	}
	if err := extend("low_quality", rf.LowQuality); err != nil {
		return nil, err
	}
	return families, nil
}
