package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roadwise/hoswatch/internal/model"
)

// ruleFile is the on-disk YAML shape of a rule-content file.
type ruleFile struct {
	Rules []model.Rule `yaml:"rules"`
}

// LoadRules reads a rule-content YAML file. A missing file falls back to
// the bundled defaults; invalid YAML or rules failing validation return an
// error. Rules default to active unless the file marks them inactive.
func LoadRules(path string) ([]model.Rule, error) {
	rules, _, err := LoadRulesWithHash(path)
	return rules, err
}

// LoadRulesWithHash loads rules and returns the SHA-256 of the raw file
// bytes. The hash lets sync short-circuit when content has not changed.
// When the bundled defaults are used the hash is the SHA-256 of empty
// input, which is stable across runs.
func LoadRulesWithHash(path string) ([]model.Rule, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256(nil)
			return DefaultRules(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("read rule file: %w", err)
	}

	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parse rule file: %w", err)
	}

	for i := range f.Rules {
		if f.Rules[i].ID == "" {
			return nil, "", fmt.Errorf("%w: rule %d has no ID", model.ErrInvalidRule, i)
		}
		if !f.Rules[i].HasRequiredParams() {
			return nil, "", fmt.Errorf("%w: rule %s missing required params",
				model.ErrInvalidRule, f.Rules[i].ID)
		}
	}

	h := sha256.Sum256(data)
	return f.Rules, "sha256:" + hex.EncodeToString(h[:]), nil
}
