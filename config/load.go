package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GlobalRootKey is the top-level YAML key a global configuration file is
// loaded under (spec.md §6).
const GlobalRootKey = "txn_box"

// RemapRootKey is the default top-level YAML key a remap rule's
// configuration is loaded under (spec.md §6); a remap line may instead name
// a different key shared by multiple rules in the same file, passed
// explicitly to LoadRemapRule.
const RemapRootKey = "."

// rootValue finds the value node under key among doc's top-level mapping
// pairs. doc must be a *yaml.Node of Kind DocumentNode or MappingNode.
func rootValue(doc *yaml.Node, key string) (*yaml.Node, bool) {
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, false
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, false
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			return root.Content[i+1], true
		}
	}
	return nil, false
}

// parseDocument reads and parses path into a *yaml.Node document, wrapping
// a read failure with the path for the caller's diagnostics.
func parseDocument(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &doc, nil
}

// Load parses path as a global configuration file (root key `txn_box`) and
// builds a *Config: the directive tree run once at load/post-load, sized
// capture-group floor and context storage, and accumulated errata. A
// load-time error returns both the partial errata (for diagnostics) and a
// non-nil error; the caller should not install the result as active.
func Load(path string) (*Config, error) {
	doc, err := parseDocument(path)
	if err != nil {
		return nil, err
	}
	l := newLoader()
	l.mark.File = path

	top, ok := rootValue(doc, GlobalRootKey)
	if !ok {
		return nil, fmt.Errorf("config: %s: missing root key %q", path, GlobalRootKey)
	}
	raw, err := l.decodeNode(top)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	root, err := l.buildDirective(raw)
	if err != nil {
		l.Note(err, "while building directive tree for %s", path)
		return &Config{errata: l.errata}, l.errata.Combined()
	}
	if l.errata.HasErrors() {
		return &Config{errata: l.errata}, l.errata.Combined()
	}
	return &Config{
		arena:         l.arena,
		root:          root,
		captureGroups: l.captureGroups,
		ctxStorage:    l.ctxStorage,
		errata:        l.errata,
	}, nil
}

// LoadAndActivate calls Load and, on success, installs the result as the
// process-wide Active Config.
func LoadAndActivate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	setActive(cfg)
	return cfg, nil
}

// LoadRemapRule parses path as a remap configuration file and builds the
// *RuleConfig found under key (RemapRootKey if key is ""). Per spec.md §7,
// a rule's load failure should leave that rule inert rather than aborting
// the remap line entirely — the caller is expected to treat a non-nil error
// that way (log it and skip installing the rule), not to propagate it as a
// fatal startup error.
func LoadRemapRule(path, key string) (*RuleConfig, error) {
	if key == "" {
		key = RemapRootKey
	}
	doc, err := parseDocument(path)
	if err != nil {
		return nil, err
	}
	l := newLoader()
	l.mark.File = path

	top, ok := rootValue(doc, key)
	if !ok {
		return nil, fmt.Errorf("config: %s: missing root key %q", path, key)
	}
	raw, err := l.decodeNode(top)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	root, err := l.buildDirective(raw)
	if err != nil {
		l.Note(err, "while building rule %q in %s", key, path)
		return nil, l.errata.Combined()
	}
	if l.errata.HasErrors() {
		return nil, l.errata.Combined()
	}
	return &RuleConfig{Pattern: key, root: root}, nil
}
