// Package config loads and caches the declarative workflow configuration
// that drives the status validator and cascade engine. The
// configuration file lives at <working_dir>/.taskorchestrator/config.yaml;
// when it is missing or fails to parse, the built-in default configuration
// is used instead and the failure is logged, never raised.
package config

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigDirName is the directory, relative to the working directory, that
// holds the configuration file.
const ConfigDirName = ".taskorchestrator"

// ConfigFileName is the configuration file's name within ConfigDirName.
const ConfigFileName = "config.yaml"

// cacheTTL bounds how long a loaded configuration is reused before the
// loader re-reads the file, even if the working directory has not
// changed.
const cacheTTL = 30 * time.Second

// ProgressionSpec describes the ordered status flows for one entity type:
// a default flow, any number of named alternative flows, tag-based
// mappings selecting among them, the terminal statuses, and the
// emergency transitions that bypass flow sequencing.
type ProgressionSpec struct {
	DefaultFlow          []string            `yaml:"default_flow" mapstructure:"default_flow"`
	NamedFlows           map[string][]string `yaml:"-" mapstructure:"-"`
	FlowMappings         []FlowMapping       `yaml:"flow_mappings" mapstructure:"flow_mappings"`
	TerminalStatuses     []string            `yaml:"terminal_statuses" mapstructure:"terminal_statuses"`
	EmergencyTransitions []string            `yaml:"emergency_transitions" mapstructure:"emergency_transitions"`

	// rawFlows is not populated by any decoder: UnmarshalYAML collects the
	// "<name>_flow" keys straight into NamedFlows, since "<name>_flow" is
	// not a fixed field name.
	rawFlows map[string][]string `yaml:"-" mapstructure:"-"`
}

// FlowMapping selects a named flow when an entity's tags intersect Tags;
// the first matching entry in ProgressionSpec.FlowMappings wins.
type FlowMapping struct {
	Tags []string `yaml:"tags" mapstructure:"tags"`
	Flow string   `yaml:"flow" mapstructure:"flow"`
}

// UnmarshalYAML implements custom decoding so that arbitrary "<name>_flow"
// keys (e.g. "hotfix_flow", "docs_flow") are captured into NamedFlows
// alongside the fixed fields, without requiring the configuration author
// to enumerate flow names anywhere else.
func (p *ProgressionSpec) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := value.Decode(&raw); err != nil {
		return err
	}

	p.NamedFlows = make(map[string][]string)
	for key, node := range raw {
		switch key {
		case "default_flow":
			if err := node.Decode(&p.DefaultFlow); err != nil {
				return err
			}
		case "flow_mappings":
			if err := node.Decode(&p.FlowMappings); err != nil {
				return err
			}
		case "terminal_statuses":
			if err := node.Decode(&p.TerminalStatuses); err != nil {
				return err
			}
		case "emergency_transitions":
			if err := node.Decode(&p.EmergencyTransitions); err != nil {
				return err
			}
		default:
			if len(key) > len("_flow") && key[len(key)-len("_flow"):] == "_flow" {
				var flow []string
				if err := node.Decode(&flow); err != nil {
					return err
				}
				name := key[:len(key)-len("_flow")]
				p.NamedFlows[name] = flow
			}
		}
	}
	return nil
}

// AllowedStatuses returns the derived union of every flow value, every
// emergency transition, and every terminal status.
func (p *ProgressionSpec) AllowedStatuses() map[string]bool {
	allowed := make(map[string]bool)
	add := func(statuses []string) {
		for _, s := range statuses {
			allowed[s] = true
		}
	}
	add(p.DefaultFlow)
	for _, flow := range p.NamedFlows {
		add(flow)
	}
	add(p.EmergencyTransitions)
	add(p.TerminalStatuses)
	return allowed
}

// ActiveFlow returns (flowName, flowSequence) for the given tags: the
// first FlowMappings entry whose Tags set intersects tags, else
// ("default", DefaultFlow).
func (p *ProgressionSpec) ActiveFlow(tags []string) (string, []string) {
	for _, mapping := range p.FlowMappings {
		if tagsIntersect(mapping.Tags, tags) {
			if flow, ok := p.NamedFlows[mapping.Flow]; ok {
				return mapping.Flow, flow
			}
			// Mapping names a flow that does not exist; fall through to
			// the next mapping rather than silently matching nothing.
			continue
		}
	}
	return "default", p.DefaultFlow
}

func tagsIntersect(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if foldEqual(x, y) {
				return true
			}
		}
	}
	return false
}

// IsTerminal reports whether status is one of p's terminal statuses.
func (p *ProgressionSpec) IsTerminal(status string) bool {
	for _, s := range p.TerminalStatuses {
		if foldEqual(s, status) {
			return true
		}
	}
	return false
}

// IsEmergency reports whether status is one of p's emergency transitions.
func (p *ProgressionSpec) IsEmergency(status string) bool {
	for _, s := range p.EmergencyTransitions {
		if foldEqual(s, status) {
			return true
		}
	}
	return false
}

// StatusValidation holds the status_validation toggles.
type StatusValidation struct {
	EnforceSequential     bool `yaml:"enforce_sequential" mapstructure:"enforce_sequential"`
	AllowBackward         bool `yaml:"allow_backward" mapstructure:"allow_backward"`
	AllowEmergency        bool `yaml:"allow_emergency" mapstructure:"allow_emergency"`
	ValidatePrerequisites bool `yaml:"validate_prerequisites" mapstructure:"validate_prerequisites"`
}

// AutoCascade holds the auto_cascade settings.
type AutoCascade struct {
	Enabled  bool `yaml:"enabled" mapstructure:"enabled"`
	MaxDepth int  `yaml:"max_depth" mapstructure:"max_depth"`
}

// StatusProgression groups the three entity types' ProgressionSpecs.
type StatusProgression struct {
	Projects ProgressionSpec `yaml:"projects" mapstructure:"projects"`
	Features ProgressionSpec `yaml:"features" mapstructure:"features"`
	Tasks    ProgressionSpec `yaml:"tasks" mapstructure:"tasks"`
}

// Config is the fully parsed workflow configuration document.
type Config struct {
	StatusProgression StatusProgression            `yaml:"status_progression" mapstructure:"status_progression"`
	StatusValidation  StatusValidation             `yaml:"status_validation" mapstructure:"status_validation"`
	AutoCascade       AutoCascade                  `yaml:"auto_cascade" mapstructure:"auto_cascade"`
	StatusRoles       map[string]map[string]string `yaml:"status_roles" mapstructure:"status_roles"`

	// Source records where this Config came from, for diagnostics
	// ("config show", logs). Never affects behavior.
	Source string `yaml:"-" mapstructure:"-"`
}

// ProgressionFor returns the ProgressionSpec for the given entity type.
// Unknown types return an empty spec (all statuses invalid).
func (c *Config) ProgressionFor(entityType string) *ProgressionSpec {
	switch entityType {
	case "project", "projects":
		return &c.StatusProgression.Projects
	case "feature", "features":
		return &c.StatusProgression.Features
	case "task", "tasks":
		return &c.StatusProgression.Tasks
	default:
		return &ProgressionSpec{}
	}
}

// RoleOf resolves the role name configured for (entityType, status).
// Returns ("", false) when no mapping exists.
func (c *Config) RoleOf(entityType, status string) (string, bool) {
	types, ok := c.StatusRoles[entityType]
	if !ok {
		return "", false
	}
	for s, role := range types {
		if foldEqual(s, status) {
			return role, true
		}
	}
	return "", false
}

func foldEqual(a, b string) bool {
	return normalizeStatusFallback(a) == normalizeStatusFallback(b)
}

func normalizeStatusFallback(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		out = append(out, r)
	}
	return string(out)
}

// Loader caches a parsed Config keyed by the working directory that
// produced it, invalidating on working-directory change or TTL expiry.
type Loader struct {
	mu        sync.Mutex
	cached    *Config
	cachedDir string
	loadedAt  time.Time
	logger    *log.Logger
}

// NewLoader constructs a Loader. A nil logger defaults to log.Default().
func NewLoader(logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{logger: logger}
}

// Load returns the cached configuration for the current working
// directory, reloading from disk when the cache is stale, the directory
// changed, or this is the first call. It never returns an error: parse
// or read failures fall back to Default() and are logged.
func (l *Loader) Load() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		l.logger.Printf("config: could not determine working directory: %v", err)
		return Default()
	}
	return l.LoadFrom(cwd)
}

// LoadFrom loads (or returns the cached) configuration for an explicit
// working directory, primarily so tests can exercise cache invalidation
// deterministically without calling os.Chdir.
func (l *Loader) LoadFrom(dir string) *Config {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil && l.cachedDir == dir && time.Since(l.loadedAt) < cacheTTL {
		snapshot := *l.cached
		return &snapshot
	}

	cfg := l.read(dir)
	l.cached = cfg
	l.cachedDir = dir
	l.loadedAt = time.Now()

	snapshot := *cfg
	return &snapshot
}

// Invalidate forces the next Load/LoadFrom call to re-read the file.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}

func (l *Loader) read(dir string) *Config {
	path := filepath.Join(dir, ConfigDirName, ConfigFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Printf("config: reading %s: %v; using built-in defaults", path, err)
		}
		return Default()
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		l.logger.Printf("config: parsing %s: %v; using built-in defaults", path, err)
		return Default()
	}

	cfg := Default()
	cfg.applyOverrides(v)

	// viper's mapstructure path does not know about ProgressionSpec's
	// custom "<name>_flow" keys, so re-decode the progression sections
	// with yaml.v3 directly against the raw bytes to pick those up.
	var raw struct {
		StatusProgression StatusProgression `yaml:"status_progression"`
	}
	if err := yaml.Unmarshal(data, &raw); err == nil {
		mergeProgression(&cfg.StatusProgression.Projects, &raw.StatusProgression.Projects)
		mergeProgression(&cfg.StatusProgression.Features, &raw.StatusProgression.Features)
		mergeProgression(&cfg.StatusProgression.Tasks, &raw.StatusProgression.Tasks)
	} else {
		l.logger.Printf("config: decoding flows in %s: %v; flow-name overrides ignored", path, err)
	}

	cfg.Source = path
	return cfg
}

// mergeProgression copies a freshly yaml-decoded ProgressionSpec's fields
// into dst only when the document actually specified them, so that a
// config.yaml overriding only e.g. "tasks" still keeps the built-in
// defaults for "projects" and "features" that dst was initialised with.
func mergeProgression(dst, src *ProgressionSpec) {
	if len(src.DefaultFlow) > 0 {
		dst.DefaultFlow = src.DefaultFlow
	}
	if len(src.NamedFlows) > 0 {
		dst.NamedFlows = src.NamedFlows
	}
	if len(src.FlowMappings) > 0 {
		dst.FlowMappings = src.FlowMappings
	}
	if len(src.TerminalStatuses) > 0 {
		dst.TerminalStatuses = src.TerminalStatuses
	}
	if len(src.EmergencyTransitions) > 0 {
		dst.EmergencyTransitions = src.EmergencyTransitions
	}
}

// applyOverrides copies the non-progression sections of the document onto
// cfg via viper's Unmarshal, leaving fields absent from the document at
// their Default() values.
func (c *Config) applyOverrides(v *viper.Viper) {
	if v.IsSet("status_validation") {
		sv := c.StatusValidation
		if err := v.UnmarshalKey("status_validation", &sv); err == nil {
			c.StatusValidation = sv
		}
	}
	if v.IsSet("auto_cascade") {
		ac := c.AutoCascade
		if err := v.UnmarshalKey("auto_cascade", &ac); err == nil {
			c.AutoCascade = ac
		}
	}
	if v.IsSet("status_roles") {
		var roles map[string]map[string]string
		if err := v.UnmarshalKey("status_roles", &roles); err == nil && len(roles) > 0 {
			c.StatusRoles = roles
		}
	}
}
