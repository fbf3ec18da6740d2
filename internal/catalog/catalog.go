// Package catalog loads normalized card definitions from YAML, compiles
// their rules text into effect clauses and reports per-clause support
// diagnostics.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/riftforge/rift-server-go/internal/game/card"
	"github.com/riftforge/rift-server-go/internal/game/effects"
	"github.com/riftforge/rift-server-go/internal/game/runes"
)

// cardEntry is the YAML shape of one normalized card definition.
type cardEntry struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Cost       string   `yaml:"cost"`
	Might      int      `yaml:"might"`
	PowerValue int      `yaml:"power_value"`
	WinUnits   int      `yaml:"win_units"`
	Domains    []string `yaml:"domains"`
	Tags       []string `yaml:"tags"`
	Keywords   string   `yaml:"keywords"`
	Text       []string `yaml:"text"`
}

type catalogFile struct {
	Cards []cardEntry `yaml:"cards"`
}

// ClauseDiagnostic records the support status of one compiled clause.
type ClauseDiagnostic struct {
	CardID      string
	CardName    string
	ClauseIndex int
	Text        string
	Support     effects.Support
}

// Report summarizes a catalog load.
type Report struct {
	Loaded      int
	Rejected    []string
	Diagnostics []ClauseDiagnostic
}

// UnsupportedCount returns the number of clauses that compiled to no-ops.
func (r *Report) UnsupportedCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Support == effects.SupportUnsupported {
			n++
		}
	}
	return n
}

// Catalog is the loaded, immutable card definition set.
type Catalog struct {
	definitions map[string]*card.Definition
	byName      map[string]*card.Definition
	report      *Report
	logger      *zap.Logger
}

// Load reads a catalog YAML file, compiles every entry and returns the
// catalog plus the diagnostics report. Entries that fail structural
// validation are rejected individually; the load fails only on
// unreadable or malformed input.
func Load(path string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data, logger)
}

// Parse builds a catalog from raw YAML bytes.
func Parse(data []byte, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		definitions: make(map[string]*card.Definition, len(file.Cards)),
		byName:      make(map[string]*card.Definition, len(file.Cards)),
		report:      &Report{},
		logger:      logger,
	}

	for _, entry := range file.Cards {
		def, err := buildDefinition(entry)
		if err != nil {
			c.report.Rejected = append(c.report.Rejected, fmt.Sprintf("%s: %v", entry.ID, err))
			logger.Warn("card definition rejected",
				zap.String("card_id", entry.ID),
				zap.String("card_name", entry.Name),
				zap.Error(err))
			continue
		}
		if _, exists := c.definitions[def.ID]; exists {
			c.report.Rejected = append(c.report.Rejected, fmt.Sprintf("%s: duplicate ID", def.ID))
			continue
		}
		c.definitions[def.ID] = def
		c.byName[strings.ToLower(def.Name)] = def
		c.report.Loaded++

		for i, clause := range def.Clauses {
			diag := ClauseDiagnostic{
				CardID:      def.ID,
				CardName:    def.Name,
				ClauseIndex: i,
				Text:        clause.Text,
				Support:     clause.Support,
			}
			c.report.Diagnostics = append(c.report.Diagnostics, diag)
			if clause.Support == effects.SupportUnsupported {
				logger.Info("clause unsupported, will resolve as no-op",
					zap.String("card_id", def.ID),
					zap.String("card_name", def.Name),
					zap.Int("clause", i),
					zap.String("text", clause.Text))
			}
		}
	}

	logger.Info("catalog loaded",
		zap.Int("cards", c.report.Loaded),
		zap.Int("rejected", len(c.report.Rejected)),
		zap.Int("unsupported_clauses", c.report.UnsupportedCount()))
	return c, nil
}

func buildDefinition(entry cardEntry) (*card.Definition, error) {
	cardType, err := card.ParseType(entry.Type)
	if err != nil {
		return nil, err
	}

	def := &card.Definition{
		ID:         entry.ID,
		Name:       entry.Name,
		Type:       cardType,
		Might:      entry.Might,
		PowerValue: entry.PowerValue,
		WinUnits:   entry.WinUnits,
		Text:       strings.Join(entry.Text, "\n"),
	}

	if entry.Cost != "" {
		cost, err := runes.ParseCost(entry.Cost)
		if err != nil {
			return nil, fmt.Errorf("cost %q: %w", entry.Cost, err)
		}
		def.Cost = cost
	}

	for _, name := range entry.Domains {
		domain, ok := runes.ParseDomain(name)
		if !ok {
			return nil, fmt.Errorf("unknown domain %q", name)
		}
		def.Domains = append(def.Domains, domain)
	}

	for _, tag := range entry.Tags {
		def.Tags = append(def.Tags, strings.ToLower(strings.TrimSpace(tag)))
	}

	keywords, unknown := card.ParseKeywords(entry.Keywords)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown keywords %v", unknown)
	}
	def.Keywords = keywords

	for _, line := range entry.Text {
		// Keyword-only lines double as keyword declarations.
		if ks, unknownInline := card.ParseKeywords(line); len(ks) > 0 && len(unknownInline) == 0 {
			compiled := effects.Compile(line)
			if len(compiled.Ops) == 0 && compiled.Trigger == effects.TriggerNone {
				for k, v := range ks {
					def.Keywords.Add(k, v)
				}
				continue
			}
		}
		def.Clauses = append(def.Clauses, effects.Compile(line))
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Get returns a definition by ID.
func (c *Catalog) Get(id string) (*card.Definition, bool) {
	def, ok := c.definitions[id]
	return def, ok
}

// GetByName returns a definition by name, case-insensitively.
func (c *Catalog) GetByName(name string) (*card.Definition, bool) {
	def, ok := c.byName[strings.ToLower(name)]
	return def, ok
}

// Report returns the load diagnostics.
func (c *Catalog) Report() *Report {
	return c.report
}

// Size returns the number of loaded definitions.
func (c *Catalog) Size() int {
	return len(c.definitions)
}

// IDs returns all definition IDs in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.definitions))
	for id := range c.definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
