package patterns

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/floodsight/floodsight-engine/internal/models"
)

// BatchStats carries the precomputed aggregates the indicator heuristics
// score against. Computing them once keeps a full catalog scan linear in the
// batch size.
type BatchStats struct {
	Size                int
	HasSources          bool
	UniqueSources       int
	TopSourcePercentage float64
	HasSizes            bool
	MeanSizeBytes       float64
}

// ComputeStats derives BatchStats from a batch.
func ComputeStats(batch models.Batch) BatchStats {
	stats := BatchStats{Size: len(batch)}
	if len(batch) == 0 {
		return stats
	}

	counts := make(map[string]int)
	var totalBytes int64
	sized := 0
	for _, obs := range batch {
		if obs.HasSource() {
			counts[obs.SourceID]++
		}
		if obs.HasSize {
			totalBytes += obs.SizeBytes
			sized++
		}
	}

	if len(counts) > 0 {
		stats.HasSources = true
		stats.UniqueSources = len(counts)
		top := 0
		for _, c := range counts {
			if c > top {
				top = c
			}
		}
		stats.TopSourcePercentage = float64(top) / float64(len(batch)) * 100
	}
	if sized > 0 {
		stats.HasSizes = true
		stats.MeanSizeBytes = float64(totalBytes) / float64(sized)
	}
	return stats
}

// Indicator scores one heuristic signal against batch statistics. The score
// is in [0,1]; applies is false when the indicator has nothing to say about
// the batch (step indicators below their threshold, or the fields they need
// are absent), in which case it is excluded from the confidence mean.
type Indicator func(stats BatchStats) (score float64, applies bool)

// Signature is one named attack pattern: its descriptive metadata, the
// ordered indicators that score it, and the mitigations recommended when it
// matches with confidence.
type Signature struct {
	Name            string
	Description     string
	Characteristics []string
	DetectionRules  []string
	Indicators      []Indicator
	Mitigations     []string
}

// Catalog is a read-only set of signatures, fixed at construction. Tests and
// embedders substitute their own; there is no package-level default state.
type Catalog struct {
	signatures map[string]Signature
	order      []string
}

// NewCatalog builds a catalog from the given signatures, preserving their
// order for deterministic full scans. Later duplicates replace earlier ones.
func NewCatalog(signatures []Signature) *Catalog {
	c := &Catalog{signatures: make(map[string]Signature, len(signatures))}
	for _, sig := range signatures {
		if sig.Name == "" {
			continue
		}
		if _, exists := c.signatures[sig.Name]; !exists {
			c.order = append(c.order, sig.Name)
		}
		c.signatures[sig.Name] = sig
	}
	return c
}

// Get returns the named signature.
func (c *Catalog) Get(name string) (Signature, bool) {
	sig, ok := c.signatures[name]
	return sig, ok
}

// Names lists the catalog's pattern names in scan order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Signatures returns the catalog entries in scan order.
func (c *Catalog) Signatures() []Signature {
	sigs := make([]Signature, 0, len(c.order))
	for _, name := range c.order {
		sigs = append(sigs, c.signatures[name])
	}
	return sigs
}

// DefaultCatalog returns the built-in DoS signature set with the stock
// threshold indicators.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Signature{
		{
			Name:        "syn_flood",
			Description: "TCP SYN flood attack pattern",
			Characteristics: []string{
				"high_syn_ratio",
				"incomplete_connections",
				"rapid_connection_attempts",
			},
			DetectionRules: []string{
				"syn_packet_rate > normal_rate * 10",
				"connection_completion_rate < 0.1",
			},
			Indicators: []Indicator{
				stepIndicator(func(s BatchStats) bool { return s.Size > 1000 }, 0.7),
				func(s BatchStats) (float64, bool) {
					if !s.HasSources {
						return 0, false
					}
					if s.TopSourcePercentage > 30 {
						return 0.8, true
					}
					return 0.3, true
				},
			},
			Mitigations: []string{
				"Enable SYN cookies on servers",
				"Configure SYN flood protection on firewalls",
				"Implement connection rate limiting",
			},
		},
		{
			Name:        "udp_flood",
			Description: "UDP flood attack pattern",
			Characteristics: []string{
				"high_udp_volume",
				"random_ports",
				"small_packet_sizes",
			},
			DetectionRules: []string{
				"udp_packet_rate > normal_rate * 5",
				"port_distribution_entropy > threshold",
			},
			Indicators: []Indicator{
				stepIndicator(func(s BatchStats) bool { return s.Size > 500 }, 0.6),
				func(s BatchStats) (float64, bool) {
					if !s.HasSources {
						return 0, false
					}
					if s.UniqueSources > 100 {
						return 0.7, true
					}
					return 0.4, true
				},
			},
			Mitigations: []string{
				"Implement UDP rate limiting",
				"Configure ingress filtering",
				"Enable UDP flood protection",
			},
		},
		{
			Name:        "http_flood",
			Description: "HTTP flood attack pattern",
			Characteristics: []string{
				"high_request_rate",
				"similar_user_agents",
				"repetitive_requests",
			},
			DetectionRules: []string{
				"http_request_rate > normal_rate * 3",
				"user_agent_diversity < threshold",
			},
			Indicators: []Indicator{
				func(s BatchStats) (float64, bool) {
					switch {
					case s.Size > 2000:
						return 0.8, true
					case s.Size > 800:
						return 0.5, true
					default:
						return 0.2, true
					}
				},
			},
			Mitigations: []string{
				"Enable HTTP request rate limiting",
				"Deploy Web Application Firewall (WAF)",
				"Implement CAPTCHA challenges for suspicious sources",
			},
		},
		{
			Name:        "amplification",
			Description: "DNS/NTP amplification attack",
			Characteristics: []string{
				"spoofed_sources",
				"large_response_packets",
				"specific_query_types",
			},
			DetectionRules: []string{
				"response_size / request_size > 10",
				"source_ip_spoofing_indicators",
			},
			Indicators: []Indicator{
				func(s BatchStats) (float64, bool) {
					if !s.HasSizes {
						return 0, false
					}
					if s.MeanSizeBytes > 1000 {
						return 0.7, true
					}
					return 0.3, true
				},
			},
			Mitigations: []string{
				"Implement BCP38 ingress filtering",
				"Configure response rate limiting on public services",
				"Monitor for source IP spoofing",
			},
		},
	})
}

// stepIndicator contributes a fixed score only when the condition holds;
// otherwise it does not apply at all.
func stepIndicator(condition func(BatchStats) bool, score float64) Indicator {
	return func(s BatchStats) (float64, bool) {
		if condition(s) {
			return score, true
		}
		return 0, false
	}
}

// catalogFile is the YAML root for a catalog override pack.
type catalogFile struct {
	Patterns []catalogEntry `yaml:"patterns"`
}

type catalogEntry struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Characteristics []string `yaml:"characteristics"`
	DetectionRules  []string `yaml:"detection_rules"`
	Mitigations     []string `yaml:"mitigations"`
}

// LoadCatalog returns the default catalog with descriptive metadata and
// mitigation lists overridden from a YAML pack. An empty or missing path
// yields the default catalog unchanged; entries naming unknown patterns are
// ignored because indicators are code, not data.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return catalog, nil
		}
		return nil, err
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	for _, entry := range file.Patterns {
		sig, ok := catalog.signatures[entry.Name]
		if !ok {
			continue
		}
		if entry.Description != "" {
			sig.Description = entry.Description
		}
		if len(entry.Characteristics) > 0 {
			sig.Characteristics = entry.Characteristics
		}
		if len(entry.DetectionRules) > 0 {
			sig.DetectionRules = entry.DetectionRules
		}
		if len(entry.Mitigations) > 0 {
			sig.Mitigations = entry.Mitigations
		}
		catalog.signatures[entry.Name] = sig
	}
	return catalog, nil
}
