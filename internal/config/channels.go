package config

import (
	"epgmerge/internal/epg"
)

// Mapping is the resolved mapping of one feed channel.
type Mapping struct {
	FeedID  string
	Targets []string
	Policy  epg.Policy
}

// Mappings is the channel mapping table of one pass. Policies may be changed
// during the pass (append is disabled when it proves unsafe) without touching
// the Config.
type Mappings struct {
	byFeed map[string]*Mapping
	order  []*Mapping
}

// Mappings builds a fresh mapping table from the configured channels.
func (c *Config) Mappings() *Mappings {
	m := &Mappings{byFeed: make(map[string]*Mapping, len(c.Channels))}
	for _, ch := range c.Channels {
		mapping := &Mapping{
			FeedID:  ch.FeedID,
			Targets: append([]string(nil), ch.Targets...),
			Policy:  ch.Policy,
		}
		m.byFeed[ch.FeedID] = mapping
		m.order = append(m.order, mapping)
	}
	return m
}

// Lookup returns the mapping of a feed channel.
func (m *Mappings) Lookup(feedID string) (*Mapping, bool) {
	if m == nil {
		return nil, false
	}
	mapping, ok := m.byFeed[feedID]
	return mapping, ok
}

// ForTarget returns the mappings that feed targetID, in configuration order.
func (m *Mappings) ForTarget(targetID string) []*Mapping {
	if m == nil {
		return nil
	}
	var out []*Mapping
	for _, mapping := range m.order {
		for _, target := range mapping.Targets {
			if target == targetID {
				out = append(out, mapping)
				break
			}
		}
	}
	return out
}

// All returns every mapping in configuration order.
func (m *Mappings) All() []*Mapping {
	if m == nil {
		return nil
	}
	return m.order
}

// LabelLookup returns the display labels as a lookup.
func (c *Config) LabelLookup() epg.Labels {
	labels := make(epg.Labels, len(c.Labels))
	for k, v := range c.Labels {
		labels[k] = v
	}
	return labels
}
