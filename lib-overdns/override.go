package overdns

import (
	"fmt"
	"net"

	"gopkg.in/yaml.v2"

	"github.com/overdns/overdns/lib-overdns/logger"
)

// OverrideTTL is the TTL of override answers.
//
// The override table carries no TTL column, so every answer derived from
// it gets this fixed value.
const OverrideTTL uint32 = 3600

// OverrideSource is the capability interface of the override store.
//
// Lookup returns nil without error when there is no override for the
// domain. Connectivity problems are reported as an error so that they can
// be logged, but the resolution pipeline treats them the same as a miss.
type OverrideSource interface {
	fmt.Stringer

	Lookup(domain Domain) (Record, error)
	Close() error
}

// OverrideResolver is the pipeline stage backed by an OverrideSource.
type OverrideResolver struct {
	Source OverrideSource
}

// NewOverrideResolver is constructor of OverrideResolver.
func NewOverrideResolver(source OverrideSource) OverrideResolver {
	return OverrideResolver{Source: source}
}

func (or OverrideResolver) String() string {
	return fmt.Sprintf("OverrideResolver[%s]", or.Source)
}

// Resolve writes the override record if one exists for the request.
//
// A failing source degrades to a miss: the error never reaches the
// caller, so the pipeline falls through to the next stage.
func (or OverrideResolver) Resolve(w ResponseWriter, r Request) error {
	record, err := or.Source.Lookup(Domain(r.Name))
	if err != nil {
		logger.Warn("override store unavailable", logger.Fields{
			"source": or.Source.String(),
			"domain": r.Name,
			"error":  err,
		})
		return nil
	}
	if record == nil || record.GetQtype() != r.Qtype {
		return nil
	}

	return w.Add(record)
}

func (or OverrideResolver) RecursionAvailable() bool {
	return false
}

// StaticOverrides is an in-memory OverrideSource.
//
// It backs the optional static override files, and doubles as the test
// substitute for the external stores.
type StaticOverrides struct {
	records map[Domain]Record
}

// NewStaticOverrides is constructor of StaticOverrides.
func NewStaticOverrides(records []Record) (*StaticOverrides, error) {
	so := &StaticOverrides{records: make(map[Domain]Record)}

	for _, r := range records {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		so.records[r.GetName().Normalized()] = r
	}

	return so, nil
}

type staticOverridesConfig struct {
	TTL       *uint32           `yaml:"ttl,omitempty"`
	Addresses map[Domain]net.IP `yaml:"address,omitempty"`
	Cnames    map[Domain]Domain `yaml:"cname,omitempty"`
}

// NewStaticOverridesFromConfig is constructor of StaticOverrides by YAML.
//
// Format is one address or cname per domain:
//
//   ttl: 600
//   address:
//     example.com.: 127.0.0.2
//   cname:
//     www.example.com.: example.com.
func NewStaticOverridesFromConfig(config []byte) (*StaticOverrides, error) {
	var conf staticOverridesConfig
	if err := yaml.Unmarshal(config, &conf); err != nil {
		return nil, err
	}

	ttl := OverrideTTL
	if conf.TTL != nil {
		ttl = *conf.TTL
	}

	records := []Record{}
	for name, ip := range conf.Addresses {
		records = append(records, AddressRecord{Name: name, TTL: ttl, Address: ip})
	}
	for name, target := range conf.Cnames {
		records = append(records, CnameRecord{Name: name, TTL: ttl, Target: target})
	}

	return NewStaticOverrides(records)
}

func (so *StaticOverrides) String() string {
	return fmt.Sprintf("StaticOverrides[%d domains]", len(so.records))
}

func (so *StaticOverrides) Lookup(domain Domain) (Record, error) {
	record, ok := so.records[domain.Normalized()]
	if !ok {
		return nil, nil
	}
	return record, nil
}

func (so *StaticOverrides) Close() error {
	return nil
}
