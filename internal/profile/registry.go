package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a named connection profile resolvable by the profile-managed
// backend. Type selects the dispatch client ("openai" compatible unless
// "anthropic"/"claude").
type Profile struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	BaseURL string `yaml:"base_url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

type Registry struct {
	profiles map[string]*Profile
	order    []string
}

type profilesFile struct {
	Profiles []*Profile `yaml:"profiles"`
}

// LoadRegistry reads the profiles file. A missing file yields an empty
// registry; generation against it fails later with an unconfigured error.
func LoadRegistry(path string) (*Registry, error) {
	r := &Registry{
		profiles: make(map[string]*Profile),
		order:    make([]string, 0),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	var pf profilesFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse profiles file: %w", err)
	}

	for _, p := range pf.Profiles {
		if p == nil || p.Name == "" {
			continue
		}
		if _, exists := r.profiles[p.Name]; !exists {
			r.order = append(r.order, p.Name)
		}
		r.profiles[p.Name] = p
	}

	return r, nil
}

// Get returns the profile with the given name.
func (r *Registry) Get(name string) (*Profile, bool) {
	p, ok := r.profiles[name]
	return p, ok
}

// List returns all profiles in file order.
func (r *Registry) List() []*Profile {
	out := make([]*Profile, 0, len(r.order))
	for _, name := range r.order {
		if p, ok := r.profiles[name]; ok {
			out = append(out, p)
		}
	}
	return out
}
