package conversation

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wolfman30/frontdesk/configs"
	"gopkg.in/yaml.v3"
)

// KnowledgeBase is the business reference the model quotes from. Raw keeps
// the original YAML text, which is what the model sees.
type KnowledgeBase struct {
	Raw      string        `yaml:"-"`
	Business BusinessInfo  `yaml:"business"`
	Services []ServiceInfo `yaml:"services"`
	FAQs     []FAQ         `yaml:"faqs"`
}

type BusinessInfo struct {
	Name        string      `yaml:"name"`
	Phone       string      `yaml:"phone"`
	Hours       string      `yaml:"hours"`
	ServiceArea ServiceArea `yaml:"service_area"`
}

type ServiceArea struct {
	City        string   `yaml:"city"`
	RadiusMiles int      `yaml:"radius_miles"`
	ZIPPrefixes []string `yaml:"zip_prefixes"`
	Notes       string   `yaml:"notes"`
}

type ServiceInfo struct {
	Name            string                `yaml:"name"`
	Description     string                `yaml:"description"`
	DurationMinutes int                   `yaml:"duration_minutes"`
	Prices          map[string]PriceRange `yaml:"prices"`
}

type PriceRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Midpoint is the single revenue estimate used for a booked job.
func (p PriceRange) Midpoint() float64 {
	return (p.Min + p.Max) / 2
}

type FAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// ParseKnowledgeBase decodes and sanity-checks a knowledge base document.
func ParseKnowledgeBase(raw string) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := yaml.Unmarshal([]byte(raw), &kb); err != nil {
		return nil, fmt.Errorf("conversation: parse knowledge base: %w", err)
	}
	if len(kb.Services) == 0 {
		return nil, errors.New("conversation: knowledge base lists no services")
	}
	for i, svc := range kb.Services {
		if strings.TrimSpace(svc.Name) == "" {
			return nil, fmt.Errorf("conversation: knowledge base service %d has no name", i)
		}
		for vehicle, price := range svc.Prices {
			if price.Min < 0 || price.Max < price.Min {
				return nil, fmt.Errorf("conversation: %s price for %s is not a valid range", svc.Name, vehicle)
			}
		}
	}
	kb.Raw = strings.TrimSpace(raw)
	return &kb, nil
}

// LoadKnowledgeBase reads path, or the embedded default when path is empty.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	raw, err := readOrDefault(path, configs.KnowledgeBase)
	if err != nil {
		return nil, err
	}
	return ParseKnowledgeBase(raw)
}

// LoadPrompt reads the persona prompt, or the embedded default when path is empty.
func LoadPrompt(path string) (string, error) {
	raw, err := readOrDefault(path, configs.Prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("conversation: prompt is empty")
	}
	return strings.TrimSpace(raw), nil
}

func readOrDefault(path, fallback string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("conversation: read %s: %w", path, err)
	}
	return string(data), nil
}

// ServiceNames lists service names in knowledge base order.
func (kb *KnowledgeBase) ServiceNames() []string {
	names := make([]string, 0, len(kb.Services))
	for _, svc := range kb.Services {
		names = append(names, svc.Name)
	}
	return names
}
