package promo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

var ErrUnknownCode = errors.New("unknown promo code")

// Promo is a registration code granting a one-time bonus on the first
// confirmed deposit
type Promo struct {
	Code        string `yaml:"code"`
	Percent     int64  `yaml:"percent"`
	Description string `yaml:"description"`
}

type catalogFile struct {
	PromoCodes []Promo `yaml:"promo_codes"`
}

// Catalog holds the promo codes accepted at sign-up, keyed case-insensitively
type Catalog struct {
	codes map[string]Promo
}

func NewCatalog(promos []Promo) (*Catalog, error) {
	catalog := &Catalog{codes: make(map[string]Promo, len(promos))}
	for i, p := range promos {
		code := normalize(p.Code)
		if code == "" {
			return nil, fmt.Errorf("promo code at index %d missing code", i)
		}
		if p.Percent < 1 || p.Percent > 100 {
			return nil, fmt.Errorf("promo code %s has percent %d outside 1..100", p.Code, p.Percent)
		}
		if _, exists := catalog.codes[code]; exists {
			return nil, fmt.Errorf("promo code %s defined twice", p.Code)
		}
		p.Code = code
		catalog.codes[code] = p
	}
	return catalog, nil
}

// LoadCatalog reads a YAML promo catalog. Relative paths resolve against the
// working directory.
func LoadCatalog(catalogFilePath string) (*Catalog, error) {
	path := catalogFilePath
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, catalogFilePath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", catalogFilePath, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", catalogFilePath, err)
	}

	return NewCatalog(file.PromoCodes)
}

// Lookup resolves a code entered by a user
func (c *Catalog) Lookup(code string) (Promo, error) {
	p, ok := c.codes[normalize(code)]
	if !ok {
		return Promo{}, fmt.Errorf("%w: %s", ErrUnknownCode, code)
	}
	return p, nil
}

func (c *Catalog) Len() int {
	return len(c.codes)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
