package weapon

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"spaceship-shmup/entity"
)

var (
	ErrNoneType      = errors.New("weapon type none has no definition")
	ErrNoDefinition  = errors.New("no weapon definition registered")
	ErrNotEquippable = errors.New("weapon type cannot be equipped")
)

// Definition holds the static configuration of one weapon type
type Definition struct {
	Type              Type         `yaml:"type"`
	Letter            string       `yaml:"letter"`           // shown on the pickup
	Color             entity.Color `yaml:"color"`            // collar and pickup
	Projectile        string       `yaml:"projectile"`       // projectile visual reference
	ProjectileColor   entity.Color `yaml:"projectileColor"`
	DamageOnHit       float64      `yaml:"damageOnHit"`
	ContinuousDamage  float64      `yaml:"continuousDamage"` // per second
	DelayBetweenShots float64      `yaml:"delayBetweenShots"`
	Velocity          float64      `yaml:"velocity"`
}

// Catalog maps weapon types to their definitions. It is immutable once built
// and safe to share between actors and goroutines.
type Catalog struct {
	defs map[Type]Definition
}

type catalogFile struct {
	Weapons []Definition `yaml:"weapons"`
}

//go:embed weapons.yaml
var defaultCatalogYAML []byte

// NewCatalog validates defs and builds a catalog. Every type except none must
// be present exactly once, and firing types need a positive velocity.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[Type]Definition, len(defs))}
	for _, def := range defs {
		if def.Type == None {
			return nil, fmt.Errorf("catalog: %w", ErrNoneType)
		}
		if !def.Type.Valid() {
			return nil, fmt.Errorf("catalog: invalid weapon type %d", int(def.Type))
		}
		if _, dup := c.defs[def.Type]; dup {
			return nil, fmt.Errorf("catalog: duplicate definition for %s", def.Type)
		}
		if def.Type.Fires() && def.Velocity <= 0 {
			return nil, fmt.Errorf("catalog: %s velocity must be > 0, got %g", def.Type, def.Velocity)
		}
		if def.DelayBetweenShots < 0 {
			return nil, fmt.Errorf("catalog: %s delayBetweenShots must be >= 0, got %g", def.Type, def.DelayBetweenShots)
		}
		c.defs[def.Type] = def
	}
	for _, t := range Types {
		if t == None {
			continue
		}
		if _, ok := c.defs[t]; !ok {
			return nil, fmt.Errorf("catalog: %s: %w", t, ErrNoDefinition)
		}
	}
	return c, nil
}

// ParseCatalog decodes a YAML catalog document
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse weapon catalog YAML: %w", err)
	}
	return NewCatalog(f.Weapons)
}

// LoadCatalog reads a YAML catalog from disk
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weapon catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the built-in weapon table
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic("built-in weapon catalog is invalid: " + err.Error())
	}
	return c
}

// Lookup returns the definition for t
func (c *Catalog) Lookup(t Type) (Definition, error) {
	if t == None {
		return Definition{}, ErrNoneType
	}
	def, ok := c.defs[t]
	if !ok {
		return Definition{}, fmt.Errorf("%s: %w", t, ErrNoDefinition)
	}
	return def, nil
}

// Definitions returns all definitions in type order
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, 0, len(c.defs))
	for _, t := range Types {
		if def, ok := c.defs[t]; ok {
			out = append(out, def)
		}
	}
	return out
}

// Marshal encodes the catalog back into its YAML form
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(catalogFile{Weapons: c.Definitions()})
}
