package weapon

import "fmt"

// Type identifies a weapon. Shield only ever appears on pickups.
type Type int

const (
	None    Type = iota // empty slot
	Blaster             // single straight shot
	Spread              // three shots fanned ±10°
	Phaser              // straight shot; wave motion not implemented
	Missile             // slower straight shot; homing not implemented
	Laser               // straight shot; beam damage not implemented
	Shield              // raises shield level, never fires
	Nuke                // straight shot; the pickup destroys all enemies
)

// Types lists every weapon type in declaration order
var Types = []Type{None, Blaster, Spread, Phaser, Missile, Laser, Shield, Nuke}

var typeNames = [...]string{"none", "blaster", "spread", "phaser", "missile", "laser", "shield", "nuke"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Fires reports whether a slot of this type can shoot
func (t Type) Fires() bool {
	return t != None && t != Shield && t.Valid()
}

// Valid reports whether t is one of the declared types
func (t Type) Valid() bool {
	return t >= None && t <= Nuke
}

// ParseType converts a lowercase name into a Type
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), nil
		}
	}
	return None, fmt.Errorf("unknown weapon type %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid weapon type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
