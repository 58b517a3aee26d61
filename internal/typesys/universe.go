// Package typesys converts between the engine-native, scripting, managed
// and unified type syntaxes and the canonical ir.Type.
//
// Every conversion validates names against a Universe: the set of type
// names registered so far. Names must be registered before they are
// referenced; there are no forward declarations.
package typesys

import (
	"sort"

	"github.com/roach88/apigen/internal/ir"
)

// Category is the kind of a registered type name.
type Category int

const (
	CatBuiltin Category = iota
	CatEnum
	CatEntity
	CatFamily
	CatCompanion
	CatValueType
	CatRefType
)

func (c Category) String() string {
	switch c {
	case CatBuiltin:
		return "builtin"
	case CatEnum:
		return "enum"
	case CatEntity:
		return "entity"
	case CatFamily:
		return "entity family"
	case CatCompanion:
		return "entity companion"
	case CatValueType:
		return "value type"
	case CatRefType:
		return "ref type"
	}
	return "unknown"
}

// Builtins are the canonical scalar names.
var Builtins = []string{
	"int8", "uint8", "int16", "uint16", "int32", "uint32", "int64", "uint64",
	"float32", "float64", "bool", "string", "hstring", "void", "any",
}

type entityClasses struct {
	server string
	client string
}

// Universe is the live set of known type names.
type Universe struct {
	names    map[string]Category
	entities map[string]entityClasses
	classes  map[string]string
	enums    map[string]string
}

// NewUniverse returns a universe holding the builtins and the entity family
// marker.
func NewUniverse() *Universe {
	u := &Universe{
		names:    make(map[string]Category),
		entities: make(map[string]entityClasses),
		classes:  make(map[string]string),
		enums:    make(map[string]string),
	}
	for _, b := range Builtins {
		u.names[b] = CatBuiltin
	}
	u.names[ir.FamilyEntity] = CatFamily
	u.entities[ir.FamilyEntity] = entityClasses{server: "ServerEntity", client: "ClientEntity"}
	u.classes["ServerEntity"] = ir.FamilyEntity
	u.classes["ClientEntity"] = ir.FamilyEntity
	return u
}

// Lookup returns the category of a registered name.
func (u *Universe) Lookup(name string) (Category, bool) {
	c, ok := u.names[name]
	return c, ok
}

// Has reports whether name is registered.
func (u *Universe) Has(name string) bool {
	_, ok := u.names[name]
	return ok
}

func (u *Universe) add(name string, cat Category) error {
	if existing, ok := u.names[name]; ok {
		return &DuplicateTypeError{Name: name, Existing: existing}
	}
	u.names[name] = cat
	return nil
}

// AddEnum registers an enum group.
func (u *Universe) AddEnum(name, underlying string) error {
	if err := u.add(name, CatEnum); err != nil {
		return err
	}
	u.enums[name] = underlying
	return nil
}

// AddEntity registers an entity with its native class names. Both class
// names resolve back to the entity when parsing native pointers.
func (u *Universe) AddEntity(name, serverClass, clientClass string) error {
	if err := u.add(name, CatEntity); err != nil {
		return err
	}
	u.entities[name] = entityClasses{server: serverClass, client: clientClass}
	if serverClass != "" {
		u.classes[serverClass] = name
	}
	if clientClass != "" {
		u.classes[clientClass] = name
	}
	return nil
}

// AddCompanion registers a derived entity type such as ProtoCritter.
func (u *Universe) AddCompanion(name string) error { return u.add(name, CatCompanion) }

// AddValueType registers a flat value object.
func (u *Universe) AddValueType(name string) error { return u.add(name, CatValueType) }

// AddRefType registers a reference-counted object.
func (u *Universe) AddRefType(name string) error { return u.add(name, CatRefType) }

// SetEnumUnderlying updates the underlying scalar of a registered enum.
// Enums assembled from separate tags learn their range only at the end.
func (u *Universe) SetEnumUnderlying(name, underlying string) {
	if u.names[name] == CatEnum {
		u.enums[name] = underlying
	}
}

// EnumUnderlying returns the underlying scalar of an enum group.
func (u *Universe) EnumUnderlying(name string) (string, bool) {
	s, ok := u.enums[name]
	return s, ok
}

// EntityForClass maps a native class name to its entity.
func (u *Universe) EntityForClass(class string) (string, bool) {
	e, ok := u.classes[class]
	return e, ok
}

// ClassFor returns the native class of entity on side. The mapper uses the
// client classes; common code uses the server classes.
func (u *Universe) ClassFor(entity string, side ir.Side) string {
	c, ok := u.entities[entity]
	if !ok {
		return entity
	}
	if side == ir.SideClient || side == ir.SideMapper {
		if c.client != "" {
			return c.client
		}
	}
	if c.server != "" {
		return c.server
	}
	return c.client
}

// Names returns every registered name in sorted order.
func (u *Universe) Names() []string {
	out := make([]string, 0, len(u.names))
	for n := range u.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Named resolves a bare registered name to its canonical variant.
func (u *Universe) Named(name string) (ir.Type, error) {
	cat, ok := u.names[name]
	if !ok {
		return nil, &UnknownTypeError{Name: name}
	}
	switch cat {
	case CatEntity, CatFamily:
		return ir.EntityRef{Entity: name}, nil
	case CatValueType:
		return ir.ValueType{Name: name}, nil
	default:
		return ir.Scalar{Name: name}, nil
	}
}

// category returns the category of a scalar-like canonical name.
func (u *Universe) category(name string) Category {
	return u.names[name]
}
