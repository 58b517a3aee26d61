package ir

import "sort"

// FamilyEntity is the abstract entity-family marker. Members declared on it
// apply to every concrete entity.
const FamilyEntity = "Entity"

// Param is a named, typed parameter or field.
type Param struct {
	Name string
	Type Type
}

// Entity describes one scriptable entity type.
type Entity struct {
	Name          string
	ServerClass   string
	ClientClass   string
	Global        bool
	HasProtos     bool
	HasStatics    bool
	HasAbstract   bool
	HasTimeEvents bool
	// Abstract is set only for the family marker.
	Abstract bool
	Comment  []string
}

// PropertyEnum is the name of the synthesized property-ordinal enum.
func (e *Entity) PropertyEnum() string { return e.Name + "Property" }

// Companions lists the derived type names registered with the entity.
func (e *Entity) Companions() []string {
	var out []string
	if e.HasProtos {
		out = append(out, "Proto"+e.Name)
	}
	if e.HasStatics {
		out = append(out, "Static"+e.Name)
	}
	if e.HasAbstract {
		out = append(out, "Abstract"+e.Name)
	}
	return out
}

// Property is one stored or virtual property of an entity.
type Property struct {
	Entity   string
	Access   Access
	Type     Type
	Name     string
	ReadOnly bool
	Flags    []string
	// Ordinal is the 1-based position within the owner's property enum.
	Ordinal int
	// Native is set for properties declared in engine headers.
	Native  bool
	Comment []string
}

// Method is an entity method exposed to scripts.
type Method struct {
	Target  Side
	Entity  string
	Name    string
	Ret     Type
	Params  []Param
	Flags   []string
	Comment []string
}

// Generic reports whether the method is declared on the family marker.
func (m *Method) Generic() bool { return m.Entity == FamilyEntity }

// Instantiate binds a generic method to entity, resolving SelfEntity.
func (m *Method) Instantiate(entity string) *Method {
	out := *m
	out.Entity = entity
	out.Ret = Resolve(m.Ret, entity)
	out.Params = make([]Param, len(m.Params))
	for i, p := range m.Params {
		out.Params[i] = Param{Name: p.Name, Type: Resolve(p.Type, entity)}
	}
	return &out
}

// Event is an entity event scripts can subscribe to.
type Event struct {
	Target  Side
	Entity  string
	Name    string
	Params  []Param
	Flags   []string
	Native  bool
	Comment []string
}

// EnumEntry is one key of an enum group.
type EnumEntry struct {
	Key     string
	Value   int64
	Comment []string
}

// Enum is an enum group.
type Enum struct {
	Name       string
	Underlying string
	Entries    []EnumEntry
	Flags      []string
	// Engine is set for enums mirrored from native declarations.
	Engine bool
	// Synthesized is set for the per-entity property enums.
	Synthesized bool
	Comment     []string
}

// Value returns the value of key.
func (e *Enum) Value(key string) (int64, bool) {
	for _, en := range e.Entries {
		if en.Key == key {
			return en.Value, true
		}
	}
	return 0, false
}

// ValueObject describes a flat, stack-passed object with an explicit
// field layout. References to it are ValueType.
type ValueObject struct {
	Target  Side
	Name    string
	Fields  []Param
	Comment []string
}

// ObjectMethod is a method of a reference object.
type ObjectMethod struct {
	Name   string
	Ret    Type
	Params []Param
}

// RefType is a heap-allocated, reference-counted object. Fields are
// exposed as accessor pairs.
type RefType struct {
	Target  Side
	Name    string
	Fields  []Param
	Methods []ObjectMethod
	Comment []string
}

// RemoteCall is a script function callable across the network boundary.
type RemoteCall struct {
	Target  Side
	Name    string
	Params  []Param
	Flags   []string
	Comment []string
}

// Setting is one configuration value.
type Setting struct {
	Type    Type
	Name    string
	Default string
	Flags   []string
	Comment []string
}

// SettingsGroup is a named list of settings.
type SettingsGroup struct {
	Name     string
	Settings []Setting
}

// MigrationRule renames persisted data across versions.
type MigrationRule struct {
	Kind  string
	Scope string
	From  string
	To    string
}

// TemplateMarker is a named insertion point inside a template file.
type TemplateMarker struct {
	Template string
	Path     string
	Entry    string
	// Line is the 0-based index of the marker line.
	Line   int
	Column int
}

// Registry is the complete set of validated descriptors of one run.
// Slices keep registration order.
type Registry struct {
	Entities    []*Entity
	Enums       []*Enum
	ValueTypes  []*ValueObject
	RefTypes    []*RefType
	Properties  []*Property
	Methods     []*Method
	Events      []*Event
	RemoteCalls []*RemoteCall
	Settings    []*SettingsGroup
	Migrations  []MigrationRule
	Markers     []TemplateMarker
}

// Entity looks up an entity by name, including the family marker.
func (r *Registry) Entity(name string) *Entity {
	for _, e := range r.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// ConcreteEntities returns every entity except the family marker.
func (r *Registry) ConcreteEntities() []*Entity {
	var out []*Entity
	for _, e := range r.Entities {
		if !e.Abstract {
			out = append(out, e)
		}
	}
	return out
}

// Enum looks up an enum group by name.
func (r *Registry) Enum(name string) *Enum {
	for _, e := range r.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// PropertiesOf returns the properties of entity ordered by ordinal.
func (r *Registry) PropertiesOf(entity string) []*Property {
	var out []*Property
	for _, p := range r.Properties {
		if p.Entity == entity {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// MethodsOf returns the methods of a concrete entity: its own methods
// followed by every generic method instantiated for it.
func (r *Registry) MethodsOf(entity string) []*Method {
	var own, generic []*Method
	for _, m := range r.Methods {
		switch {
		case m.Entity == entity:
			own = append(own, m)
		case m.Generic() && entity != FamilyEntity:
			generic = append(generic, m.Instantiate(entity))
		}
	}
	return append(own, generic...)
}

// EventsOf returns the events declared on entity.
func (r *Registry) EventsOf(entity string) []*Event {
	var out []*Event
	for _, ev := range r.Events {
		if ev.Entity == entity {
			out = append(out, ev)
		}
	}
	return out
}

// MarkersFor returns the markers of a template kind in line order.
func (r *Registry) MarkersFor(template string) []TemplateMarker {
	var out []TemplateMarker
	for _, m := range r.Markers {
		if m.Template == template {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}
