package ir

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cockroachdb/errors"
)

// DomainRegistry separates registry fingerprints from any other digest.
// The version suffix allows the canonical layout to evolve.
const DomainRegistry = "apigen/registry/v1"

// ShortLen is the number of hex characters embedded in generated headers.
const ShortLen = 16

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the compatibility digest of reg.
func Fingerprint(reg *Registry) (string, error) {
	data, err := MarshalCanonical(Canonical(reg))
	if err != nil {
		return "", errors.Wrap(err, "marshal canonical registry")
	}
	return hashWithDomain(DomainRegistry, data), nil
}

// ShortFingerprint returns the prefix of a fingerprint embedded in outputs.
func ShortFingerprint(fp string) string {
	if len(fp) <= ShortLen {
		return fp
	}
	return fp[:ShortLen]
}

// Canonical converts reg into the node tree the fingerprint covers.
// Doc comments and template markers are left out: they never affect
// compatibility between builds.
func Canonical(reg *Registry) Node {
	entities := Object{}
	for _, e := range reg.Entities {
		entities[e.Name] = Object{
			"server_class":    Str(e.ServerClass),
			"client_class":    Str(e.ClientClass),
			"global":          Bool(e.Global),
			"has_protos":      Bool(e.HasProtos),
			"has_statics":     Bool(e.HasStatics),
			"has_abstract":    Bool(e.HasAbstract),
			"has_time_events": Bool(e.HasTimeEvents),
			"abstract":        Bool(e.Abstract),
			"properties":      canonicalProperties(reg.PropertiesOf(e.Name)),
		}
	}

	enums := Object{}
	for _, e := range reg.Enums {
		entries := make(List, len(e.Entries))
		for i, en := range e.Entries {
			entries[i] = List{Str(en.Key), Int(en.Value)}
		}
		enums[e.Name] = Object{
			"underlying": Str(e.Underlying),
			"entries":    entries,
			"flags":      strs(e.Flags),
		}
	}

	methods := make(List, len(reg.Methods))
	for i, m := range reg.Methods {
		methods[i] = Object{
			"target": Str(m.Target),
			"entity": Str(m.Entity),
			"name":   Str(m.Name),
			"ret":    Str(Unified(m.Ret)),
			"params": canonicalParams(m.Params),
			"flags":  strs(m.Flags),
		}
	}

	events := make(List, len(reg.Events))
	for i, ev := range reg.Events {
		events[i] = Object{
			"target": Str(ev.Target),
			"entity": Str(ev.Entity),
			"name":   Str(ev.Name),
			"params": canonicalParams(ev.Params),
			"flags":  strs(ev.Flags),
		}
	}

	values := Object{}
	for _, v := range reg.ValueTypes {
		values[v.Name] = Object{"target": Str(v.Target), "fields": canonicalParams(v.Fields)}
	}

	refs := Object{}
	for _, r := range reg.RefTypes {
		ms := make(List, len(r.Methods))
		for i, m := range r.Methods {
			ms[i] = Object{"name": Str(m.Name), "ret": Str(Unified(m.Ret)), "params": canonicalParams(m.Params)}
		}
		refs[r.Name] = Object{"target": Str(r.Target), "fields": canonicalParams(r.Fields), "methods": ms}
	}

	calls := make(List, len(reg.RemoteCalls))
	for i, rc := range reg.RemoteCalls {
		calls[i] = Object{
			"target": Str(rc.Target),
			"name":   Str(rc.Name),
			"params": canonicalParams(rc.Params),
			"flags":  strs(rc.Flags),
		}
	}

	settings := Object{}
	for _, g := range reg.Settings {
		list := make(List, len(g.Settings))
		for i, s := range g.Settings {
			list[i] = Object{
				"type":    Str(Unified(s.Type)),
				"name":    Str(s.Name),
				"default": Str(s.Default),
				"flags":   strs(s.Flags),
			}
		}
		settings[g.Name] = list
	}

	migrations := make(List, len(reg.Migrations))
	for i, m := range reg.Migrations {
		migrations[i] = List{Str(m.Kind), Str(m.Scope), Str(m.From), Str(m.To)}
	}

	return Object{
		"entities":     entities,
		"enums":        enums,
		"methods":      methods,
		"events":       events,
		"value_types":  values,
		"ref_types":    refs,
		"remote_calls": calls,
		"settings":     settings,
		"migrations":   migrations,
	}
}

func canonicalProperties(props []*Property) List {
	out := make(List, len(props))
	for i, p := range props {
		out[i] = Object{
			"ordinal":   Int(p.Ordinal),
			"name":      Str(p.Name),
			"access":    Str(p.Access),
			"type":      Str(Unified(p.Type)),
			"read_only": Bool(p.ReadOnly),
			"flags":     strs(p.Flags),
		}
	}
	return out
}

func canonicalParams(ps []Param) List {
	out := make(List, len(ps))
	for i, p := range ps {
		out[i] = List{Str(Unified(p.Type)), Str(p.Name)}
	}
	return out
}

func strs(ss []string) List {
	out := make(List, len(ss))
	for i, s := range ss {
		out[i] = Str(s)
	}
	return out
}
