package ir

// ScriptModule is a script source pulled into the per-side root modules.
// Its first line is a header such as "// FOS Server Client Sort 5".
type ScriptModule struct {
	Path string
	// Tags are the header words after "// FOS", sort clause included.
	Tags []string
	Sort int
}

// Includes reports whether the module belongs to the root module of side.
// Only an exact side name or Common matches.
func (m ScriptModule) Includes(side Side) bool {
	for _, t := range m.Tags {
		if t == string(side) || t == string(SideCommon) {
			return true
		}
	}
	return false
}

// ContentKind is a content file family and the script namespace its
// proto ids are published under.
type ContentKind struct {
	Ext       string
	Namespace string
}

// ContentKinds in the order they are published.
var ContentKinds = []ContentKind{
	{Ext: "fodlg", Namespace: "Dialog"},
	{Ext: "foitem", Namespace: "Item"},
	{Ext: "focr", Namespace: "Critter"},
	{Ext: "fomap", Namespace: "Map"},
	{Ext: "foloc", Namespace: "Location"},
}

// Content maps a content file extension, without the dot, to the proto
// ids found in files of that kind, in discovery order.
type Content map[string][]string
