package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/scan"
	"github.com/roach88/apigen/internal/typesys"
)

// buildSources scans each source in order and builds the registry.
func buildSources(t *testing.T, sources ...string) (*ir.Registry, *typesys.Universe, *diag.List) {
	t.Helper()
	var diags diag.List
	var records []scan.Record
	for i, src := range sources {
		name := "src" + string(rune('a'+i)) + ".h"
		recs, err := scan.Scan(strings.NewReader(src), name, &diags)
		require.NoError(t, err)
		records = append(records, recs...)
	}
	reg, types := Build(records, &diags)
	return reg, types, &diags
}

const critterSource = `
///@ Entity Critter ServerCritter CritterView HasProtos
`

func TestBuildColorEnum(t *testing.T) {
	reg, types, diags := buildSources(t, `
///@ Enum Color Red
///@ Enum Color Green = 5
///@ Enum Color Blue
`)
	require.True(t, diags.Empty(), diags.Summary())

	color := reg.Enum("Color")
	require.NotNil(t, color)
	assert.Equal(t, []ir.EnumEntry{
		{Key: "Red", Value: 0},
		{Key: "Green", Value: 5},
		{Key: "Blue", Value: 6},
	}, color.Entries)
	assert.Equal(t, "uint8", color.Underlying)

	underlying, ok := types.EnumUnderlying("Color")
	require.True(t, ok)
	assert.Equal(t, "uint8", underlying)
}

func TestBuildExportEnum(t *testing.T) {
	reg, _, diags := buildSources(t, `
///@ ExportEnum
enum class CritterCondition : uint8
{
    Unknown = 0,
    Alive = 0x01, // still moving
    Knockout,
    Dead = -1,
};
`)
	require.True(t, diags.HasCode(diag.ErrInvalidEnumValue), diags.Summary())
	assert.Nil(t, reg.Enum("CritterCondition"), "enum with out-of-range values is dropped")

	reg, _, diags = buildSources(t, `
///@ ExportEnum
enum class CritterCondition : uint8
{
    Unknown = 0,
    Alive = 0x01, // still moving
    Knockout,
};
`)
	require.True(t, diags.Empty(), diags.Summary())
	e := reg.Enum("CritterCondition")
	require.NotNil(t, e)
	assert.True(t, e.Engine)
	assert.Equal(t, "uint8", e.Underlying)
	require.Len(t, e.Entries, 3)
	assert.Equal(t, int64(2), e.Entries[2].Value)
	assert.Equal(t, []string{"still moving"}, e.Entries[1].Comment)
}

func TestBuildPropertyEnum(t *testing.T) {
	reg, _, diags := buildSources(t, critterSource, `
///@ Property Critter Public int32 Health
///@ Property Critter PrivateServer bool Stealth
`)
	require.True(t, diags.Empty(), diags.Summary())

	props := reg.PropertiesOf("Critter")
	require.Len(t, props, 2)
	assert.Equal(t, 1, props[0].Ordinal)
	assert.Equal(t, 2, props[1].Ordinal)

	e := reg.Enum("CritterProperty")
	require.NotNil(t, e)
	assert.True(t, e.Synthesized)
	assert.Equal(t, "uint16", e.Underlying)
	assert.Equal(t, []ir.EnumEntry{
		{Key: "None", Value: 0},
		{Key: "Health", Value: 1},
		{Key: "Stealth", Value: 2},
	}, e.Entries)
}

func TestBuildOrdinalsStable(t *testing.T) {
	src := `
///@ Property Critter Public int32 Health
///@ Property Critter Public int32 Armor
///@ Property Critter Public string Name
`
	first, _, diags := buildSources(t, critterSource, src)
	require.True(t, diags.Empty(), diags.Summary())
	second, _, diags := buildSources(t, critterSource, src)
	require.True(t, diags.Empty(), diags.Summary())

	for i, p := range first.PropertiesOf("Critter") {
		q := second.PropertiesOf("Critter")[i]
		assert.Equal(t, p.Name, q.Name)
		assert.Equal(t, p.Ordinal, q.Ordinal)
	}
	assert.Empty(t, Validate(first))
}

func TestBuildExportProperty(t *testing.T) {
	reg, _, diags := buildSources(t, critterSource, `
class CritterProperties : public EntityProperties
{
public:
    ///@ ExportProperty ReadOnly
    ENTITY_PROPERTY(PrivateServer, vector<int32>, Perks);
    ///@ ExportProperty
    ENTITY_PROPERTY(Public, map<hstring, Critter*>, Followers);
};
`)
	require.True(t, diags.Empty(), diags.Summary())
	props := reg.PropertiesOf("Critter")
	require.Len(t, props, 2)

	assert.True(t, props[0].ReadOnly)
	assert.True(t, props[0].Native)
	assert.Equal(t, ir.AccessPrivateServer, props[0].Access)
	assert.Equal(t, "arr.int32", ir.Unified(props[0].Type))
	assert.Equal(t, "dict.hstring.Critter", ir.Unified(props[1].Type))
}

func TestBuildFamilyPropertyFansOut(t *testing.T) {
	reg, _, diags := buildSources(t, critterSource, `
///@ Entity Item ServerItem ItemView
///@ Property Entity Public int32 Lifetime
///@ Property Item Public int32 Count
`)
	require.True(t, diags.Empty(), diags.Summary())

	assert.Len(t, reg.PropertiesOf("Critter"), 1)
	items := reg.PropertiesOf("Item")
	require.Len(t, items, 2)
	assert.Equal(t, "Lifetime", items[0].Name)
	assert.Equal(t, "Count", items[1].Name)
	assert.Equal(t, 2, items[1].Ordinal)
}

func TestBuildGenericMethod(t *testing.T) {
	reg, _, diags := buildSources(t, critterSource, `
///@ Entity Item ServerItem ItemView
///@ ExportMethod
static Self* Server_Entity_DoThing(ServerEntity* self, int32 amount)
///@ ExportMethod Pure
static int32 Server_Critter_GetHp(ServerCritter* self)
`)
	require.True(t, diags.Empty(), diags.Summary())
	require.Len(t, reg.Methods, 2)

	generic := reg.Methods[0]
	assert.True(t, generic.Generic())
	assert.Equal(t, ir.SideServer, generic.Target)
	assert.Equal(t, ir.SelfEntity{}, generic.Ret)
	require.Len(t, generic.Params, 1)
	assert.Equal(t, "amount", generic.Params[0].Name)

	critter := reg.MethodsOf("Critter")
	require.Len(t, critter, 2)
	assert.Equal(t, "GetHp", critter[0].Name)
	assert.Equal(t, []string{"Pure"}, critter[0].Flags)
	assert.Equal(t, "DoThing", critter[1].Name)
	assert.Equal(t, ir.EntityRef{Entity: "Critter"}, critter[1].Ret)

	item := reg.MethodsOf("Item")
	require.Len(t, item, 1)
	assert.Equal(t, ir.EntityRef{Entity: "Item"}, item[0].Ret)
}

func TestBuildMethodNameShape(t *testing.T) {
	_, _, diags := buildSources(t, critterSource, `
///@ ExportMethod
static void DoThing(ServerCritter* self)
`)
	assert.True(t, diags.HasCode(diag.ErrInvalidMemberName), diags.Summary())
}

func TestBuildEvents(t *testing.T) {
	reg, _, diags := buildSources(t, critterSource, `
class ServerCritter : public ServerEntity
{
public:
    ///@ ExportEvent
    ENTITY_EVENT(OnDead, ServerCritter* /*killer*/, int32 /*damage*/);
};
///@ Event Critter Client OnAppear(Critter cr, bool fromRespawn) Deferred
`)
	require.True(t, diags.Empty(), diags.Summary())
	events := reg.EventsOf("Critter")
	require.Len(t, events, 2)

	assert.Equal(t, ir.SideServer, events[0].Target)
	assert.True(t, events[0].Native)
	assert.Equal(t, []ir.Param{
		{Name: "killer", Type: ir.EntityRef{Entity: "Critter"}},
		{Name: "damage", Type: ir.Scalar{Name: "int32"}},
	}, events[0].Params)

	assert.Equal(t, ir.SideClient, events[1].Target)
	assert.Equal(t, []string{"Deferred"}, events[1].Flags)
	assert.Equal(t, "fromRespawn", events[1].Params[1].Name)
}

func TestBuildObjects(t *testing.T) {
	reg, types, diags := buildSources(t, `
///@ ExportValueType
struct ucolor
{
    uint8 R;
    uint8 G;
    uint8 B;
};
///@ ExportRefType Server
struct QuestLog
{
    SCRIPTABLE_OBJECT();
    vector<int32> Steps;
    ucolor Tint;
    int32 GetStep(int32 index);
};
`)
	require.True(t, diags.Empty(), diags.Summary())
	require.Len(t, reg.ValueTypes, 1)
	assert.Len(t, reg.ValueTypes[0].Fields, 3)
	assert.Equal(t, ir.SideCommon, reg.ValueTypes[0].Target)

	require.Len(t, reg.RefTypes, 1)
	rt := reg.RefTypes[0]
	assert.Equal(t, ir.SideServer, rt.Target)
	assert.Equal(t, ir.ValueType{Name: "ucolor"}, rt.Fields[1].Type)
	require.Len(t, rt.Methods, 1)
	assert.Equal(t, "GetStep", rt.Methods[0].Name)

	cat, ok := types.Lookup("QuestLog")
	require.True(t, ok)
	assert.Equal(t, typesys.CatRefType, cat)
}

func TestBuildRemoteCallsAndSettings(t *testing.T) {
	reg, _, diags := buildSources(t, critterSource, `
///@ RemoteCall Server Ping(int32 seq, string text)
///@ Setting Common int32 MaxCritters = 200 Readonly
///@ Setting Common string Motd = "hello world"
///@ Setting Client float32 Zoom
///@ MigrationRule Property Critter OldHp Health
`)
	require.True(t, diags.Empty(), diags.Summary())

	require.Len(t, reg.RemoteCalls, 1)
	assert.Equal(t, "Ping", reg.RemoteCalls[0].Name)
	assert.Len(t, reg.RemoteCalls[0].Params, 2)

	require.Len(t, reg.Settings, 2)
	common := reg.Settings[0]
	assert.Equal(t, "Common", common.Name)
	require.Len(t, common.Settings, 2)
	assert.Equal(t, "200", common.Settings[0].Default)
	assert.Equal(t, []string{"Readonly"}, common.Settings[0].Flags)
	assert.Equal(t, `"hello world"`, common.Settings[1].Default)

	assert.Equal(t, []ir.MigrationRule{{Kind: "Property", Scope: "Critter", From: "OldHp", To: "Health"}}, reg.Migrations)
}

func TestBuildRemoteCallTarget(t *testing.T) {
	_, _, diags := buildSources(t, `
///@ RemoteCall Common Ping()
`)
	assert.True(t, diags.HasCode(diag.ErrInvalidTarget), diags.Summary())
}

func TestBuildUnknownTypeAfterRemoval(t *testing.T) {
	_, _, diags := buildSources(t, critterSource, `
///@ Property Critter Public QuestLog Journal
`)
	require.False(t, diags.Empty())
	assert.True(t, diags.HasCode(diag.ErrUnknownType), diags.Summary())
}

func TestBuildEnumMissingZero(t *testing.T) {
	reg, _, diags := buildSources(t, `
///@ Enum Slot Hand = 1
///@ Enum Slot Armor
`)
	assert.True(t, diags.HasCode(diag.ErrEnumMissingZero), diags.Summary())
	assert.Nil(t, reg.Enum("Slot"))
}

func TestBuildDuplicates(t *testing.T) {
	_, _, diags := buildSources(t, critterSource, `
///@ Property Critter Public int32 Health
///@ Property Critter Public int32 Health
///@ ExportValueType
struct Critter
{
    int32 X;
};
`)
	assert.True(t, diags.HasCode(diag.ErrDuplicateMember), diags.Summary())
	assert.True(t, diags.HasCode(diag.ErrDuplicateType), diags.Summary())
}

func TestBuildInvalidAccess(t *testing.T) {
	_, _, diags := buildSources(t, critterSource, `
///@ Property Critter Secret int32 Health
///@ Property Ghost Public int32 Health
`)
	assert.True(t, diags.HasCode(diag.ErrInvalidAccess), diags.Summary())
	assert.True(t, diags.HasCode(diag.ErrUnknownEntity), diags.Summary())
}

func TestBuildCodeGenMarkers(t *testing.T) {
	var diags diag.List
	recs, err := scan.Scan(strings.NewReader("x\n    ///@ CodeGen Register\n"), "/t/AngelScript-Template.cpp", &diags)
	require.NoError(t, err)
	bad, err := scan.Scan(strings.NewReader("///@ CodeGen Register\n"), "/t/Other.cpp", &diags)
	require.NoError(t, err)

	reg, _ := Build(append(recs, bad...), &diags)
	assert.True(t, diags.HasCode(diag.ErrInvalidTemplate))
	require.Len(t, reg.Markers, 1)
	m := reg.Markers[0]
	assert.Equal(t, "AngelScript", m.Template)
	assert.Equal(t, "Register", m.Entry)
	assert.Equal(t, 1, m.Line)
	assert.Equal(t, 4, m.Column)
}

func TestBuildGlobalEntityWithProtos(t *testing.T) {
	_, _, diags := buildSources(t, `
///@ Entity Game ServerGame ClientGame Global HasProtos
`)
	assert.True(t, diags.HasCode(diag.ErrEntityFamily), diags.Summary())
}

func TestEnumProblems(t *testing.T) {
	e := &ir.Enum{
		Name:       "Bad",
		Underlying: "uint8",
		Entries: []ir.EnumEntry{
			{Key: "A", Value: 1},
			{Key: "A", Value: 2},
			{Key: "B", Value: 2},
			{Key: "C", Value: 300},
		},
	}
	var codes []string
	for _, d := range EnumProblems(e) {
		codes = append(codes, d.Code)
	}
	assert.ElementsMatch(t, []string{
		diag.ErrEnumDuplicateKey,
		diag.ErrEnumDuplicateVal,
		diag.ErrInvalidEnumValue,
		diag.ErrEnumMissingZero,
	}, codes)
}

func TestValidateDetectsOrdinalGap(t *testing.T) {
	reg, _, diags := buildSources(t, critterSource, `
///@ Property Critter Public int32 Health
`)
	require.True(t, diags.Empty(), diags.Summary())
	reg.Properties[0].Ordinal = 3

	problems := Validate(reg)
	require.NotEmpty(t, problems)
	assert.Contains(t, problems[0].Message, "ordinal 3")
}

func TestEnumValueRejectsExpressions(t *testing.T) {
	_, _, diags := buildSources(t, `
///@ ExportEnum
enum class HitLocation : int32
{
    None = 0,
    Head = None + 1,
};
`)
	require.True(t, diags.HasCode(diag.ErrInvalidEnumValue), diags.Summary())
	var msg string
	for _, d := range diags.Items() {
		if d.Code == diag.ErrInvalidEnumValue {
			msg = d.Message
		}
	}
	assert.Contains(t, msg, `"None + 1"`)
	assert.Contains(t, msg, "integer literal or an earlier key of HitLocation")
}
