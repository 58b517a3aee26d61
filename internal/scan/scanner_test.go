package scan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/diag"
)

func scanString(t *testing.T, src string) ([]Record, *diag.List) {
	t.Helper()
	var diags diag.List
	recs, err := Scan(strings.NewReader(src), "test.h", &diags)
	require.NoError(t, err)
	return recs, &diags
}

func TestScanArgsTag(t *testing.T) {
	recs, diags := scanString(t, `
///# The player character
///# Controlled by a client
///@ Entity Critter ServerCritter CritterView HasProtos
`)
	require.True(t, diags.Empty(), diags.Summary())
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, KindEntity, r.Kind)
	assert.Equal(t, "Critter ServerCritter CritterView HasProtos", r.Args)
	assert.Equal(t, 4, r.Line)
	assert.Equal(t, "test.h", r.File)
	assert.Equal(t, []string{"The player character", "Controlled by a client"}, r.Comment)
	assert.Equal(t, ArgsContext{}, r.Context)
}

func TestScanInlineCommentOverrides(t *testing.T) {
	recs, diags := scanString(t, `
///# ignored
///@ Property Critter Public int32 Health // Hit points
`)
	require.True(t, diags.Empty())
	require.Len(t, recs, 1)
	assert.Equal(t, "Critter Public int32 Health", recs[0].Args)
	assert.Equal(t, []string{"Hit points"}, recs[0].Comment)
}

func TestScanDoubleSlashEndsArgs(t *testing.T) {
	recs, diags := scanString(t, `
///@ Setting Common string Url = http://host
`)
	require.True(t, diags.Empty(), diags.Summary())
	require.Len(t, recs, 1)
	assert.Equal(t, KindSetting, recs[0].Kind)
	assert.Equal(t, "Common string Url = http:", recs[0].Args)
	assert.Equal(t, []string{"host"}, recs[0].Comment)
}

func TestScanPendingCommentResets(t *testing.T) {
	recs, _ := scanString(t, `
///# stale
int unrelated = 0;
///@ Setting Common int32 Port = 4000
`)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].Comment)
}

func TestScanUnknownTagContinues(t *testing.T) {
	recs, diags := scanString(t, `
///@ Bogus a b c
///@
///@ Enum Color Red
`)
	require.Len(t, recs, 1, "scanning continues after bad tags")
	assert.Equal(t, KindEnum, recs[0].Kind)

	require.Equal(t, 2, diags.Len())
	items := diags.Items()
	assert.Equal(t, diag.ErrUnknownTag, items[0].Code)
	assert.Equal(t, 2, items[0].Line)
	assert.Equal(t, diag.KindParse, items[0].Kind)
	assert.Equal(t, diag.ErrMalformedTag, items[1].Code)
}

func TestScanEnumBlock(t *testing.T) {
	recs, diags := scanString(t, `
///@ ExportEnum
enum class Color : uint8
{
    Red,
    Green = 5,
    Blue,
};
`)
	require.True(t, diags.Empty())
	require.Len(t, recs, 1)
	ctx, ok := recs[0].Context.(EnumContext)
	require.True(t, ok)
	require.Len(t, ctx.Lines, 6)
	assert.Equal(t, "enum class Color : uint8", ctx.Lines[0])
	assert.Equal(t, "};", ctx.Lines[5])
}

func TestScanSingleLineBlock(t *testing.T) {
	recs, _ := scanString(t, "///@ ExportEnum\nenum class Color : uint8 { Red, Green = 5, Blue };\n")
	require.Len(t, recs, 1)
	ctx := recs[0].Context.(EnumContext)
	assert.Equal(t, []string{"enum class Color : uint8 { Red, Green = 5, Blue };"}, ctx.Lines)
}

func TestScanUnterminatedBlock(t *testing.T) {
	recs, diags := scanString(t, "///@ ExportValueType Common\nstruct Position\n{\n    int32 X;\n")
	assert.Empty(t, recs)
	assert.True(t, diags.HasCode(diag.ErrUnterminatedBlock))
}

func TestScanPropertyOwner(t *testing.T) {
	recs, diags := scanString(t, `
class CritterProperties : public EntityProperties
{
public:
    ///@ ExportProperty ReadOnly
    ENTITY_PROPERTY(Public, int32, Health);
};
`)
	require.True(t, diags.Empty(), diags.Summary())
	require.Len(t, recs, 1)
	assert.Equal(t, "ReadOnly", recs[0].Args)
	assert.Equal(t, PropertyContext{Owner: "CritterProperties", Line: "ENTITY_PROPERTY(Public, int32, Health);"}, recs[0].Context)
}

func TestScanEventAndMethod(t *testing.T) {
	recs, diags := scanString(t, `
class ServerCritter final : public ServerEntity
{
    ///@ ExportEvent
    ENTITY_EVENT(OnDead, ServerCritter* /*killer*/);
};

///@ ExportMethod
[[maybe_unused]] static void Server_Critter_Kill(ServerCritter* self)
`)
	require.True(t, diags.Empty(), diags.Summary())
	require.Len(t, recs, 2)
	assert.Equal(t, EventContext{Owner: "ServerCritter", Line: "ENTITY_EVENT(OnDead, ServerCritter* /*killer*/);"}, recs[0].Context)
	assert.Equal(t, MethodContext{Line: "[[maybe_unused]] static void Server_Critter_Kill(ServerCritter* self)"}, recs[1].Context)
}

func TestScanMissingContext(t *testing.T) {
	_, diags := scanString(t, "///@ ExportMethod\n\nvoid Server_Critter_Kill(ServerCritter* self)\n")
	assert.True(t, diags.HasCode(diag.ErrMissingContext))

	_, diags = scanString(t, "///@ ExportProperty\nENTITY_PROPERTY(Public, int32, Health);\n")
	assert.True(t, diags.HasCode(diag.ErrMissingContext), "no enclosing class")
}

func TestScanMarkerColumn(t *testing.T) {
	recs, _ := scanString(t, "void Register()\n{\n    ///@ CodeGen Register\n}\n")
	require.Len(t, recs, 1)
	assert.Equal(t, MarkerContext{Column: 4, Indent: "    "}, recs[0].Context)
	assert.Equal(t, "Register", recs[0].Args)
}

func TestScanFileMissing(t *testing.T) {
	var diags diag.List
	recs := ScanFile(filepath.Join(t.TempDir(), "nope.h"), &diags)
	assert.Nil(t, recs)
	assert.True(t, diags.HasCode(diag.ErrReadFailed))
	assert.Equal(t, 1, diags.Count(diag.KindIO))
}

func TestScanFileCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crlf.h")
	require.NoError(t, os.WriteFile(path, []byte("///@ Enum Color Red\r\n///@ Enum Color Blue\r\n"), 0o644))

	var diags diag.List
	recs := ScanFile(path, &diags)
	require.Len(t, recs, 2)
	assert.Equal(t, "Color Blue", recs[1].Args)
}
