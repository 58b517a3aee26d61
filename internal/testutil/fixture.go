package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/apigen/internal/compiler"
	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/scan"
	"github.com/roach88/apigen/internal/typesys"
)

// Tree maps slash-separated relative paths to file contents.
type Tree map[string]string

// WriteTree writes files under dir, creating parent directories.
func WriteTree(t *testing.T, dir string, files Tree) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// Template returns a template file body with the three standard markers.
func Template(title string) string {
	return "// " + title + "\n" +
		"///@ CodeGen Defines\n" +
		"\n" +
		"#include \"Common.h\"\n" +
		"\n" +
		"///@ CodeGen Global\n" +
		"\n" +
		"void Register()\n" +
		"{\n" +
		"    ///@ CodeGen Register\n" +
		"}\n"
}

// CritterSource declares a small but complete scripting surface.
const CritterSource = `///# Living creature
///@ Entity Critter ServerCritter CritterView HasProtos HasTimeEvents
///@ Entity Game ServerGame ClientGame Global

///@ Enum Color Red
///@ Enum Color Green = 5
///@ Enum Color Blue

///# Hit points
///@ Property Critter Public int32 Health
///@ Property Critter PrivateServer bool Stealth
///@ Property Critter VirtualPublic const int32 Level
///@ Property Entity Public Color Tint

///@ ExportMethod
static Self* Server_Entity_Touch(ServerEntity* self, int32 amount)
{
}

///# Current hit points
///@ ExportMethod
static int32 Server_Critter_GetHp(ServerCritter* self)
{
}

///@ ExportMethod
static void Client_Critter_Wave(CritterView* self, const vector<int32>& times, const std::function<void(CritterView*)>& done)
{
}

class ServerCritter : public ServerEntity
{
public:
    ///@ ExportEvent
    ENTITY_EVENT(OnDead, ServerCritter* /*killer*/, int32 /*damage*/);
};

///@ Event Critter Client OnAppear(Critter cr, bool fromRespawn) Deferred

///@ ExportValueType
struct ucolor
{
    uint8 R;
    uint8 G;
    uint8 B;
};

///@ RemoteCall Server Ping(int32 seq, string text)
///@ RemoteCall Client Pong(int32 seq)
///@ Setting Common int32 MaxCritters = 200
///@ Setting Client float32 Zoom
///@ MigrationRule Property Critter OldHp Health
`

// Project writes a source tree with every template kind and returns its
// root. Sources live under src/, templates under templates/.
func Project(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	WriteTree(t, dir, Tree{
		"src/Critter.h":                           source,
		"templates/DataRegistration-Template.cpp": Template("Data registration"),
		"templates/AngelScript-Template.cpp":      Template("AngelScript scripting"),
		"templates/Mono-Template.cpp":             Template("Mono scripting"),
	})
	return dir
}

// Build scans every file under dir in sorted order and builds the registry.
func Build(t *testing.T, dir string) (*ir.Registry, *typesys.Universe, *diag.List) {
	t.Helper()
	var files []string
	require.NoError(t, filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, path)
		}
		return err
	}))
	sort.Strings(files)

	var diags diag.List
	var records []scan.Record
	for _, f := range files {
		records = append(records, scan.ScanFile(f, &diags)...)
	}
	reg, types := compiler.Build(records, &diags)
	return reg, types, &diags
}
