package gen

import (
	"bytes"
	"encoding/xml"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/apigen/internal/emit"
	"github.com/roach88/apigen/internal/ir"
	"github.com/roach88/apigen/internal/typesys"
)

// managedNamespace holds every generated managed type.
const managedNamespace = "FOnline"

// genMonoGlue fills the Mono template with internal-call wrappers.
func genMonoGlue(ctx *Context, out Output, f *emit.File) error {
	v := newView(ctx, out.Side)

	var defines block
	for _, s := range ir.OutputSides {
		defines.linef("#define %s_SCRIPTING %d", strings.ToUpper(string(s)), boolInt(s == out.Side))
	}

	var global, register block
	global.line("// Internal call wrappers")
	register.line("// Internal calls")
	for _, ent := range v.entities() {
		for _, m := range v.methods(ent.Name) {
			v.marshal(&global, "Mono", m, true)
			register.linef("mono_add_internal_call(\"%s.%s::%s\", reinterpret_cast<const void*>(&%s));",
				managedNamespace, ent.Name, m.Name, marshalName("Mono", m))
		}
	}

	for _, step := range []struct {
		entry string
		lines block
	}{
		{"Register", register},
		{"Global", trimTrailingBlank(global)},
		{"Defines", defines},
	} {
		if err := insert(f, step.entry, step.lines); err != nil {
			return err
		}
	}
	return nil
}

// genManagedSource writes the C# view of the scriptable surface.
func genManagedSource(ctx *Context, out Output, f *emit.File) error {
	v := newView(ctx, out.Side)
	var b block
	header(&b, "//", "Scripting API, "+string(out.Side)+" side")
	b.line(
		"using System;",
		"using System.Collections.Generic;",
		"using System.Runtime.CompilerServices;",
		"",
		"namespace "+managedNamespace,
		"{",
	)

	for _, e := range ctx.Reg.Enums {
		managedDoc(&b, "    ", e.Comment)
		b.linef("    public enum %s : %s", e.Name, v.managed(ir.Scalar{Name: e.Underlying}, typesys.PassOut))
		b.line("    {")
		for _, en := range e.Entries {
			b.linef("        %s = %d,", en.Key, en.Value)
		}
		b.line("    }", "")
	}

	for _, vt := range v.valueTypes() {
		managedDoc(&b, "    ", vt.Comment)
		b.linef("    public struct %s", vt.Name)
		b.line("    {")
		for _, fl := range vt.Fields {
			b.linef("        public %s %s;", v.managed(fl.Type, typesys.PassOut), fl.Name)
		}
		b.line("    }", "")
	}

	for _, rt := range v.refTypes() {
		managedDoc(&b, "    ", rt.Comment)
		b.linef("    public partial class %s", rt.Name)
		b.line("    {")
		for _, fl := range rt.Fields {
			b.linef("        public %s %s { get; set; }", v.managed(fl.Type, typesys.PassOut), fl.Name)
		}
		for _, m := range rt.Methods {
			b.line("        [MethodImpl(MethodImplOptions.InternalCall)]")
			b.linef("        public extern %s %s(%s);", v.managed(m.Ret, typesys.PassOut), m.Name, params(m.Params, v.managed))
		}
		b.line("    }", "")
	}

	for _, ent := range v.entities() {
		managedDoc(&b, "    ", ent.Comment)
		b.linef("    public partial class %s : %s", ent.Name, ir.FamilyEntity)
		b.line("    {")
		for _, p := range v.properties(ent.Name) {
			typ := v.managed(p.Type, typesys.PassOut)
			managedDoc(&b, "        ", p.Comment)
			b.linef("        public %s %s", typ, p.Name)
			b.line("        {")
			b.linef("            get => GetValue<%s>(%s.%s);", typ, ent.PropertyEnum(), p.Name)
			if !p.ReadOnly {
				b.linef("            set => SetValue(%s.%s, value);", ent.PropertyEnum(), p.Name)
			}
			b.line("        }", "")
		}
		for _, m := range v.methods(ent.Name) {
			managedDoc(&b, "        ", m.Comment)
			b.line("        [MethodImpl(MethodImplOptions.InternalCall)]")
			b.linef("        public extern %s %s(%s);", v.managed(m.Ret, typesys.PassOut), m.Name, params(m.Params, v.managed))
			b.line("")
		}
		for _, ev := range v.events(ent.Name) {
			managedDoc(&b, "        ", ev.Comment)
			b.linef("        public event %s %s;", v.managed(ir.Callback{Params: eventTypes(ev)}, typesys.PassOut), ev.Name)
			b.line("")
		}
		b = trimTrailingBlank(b)
		b.line("    }", "")
	}

	if _, outbound := v.remoteCalls(); len(outbound) > 0 {
		b.line("    public static partial class RemoteCalls", "    {")
		for _, rc := range outbound {
			managedDoc(&b, "        ", rc.Comment)
			b.line("        [MethodImpl(MethodImplOptions.InternalCall)]")
			b.linef("        public static extern void %s(%s);", rc.Name, params(rc.Params, v.managed))
		}
		b.line("    }", "")
	}

	if groups := v.settings(); len(groups) > 0 {
		b.line("    public static partial class Settings", "    {")
		for _, g := range groups {
			for _, s := range g.Settings {
				typ := v.managed(s.Type, typesys.PassOut)
				b.linef("        public static %s %s => GetSetting<%s>(\"%s.%s\");", typ, s.Name, typ, g.Name, s.Name)
			}
		}
		b.line("    }", "")
	}

	b = trimTrailingBlank(b)
	b.line("}")
	f.Write(b...)
	return nil
}

func eventTypes(ev *ir.Event) []ir.Type {
	out := make([]ir.Type, len(ev.Params))
	for i, p := range ev.Params {
		out[i] = p.Type
	}
	return out
}

func managedDoc(b *block, indent string, comment []string) {
	if len(comment) == 0 {
		return
	}
	b.line(indent + "/// <summary>")
	for _, c := range comment {
		b.line(indent + "/// " + xmlText(c))
	}
	b.line(indent + "/// </summary>")
}

// ProjectGUID derives a stable project GUID from a project name: the
// name-based MD5 UUID in the OID namespace, upper case, in braces.
func ProjectGUID(name string) string {
	return "{" + strings.ToUpper(uuid.NewMD5(uuid.NameSpaceOID, []byte(name)).String()) + "}"
}

// genProject writes the MSBuild project of one assembly. The primary
// assembly compiles the generated source; the others reference it.
// References naming a planned assembly become project references, the
// rest are copied binary references.
func genProject(ctx *Context, out Output, f *emit.File) error {
	side := string(out.Side)
	assemblies := ctx.Opts.AssemblyNames()
	name := out.Assembly + "." + side
	var b block
	b.line(
		`<?xml version="1.0" encoding="utf-8"?>`,
		`<Project ToolsVersion="15.0" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">`,
		`  <PropertyGroup>`,
		`    <ProjectGuid>`+ProjectGUID(name+".csproj")+`</ProjectGuid>`,
		`    <OutputType>Library</OutputType>`,
		`    <RootNamespace>`+xmlText(out.Assembly)+`</RootNamespace>`,
		`    <AssemblyName>`+xmlText(name)+`</AssemblyName>`,
		`    <TargetFrameworkVersion>v4.5</TargetFrameworkVersion>`,
		`    <DefineConstants>TRACE;`+strings.ToUpper(side)+`</DefineConstants>`,
		`    <AllowUnsafeBlocks>true</AllowUnsafeBlocks>`,
		`  </PropertyGroup>`,
		`  <ItemGroup>`,
	)
	if out.Assembly == assemblies[0] {
		b.line(`    <Compile Include="FOnline.` + side + `.cs" />`)
	}
	for _, src := range ctx.Opts.Sources[out.Side] {
		if src.Assembly == out.Assembly {
			b.linef(`    <Compile Include="%s" />`, xmlText(src.Path))
		}
	}
	b.line(
		`  </ItemGroup>`,
		`  <ItemGroup>`,
		`    <Reference Include="System" />`,
		`    <Reference Include="System.Core" />`,
	)
	refs := ctx.Opts.References[out.Side]
	if out.Assembly != assemblies[0] {
		refs = append([]AssemblyItem{{Assembly: out.Assembly, Path: assemblies[0]}}, refs...)
	}
	for _, ref := range refs {
		if ref.Assembly != out.Assembly {
			continue
		}
		if ctx.Opts.generated(ref.Path) {
			proj := ref.Path + "." + side
			b.linef(`    <ProjectReference Include="%s.csproj">`, xmlText(proj))
			b.linef(`      <Project>%s</Project>`, ProjectGUID(proj+".csproj"))
			b.linef(`      <Name>%s</Name>`, xmlText(proj))
			b.line(`    </ProjectReference>`)
			continue
		}
		include, hint := binaryReference(ref.Path)
		b.linef(`    <Reference Include="%s">`, xmlText(include))
		if hint != "" {
			b.linef(`      <HintPath>%s</HintPath>`, xmlText(hint))
		}
		b.line(
			`      <Private>True</Private>`,
			`    </Reference>`,
		)
	}
	b.line(
		`  </ItemGroup>`,
		`  <Import Project="$(MSBuildToolsPath)\Microsoft.CSharp.targets" />`,
		`</Project>`,
	)
	f.Write(b...)
	return nil
}

// binaryReference splits a reference into the assembly name MSBuild
// resolves and, for a file path, the hint path locating it.
func binaryReference(ref string) (include, hint string) {
	if !strings.EqualFold(path.Ext(ref), ".dll") {
		return ref, ""
	}
	base := path.Base(strings.ReplaceAll(ref, `\`, "/"))
	return strings.TrimSuffix(base, path.Ext(base)), ref
}

// csharpProjectType is the project type GUID of C# projects in solutions.
const csharpProjectType = "{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}"

// genSolution writes the solution listing every planned project.
func genSolution(ctx *Context, out Output, f *emit.File) error {
	var projects []string
	for _, side := range ctx.Opts.OutputSides() {
		for _, a := range ctx.Opts.AssemblyNames() {
			projects = append(projects, a+"."+string(side))
		}
	}

	var b block
	b.line(
		"",
		"Microsoft Visual Studio Solution File, Format Version 12.00",
		"# Visual Studio Version 16",
		"VisualStudioVersion = 16.0.29905.134",
		"MinimumVisualStudioVersion = 10.0.40219.1",
	)
	for _, p := range projects {
		b.linef(`Project("%s") = "%s", "%s.csproj", "%s"`, csharpProjectType, p, p, ProjectGUID(p+".csproj"))
		b.line("EndProject")
	}
	b.line(
		"Global",
		"    GlobalSection(SolutionConfigurationPlatforms) = preSolution",
		"        Debug|Any CPU = Debug|Any CPU",
		"        Release|Any CPU = Release|Any CPU",
		"    EndGlobalSection",
		"    GlobalSection(ProjectConfigurationPlatforms) = postSolution",
	)
	for _, p := range projects {
		guid := ProjectGUID(p + ".csproj")
		b.linef("    %s.Debug|Any CPU.ActiveCfg = Debug|Any CPU", guid)
		b.linef("    %s.Debug|Any CPU.Build.0 = Debug|Any CPU", guid)
		b.linef("    %s.Release|Any CPU.ActiveCfg = Release|Any CPU", guid)
		b.linef("    %s.Release|Any CPU.Build.0 = Release|Any CPU", guid)
	}
	b.line(
		"    EndGlobalSection",
		"    GlobalSection(SolutionProperties) = preSolution",
		"        HideSolutionNode = FALSE",
		"    EndGlobalSection",
		"    GlobalSection(ExtensibilityGlobals) = postSolution",
		"        SolutionGuid = "+ProjectGUID(out.Name),
		"    EndGlobalSection",
		"EndGlobal",
	)
	f.Write(b...)
	return nil
}

func xmlText(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
