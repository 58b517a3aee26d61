package gen

import (
	"strings"

	"github.com/roach88/apigen/internal/diag"
	"github.com/roach88/apigen/internal/emit"
)

// stubFingerprint marks a version header written after a failed run.
const stubFingerprint = "0000000000000000"

// StubTitle is the first line of every placeholder.
const StubTitle = "Stub generated due to code generation error"

// Stub returns placeholder content for out listing problems. Placeholders
// keep downstream builds linking: registration entry points exist but do
// nothing, and the version header carries a fingerprint no real build
// produces.
func Stub(opts Options, out Output, problems []diag.Diagnostic) []string {
	switch out.Ext() {
	case ".md":
		return markdownStub(problems)
	case ".cs":
		return lineCommentStub(problems, "namespace "+managedNamespace+" { }")
	case ".csproj":
		return projectStub(problems)
	case ".sln":
		return solutionStub(problems)
	case ".fos":
		return trimTrailingBlank(append(block{"// FOS Common"}, lineCommentStub(problems, "")...))
	}

	var b block
	b.line("/*", " *  "+StubTitle, " *")
	for _, p := range problems {
		b.line(" *  - " + cComment(p.Error()))
	}
	b.line(" */", "")

	side := string(out.Side)
	switch {
	case out.Target == TargetVersion:
		b.line(versionLines(opts, stubFingerprint)...)
	case out.Ext() == ".h":
		b.line("#pragma once")
	case out.Compiler:
		b.linef("struct %sScriptSystem { void InitAngelScriptScripting(const char*); };", side)
		b.linef("void %sScriptSystem::InitAngelScriptScripting(const char*) { }", side)
	case out.Template == TemplateDataRegistration:
		b.linef("#include \"%sScripting.h\"", side)
		b.linef("void %sScriptSystem::RegisterData() { }", side)
	default:
		b.linef("#include \"%sScripting.h\"", side)
		b.linef("void %sScriptSystem::Init%sScripting() { }", side, out.Template)
	}
	return b
}

// WriteStubs creates a placeholder for every planned output in em.
// Outputs that cannot be created are reported as stub failures.
func WriteStubs(em *emit.Emitter, opts Options, outputs []Output, problems []diag.Diagnostic, diags *diag.List) {
	for _, out := range outputs {
		f, err := em.Create(out.Path())
		if err != nil {
			diags.IO(out.Path(), diag.ErrStubFailed, err)
			continue
		}
		f.Write(Stub(opts, out, problems)...)
	}
}

func markdownStub(problems []diag.Diagnostic) []string {
	var b block
	b.line("# Script API", "", StubTitle+":", "")
	for _, p := range problems {
		b.line("* " + p.Error())
	}
	return b
}

func lineCommentStub(problems []diag.Diagnostic, body string) []string {
	var b block
	b.line("// " + StubTitle)
	for _, p := range problems {
		b.line("// - " + p.Error())
	}
	b.line("", body)
	return b
}

func projectStub(problems []diag.Diagnostic) []string {
	var b block
	b.line(`<?xml version="1.0" encoding="utf-8"?>`, "<!--", "  "+StubTitle)
	for _, p := range problems {
		b.line("  - " + strings.ReplaceAll(xmlText(p.Error()), "--", "- -"))
	}
	b.line(
		"-->",
		`<Project ToolsVersion="15.0" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">`,
		`</Project>`,
	)
	return b
}

func solutionStub(problems []diag.Diagnostic) []string {
	var b block
	b.line("", "Microsoft Visual Studio Solution File, Format Version 12.00", "# "+StubTitle)
	for _, p := range problems {
		b.line("# - " + p.Error())
	}
	b.line("Global", "EndGlobal")
	return b
}

func cComment(s string) string {
	return strings.ReplaceAll(s, "*/", "* /")
}
