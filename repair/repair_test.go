package repair

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/uigen/validator"
)

func TestBuildAnnotatesOffendingLines(t *testing.T) {
	source := "line one\nline two\nline three"
	diags := []validator.Diagnostic{
		{Line: 2, Column: 1, Code: "TS2741", Message: "Property 'size' is missing in type 'IButton'."},
	}

	plan := Build(source, diags)
	lines := strings.Split(plan.AnnotatedCode, "\n")
	assert.Contains(t, lines[2], "line two // ERROR TS2741:")
	assert.NotContains(t, lines[1], "ERROR")
	assert.NotContains(t, lines[3], "ERROR")
}

func TestBuildAppendsOutOfBoundsDiagnostics(t *testing.T) {
	source := "only line"
	diags := []validator.Diagnostic{
		{Line: 42, Code: "TS1005", Message: "';' expected."},
	}

	plan := Build(source, diags)
	lines := strings.Split(plan.AnnotatedCode, "\n")
	assert.Equal(t, "// ERROR TS1005: ';' expected.", lines[len(lines)-1])
}

func TestBuildAnnotationCountMatchesDiagnostics(t *testing.T) {
	source := strings.Repeat("x\n", 4) + "x"
	diags := []validator.Diagnostic{
		{Line: 1, Code: "TS1", Message: "a"},
		{Line: 3, Code: "TS2", Message: "b"},
		{Line: 99, Code: "TS3", Message: "c"},
		{Line: -1, Code: "TS4", Message: "d"},
	}

	plan := Build(source, diags)
	annotated := strings.Count(plan.AnnotatedCode, "// ERROR")
	assert.Equal(t, len(diags), annotated)
}

func TestBuildExtractsInterfaceIdentifiers(t *testing.T) {
	diags := []validator.Diagnostic{
		{Line: 1, Code: "TS2322", Message: "Type '{}' is not assignable to type 'IntrinsicAttributes & IBox'."},
		{Line: 2, Code: "TS2741", Message: "Property 'title' is missing in type 'IHeader'."},
	}

	plan := Build("a\nb", diags)
	assert.Contains(t, plan.Queries, "IBox")
	assert.Contains(t, plan.Queries, "IHeader")
}

func TestBuildSynthesizesGenericQueries(t *testing.T) {
	diags := []validator.Diagnostic{
		{Line: 1, Code: "TS1005", Message: "';' expected."},
	}

	plan := Build("a", diags)
	require.Len(t, plan.Queries, 1)
	assert.Equal(t, "useful code samples to fix ';' expected.", plan.Queries[0])
}

func TestBuildCapsGenericQueries(t *testing.T) {
	var diags []validator.Diagnostic
	for i := 0; i < 6; i++ {
		diags = append(diags, validator.Diagnostic{Line: 1, Code: "TS1005", Message: strings.Repeat("x", i+1) + " expected."})
	}

	plan := Build("a", diags)
	assert.LessOrEqual(t, len(plan.Queries), maxGenericQueries)
}

func TestBuildDeduplicatesQueries(t *testing.T) {
	diags := []validator.Diagnostic{
		{Line: 1, Code: "TS2322", Message: "not assignable to IBox"},
		{Line: 2, Code: "TS2322", Message: "still not assignable to IBox"},
	}

	plan := Build("a\nb", diags)
	count := 0
	for _, q := range plan.Queries {
		if q == "IBox" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestBuildNoDiagnostics(t *testing.T) {
	plan := Build("clean", nil)
	assert.Empty(t, plan.Queries)
	assert.NotContains(t, plan.AnnotatedCode, "// ERROR")
}
