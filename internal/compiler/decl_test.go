package compiler

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignature(t *testing.T) {
	sig, err := parseSignature("[[maybe_unused]] static int32 Server_Critter_Foo(ServerCritter* self, map<int, string> m) {")
	require.NoError(t, err)
	assert.Equal(t, "int32", sig.Ret)
	assert.Equal(t, "Server_Critter_Foo", sig.Name)
	assert.Len(t, sig.Params, 2)
}

func TestDeclErrorsCarryStacks(t *testing.T) {
	_, sigErr := parseSignature("static int32 Broken")
	_, parenErr := parseSignature("static void Foo(int a")
	_, callErr := parseCall("Foo(int a) const")
	_, badCall := parseCall("two words(int a)")
	_, _, paramErr := splitScriptParam("   ")

	require.NoError(t, callErr)
	for _, err := range []error{sigErr, parenErr, badCall, paramErr} {
		require.Error(t, err)
		assert.NotNil(t, errors.GetReportableStackTrace(err), "%v", err)
	}
	assert.Contains(t, sigErr.Error(), "no parameter list")
	assert.Contains(t, parenErr.Error(), "unbalanced parentheses")
	assert.Contains(t, badCall.Error(), `bad name "two words"`)
}
