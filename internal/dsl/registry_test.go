package dsl

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	require.Same(t, reg, DefaultRegistry())

	def, ok := reg.Lookup("Max")
	require.True(t, ok)
	assert.Equal(t, ParamDecimal, def.Kind)
	assert.True(t, def.NumericOnly)

	def, ok = reg.Lookup("FK")
	require.True(t, ok)
	assert.Equal(t, ParamFK, def.Kind)
	assert.Equal(t, ScopeField, def.Scope)

	def, ok = reg.Lookup("DbTable")
	require.True(t, ok)
	assert.Equal(t, ScopeEntity, def.Scope)

	_, ok = reg.Lookup("Nope")
	assert.False(t, ok)

	names := reg.Names()
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "DbComment")
}

func TestRegistry_ConcurrentLookup(t *testing.T) {
	reg := NewRegistry(AnnotationDef{Name: "X", Kind: ParamInteger, Scope: ScopeField})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d, ok := reg.Lookup("X")
				assert.True(t, ok)
				assert.Equal(t, ParamInteger, d.Kind)
			}
		}()
	}
	wg.Wait()
}

func TestParamKind_String(t *testing.T) {
	assert.Equal(t, "DECIMAL", ParamDecimal.String())
	assert.Equal(t, "LIST", ParamList.String())
	assert.Equal(t, "UNKNOWN", ParamKind(99).String())
}
