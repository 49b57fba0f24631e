package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessFlags_Has(t *testing.T) {
	a := AccPublic | AccStatic | AccFinal
	assert.True(t, a.Has(AccPublic))
	assert.True(t, a.Has(AccPublic|AccStatic))
	assert.False(t, a.Has(AccPrivate))
	assert.False(t, a.Has(AccPublic|AccAbstract))
}

func TestAccessFlags_Format(t *testing.T) {
	tests := []struct {
		name     string
		flags    AccessFlags
		kind     MemberKind
		expected string
	}{
		{"public class", AccPublic | AccSuper, KindClass, "public"},
		{"abstract class", AccPublic | AccAbstract | AccSuper, KindClass, "public abstract"},
		{"interface drops implicit abstract", AccPublic | AccInterface | AccAbstract, KindClass, "public"},
		{"constant field", AccPublic | AccStatic | AccFinal, KindField, "public static final"},
		{"volatile field", AccPrivate | AccVolatile, KindField, "private volatile"},
		{"synchronized method", AccPublic | AccSynchronized, KindMethod, "public synchronized"},
		{"bridge method", AccPublic | AccBridge | AccSynthetic, KindMethod, "public bridge synthetic"},
		{"varargs method", AccPublic | AccStatic | AccVarargs, KindMethod, "public static varargs"},
		{"transient field", AccTransient, KindField, "transient"},
		{"package private", 0, KindMethod, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.flags.Format(tt.kind))
		})
	}
}

func TestAccessFlags_TypeKeyword(t *testing.T) {
	assert.Equal(t, "class", (AccPublic | AccSuper).TypeKeyword())
	assert.Equal(t, "interface", (AccInterface | AccAbstract).TypeKeyword())
	assert.Equal(t, "@interface", (AccInterface | AccAbstract | AccAnnotation).TypeKeyword())
	assert.Equal(t, "enum", (AccFinal | AccEnum).TypeKeyword())
	assert.Equal(t, "module", AccModule.TypeKeyword())
}

func TestMemberKind_String(t *testing.T) {
	assert.Equal(t, "class", KindClass.String())
	assert.Equal(t, "field", KindField.String())
	assert.Equal(t, "method", KindMethod.String())
	assert.Equal(t, "unknown", MemberKind(9).String())
}
