package classfile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classmeta/internal/testutil"
)

func TestClassInfo_MarshalJSON(t *testing.T) {
	info, err := Read(fooClass())
	require.NoError(t, err)

	data, err := json.Marshal(info)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "com/example/Foo", got["name"])
	assert.Equal(t, "java/lang/Object", got["super_name"])
	assert.Equal(t, []interface{}{"java/lang/Comparable"}, got["interfaces"])
	assert.Equal(t, "class", got["kind"])
	assert.Equal(t, float64(len(info.Value())), got["size"])

	fields := got["fields"].([]interface{})
	require.Len(t, fields, 1)
	field := fields[0].(map[string]interface{})
	assert.Equal(t, "value", field["name"])
	assert.Equal(t, "I", field["descriptor"])
	assert.Equal(t, float64(AccPublic|AccStatic), field["access"])
	assert.Equal(t, []interface{}{"public", "static"}, field["modifiers"])
}

func TestClassInfo_MarshalJSON_RootAndEmpty(t *testing.T) {
	info, err := Read(testutil.NewClassBuilder("java/lang/Object").NoSuper().Bytes())
	require.NoError(t, err)

	data, err := json.Marshal(info)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Nil(t, got["super_name"])
	assert.Equal(t, []interface{}{}, got["interfaces"])
	assert.Equal(t, []interface{}{}, got["fields"])
	assert.Equal(t, []interface{}{}, got["methods"])
}

func TestClassInfo_Helpers(t *testing.T) {
	data := testutil.NewClassBuilder("com/example/Api$Handler").
		Access(testutil.AccPublic|testutil.AccInterface|testutil.AccAbstract).
		Method(testutil.AccPublic|testutil.AccAbstract, "handle", "(Ljava/lang/Object;)V").
		Field(testutil.AccPublic|testutil.AccStatic|testutil.AccFinal, "ID", "I").
		Bytes()

	info, err := Read(data)
	require.NoError(t, err)

	assert.True(t, info.IsInterface())
	assert.False(t, info.IsModule())
	assert.Equal(t, "com/example", info.PackageName())
	assert.Equal(t, "Api$Handler", info.SimpleName())
	assert.Equal(t, "com.example.Api$Handler", info.JavaName())
	assert.Equal(t, 1, info.NumFields())
	assert.Equal(t, 1, info.NumMethods())

	m, ok := info.FindMethod("handle", "(Ljava/lang/Object;)V")
	require.True(t, ok)
	assert.True(t, m.Access().Has(AccAbstract))
	_, ok = info.FindMethod("handle", "()V")
	assert.False(t, ok)

	f, ok := info.FindField("ID", "I")
	require.True(t, ok)
	assert.Equal(t, "public static final int ID", f.Declaration())
}

func TestRead_ModuleInfo(t *testing.T) {
	data := testutil.NewClassBuilder("module-info").
		Version(53, 0).
		Access(testutil.AccModule).
		NoSuper().
		Bytes()

	info, err := Read(data)
	require.NoError(t, err)
	assert.True(t, info.IsModule())
	assert.False(t, info.HasSuperName())
	assert.Equal(t, 9, info.Version().JavaRelease())
}

func TestVersion(t *testing.T) {
	assert.Equal(t, 8, Version{Major: 52}.JavaRelease())
	assert.Equal(t, 21, Version{Major: 65}.JavaRelease())
	assert.Equal(t, 1, Version{Major: 46}.JavaRelease())
	assert.True(t, Version{Major: 65, Minor: 0xFFFF}.IsPreview())
	assert.False(t, Version{Major: 52, Minor: 0xFFFF}.IsPreview())
}

func TestMemberInfo_Predicates(t *testing.T) {
	assert.True(t, NewMethodInfo("<init>", "()V", AccPublic).IsConstructor())
	assert.True(t, NewMethodInfo("<clinit>", "()V", AccStatic).IsStaticInitializer())
	assert.False(t, NewMemberInfo("<init>", "I", 0).IsConstructor())
	assert.Nil(t, NewMethodInfo("m", "()V", 0).Code())
}
