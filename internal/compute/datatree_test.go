package compute

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchPath(t *testing.T) {
	assert.Equal(t, "{0}", BranchPath([]int{0}))
	assert.Equal(t, "{0;2;1}", BranchPath([]int{0, 2, 1}))
	assert.Equal(t, "{}", BranchPath(nil))
}

func TestDataTree_Append(t *testing.T) {
	tree := NewDataTree("Height")
	require.NoError(t, tree.Append([]int{0}, 50.0))
	require.NoError(t, tree.Append([]int{0}, "label", true))

	items := tree.InnerTree.Branch("{0}")
	require.Len(t, items, 3)
	assert.Equal(t, Item{Type: "System.Double", Data: "50"}, items[0])
	assert.Equal(t, Item{Type: "System.String", Data: `"label"`}, items[1])
	assert.Equal(t, Item{Type: "System.Boolean", Data: "true"}, items[2])
}

func TestDataTree_MarshalWireFormat(t *testing.T) {
	tree := NewDataTree("Radius")
	require.NoError(t, tree.Append([]int{0}, 10.5))

	b, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ParamName":"Radius","InnerTree":{"{0}":[{"type":"System.Double","data":"10.5"}]}}`, string(b))
}

func TestInnerTree_PreservesBranchOrder(t *testing.T) {
	raw := `{"{2}":[{"type":"System.String","data":"\"c\""}],"{0}":[],"{1}":[{"type":"System.Int32","data":"1"},{"type":"System.Int32","data":"2"}]}`

	var tree InnerTree
	require.NoError(t, json.Unmarshal([]byte(raw), &tree))
	assert.Equal(t, []string{"{2}", "{0}", "{1}"}, tree.Paths())
	assert.Equal(t, 3, tree.Len())
	assert.Empty(t, tree.Branch("{0}"))
	assert.Len(t, tree.Branch("{1}"), 2)

	out, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Equal(t, `{"{2}":[{"type":"System.String","data":"\"c\""}],"{0}":[],"{1}":[{"type":"System.Int32","data":"1"},{"type":"System.Int32","data":"2"}]}`, string(out))
}

func TestInnerTree_RejectsNonObject(t *testing.T) {
	var tree InnerTree
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &tree))
}

func TestParseResponse(t *testing.T) {
	raw := `{"values":[{"ParamName":"RH_OUT:mesh","InnerTree":{"{0}":[{"type":"System.String","data":"\"abc\""}]}},{"ParamName":"RH_OUT:pts","InnerTree":{"{0;0}":[],"{0;1}":[{"type":"Rhino.Geometry.Point3d","data":"{\"X\":1,\"Y\":2,\"Z\":3}"}]}}],"warnings":["slow"]}`

	resp, err := ParseResponse([]byte(raw))
	require.NoError(t, err)
	require.Len(t, resp.Values, 2)
	assert.Equal(t, "RH_OUT:mesh", resp.Values[0].ParamName)
	assert.Equal(t, []string{"{0;0}", "{0;1}"}, resp.Values[1].InnerTree.Paths())
	assert.Equal(t, 2, resp.ItemCount())
	assert.Equal(t, []string{"slow"}, resp.Warnings)
}

func TestParseResponse_DropsNullOutputs(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"values":[null,{"ParamName":"RH_OUT:x","InnerTree":{"{0}":[{"type":"System.Double","data":"1"}]}},null]}`))
	require.NoError(t, err)
	require.Len(t, resp.Values, 1)
	assert.Equal(t, "RH_OUT:x", resp.Values[0].ParamName)
	assert.Equal(t, 1, resp.ItemCount())
}

func TestItemCount_NilOutputs(t *testing.T) {
	var none *Response
	assert.Equal(t, 0, none.ItemCount())
	assert.Equal(t, 0, (&Response{Values: []*DataTree{nil}}).ItemCount())
}

func TestParseResponse_Invalid(t *testing.T) {
	_, err := ParseResponse([]byte(`{"values":`))
	assert.Error(t, err)
}
