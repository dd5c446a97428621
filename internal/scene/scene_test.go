package scene

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/src-d/go-billy.v4/memfs"

	"forestgen/internal/config"
	"forestgen/internal/forest"
	"forestgen/internal/store"
)

const mapI3D = `<?xml version="1.0" encoding="iso-8859-1"?>
<i3D name="map" version="1.6" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:noNamespaceSchemaLocation="http://i3d.giants.ch/schema/i3d-1.6.xsd">
  <Files>
    <File fileId="1" filename="textures/terrain.png"/>
    <File fileId="7" filename="data/map_dem.png"/>
  </Files>
  <Scene>
    <TerrainTransformGroup name="terrain" heightMapId="7" unitsPerPixel="2" nodeId="1"/>
    <TransformGroup name="baseTrees" nodeId="10">
      <TransformGroup name="baseOak" nodeId="11">
        <TransformGroup name="oak_stage1" nodeId="12">
          <Shape name="trunk" nodeId="13"/>
        </TransformGroup>
        <TransformGroup name="oak_stage3" nodeId="14"/>
      </TransformGroup>
      <TransformGroup name="baseMaple" nodeId="20">
        <TransformGroup name="maple" nodeId="21"/>
      </TransformGroup>
    </TransformGroup>
    <TransformGroup name="autoForests" nodeId="30">
      <TransformGroup name="stale" nodeId="31"/>
      <Note>keep me</Note>
    </TransformGroup>
  </Scene>
</i3D>
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadMap(t *testing.T) *Document {
	t.Helper()
	doc, err := Decode(strings.NewReader(mapI3D))
	require.NoError(t, err)
	return doc
}

func TestTerrainLookups(t *testing.T) {
	doc := loadMap(t)

	scale, err := doc.PixelScale()
	require.NoError(t, err)
	assert.Equal(t, 2.0, scale)

	ref, err := doc.HeightMapRef()
	require.NoError(t, err)
	assert.Equal(t, "data/map_dem.png", ref)
}

func TestHeightMapRefMissing(t *testing.T) {
	tests := map[string]string{
		"no terrain":     `<i3D><Scene/></i3D>`,
		"no height map":  `<i3D><Scene><TerrainTransformGroup/></Scene></i3D>`,
		"dangling id":    `<i3D><Files/><Scene><TerrainTransformGroup heightMapId="3"/></Scene></i3D>`,
		"empty filename": `<i3D><Files><File fileId="3"/></Files><Scene><TerrainTransformGroup heightMapId="3"/></Scene></i3D>`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(src))
			require.NoError(t, err)
			_, err = doc.HeightMapRef()
			assert.ErrorIs(t, err, forest.ErrNoHeightGrid)
		})
	}
}

func TestCatalog(t *testing.T) {
	doc := loadMap(t)
	tc, err := doc.Catalog("baseTrees", config.Default().Naming, quietLogger())
	require.NoError(t, err)

	require.Equal(t, []string{"oak", "maple"}, tc.Catalog.Names())
	oak := tc.Catalog.Species[0]
	require.Len(t, oak.Variants, 2)
	assert.Equal(t, 1, oak.Variants[0].Stage)
	assert.Equal(t, 3, oak.Variants[1].Stage)
	assert.True(t, oak.Variants[1].HasStage)
	assert.Equal(t, "oak_stage3", tc.Templates[oak.Variants[1].Template].Label())

	maple := tc.Catalog.Species[1]
	require.Len(t, maple.Variants, 1)
	assert.False(t, maple.Variants[0].HasStage)
	assert.Equal(t, "maple", tc.Templates[maple.Variants[0].Template].Label())

	assert.Equal(t, "wgtOak", tc.Weights["oak"])
	assert.Equal(t, "wgtMaple", tc.Weights["maple"])
}

func TestCatalogFailures(t *testing.T) {
	naming := config.Default().Naming

	_, err := loadMap(t).Catalog("missingTrees", naming, quietLogger())
	assert.ErrorIs(t, err, forest.ErrNoTreeSource)

	empty, err := Decode(strings.NewReader(`<i3D><Scene><TransformGroup name="baseTrees"/></Scene></i3D>`))
	require.NoError(t, err)
	_, err = empty.Catalog("baseTrees", naming, quietLogger())
	assert.ErrorIs(t, err, forest.ErrEmptyCatalog)

	unstaged, err := Decode(strings.NewReader(`<i3D><TransformGroup name="baseTrees">
		<TransformGroup name="baseElm"><TransformGroup name="a"/><TransformGroup name="b"/></TransformGroup>
	</TransformGroup></i3D>`))
	require.NoError(t, err)
	_, err = unstaged.Catalog("baseTrees", naming, quietLogger())
	assert.ErrorIs(t, err, forest.ErrInvalidVariant)
}

func TestInsertForests(t *testing.T) {
	doc := loadMap(t)
	naming := config.Default().Naming
	tc, err := doc.Catalog("baseTrees", naming, quietLogger())
	require.NoError(t, err)

	oak := tc.Catalog.Species[0]
	result := &forest.Result{
		Forests: []forest.Forest{
			{Number: 1, Placements: []forest.Placement{
				{Species: "oak", Stage: "1", Template: oak.Variants[0].Template, Position: forest.Vec3{X: 1.5, Y: 200.25, Z: -3}, RotationY: -12.5, NodeID: 100000},
				{Species: "oak", Stage: "3", Template: oak.Variants[1].Template, Position: forest.Vec3{X: 2, Y: 201, Z: 4}, RotationY: 90, NodeID: 100001},
			}},
			{Number: 2},
		},
		NextID: 100002,
	}

	next, err := doc.InsertForests(result, tc.Templates, naming)
	require.NoError(t, err)
	assert.Equal(t, 100005, next, "two forest groups and one nested shape")

	container := doc.Root.FindNamed("autoForests")
	require.NotNil(t, container)
	groups := container.Elements(ElemTransformGroup)
	require.Len(t, groups, 2, "stale groups are replaced")
	assert.Len(t, container.Elements("Note"), 1, "other children are kept")

	first := groups[0]
	assert.Equal(t, "forest1", first.Label())
	id, _ := first.Attr(AttrNodeID)
	assert.Equal(t, "100002", id)
	require.Len(t, first.Children, 2)

	tree := first.Children[0]
	assert.Equal(t, "oak_stage1", tree.Label())
	v, _ := tree.Attr(AttrTranslation)
	assert.Equal(t, "1.5000 200.2500 -3.0000", v)
	v, _ = tree.Attr(AttrRotation)
	assert.Equal(t, "0 -12.50 0", v)
	v, _ = tree.Attr(AttrNodeID)
	assert.Equal(t, "100000", v)
	v, _ = tree.Children[0].Attr(AttrNodeID)
	assert.Equal(t, "100004", v)

	template, _ := tc.Templates[oak.Variants[0].Template].Attr(AttrNodeID)
	assert.Equal(t, "12", template, "templates are not modified")

	second := groups[1]
	assert.Equal(t, "forest2", second.Label())
	assert.Empty(t, second.Children)
}

func TestInsertForestsCreatesContainer(t *testing.T) {
	doc, err := Decode(strings.NewReader(`<i3D><Scene><TransformGroup name="baseTrees"/></Scene></i3D>`))
	require.NoError(t, err)

	next, err := doc.InsertForests(&forest.Result{Forests: []forest.Forest{{Number: 1}}, NextID: 5}, nil, config.Default().Naming)
	require.NoError(t, err)
	assert.Equal(t, 7, next)

	container := doc.Root.FindElement("Scene").FindNamed("autoForests")
	require.NotNil(t, container)
	id, _ := container.Attr(AttrNodeID)
	assert.Equal(t, "6", id)
}

func TestInsertForestsRejectsUnknownTemplate(t *testing.T) {
	doc := loadMap(t)
	result := &forest.Result{Forests: []forest.Forest{{Number: 1, Placements: []forest.Placement{{Template: 9}}}}}
	_, err := doc.InsertForests(result, nil, config.Default().Naming)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, loadMap(t).Save(store.New(fs, false), "maps/map.i3d"))

	doc, err := Load(fs, "maps/map.i3d")
	require.NoError(t, err)
	v, ok := doc.Root.Attr("xsi:noNamespaceSchemaLocation")
	assert.True(t, ok)
	assert.Equal(t, "http://i3d.giants.ch/schema/i3d-1.6.xsd", v)
	assert.Equal(t, "keep me", doc.Root.FindElement("Note").Text)

	var buf bytes.Buffer
	require.NoError(t, doc.Encode(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), `<?xml version="1.0" encoding="utf-8"?>`))
	assert.Contains(t, buf.String(), `xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, src := range []string{"", "<a><b></a>", "<a>", "<a/><b/>"} {
		_, err := Decode(strings.NewReader(src))
		assert.Error(t, err, src)
	}
}
