package scene

type MaterialKind int

const (
	// MaterialNormal shades by surface normal.
	MaterialNormal MaterialKind = iota
	// MaterialImported is whatever the importer assigned from the document.
	MaterialImported
)

type Material struct {
	Kind      MaterialKind
	Name      string
	Color     uint32
	Wireframe bool
}

// NormalMaterial is the material every imported mesh gets in the viewer.
func NormalMaterial(wireframe bool) *Material {
	return &Material{Kind: MaterialNormal, Name: "normal", Wireframe: wireframe}
}

func importedMaterial(name string) *Material {
	return &Material{Kind: MaterialImported, Name: name, Color: 0x9a9a9a}
}
