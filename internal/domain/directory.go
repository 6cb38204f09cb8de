package domain

// Tipos de intercambio con el servicio de directorio externo.
// Punteros nil = "no tocar" en los patches.

type RolePatch struct {
	Name  *string
	Hoist *bool
}

type ChannelSpec struct {
	Name       string
	Class      ChannelClass
	CategoryID string
	Overwrites OverwriteSet
}

type ChannelPatch struct {
	Name       *string
	CategoryID *string
	Overwrites OverwriteSet // nil = sin cambios
}
