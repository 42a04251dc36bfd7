package media

// FieldDef describes one canonical field of a kind.
type FieldDef struct {
	Name        string
	Aliases     []string
	Identifying bool
	Required    bool
}

var fieldSpecs = map[Kind][]FieldDef{
	KindSong: {
		{Name: "title", Identifying: true, Required: true},
		{Name: "artist", Identifying: true},
		{Name: "album", Identifying: true},
		{Name: "artwork_path"},
	},
	KindMovie: {
		{Name: "title", Identifying: true, Required: true},
		{Name: "director", Aliases: []string{"artist"}, Identifying: true},
		{Name: "year", Identifying: true},
		{Name: "poster_path"},
	},
	KindBook: {
		{Name: "title", Identifying: true, Required: true},
		{Name: "author", Aliases: []string{"artist", "writer"}, Identifying: true},
		{Name: "cover_path"},
	},
	KindShow: {
		{Name: "title", Identifying: true, Required: true},
		{Name: "creator", Aliases: []string{"artist", "network"}, Identifying: true},
		{Name: "poster_path"},
	},
	KindGame: {
		{Name: "title", Identifying: true, Required: true},
		{Name: "developer", Aliases: []string{"artist", "studio", "publisher"}, Identifying: true},
		{Name: "platform"},
		{Name: "cover_path"},
	},
}

// FieldSpec lists the canonical fields of kind in display order.
func FieldSpec(kind Kind) []FieldDef {
	return fieldSpecs[kind]
}

// FieldNames returns every canonical field name and alias for kind, canonical
// names first.
func FieldNames(kind Kind) []string {
	defs := FieldSpec(kind)
	names := make([]string, 0, len(defs)*2)
	for _, def := range defs {
		names = append(names, def.Name)
	}
	for _, def := range defs {
		names = append(names, def.Aliases...)
	}
	return names
}

// CanonicalName maps an alias back to its canonical field name for kind.
func CanonicalName(kind Kind, name string) (string, bool) {
	for _, def := range FieldSpec(kind) {
		if def.Name == name {
			return def.Name, true
		}
		for _, alias := range def.Aliases {
			if alias == name {
				return def.Name, true
			}
		}
	}
	return "", false
}
