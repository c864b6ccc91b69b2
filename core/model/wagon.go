package model

// WagonType describes a wagon class and the materials it may carry.
type WagonType struct {
	Code         string
	CapacityTons float64
	Materials    []string
}

// Carries reports whether the wagon type is compatible with the material.
// An empty compatibility list means the type accepts any cargo.
func (w WagonType) Carries(material string) bool {
	if len(w.Materials) == 0 {
		return true
	}
	for _, m := range w.Materials {
		if m == material {
			return true
		}
	}
	return false
}

// WagonTable maps a material to its compatible wagon types.
type WagonTable map[string][]WagonType

// TypeFor returns the first compatible wagon type for the material, or the
// fallback BCN profile when the material is not listed.
func (t WagonTable) TypeFor(material string) WagonType {
	if types, ok := t[material]; ok && len(types) > 0 {
		return types[0]
	}
	return WagonType{Code: "BCN", CapacityTons: 58}
}
