package pod

// FindProperty returns the first property of obj whose key equals key, in
// encoding order. A miss, a non-object value and a malformed property
// region all report false. It only reads obj, so concurrent lookups on
// the same buffer are safe.
func FindProperty(obj Value, key uint32) (Property, bool) {
	o, err := obj.Object()
	if err != nil {
		return Property{}, false
	}
	return o.Find(key)
}

// FindValue is FindProperty returning only the property value.
func FindValue(obj Value, key uint32) (Value, bool) {
	prop, ok := FindProperty(obj, key)
	return prop.Value, ok
}
