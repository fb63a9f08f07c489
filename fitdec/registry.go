package fitdec

// FieldDescription is the projection of a field_description message
// (global 206): the declared meaning of one developer field.
type FieldDescription struct {
	DeveloperDataIndex uint8
	FieldNumber        uint8
	BaseType           BaseType
	Name               string
	Units              string
	Scale              float64
	Offset             float64
}

type registryKey struct {
	fieldNumber        uint8
	developerDataIndex uint8
}

// registry accumulates field descriptions in file order during a single
// decode pass. Append-only: a developer field can only resolve against
// descriptions that appeared earlier in the stream.
type registry struct {
	entries map[registryKey]FieldDescription
}

func newRegistry() *registry {
	return &registry{entries: make(map[registryKey]FieldDescription)}
}

func (r *registry) add(desc FieldDescription) {
	r.entries[registryKey{desc.FieldNumber, desc.DeveloperDataIndex}] = desc
}

func (r *registry) lookup(fieldNumber, developerDataIndex uint8) (FieldDescription, bool) {
	desc, ok := r.entries[registryKey{fieldNumber, developerDataIndex}]
	return desc, ok
}

// fieldDescriptionFromMessage projects a decoded global 206 data message.
// Messages missing the base type id are skipped rather than fatal: they could
// never have produced a matching developer definition anyway.
func fieldDescriptionFromMessage(m DataMessage) (FieldDescription, bool) {
	desc := FieldDescription{BaseType: BaseByte}

	btSeen := false
	for _, f := range m.Fields {
		switch f.Number {
		case 0:
			if v, ok := f.Value.Uint8(); ok {
				desc.DeveloperDataIndex = v
			}
		case 1:
			if v, ok := f.Value.Uint8(); ok {
				desc.FieldNumber = v
			}
		case 2:
			if v, ok := f.Value.Uint8(); ok {
				if bt, err := baseTypeFromRaw(v); err == nil {
					desc.BaseType = bt
					btSeen = true
				}
			}
		case 3:
			if s, ok := f.Value.Str(); ok {
				desc.Name = s
			}
		case 6:
			if v, ok := f.Value.Uint8(); ok && !f.Value.Invalid() {
				desc.Scale = float64(v)
			}
		case 7:
			if v, ok := f.Value.Int8(); ok && !f.Value.Invalid() {
				desc.Offset = float64(v)
			}
		case 8:
			if s, ok := f.Value.Str(); ok {
				desc.Units = s
			}
		}
	}
	return desc, btSeen
}
