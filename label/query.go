package label

// Attribute returns the value of the first attribute whose entry matches.
func (d *Document) Attribute(entry string) (string, bool) {
	for _, f := range d.fields {
		if a, ok := f.(Attribute); ok && a.Key == entry {
			return a.Value, true
		}
	}
	return "", false
}

// AttributeEntries lists attribute entries in document order.
func (d *Document) AttributeEntries() []string { return d.entries(KindAttribute) }

// TextSlotEntries lists text slot entries in document order.
func (d *Document) TextSlotEntries() []string { return d.entries(KindTextSlot) }

// QRSlotEntries lists QR code slot entries in document order.
func (d *Document) QRSlotEntries() []string { return d.entries(KindQrCodeSlot) }

// SlotEntries lists the entries of both slot kinds in document order.
func (d *Document) SlotEntries() []string { return d.entries(KindTextSlot, KindQrCodeSlot) }

func (d *Document) entries(kinds ...FieldKind) []string {
	var out []string
	for _, f := range d.fields {
		for _, k := range kinds {
			if f.Kind() == k {
				out = append(out, f.Entry())
				break
			}
		}
	}
	return out
}
