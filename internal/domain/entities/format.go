package entities

// ContainerFormat is the binary packaging convention of a compiled
// artifact. It determines where and how the canonical name is encoded.
// Adding a format means adding a constant here and a probe arm for it;
// dispatch is always an exhaustive switch, never type-based lookup.
type ContainerFormat int

// Recognized container formats.
const (
	// FormatOther covers everything that is not a recognized dynamic
	// container: static archives, scripts, text files. A normal case, not
	// an error.
	FormatOther ContainerFormat = iota
	FormatELF
	FormatMachO
)

// String returns the format name.
func (f ContainerFormat) String() string {
	switch f {
	case FormatELF:
		return "elf"
	case FormatMachO:
		return "mach-o"
	default:
		return "other"
	}
}
