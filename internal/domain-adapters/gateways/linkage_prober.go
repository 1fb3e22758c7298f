// Package gateways provides adapter implementations for external services and tools.
package gateways

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"fmt"
	"io"
	"os"

	"github.com/nocturne-build/sofix/internal/domain/entities"
)

// Container magic numbers. Mach-O magics appear in both byte orders
// depending on how the file was written relative to the reading host.
var (
	elfMagic = []byte{0x7f, 'E', 'L', 'F'}

	machoMagics = [][]byte{
		{0xfe, 0xed, 0xfa, 0xce}, // 32-bit
		{0xce, 0xfa, 0xed, 0xfe},
		{0xfe, 0xed, 0xfa, 0xcf}, // 64-bit
		{0xcf, 0xfa, 0xed, 0xfe},
	}

	machoFatMagics = [][]byte{
		{0xca, 0xfe, 0xba, 0xbe},
		{0xbe, 0xba, 0xfe, 0xca},
	}
)

// LC_ID_DYLIB. The stdlib leaves this load command undecoded, so the
// prober reads it from the raw command bytes itself.
const loadCmdIDDylib = 0xd

// linkageProber implements canonical-name probing using pure Go.
// Uses debug/elf and debug/macho packages - no external tools required.
type linkageProber struct{}

// NewLinkageProber creates a new linkage prober
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewLinkageProber() *linkageProber {
	return &linkageProber{}
}

// Probe detects the container format of the file at path and extracts its
// embedded canonical name. An empty name means the container carries no
// such record. Every call parses the file fresh so a repair step can
// observe its own effect.
func (p *linkageProber) Probe(path string) (entities.ContainerFormat, string, error) {
	magic, err := readMagic(path)
	if err != nil {
		return entities.FormatOther, "", &entities.ProbeError{Path: path, Err: err}
	}

	switch detectFormat(magic) {
	case entities.FormatELF:
		name, err := p.probeELF(path)
		if err != nil {
			return entities.FormatELF, "", &entities.ProbeError{Path: path, Err: err}
		}
		return entities.FormatELF, name, nil
	case entities.FormatMachO:
		name, err := p.probeMachO(path, isFatMagic(magic))
		if err != nil {
			return entities.FormatMachO, "", &entities.ProbeError{Path: path, Err: err}
		}
		return entities.FormatMachO, name, nil
	default:
		// Static archives, scripts, plain files: a normal case.
		return entities.FormatOther, "", nil
	}
}

// probeELF scans the dynamic-linking entry table for the DT_SONAME record
// and resolves it through the string table.
func (p *linkageProber) probeELF(path string) (string, error) {
	f, err := elf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open ELF file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	names, err := f.DynString(elf.DT_SONAME)
	if err != nil {
		return "", fmt.Errorf("failed to read dynamic section: %w", err)
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}

// probeMachO scans the load-command list for the identification-dylib
// command and extracts its embedded name field. Fat binaries are probed
// through their first architecture slice; all slices of a dylib share one
// install name.
func (p *linkageProber) probeMachO(path string, fat bool) (string, error) {
	if fat {
		ff, err := macho.OpenFat(path)
		if err != nil {
			return "", fmt.Errorf("failed to open fat Mach-O file: %w", err)
		}
		//nolint:errcheck // Defer close on read-only file
		defer ff.Close()

		if len(ff.Arches) == 0 {
			return "", fmt.Errorf("fat Mach-O file has no architectures")
		}
		return idDylibName(ff.Arches[0].File)
	}

	f, err := macho.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open Mach-O file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	return idDylibName(f)
}

// idDylibName extracts the name field of the LC_ID_DYLIB command, if any.
// Layout: cmd(4) cmdsize(4) nameOffset(4) timestamp(4) currentVersion(4)
// compatVersion(4), with the name as a NUL-terminated string at nameOffset
// from the start of the command.
func idDylibName(f *macho.File) (string, error) {
	for _, load := range f.Loads {
		raw := load.Raw()
		if len(raw) < 12 {
			continue
		}
		if f.ByteOrder.Uint32(raw[0:4]) != loadCmdIDDylib {
			continue
		}
		off := f.ByteOrder.Uint32(raw[8:12])
		if uint64(off) >= uint64(len(raw)) {
			return "", fmt.Errorf("LC_ID_DYLIB name offset %d outside command of %d bytes", off, len(raw))
		}
		name := raw[off:]
		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
		return string(name), nil
	}
	return "", nil
}

// readMagic reads the first four bytes of the file. Shorter files are a
// normal unrecognized case, not an error.
func readMagic(path string) ([]byte, error) {
	//nolint:gosec // G304: artifact path is supplied by the audit caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, nil
		}
		return nil, err
	}
	return magic, nil
}

func detectFormat(magic []byte) entities.ContainerFormat {
	if len(magic) < 4 {
		return entities.FormatOther
	}
	if bytes.Equal(magic, elfMagic) {
		return entities.FormatELF
	}
	for _, m := range machoMagics {
		if bytes.Equal(magic, m) {
			return entities.FormatMachO
		}
	}
	for _, m := range machoFatMagics {
		if bytes.Equal(magic, m) {
			return entities.FormatMachO
		}
	}
	return entities.FormatOther
}

func isFatMagic(magic []byte) bool {
	for _, m := range machoFatMagics {
		if bytes.Equal(magic, m) {
			return true
		}
	}
	return false
}
