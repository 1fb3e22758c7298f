// Package testbin assembles minimal ELF and Mach-O files for tests, so the
// test suite never needs a compiler or real toolchain binaries. The files
// carry just enough structure for the standard library parsers to resolve
// the canonical-name metadata record.
package testbin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// ELF constants used below.
const (
	elfClass64   = 2
	elfDataLSB   = 1
	elfTypeDyn   = 3
	elfMachX8664 = 62

	shtDynamic = 6
	shtStrtab  = 3

	dtNull   = 0
	dtSoname = 14
)

type elf64Header struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type elf64SectionHeader struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

type elf64Dyn struct {
	Tag uint64
	Val uint64
}

// WriteELFSharedObject writes a minimal 64-bit little-endian ELF shared
// object at path. With a non-empty soname the dynamic section carries a
// DT_SONAME entry resolving to it; with an empty soname the dynamic
// section exists but has no such entry.
func WriteELFSharedObject(path, soname string) error {
	// String table: index 0 is the empty string, soname at index 1.
	strtab := []byte{0}
	sonameOff := uint64(len(strtab))
	if soname != "" {
		strtab = append(strtab, soname...)
		strtab = append(strtab, 0)
	}

	var dyn []elf64Dyn
	if soname != "" {
		dyn = append(dyn, elf64Dyn{Tag: dtSoname, Val: sonameOff})
	}
	dyn = append(dyn, elf64Dyn{Tag: dtNull})

	const ehsize = 64
	strtabOff := uint64(ehsize)
	dynOff := align8(strtabOff + uint64(len(strtab)))
	dynSize := uint64(len(dyn) * 16)
	shoff := align8(dynOff + dynSize)

	hdr := elf64Header{
		Type:      elfTypeDyn,
		Machine:   elfMachX8664,
		Version:   1,
		Shoff:     shoff,
		Ehsize:    ehsize,
		Shentsize: 64,
		Shnum:     3,
		Shstrndx:  0,
	}
	copy(hdr.Ident[:], []byte{0x7f, 'E', 'L', 'F', elfClass64, elfDataLSB, 1})

	sections := []elf64SectionHeader{
		{}, // SHN_UNDEF
		{
			Type:      shtDynamic,
			Offset:    dynOff,
			Size:      dynSize,
			Link:      2, // .dynstr
			Addralign: 8,
			Entsize:   16,
		},
		{
			Type:      shtStrtab,
			Offset:    strtabOff,
			Size:      uint64(len(strtab)),
			Addralign: 1,
		},
	}

	var buf bytes.Buffer
	le := binary.LittleEndian
	if err := binary.Write(&buf, le, hdr); err != nil {
		return err
	}
	buf.Write(strtab)
	pad(&buf, int(dynOff)-buf.Len())
	if err := binary.Write(&buf, le, dyn); err != nil {
		return err
	}
	pad(&buf, int(shoff)-buf.Len())
	if err := binary.Write(&buf, le, sections); err != nil {
		return err
	}

	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// Mach-O constants used below.
const (
	machoMagic64   = 0xfeedfacf
	machoFatMagic  = 0xcafebabe
	machoCPUX8664  = 0x01000007
	machoFileDylib = 6
	machoLCIDDylib = 0xd
)

// WriteMachODylib writes a minimal 64-bit little-endian Mach-O dylib at
// path. With a non-empty id the file carries an LC_ID_DYLIB command naming
// it; with an empty id the load-command list is empty.
func WriteMachODylib(path, id string) error {
	data, err := machoDylibBytes(id)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// WriteMachOFatDylib writes a fat (universal) Mach-O wrapper around a
// single 64-bit dylib slice carrying the given id.
func WriteMachOFatDylib(path, id string) error {
	slice, err := machoDylibBytes(id)
	if err != nil {
		return err
	}

	const sliceOff = 4096

	var buf bytes.Buffer
	be := binary.BigEndian
	// fat_header and one fat_arch, always big-endian.
	for _, v := range []uint32{
		machoFatMagic,
		1, // nfat_arch
		machoCPUX8664,
		3, // cpusubtype
		sliceOff,
		uint32(len(slice)),
		12, // align: 2^12
	} {
		if err := binary.Write(&buf, be, v); err != nil {
			return err
		}
	}
	pad(&buf, sliceOff-buf.Len())
	buf.Write(slice)

	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func machoDylibBytes(id string) ([]byte, error) {
	var cmds bytes.Buffer
	le := binary.LittleEndian

	if id != "" {
		// dylib_command: cmd, cmdsize, name offset, timestamp,
		// current_version, compatibility_version, then the name string.
		name := append([]byte(id), 0)
		cmdsize := align8u32(24 + uint32(len(name)))
		for _, v := range []uint32{machoLCIDDylib, cmdsize, 24, 1, 0x10000, 0x10000} {
			if err := binary.Write(&cmds, le, v); err != nil {
				return nil, err
			}
		}
		cmds.Write(name)
		pad(&cmds, int(cmdsize)-int(24+uint32(len(name))))
	}

	ncmds := uint32(0)
	if id != "" {
		ncmds = 1
	}

	var buf bytes.Buffer
	for _, v := range []uint32{
		machoMagic64,
		machoCPUX8664,
		3, // cpusubtype
		machoFileDylib,
		ncmds,
		uint32(cmds.Len()),
		0, // flags
		0, // reserved
	} {
		if err := binary.Write(&buf, le, v); err != nil {
			return nil, err
		}
	}
	buf.Write(cmds.Bytes())
	return buf.Bytes(), nil
}

func align8(v uint64) uint64 {
	return (v + 7) &^ 7
}

func align8u32(v uint32) uint32 {
	return (v + 7) &^ 7
}

func pad(buf *bytes.Buffer, n int) {
	if n < 0 {
		panic(fmt.Sprintf("testbin: negative padding %d", n))
	}
	buf.Write(make([]byte, n))
}
