package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// TRX format errors.
var (
	ErrInvalidTRXMagic       = errors.New("invalid TRX magic: expected 'NWN2'")
	ErrUnsupportedTRXVersion = errors.New("unsupported TRX version")
	ErrTruncatedTRXData      = errors.New("truncated TRX data")
	ErrUnknownTRXPacket      = errors.New("unknown TRX packet type")
	ErrMalformedTRXPacket    = errors.New("malformed TRX packet")
)

// TRX packet type tags. The set is closed for format revision 2.3.
const (
	packetTRWH = "TRWH" // Terrain width/height header
	packetTRRN = "TRRN" // Terrain geometry
	packetWATR = "WATR" // Water geometry
	packetASWM = "ASWM" // Walkmesh. Recognized but not decoded.
)

const trxHeaderSize = 12

// Per-vertex input record sizes, fixed by the format.
const (
	terrainVertexSize = 44 // 3 position + 3 normal floats, 4 color bytes, 16 trailing bytes
	waterVertexSize   = 28 // 3 position floats, 16 trailing bytes
)

// TerrainVertexStride is the number of floats per decoded terrain vertex:
// position (3), normal (3), blended color RGBA (4).
const TerrainVertexStride = 10

// WaterVertexStride is the number of floats per decoded water vertex:
// position (3), color RGB (3).
const WaterVertexStride = 6

// TRXVersion represents the TRX file version.
type TRXVersion struct {
	Major uint16
	Minor uint16
}

// String returns the version as "Major.Minor".
func (v TRXVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// trxPacket is a directory entry for one packet in the container.
type trxPacket struct {
	Type   string
	Offset uint32
}

// TerrainMesh is one decoded TRRN packet: a render-ready terrain patch.
type TerrainMesh struct {
	Name          string
	Textures      [6]string // Empty name = unused slot
	TextureColors [6][3]float32

	// Vertices is an interleaved buffer, TerrainVertexStride floats per
	// vertex: position XYZ, normal XYZ, blended color RGBA.
	Vertices []float32

	// Indices is a triangle list of 16-bit indices.
	Indices []uint16
}

// VertexCount returns the number of vertices in the mesh.
func (m *TerrainMesh) VertexCount() int {
	return len(m.Vertices) / TerrainVertexStride
}

// FaceCount returns the number of triangles in the mesh.
func (m *TerrainMesh) FaceCount() int {
	return len(m.Indices) / 3
}

// WaterMesh is one decoded WATR packet: a render-ready water patch.
type WaterMesh struct {
	Name     string
	Color    [3]float32
	Textures [3]string

	// Vertices is an interleaved buffer, WaterVertexStride floats per
	// vertex: position XYZ, color RGB.
	Vertices []float32

	// Indices is a triangle list of 16-bit indices.
	Indices []uint16
}

// VertexCount returns the number of vertices in the mesh.
func (m *WaterMesh) VertexCount() int {
	return len(m.Vertices) / WaterVertexStride
}

// FaceCount returns the number of triangles in the mesh.
func (m *WaterMesh) FaceCount() int {
	return len(m.Indices) / 3
}

// TRX represents a parsed baked-terrain file.
type TRX struct {
	Version TRXVersion
	Width   uint32
	Height  uint32
	Terrain []TerrainMesh
	Water   []WaterMesh
}

// ParseTRX parses a TRX file from raw bytes.
func ParseTRX(data []byte) (*TRX, error) {
	if len(data) < trxHeaderSize {
		return nil, ErrTruncatedTRXData
	}

	// Magic "NWN2" (big-endian tag)
	if string(data[0:4]) != "NWN2" {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidTRXMagic, string(data[0:4]))
	}

	version := TRXVersion{
		Major: binary.LittleEndian.Uint16(data[4:]),
		Minor: binary.LittleEndian.Uint16(data[6:]),
	}

	// Only version 2.3 is supported
	if version.Major != 2 || version.Minor != 3 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTRXVersion, version)
	}

	packetCount := binary.LittleEndian.Uint32(data[8:])

	// Guard against a corrupt count before reading any directory entry.
	if uint64(len(data)-trxHeaderSize) < uint64(packetCount)*8 {
		return nil, fmt.Errorf("%w: directory of %d packets exceeds file size",
			ErrTruncatedTRXData, packetCount)
	}

	packets, err := parseTRXDirectory(data, packetCount)
	if err != nil {
		return nil, err
	}

	trx := &TRX{Version: version}

	// Packets are decoded in directory order.
	for _, p := range packets {
		if err := parseTRXPacket(data, p, trx); err != nil {
			return nil, err
		}
	}

	return trx, nil
}

// parseTRXDirectory reads the (type, offset) directory entries.
func parseTRXDirectory(data []byte, count uint32) ([]trxPacket, error) {
	packets := make([]trxPacket, count)
	for i := range packets {
		entry := data[trxHeaderSize+i*8:]

		packets[i].Type = string(entry[0:4])
		packets[i].Offset = binary.LittleEndian.Uint32(entry[4:])

		if uint64(packets[i].Offset) >= uint64(len(data)) {
			return nil, fmt.Errorf("%w: offset 0x%08X of %q packet out of range",
				ErrMalformedTRXPacket, packets[i].Offset, packets[i].Type)
		}
	}
	return packets, nil
}

// parseTRXPacket validates one packet's header against its directory entry
// and dispatches to the type-specific decoder.
func parseTRXPacket(data []byte, p trxPacket, trx *TRX) error {
	if uint64(p.Offset)+8 > uint64(len(data)) {
		return fmt.Errorf("%w: header of %q packet at 0x%08X",
			ErrTruncatedTRXData, p.Type, p.Offset)
	}

	// The type tag is repeated in front of the packet as a corruption check.
	if tag := string(data[p.Offset : p.Offset+4]); tag != p.Type {
		return fmt.Errorf("%w: type mismatch (%q vs %q)", ErrMalformedTRXPacket, tag, p.Type)
	}

	size := binary.LittleEndian.Uint32(data[p.Offset+4:])
	if uint64(len(data))-uint64(p.Offset)-8 < uint64(size) {
		return fmt.Errorf("%w: size %d of %q packet too big",
			ErrTruncatedTRXData, size, p.Type)
	}

	// Bounded view: decoders cannot read into a neighboring packet.
	payload := data[p.Offset+8 : uint64(p.Offset)+8+uint64(size)]

	switch p.Type {
	case packetTRWH:
		return parseTRWH(payload, trx)

	case packetTRRN:
		mesh, err := parseTerrainPacket(payload)
		if err != nil {
			return err
		}
		trx.Terrain = append(trx.Terrain, mesh)

	case packetWATR:
		mesh, err := parseWaterPacket(payload)
		if err != nil {
			return err
		}
		trx.Water = append(trx.Water, mesh)

	case packetASWM:
		// Walkmesh data, not decoded.

	default:
		return fmt.Errorf("%w: %q", ErrUnknownTRXPacket, p.Type)
	}

	return nil
}

// parseTRWH parses the terrain width/height header packet.
func parseTRWH(payload []byte, trx *TRX) error {
	if len(payload) != 12 {
		return fmt.Errorf("%w: invalid TRWH size (%d)", ErrMalformedTRXPacket, len(payload))
	}

	trx.Width = binary.LittleEndian.Uint32(payload)
	trx.Height = binary.LittleEndian.Uint32(payload[4:])

	// 4 unknown trailing bytes

	return nil
}

// parseTerrainPacket parses a TRRN packet into a TerrainMesh.
func parseTerrainPacket(payload []byte) (TerrainMesh, error) {
	var mesh TerrainMesh

	r := bytes.NewReader(payload)

	name, err := readFixedString(r, 128)
	if err != nil {
		return TerrainMesh{}, fmt.Errorf("%w: reading TRRN name", ErrTruncatedTRXData)
	}
	mesh.Name = name

	for i := 0; i < 6; i++ {
		if mesh.Textures[i], err = readFixedString(r, 32); err != nil {
			return TerrainMesh{}, fmt.Errorf("%w: reading TRRN texture %d", ErrTruncatedTRXData, i)
		}
	}

	if err := binary.Read(r, binary.LittleEndian, &mesh.TextureColors); err != nil {
		return TerrainMesh{}, fmt.Errorf("%w: reading TRRN texture colors", ErrTruncatedTRXData)
	}

	var vertexCount, faceCount uint32
	if err := binary.Read(r, binary.LittleEndian, &vertexCount); err != nil {
		return TerrainMesh{}, fmt.Errorf("%w: reading TRRN vertex count", ErrTruncatedTRXData)
	}
	if err := binary.Read(r, binary.LittleEndian, &faceCount); err != nil {
		return TerrainMesh{}, fmt.Errorf("%w: reading TRRN face count", ErrTruncatedTRXData)
	}

	need := uint64(vertexCount)*terrainVertexSize + uint64(faceCount)*3*2
	if uint64(r.Len()) < need {
		return TerrainMesh{}, fmt.Errorf("%w: TRRN declares %d vertices, %d faces",
			ErrTruncatedTRXData, vertexCount, faceCount)
	}

	// Each vertex's color channels are blended with the reference color of
	// every active (non-empty-name) texture slot. Precompute the sums.
	var colorSum [3]float32
	active := 0
	for k := 0; k < 6; k++ {
		if mesh.Textures[k] == "" {
			continue
		}
		active++
		for j := 0; j < 3; j++ {
			colorSum[j] += mesh.TextureColors[k][j]
		}
	}

	mesh.Vertices = make([]float32, int(vertexCount)*TerrainVertexStride)
	var record struct {
		Position [3]float32
		Normal   [3]float32
		Color    [4]uint8
	}

	v := mesh.Vertices
	for i := uint32(0); i < vertexCount; i++ {
		if err := binary.Read(r, binary.LittleEndian, &record); err != nil {
			return TerrainMesh{}, fmt.Errorf("%w: reading TRRN vertex %d", ErrTruncatedTRXData, i)
		}

		// 16 trailing bytes per vertex (texture coordinates?), not modeled
		if _, err := r.Seek(16, io.SeekCurrent); err != nil {
			return TerrainMesh{}, fmt.Errorf("%w: reading TRRN vertex %d", ErrTruncatedTRXData, i)
		}

		copy(v[0:3], record.Position[:])
		copy(v[3:6], record.Normal[:])

		for j := 0; j < 3; j++ {
			rgb := float32(record.Color[j]) / 255.0
			v[6+j] = (rgb + colorSum[j]) / float32(1+active)
		}
		v[9] = float32(record.Color[3]) / 255.0

		v = v[TerrainVertexStride:]
	}

	mesh.Indices = make([]uint16, faceCount*3)
	if err := binary.Read(r, binary.LittleEndian, mesh.Indices); err != nil {
		return TerrainMesh{}, fmt.Errorf("%w: reading TRRN indices", ErrTruncatedTRXData)
	}

	// Trailing packet data (two embedded DDS blobs and grass patches) is
	// deliberately left unparsed. The dispatcher advances by absolute
	// directory offsets, so the leftover bytes are never misread.

	return mesh, nil
}

// parseWaterPacket parses a WATR packet into a WaterMesh.
func parseWaterPacket(payload []byte) (WaterMesh, error) {
	var mesh WaterMesh

	r := bytes.NewReader(payload)

	name, err := readFixedString(r, 128)
	if err != nil {
		return WaterMesh{}, fmt.Errorf("%w: reading WATR name", ErrTruncatedTRXData)
	}
	mesh.Name = name

	if err := binary.Read(r, binary.LittleEndian, &mesh.Color); err != nil {
		return WaterMesh{}, fmt.Errorf("%w: reading WATR color", ErrTruncatedTRXData)
	}

	// ripple X/Y, smoothness, reflection bias/power, 2 unknown floats
	if _, err := r.Seek(28, io.SeekCurrent); err != nil {
		return WaterMesh{}, fmt.Errorf("%w: reading WATR parameters", ErrTruncatedTRXData)
	}

	for i := 0; i < 3; i++ {
		if mesh.Textures[i], err = readFixedString(r, 32); err != nil {
			return WaterMesh{}, fmt.Errorf("%w: reading WATR texture %d", ErrTruncatedTRXData, i)
		}

		// per-texture direction, rate and angle floats
		if _, err := r.Seek(16, io.SeekCurrent); err != nil {
			return WaterMesh{}, fmt.Errorf("%w: reading WATR texture %d", ErrTruncatedTRXData, i)
		}
	}

	// texture offset X/Y
	if _, err := r.Seek(8, io.SeekCurrent); err != nil {
		return WaterMesh{}, fmt.Errorf("%w: reading WATR parameters", ErrTruncatedTRXData)
	}

	var vertexCount, faceCount uint32
	if err := binary.Read(r, binary.LittleEndian, &vertexCount); err != nil {
		return WaterMesh{}, fmt.Errorf("%w: reading WATR vertex count", ErrTruncatedTRXData)
	}
	if err := binary.Read(r, binary.LittleEndian, &faceCount); err != nil {
		return WaterMesh{}, fmt.Errorf("%w: reading WATR face count", ErrTruncatedTRXData)
	}

	need := uint64(vertexCount)*waterVertexSize + uint64(faceCount)*3*2
	if uint64(r.Len()) < need {
		return WaterMesh{}, fmt.Errorf("%w: WATR declares %d vertices, %d faces",
			ErrTruncatedTRXData, vertexCount, faceCount)
	}

	mesh.Vertices = make([]float32, int(vertexCount)*WaterVertexStride)

	v := mesh.Vertices
	for i := uint32(0); i < vertexCount; i++ {
		var position [3]float32
		if err := binary.Read(r, binary.LittleEndian, &position); err != nil {
			return WaterMesh{}, fmt.Errorf("%w: reading WATR vertex %d", ErrTruncatedTRXData, i)
		}

		// 16 trailing bytes per vertex (texture coordinates?), not modeled
		if _, err := r.Seek(16, io.SeekCurrent); err != nil {
			return WaterMesh{}, fmt.Errorf("%w: reading WATR vertex %d", ErrTruncatedTRXData, i)
		}

		copy(v[0:3], position[:])
		copy(v[3:6], mesh.Color[:])

		v = v[WaterVertexStride:]
	}

	mesh.Indices = make([]uint16, faceCount*3)
	if err := binary.Read(r, binary.LittleEndian, mesh.Indices); err != nil {
		return WaterMesh{}, fmt.Errorf("%w: reading WATR indices", ErrTruncatedTRXData)
	}

	// Trailing packet data (embedded DDS blob, per-vertex flags, tile
	// coordinates) is deliberately left unparsed, as for TRRN.

	return mesh, nil
}

// readFixedString reads a fixed-width, null-padded ASCII string.
func readFixedString(r *bytes.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return fixedString(buf), nil
}

// ParseTRXFile parses a TRX file from disk.
func ParseTRXFile(path string) (*TRX, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TRX file: %w", err)
	}
	return ParseTRX(data)
}
