package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// XSB format errors.
var (
	ErrInvalidXSBMagic       = errors.New("invalid XSB magic: expected 'SDBK'")
	ErrUnsupportedXSBVersion = errors.New("unsupported XSB version")
	ErrTruncatedXSBData      = errors.New("truncated XSB data")
	ErrMalformedXSBData      = errors.New("malformed XSB data")
)

// Variation weight bounds. Decoded weights are clamped into this range.
const (
	WeightMinimum = 0
	WeightMaximum = 255
)

// Record sizes, fixed by the format.
const (
	xsbHeaderSize   = 56
	xsbCueSize      = 20
	xsbSoundSize    = 20
	xsb3DParamsSize = 40
	xsbTrackSize    = 4
)

// absentOffset marks an offset field that points nowhere.
const absentOffset = 0xFFFFFFFF

// Bank flags.
const xsbNoCueNames = 0x0001

// Sound flags.
const (
	soundFlag3D        = 0x01
	soundFlagGainBoost = 0x02
	soundFlagEQ        = 0x04
	soundFlagTrivial   = 0x08
	soundFlagSimple    = 0x10
)

// Event flags. Pitch and volume events share the same bit assignments.
const (
	playEventMultipleVariations = 0x04

	eventFlagVariation = 0x04
	eventFlagRelative  = 0x10
	eventFlagFade      = 0x20

	lowPassEventRandom   = 0x04
	lowPassEventRelative = 0x10
	lowPassEventSweep    = 0x20

	markerEventRepeat = 0x20
)

// SelectMethod determines how a variation is picked at playback time.
type SelectMethod uint8

// Variation selection methods.
const (
	SelectMethodRandomNoRepeats SelectMethod = 0
	SelectMethodOrdered         SelectMethod = 1
	SelectMethodShuffle         SelectMethod = 2
	SelectMethodParameter       SelectMethod = 3
	SelectMethodRandom          SelectMethod = 4
)

// String returns a human-readable selection method name.
func (m SelectMethod) String() string {
	switch m {
	case SelectMethodRandomNoRepeats:
		return "RandomNoRepeats"
	case SelectMethodOrdered:
		return "Ordered"
	case SelectMethodShuffle:
		return "Shuffle"
	case SelectMethodParameter:
		return "Parameter"
	case SelectMethodRandom:
		return "Random"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(m))
	}
}

// EventType identifies the kind of a track event.
type EventType uint8

// Track event types.
const (
	EventTypePlay        EventType = 0x00
	EventTypePlayComplex EventType = 0x01
	EventTypeStop        EventType = 0x03
	EventTypePitch       EventType = 0x04
	EventTypeVolume      EventType = 0x05
	EventTypeLowPass     EventType = 0x07
	EventTypeLFOPitch    EventType = 0x08
	EventTypeLFOMulti    EventType = 0x09
	EventTypeLoop        EventType = 0x0C
	EventTypeMarker      EventType = 0x0E
)

// String returns a human-readable event type name.
func (t EventType) String() string {
	switch t {
	case EventTypePlay:
		return "Play"
	case EventTypePlayComplex:
		return "PlayComplex"
	case EventTypeStop:
		return "Stop"
	case EventTypePitch:
		return "Pitch"
	case EventTypeVolume:
		return "Volume"
	case EventTypeLowPass:
		return "LowPass"
	case EventTypeLFOPitch:
		return "LFOPitch"
	case EventTypeLFOMulti:
		return "LFOMulti"
	case EventTypeLoop:
		return "Loop"
	case EventTypeMarker:
		return "Marker"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(t))
	}
}

// Mode3D is the rolloff mode of a 3D sound.
type Mode3D uint8

// WaveBank is a reference to an external wave bank, by name. The bank
// contents are resolved later by the audio layer.
type WaveBank struct {
	Name string
}

// CueVariation is one weighted sound alternative of a cue.
type CueVariation struct {
	SoundIndex uint16
	WeightMin  uint16
	WeightMax  uint16
}

// Cue is a named, playable unit resolving to one sound via variation
// selection.
type Cue struct {
	Name                  string // Empty if the bank carries no cue names
	VariationSelectMethod SelectMethod
	Variations            []CueVariation
}

// WaveVariation is one weighted wave alternative of a track.
type WaveVariation struct {
	SoundIndex uint16
	BankName   string // Empty if the bank index was out of range
	WeightMin  uint16
	WeightMax  uint16
}

// PitchEvent modifies the pitch of a playing track.
type PitchEvent struct {
	IsRelative      bool
	EnableFade      bool
	EnableVariation bool
	FadeStepCount   uint16
	PitchStart      float32 // Semitones
	PitchEnd        float32 // Semitones
	FadeDuration    uint32  // Milliseconds
}

// VolumeEvent modifies the volume of a playing track.
type VolumeEvent struct {
	IsRelative      bool
	EnableFade      bool
	EnableVariation bool
	FadeStepCount   uint16
	VolumeStart     float32 // dB
	VolumeEnd       float32 // dB
	FadeDuration    uint32  // Milliseconds
}

// LowPassEvent modifies the low-pass filter of a playing track.
type LowPassEvent struct {
	IsRelative     bool
	Random         bool
	SweepCutOff    bool
	SweepStepCount uint16
	CutOffStart    uint16 // Hz
	CutOffEnd      uint16 // Hz
	SweepDuration  uint32 // Milliseconds
	ResonanceStart float32
	ResonanceEnd   float32
}

// LFOMultiEvent applies a low-frequency oscillator to pitch, filter and
// amplitude of a playing track.
type LFOMultiEvent struct {
	Delta     float32 // Hz
	Pitch     float32 // Semitones
	Filter    float32 // Semitones
	Amplitude float32 // dB
}

// LoopEvent loops a track.
type LoopEvent struct {
	Count uint16
}

// MarkerEvent fires a marker signal from a playing track.
type MarkerEvent struct {
	Repeat         bool
	RepeatCount    uint16
	Value          uint32
	RepeatDuration uint32 // Milliseconds
}

// Event is one timed action on a track. Only the field matching Type is
// set; Play and unknown events carry no parameters of their own.
type Event struct {
	Type      EventType
	Timestamp uint32 // Milliseconds

	Pitch    *PitchEvent    // Set if Type == EventTypePitch
	Volume   *VolumeEvent   // Set if Type == EventTypeVolume
	LowPass  *LowPassEvent  // Set if Type == EventTypeLowPass
	LFOMulti *LFOMultiEvent // Set if Type == EventTypeLFOMulti
	Loop     *LoopEvent     // Set if Type == EventTypeLoop
	Marker   *MarkerEvent   // Set if Type == EventTypeMarker
}

// Track is one wave playback channel of a sound.
type Track struct {
	VariationSelectMethod SelectMethod
	Waves                 []WaveVariation
	Events                []Event
}

// Params3D holds the 3D positional audio parameters of a sound.
type Params3D struct {
	VolumeLFE   float32 // dB
	VolumeI3DL2 float32 // dB, I3DL2 reverb

	ConeInsideAngle   uint16 // Degrees
	ConeOutsideAngle  uint16 // Degrees
	ConeOutsideVolume float32

	DistanceMin float32
	DistanceMax float32

	DistanceFactor float32
	RollOffFactor  float32
	DopplerFactor  float32

	Mode Mode3D

	// RollOffCurve is a sampled attenuation-vs-distance function, each
	// sample in [0, 1], at most 10 samples.
	RollOffCurve []float32
}

// Sound is a playable sound definition referenced by cue variations.
type Sound struct {
	Volume float32 // dB
	Pitch  float32 // Semitones

	Layer         uint8
	CategoryIndex uint8
	Priority      uint8

	GainBoost bool

	ParametricEQ     bool
	ParametricEQGain float32
	ParametricEQQ    float32
	ParametricEQFreq uint16 // Hz

	PitchVariationMin float32 // Semitones
	PitchVariationMax float32 // Semitones

	VolumeVariationMin float32 // dB
	VolumeVariationMax float32 // dB

	Delay uint16 // Milliseconds

	Is3D     bool
	Params3D *Params3D // Set if Is3D

	Tracks []Track
}

// XSB represents a parsed binary XACT sound bank.
type XSB struct {
	Name      string
	WaveBanks []WaveBank
	Cues      []Cue
	Sounds    []Sound

	cuesByName map[string]*Cue
}

// Cue returns the named cue, or nil if the bank has no cue of that name.
func (b *XSB) Cue(name string) *Cue {
	return b.cuesByName[name]
}

// CueNames returns the names of all named cues in the bank.
func (b *XSB) CueNames() []string {
	names := make([]string, 0, len(b.cuesByName))
	for name := range b.cuesByName {
		names = append(names, name)
	}
	return names
}

// variationHeader is the unpacked form of the packed 32-bit field heading
// every variation table.
type variationHeader struct {
	flags        uint8
	current      uint16
	selectMethod SelectMethod
	count        uint16
}

// unpackVariationHeader splits the packed variation-table header field.
func unpackVariationHeader(v uint32) variationHeader {
	return variationHeader{
		flags:        uint8(v >> 30),
		current:      uint16((v >> 17) & 0x1FFF),
		selectMethod: SelectMethod((v >> 13) & 0x000F),
		count:        uint16(v & 0x1FFF),
	}
}

// trackHeader is the unpacked form of a complex track record.
type trackHeader struct {
	eventCount   uint8
	eventsOffset uint32
}

// unpackTrackHeader splits the packed complex-track record field.
func unpackTrackHeader(v uint32) trackHeader {
	return trackHeader{
		eventCount:   uint8(v & 0xFF),
		eventsOffset: v >> 8,
	}
}

// unpackEQ splits the packed parametric EQ field into Q and frequency.
func unpackEQ(v uint16) (q float32, freq uint16) {
	q = 1.0 / float32(uint16(1)<<(v&7))
	freq = clampU16((v>>3)&0x1FFF, 30, 8000)
	return q, freq
}

// uint24 decodes a 3-byte little-endian integer.
func uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// xsbDecoder carries the decode state for one sound bank load.
type xsbDecoder struct {
	data []byte
	bank *XSB
}

// ParseXSB parses a binary XACT sound bank from raw bytes.
func ParseXSB(data []byte) (*XSB, error) {
	if len(data) < xsbHeaderSize {
		return nil, ErrTruncatedXSBData
	}

	// Magic "SDBK" (big-endian tag)
	if string(data[0:4]) != "SDBK" {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidXSBMagic, string(data[0:4]))
	}

	version := binary.LittleEndian.Uint16(data[4:])
	if version != 11 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedXSBVersion, version)
	}

	// data[6:8] is a CRC, ignored

	offsetWaveBanks := binary.LittleEndian.Uint32(data[8:])
	offset3DParams := binary.LittleEndian.Uint32(data[16:])
	// Offsets at 12 and 20 point at sections of unknown purpose.

	xsbFlags := binary.LittleEndian.Uint16(data[24:])

	soundCount := binary.LittleEndian.Uint16(data[28:])
	cueCount := binary.LittleEndian.Uint16(data[30:])
	bankCount := binary.LittleEndian.Uint16(data[34:])
	// Counts at 26 and 32 belong to the unknown sections.

	// data[36:40] reserved

	d := &xsbDecoder{
		data: data,
		bank: &XSB{
			Name:       fixedString(data[40:56]),
			cuesByName: make(map[string]*Cue),
		},
	}

	// The cue table follows the header directly; the sound table is not
	// separately addressed but derived from the cue table's extent.
	offsetCues := uint32(xsbHeaderSize)
	offsetSounds := offsetCues + uint32(cueCount)*xsbCueSize

	if err := d.readWaveBanks(offsetWaveBanks, bankCount); err != nil {
		return nil, err
	}
	if err := d.readCues(xsbFlags, offsetCues, cueCount); err != nil {
		return nil, err
	}
	if err := d.readSounds(offsetSounds, soundCount, offset3DParams); err != nil {
		return nil, err
	}

	return d.bank, nil
}

// readWaveBanks reads the fixed-width wave-bank name table.
func (d *xsbDecoder) readWaveBanks(offset uint32, count uint16) error {
	if uint64(offset)+uint64(count)*16 > uint64(len(d.data)) {
		return fmt.Errorf("%w: wave-bank table of %d entries at 0x%08X",
			ErrTruncatedXSBData, count, offset)
	}

	d.bank.WaveBanks = make([]WaveBank, count)
	for i := range d.bank.WaveBanks {
		name := d.data[offset+uint32(i)*16 : offset+uint32(i)*16+16]
		d.bank.WaveBanks[i].Name = fixedString(name)
	}

	return nil
}

// readCues reads the cue table and each cue's name and variation block.
func (d *xsbDecoder) readCues(xsbFlags uint16, offset uint32, count uint16) error {
	if uint64(offset)+uint64(count)*xsbCueSize > uint64(len(d.data)) {
		return fmt.Errorf("%w: cue table of %d entries", ErrTruncatedXSBData, count)
	}

	d.bank.Cues = make([]Cue, count)
	for i := range d.bank.Cues {
		cue := &d.bank.Cues[i]
		rec := d.data[offset+uint32(i)*xsbCueSize:]

		// rec[0:2] unknown
		soundIndex := binary.LittleEndian.Uint16(rec[2:])
		nameOffset := binary.LittleEndian.Uint32(rec[4:])
		entryOffset := binary.LittleEndian.Uint32(rec[8:])
		// rec[12:20] unknown, the second field can be an offset (0x07FFFFFF)

		if xsbFlags&xsbNoCueNames == 0 && nameOffset != absentOffset {
			name, err := d.stringAt(nameOffset)
			if err != nil {
				return fmt.Errorf("name of cue %d: %w", i, err)
			}

			cue.Name = name
			d.bank.cuesByName[name] = cue
		}

		if entryOffset != absentOffset {
			if err := d.readCueVariations(cue, entryOffset); err != nil {
				return fmt.Errorf("variations of cue %d: %w", i, err)
			}

		} else if soundIndex != 0xFFFF {
			// Compact encoding: a single inline sound reference stands in
			// for a one-entry variation table.
			cue.VariationSelectMethod = SelectMethodOrdered
			cue.Variations = []CueVariation{{
				SoundIndex: soundIndex,
				WeightMin:  WeightMinimum,
				WeightMax:  WeightMaximum,
			}}
		}
	}

	return nil
}

// readCueVariations reads a cue's variation table.
func (d *xsbDecoder) readCueVariations(cue *Cue, offset uint32) error {
	r, err := d.readerAt(offset, "cue variation table")
	if err != nil {
		return err
	}

	var packed uint32
	if err := binary.Read(r, binary.LittleEndian, &packed); err != nil {
		return fmt.Errorf("%w: cue variation header", ErrTruncatedXSBData)
	}

	header := unpackVariationHeader(packed)
	cue.VariationSelectMethod = header.selectMethod

	cue.Variations = make([]CueVariation, header.count)
	for i := range cue.Variations {
		var rec struct {
			SoundIndex uint16
			_          uint16
			WeightMin  uint16
			WeightMax  uint16
		}
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("%w: cue variation %d", ErrTruncatedXSBData, i)
		}

		weightMin := clampU16(rec.WeightMin, WeightMinimum, WeightMaximum)
		weightMax := clampU16(rec.WeightMax, WeightMinimum, WeightMaximum)
		if weightMin > weightMax {
			weightMin, weightMax = weightMax, weightMin
		}

		cue.Variations[i] = CueVariation{
			SoundIndex: rec.SoundIndex,
			WeightMin:  weightMin,
			WeightMax:  weightMax,
		}
	}

	return nil
}

// readWaveVariations reads a track's wave variation table.
func (d *xsbDecoder) readWaveVariations(track *Track, offset uint32) error {
	r, err := d.readerAt(offset, "wave variation table")
	if err != nil {
		return err
	}

	var packed uint32
	if err := binary.Read(r, binary.LittleEndian, &packed); err != nil {
		return fmt.Errorf("%w: wave variation header", ErrTruncatedXSBData)
	}

	header := unpackVariationHeader(packed)
	track.VariationSelectMethod = header.selectMethod

	for i := uint16(0); i < header.count; i++ {
		var rec struct {
			Indices   uint32
			WeightMin uint16
			WeightMax uint16
		}
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("%w: wave variation %d", ErrTruncatedXSBData, i)
		}

		d.addWaveVariation(track, rec.Indices, rec.WeightMin, rec.WeightMax)
	}

	return nil
}

// addWaveVariation appends a wave variation built from a packed bank/sound
// index pair. An out-of-range bank index leaves the bank name empty; the
// miss is tolerated, not an error.
func (d *xsbDecoder) addWaveVariation(track *Track, indices uint32, weightMin, weightMax uint16) {
	bankIndex := indices >> 16

	wave := WaveVariation{SoundIndex: uint16(indices & 0xFFFF)}
	if bankIndex < uint32(len(d.bank.WaveBanks)) {
		wave.BankName = d.bank.WaveBanks[bankIndex].Name
	}

	wave.WeightMin = clampU16(weightMin, WeightMinimum, WeightMaximum)
	wave.WeightMax = clampU16(weightMax, WeightMinimum, WeightMaximum)
	if wave.WeightMin > wave.WeightMax {
		wave.WeightMin, wave.WeightMax = wave.WeightMax, wave.WeightMin
	}

	track.Waves = append(track.Waves, wave)
}

// readSounds reads the sound table and each sound's 3D parameters and
// tracks.
func (d *xsbDecoder) readSounds(offset uint32, count uint16, offset3DParams uint32) error {
	if uint64(offset)+uint64(count)*xsbSoundSize > uint64(len(d.data)) {
		return fmt.Errorf("%w: sound table of %d entries", ErrTruncatedXSBData, count)
	}

	d.bank.Sounds = make([]Sound, count)
	for i := range d.bank.Sounds {
		sound := &d.bank.Sounds[i]
		rec := d.data[offset+uint32(i)*xsbSoundSize:]

		indicesOrOffset := binary.LittleEndian.Uint32(rec)

		// The low 9 bits are the base volume; bits 9-15 carry the LFE
		// volume, which only applies to 3D sounds.
		volume := binary.LittleEndian.Uint16(rec[4:])
		sound.Volume = -float32(volume&0x1FF) * 0.16

		pitch := int16(binary.LittleEndian.Uint16(rec[6:]))
		sound.Pitch = clampF32(float32(pitch)*12.0/4096.0, -24.0, 24.0)

		trackCount := rec[8]
		sound.Layer = rec[9]
		sound.CategoryIndex = rec[10]

		soundFlags := rec[11]

		index3DParams := binary.LittleEndian.Uint16(rec[12:])

		sound.Priority = rec[14]
		volume3D := rec[15]

		sound.ParametricEQ = soundFlags&soundFlagEQ != 0

		eqGain := int16(binary.LittleEndian.Uint16(rec[16:]))
		sound.ParametricEQGain = clampF32(float32(eqGain)/8192.0, -1.0, 4.0)

		sound.ParametricEQQ, sound.ParametricEQFreq = unpackEQ(binary.LittleEndian.Uint16(rec[18:]))

		sound.GainBoost = soundFlags&soundFlagGainBoost != 0

		sound.Is3D = soundFlags&soundFlag3D != 0
		if sound.Is3D {
			params, err := d.read3DParams(offset3DParams, index3DParams)
			if err != nil {
				return fmt.Errorf("3D parameters of sound %d: %w", i, err)
			}

			params.VolumeLFE = -float32((volume>>9)&0x7F) * 0.50
			params.VolumeI3DL2 = clampF32(-float32(volume3D)*2.56, -64.0, 0.0)

			sound.Params3D = params
		}

		if err := d.readTracks(sound, indicesOrOffset, trackCount, soundFlags); err != nil {
			return fmt.Errorf("tracks of sound %d: %w", i, err)
		}
	}

	return nil
}

// read3DParams reads one record of the fixed-size 3D parameter table.
func (d *xsbDecoder) read3DParams(base uint32, index uint16) (*Params3D, error) {
	offset := uint64(base) + uint64(index)*xsb3DParamsSize
	if offset+xsb3DParamsSize > uint64(len(d.data)) {
		return nil, fmt.Errorf("%w: 3D parameter record %d", ErrTruncatedXSBData, index)
	}
	rec := d.data[offset : offset+xsb3DParamsSize]

	params := &Params3D{}

	params.ConeInsideAngle = clampU16(binary.LittleEndian.Uint16(rec), 0, 360)
	params.ConeOutsideAngle = clampU16(binary.LittleEndian.Uint16(rec[2:]), 0, 360)

	coneVolume := int16(binary.LittleEndian.Uint16(rec[4:]))
	params.ConeOutsideVolume = clampF32(float32(coneVolume)/100.0, -64.0, 0.0)

	// rec[6:8] unknown

	params.DistanceMin = math.Float32frombits(binary.LittleEndian.Uint32(rec[8:]))
	params.DistanceMax = math.Float32frombits(binary.LittleEndian.Uint32(rec[12:]))

	params.DistanceFactor = math.Float32frombits(binary.LittleEndian.Uint32(rec[16:]))
	params.RollOffFactor = math.Float32frombits(binary.LittleEndian.Uint32(rec[20:]))
	params.DopplerFactor = math.Float32frombits(binary.LittleEndian.Uint32(rec[24:]))

	params.Mode = Mode3D(rec[28])

	curveSize := int(rec[29])
	if curveSize > 10 {
		curveSize = 10
	}

	params.RollOffCurve = make([]float32, curveSize)
	for i := 0; i < curveSize; i++ {
		params.RollOffCurve[i] = float32(rec[30+i]) / 255.0
	}

	return params, nil
}

// readTracks decodes a sound's tracks. Three mutually exclusive encodings
// exist: trivial (one track, one inline wave), simple (one track, wave
// table), and complex (per-track event lists).
func (d *xsbDecoder) readTracks(sound *Sound, indicesOrOffset uint32, count, soundFlags uint8) error {
	if soundFlags&(soundFlagTrivial|soundFlagSimple) != 0 && count != 1 {
		return fmt.Errorf("%w: trivial/simple sound with track count %d",
			ErrMalformedXSBData, count)
	}

	sound.Tracks = make([]Track, count)

	if soundFlags&soundFlagTrivial != 0 {
		// One track, one implicit play event, one wave variation
		track := &sound.Tracks[0]

		track.VariationSelectMethod = SelectMethodOrdered
		d.addWaveVariation(track, indicesOrOffset, WeightMinimum, WeightMaximum)
		track.Events = append(track.Events, Event{Type: EventTypePlay})

		return nil
	}

	if soundFlags&soundFlagSimple != 0 {
		// One track, one implicit play event, multiple wave variations
		track := &sound.Tracks[0]

		if err := d.readWaveVariations(track, indicesOrOffset); err != nil {
			return err
		}
		track.Events = append(track.Events, Event{Type: EventTypePlay})

		return nil
	}

	// Complex: one 4-byte record per track
	for i := range sound.Tracks {
		offset := uint64(indicesOrOffset) + uint64(i)*xsbTrackSize
		if offset+xsbTrackSize > uint64(len(d.data)) {
			return fmt.Errorf("%w: track record %d", ErrTruncatedXSBData, i)
		}

		packed := binary.LittleEndian.Uint32(d.data[offset:])
		if err := d.readComplexTrack(&sound.Tracks[i], sound, unpackTrackHeader(packed)); err != nil {
			return fmt.Errorf("track %d: %w", i, err)
		}
	}

	return nil
}

// readComplexTrack decodes a track's event list. A play event carrying the
// multiple-variations flag defers its wave table offset until all events
// are read.
func (d *xsbDecoder) readComplexTrack(track *Track, sound *Sound, header trackHeader) error {
	r, err := d.readerAt(header.eventsOffset, "track event list")
	if err != nil {
		return err
	}

	wavesOffset := uint32(absentOffset)

	for i := 0; i < int(header.eventCount); i++ {
		if err := d.readTrackEvent(r, track, sound, &wavesOffset); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}

	if wavesOffset != absentOffset {
		return d.readWaveVariations(track, wavesOffset)
	}

	return nil
}

// readTrackEvent decodes one event: a fixed 6-byte header, two fixed
// parameter bytes, and a declared-size parameter block. Bytes the event
// type does not consume are skipped, never left for the next event.
func (d *xsbDecoder) readTrackEvent(r *bytes.Reader, track *Track, sound *Sound, wavesOffset *uint32) error {
	var header [6]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("%w: event header", ErrTruncatedXSBData)
	}

	event := Event{
		Type:      EventType(header[0]),
		Timestamp: uint24(header[1:4]),
	}

	parameterSize := int(header[4])
	eventFlags := header[5]

	body := make([]byte, 2+parameterSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("%w: %s event parameters", ErrTruncatedXSBData, event.Type)
	}

	// The two leading bytes are a fixed field (step/repeat count) for most
	// event types and unused for the rest; the declared parameter block
	// follows.
	params := body[2:]

	switch event.Type {
	case EventTypePlay, EventTypePlayComplex:
		if parameterSize >= 4 {
			indicesOrOffset := binary.LittleEndian.Uint32(params)

			if parameterSize >= 16 {
				pitchMin := int16(binary.LittleEndian.Uint16(params[4:]))
				pitchMax := int16(binary.LittleEndian.Uint16(params[6:]))
				sound.PitchVariationMin = clampF32(float32(pitchMin)*12.0/4096.0, -24.0, 24.0)
				sound.PitchVariationMax = clampF32(float32(pitchMax)*12.0/4096.0, -24.0, 24.0)

				volumeMin := int16(binary.LittleEndian.Uint16(params[8:]))
				volumeMax := int16(binary.LittleEndian.Uint16(params[10:]))
				sound.VolumeVariationMin = clampF32(float32(volumeMin)/100.0, -64.0, 64.0)
				sound.VolumeVariationMax = clampF32(float32(volumeMax)/100.0, -64.0, 64.0)

				sound.Delay = binary.LittleEndian.Uint16(params[12:])

				// params[14:16] unknown
			}

			if eventFlags&playEventMultipleVariations == 0 {
				track.VariationSelectMethod = SelectMethodOrdered
				d.addWaveVariation(track, indicesOrOffset, WeightMinimum, WeightMaximum)
			} else {
				*wavesOffset = indicesOrOffset
			}
		}

	case EventTypePitch:
		pitch := &PitchEvent{
			FadeStepCount:   binary.LittleEndian.Uint16(body),
			IsRelative:      eventFlags&eventFlagRelative != 0,
			EnableFade:      eventFlags&eventFlagFade != 0,
			EnableVariation: eventFlags&eventFlagVariation != 0,
		}

		if parameterSize >= 8 {
			start := int16(binary.LittleEndian.Uint16(params))
			end := int16(binary.LittleEndian.Uint16(params[2:]))
			pitch.PitchStart = clampF32(float32(start)*12.0/4096.0, -24.0, 24.0)
			pitch.PitchEnd = clampF32(float32(end)*12.0/4096.0, -24.0, 24.0)

			// params[4] unknown
			pitch.FadeDuration = uint24(params[5:8])
		}

		event.Pitch = pitch

	case EventTypeVolume:
		volume := &VolumeEvent{
			FadeStepCount:   binary.LittleEndian.Uint16(body),
			IsRelative:      eventFlags&eventFlagRelative != 0,
			EnableFade:      eventFlags&eventFlagFade != 0,
			EnableVariation: eventFlags&eventFlagVariation != 0,
		}

		if parameterSize >= 8 {
			start := int16(binary.LittleEndian.Uint16(params))
			end := int16(binary.LittleEndian.Uint16(params[2:]))
			volume.VolumeStart = clampF32(float32(start)/100.0, -64.0, 64.0)
			volume.VolumeEnd = clampF32(float32(end)/100.0, -64.0, 64.0)

			// params[4] unknown
			volume.FadeDuration = uint24(params[5:8])
		}

		event.Volume = volume

	case EventTypeLowPass:
		lowPass := &LowPassEvent{
			SweepStepCount: binary.LittleEndian.Uint16(body),
			IsRelative:     eventFlags&lowPassEventRelative != 0,
			Random:         eventFlags&lowPassEventRandom != 0,
			SweepCutOff:    eventFlags&lowPassEventSweep != 0,
		}

		if parameterSize >= 12 {
			lowPass.CutOffStart = clampU16(binary.LittleEndian.Uint16(params), 0, 8192)
			lowPass.CutOffEnd = clampU16(binary.LittleEndian.Uint16(params[2:]), 0, 8192)

			// params[4] unknown
			lowPass.SweepDuration = uint24(params[5:8])

			resonanceStart := int16(binary.LittleEndian.Uint16(params[8:]))
			resonanceEnd := int16(binary.LittleEndian.Uint16(params[10:]))
			lowPass.ResonanceStart = clampF32(float32(resonanceStart)/100.0, 0.0, 32.0)
			lowPass.ResonanceEnd = clampF32(float32(resonanceEnd)/100.0, 0.0, 32.0)
		}

		event.LowPass = lowPass

	case EventTypeLFOMulti:
		lfo := &LFOMultiEvent{}

		if parameterSize >= 6 {
			// params[0:2] unknown
			lfo.Delta = float32(params[2]) * 23.4 / 255.0
			lfo.Pitch = float32(int8(params[3])) * 12.0 / 128.0
			lfo.Filter = float32(int8(params[4])) * 96.0 / 128.0
			lfo.Amplitude = float32(int8(params[5])) * 16.0 / 128.0
		}

		event.LFOMulti = lfo

	case EventTypeLoop:
		event.Loop = &LoopEvent{Count: binary.LittleEndian.Uint16(body)}

	case EventTypeMarker:
		marker := &MarkerEvent{
			RepeatCount: binary.LittleEndian.Uint16(body),
			Repeat:      eventFlags&markerEventRepeat != 0,
		}

		if parameterSize >= 8 {
			marker.Value = binary.LittleEndian.Uint32(params)

			// params[4] unknown
			marker.RepeatDuration = uint24(params[5:8])
		}

		event.Marker = marker

	default:
		// Unhandled event kinds keep their type and timestamp only.
	}

	track.Events = append(track.Events, event)

	return nil
}

// readerAt returns a reader positioned at an absolute offset.
func (d *xsbDecoder) readerAt(offset uint32, what string) (*bytes.Reader, error) {
	if uint64(offset) >= uint64(len(d.data)) {
		return nil, fmt.Errorf("%w: %s offset 0x%08X out of range",
			ErrMalformedXSBData, what, offset)
	}
	return bytes.NewReader(d.data[offset:]), nil
}

// stringAt reads a null-terminated ASCII string at an absolute offset.
func (d *xsbDecoder) stringAt(offset uint32) (string, error) {
	if uint64(offset) >= uint64(len(d.data)) {
		return "", fmt.Errorf("%w: string offset 0x%08X out of range",
			ErrMalformedXSBData, offset)
	}

	s := d.data[offset:]
	if idx := bytes.IndexByte(s, 0); idx >= 0 {
		s = s[:idx]
	}
	return string(s), nil
}

// ParseXSBFile parses a binary XACT sound bank from disk.
func ParseXSBFile(path string) (*XSB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading XSB file: %w", err)
	}
	return ParseXSB(data)
}
