// Package probe measures audio files: container format, bitrate,
// duration and channel layout. It is the only part of the engine that
// opens audio files; everything downstream works on the immutable
// AudioProperties it produces.
package probe

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"

	"fermata/pkg/models"
)

// DecodeError wraps any failure to read or decode an audio file. Files
// failing to probe are skipped and counted, never fatal to a batch.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Prober extracts AudioProperties, optionally consulting a cache so
// unchanged files are not re-decoded between runs.
type Prober struct {
	supportedFormats []string
	cache            *Cache
	logger           *logrus.Logger
}

// New creates a prober. cache may be nil to disable caching.
func New(supportedFormats []string, cache *Cache, logger *logrus.Logger) *Prober {
	return &Prober{
		supportedFormats: supportedFormats,
		cache:            cache,
		logger:           logger,
	}
}

// IsAudioFile checks if a file has a supported audio extension.
func (p *Prober) IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range p.supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// Probe measures one file. Results are computed once per (size, mtime)
// and reused from the cache when available.
func (p *Prober) Probe(path string) (models.AudioProperties, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return models.AudioProperties{}, &DecodeError{Path: path, Err: err}
	}
	size := stat.Size()
	mtime := stat.ModTime().Unix()

	if p.cache != nil {
		if props, ok := p.cache.Lookup(path, size, mtime); ok {
			return props, nil
		}
	}

	props, err := p.measure(path, size)
	if err != nil {
		return models.AudioProperties{}, err
	}

	if p.cache != nil {
		p.cache.Store(path, size, mtime, props)
	}

	p.logger.WithFields(logrus.Fields{
		"path":    path,
		"format":  props.Format.String(),
		"bitrate": props.BitrateKbps,
	}).Debug("Probed audio file")
	return props, nil
}

func (p *Prober) measure(path string, size int64) (models.AudioProperties, error) {
	props := models.AudioProperties{
		Format:        p.detectFormat(path),
		FileSizeBytes: size,
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		err = p.measureFLAC(path, &props)
	case ".mp3":
		err = p.measureMP3(path, &props)
	case ".wav":
		err = p.measureWAV(path, &props)
	case ".m4a":
		err = p.measureM4A(path, &props)
	default:
		err = fmt.Errorf("unsupported format: %s", filepath.Ext(path))
	}
	if err != nil {
		return models.AudioProperties{}, &DecodeError{Path: path, Err: err}
	}

	// Average bitrate from size and measured duration, the same way the
	// per-track summary views do. Unknown duration leaves bitrate at 0;
	// the file still ranks (as 0) and reports as Unclassified.
	if props.DurationSecs > 0 {
		props.BitrateKbps = int(float64(size) * 8 / props.DurationSecs / 1000)
	}
	return props, nil
}

// detectFormat prefers content sniffing over the file extension so a
// FLAC stream renamed to .mp3 still ranks as lossless.
func (p *Prober) detectFormat(path string) models.Format {
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if _, fileType, err := tag.Identify(f); err == nil {
			switch fileType {
			case tag.FLAC:
				return models.FormatFLAC
			case tag.MP3:
				return models.FormatMP3
			}
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".flac":
		return models.FormatFLAC
	case ".wav":
		return models.FormatWAV
	case ".mp3":
		return models.FormatMP3
	default:
		return models.FormatOther
	}
}

// FLAC duration and stream layout via the STREAMINFO metadata block.
func (p *Prober) measureFLAC(path string, props *models.AudioProperties) error {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return err
	}
	si := stream.Info
	if si.NSamples == 0 || si.SampleRate == 0 {
		return fmt.Errorf("flac stream missing sample info")
	}
	props.DurationSecs = float64(si.NSamples) / float64(si.SampleRate)
	props.SampleRate = int(si.SampleRate)
	props.Channels = int(si.NChannels)
	return nil
}

// MP3 duration via frame decoding; a file yielding no frames at all is a
// decode failure rather than an estimate.
func (p *Prober) measureMP3(path string, props *models.AudioProperties) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var total float64
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if frames == 0 {
				return fmt.Errorf("no decodable mp3 frames: %w", err)
			}
			break // partial decode; use what we have
		}
		total += fr.Duration().Seconds()
		frames++
	}
	props.DurationSecs = total
	return nil
}

// WAV duration approximated from header fields plus file size.
func (p *Prober) measureWAV(path string, props *models.AudioProperties) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return fmt.Errorf("invalid wav file")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return fmt.Errorf("invalid wav header")
	}

	headerSize := int64(44)
	pcmBytes := props.FileSizeBytes - headerSize
	if pcmBytes < 0 {
		pcmBytes = 0
	}
	bytesPerSampleFrame := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if bytesPerSampleFrame <= 0 {
		return fmt.Errorf("invalid sample frame size")
	}
	sampleFrames := pcmBytes / bytesPerSampleFrame
	props.DurationSecs = float64(sampleFrames) / float64(dec.SampleRate)
	props.SampleRate = int(dec.SampleRate)
	props.Channels = int(dec.NumChans)
	return nil
}

// M4A duration from the 'mvhd' atom inside 'moov'. A manual atom scan
// keeps the dependency surface small; best-effort.
func (p *Prober) measureM4A(path string, props *models.AudioProperties) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for {
		head := make([]byte, 8)
		if _, err := io.ReadFull(f, head); err != nil {
			return err
		}
		size := binary.BigEndian.Uint32(head[0:4])
		atom := string(head[4:8])
		if size < 8 {
			return fmt.Errorf("invalid atom size")
		}
		if atom == "moov" {
			limit := int64(size) - 8
			for read := int64(0); read < limit; {
				subHead := make([]byte, 8)
				if _, err := io.ReadFull(f, subHead); err != nil {
					return err
				}
				subSize := binary.BigEndian.Uint32(subHead[0:4])
				subAtom := string(subHead[4:8])
				if subAtom == "mvhd" {
					return readMvhd(f, props)
				}
				if subSize < 8 {
					return fmt.Errorf("invalid sub-atom size")
				}
				if _, err := f.Seek(int64(subSize)-8, io.SeekCurrent); err != nil {
					return err
				}
				read += int64(subSize)
			}
			break
		}
		if _, err := f.Seek(int64(size)-8, io.SeekCurrent); err != nil {
			return err
		}
	}
	return fmt.Errorf("mvhd atom not found")
}

func readMvhd(f *os.File, props *models.AudioProperties) error {
	version := make([]byte, 1)
	if _, err := io.ReadFull(f, version); err != nil {
		return err
	}
	var skip int64
	if version[0] == 1 { // 64-bit creation/modification times
		skip = 3 + 8 + 8
	} else {
		skip = 3 + 4 + 4
	}
	if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
		return err
	}
	buf := make([]byte, 12)
	if _, err := io.ReadFull(f, buf); err != nil {
		return err
	}
	timescale := binary.BigEndian.Uint32(buf[0:4])
	var durUnits uint64
	if version[0] == 1 { // 64-bit duration
		durUnits = binary.BigEndian.Uint64(buf[4:12])
	} else {
		durUnits = uint64(binary.BigEndian.Uint32(buf[4:8]))
	}
	if timescale == 0 {
		return fmt.Errorf("invalid timescale")
	}
	props.DurationSecs = float64(durUnits) / float64(timescale)
	return nil
}
