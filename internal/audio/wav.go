// Package audio converts between WAV files and the raw float32 sample
// streams the inference engine consumes.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

// Clip is decoded audio: mono samples normalized to [-1, 1].
type Clip struct {
	Samples    []float32
	SampleRate int
}

// DecodeFile reads a RIFF/WAVE file and returns its samples downmixed to
// mono. PCM 8/16/24/32-bit and IEEE float 32/64-bit are supported.
func DecodeFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a RIFF/WAVE stream and returns its samples downmixed to mono.
func Decode(r io.Reader) (Clip, error) {
	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Clip{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		return Clip{}, fmt.Errorf("read wav header: %w", err)
	}

	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Clip{}, ErrInvalidWAV
	}

	var (
		audioFormat   uint16
		channels      uint16
		sampleRate    uint32
		bitsPerSample uint16
		data          []byte
		hasFmt        bool
		hasData       bool
	)

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(r, chunkHeader); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return Clip{}, fmt.Errorf("read wav chunk header: %w", err)
		}

		chunkID := string(chunkHeader[:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		padded := int64(chunkSize)
		if chunkSize%2 != 0 {
			padded++
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return Clip{}, ErrInvalidWAV
			}
			buf := make([]byte, padded)
			if _, err := io.ReadFull(r, buf); err != nil {
				return Clip{}, fmt.Errorf("read wav fmt chunk: %w", err)
			}
			audioFormat = binary.LittleEndian.Uint16(buf[0:2])
			channels = binary.LittleEndian.Uint16(buf[2:4])
			sampleRate = binary.LittleEndian.Uint32(buf[4:8])
			bitsPerSample = binary.LittleEndian.Uint16(buf[14:16])
			hasFmt = true
		case "data":
			buf := make([]byte, padded)
			if _, err := io.ReadFull(r, buf); err != nil {
				return Clip{}, fmt.Errorf("read wav data: %w", err)
			}
			data = buf[:chunkSize]
			hasData = true
		default:
			if _, err := io.CopyN(io.Discard, r, padded); err != nil {
				return Clip{}, fmt.Errorf("skip wav chunk %s: %w", chunkID, err)
			}
		}
	}

	if !hasFmt || !hasData {
		return Clip{}, ErrInvalidWAV
	}
	if channels == 0 {
		return Clip{}, ErrInvalidWAV
	}
	if err := validateFormat(audioFormat, bitsPerSample); err != nil {
		return Clip{}, err
	}

	samples, err := decodeSamples(data, audioFormat, bitsPerSample, int(channels))
	if err != nil {
		return Clip{}, err
	}

	return Clip{Samples: samples, SampleRate: int(sampleRate)}, nil
}

// EncodeFile writes mono samples as a 16-bit PCM WAV file.
func EncodeFile(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	if err := Encode(f, samples, sampleRate); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// Encode writes mono samples as 16-bit PCM WAV.
func Encode(w io.Writer, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}

	dataSize := uint32(len(samples) * 2)
	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1) // mono
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate)*2)
	binary.LittleEndian.PutUint16(header[32:34], 2)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}

	buf := make([]byte, 2)
	for _, sample := range samples {
		clamped := float64(sample)
		if clamped > 1 {
			clamped = 1
		} else if clamped < -1 {
			clamped = -1
		}
		binary.LittleEndian.PutUint16(buf, uint16(int16(math.Round(clamped*32767))))
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write wav data: %w", err)
		}
	}

	return nil
}

func validateFormat(audioFormat, bitsPerSample uint16) error {
	if audioFormat == 1 {
		switch bitsPerSample {
		case 8, 16, 24, 32:
			return nil
		}
		return ErrUnsupportedWAV
	}

	if audioFormat == 3 {
		switch bitsPerSample {
		case 32, 64:
			return nil
		}
		return ErrUnsupportedWAV
	}

	return ErrUnsupportedWAV
}

func decodeSamples(data []byte, audioFormat, bitsPerSample uint16, channels int) ([]float32, error) {
	bytesPerSample := int(bitsPerSample / 8)
	if bytesPerSample <= 0 {
		return nil, ErrUnsupportedWAV
	}

	frameSize := bytesPerSample * channels
	frames := len(data) / frameSize
	samples := make([]float32, 0, frames)

	for frame := 0; frame < frames; frame++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			offset := frame*frameSize + ch*bytesPerSample
			value, err := decodeSample(data[offset:offset+bytesPerSample], audioFormat, bitsPerSample)
			if err != nil {
				return nil, err
			}
			sum += value
		}
		samples = append(samples, float32(sum/float64(channels)))
	}

	return samples, nil
}

func decodeSample(sample []byte, audioFormat, bitsPerSample uint16) (float64, error) {
	if audioFormat == 3 {
		switch bitsPerSample {
		case 32:
			bits := binary.LittleEndian.Uint32(sample)
			return float64(math.Float32frombits(bits)), nil
		case 64:
			bits := binary.LittleEndian.Uint64(sample)
			return math.Float64frombits(bits), nil
		default:
			return 0, ErrUnsupportedWAV
		}
	}

	switch bitsPerSample {
	case 8:
		u := float64(sample[0])
		return (u - 128.0) / 128.0, nil
	case 16:
		v := int16(binary.LittleEndian.Uint16(sample))
		return float64(v) / 32768.0, nil
	case 24:
		v := int32(sample[0]) | int32(sample[1])<<8 | int32(sample[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / 8388608.0, nil
	case 32:
		v := int32(binary.LittleEndian.Uint32(sample))
		return float64(v) / 2147483648.0, nil
	default:
		return 0, ErrUnsupportedWAV
	}
}
