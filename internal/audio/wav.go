// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

// SampleRate is the rate used for synthesized clips.
const SampleRate = 16000

// EncodeWAV wraps 16-bit little-endian mono PCM in a RIFF/WAVE header.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// Tone returns a WAV clip of a sine wave at freq Hz lasting d.
func Tone(freq float64, d time.Duration) []byte {
	n := int(d * SampleRate / time.Second)
	pcm := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		v := 0.3 * math.Sin(2*math.Pi*freq*float64(i)/SampleRate)
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(v*math.MaxInt16)))
	}
	return EncodeWAV(pcm, SampleRate)
}

// IsWAV reports whether clip starts with a RIFF/WAVE header.
func IsWAV(clip []byte) bool {
	return len(clip) >= 12 && string(clip[0:4]) == "RIFF" && string(clip[8:12]) == "WAVE"
}

// Duration estimates the playing time of a WAV clip from its byte rate.
// Recorders streaming to a pipe cannot patch the header sizes, so the
// payload length is used instead of the data chunk size.
func Duration(clip []byte) time.Duration {
	if !IsWAV(clip) || len(clip) < 44 {
		return 0
	}
	byteRate := binary.LittleEndian.Uint32(clip[28:32])
	if byteRate == 0 {
		return 0
	}
	return time.Duration(len(clip)-44) * time.Second / time.Duration(byteRate)
}
