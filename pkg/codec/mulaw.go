// Package codec converts telephony audio from G.711 mu-law at 8kHz to
// linear PCM16 at the sample rate the realtime API expects. There is no
// PCM16-to-mu-law encoder; agent audio already arrives as mu-law.
//
// Both operations are stateless and run on every inbound media frame
// (~50 frames/second), so they avoid allocation beyond the output slice.
package codec

// MuLawToPCM16 expands G.711 mu-law bytes to 16-bit signed little-endian
// PCM. Output is exactly two bytes per input byte.
func MuLawToPCM16(mulaw []byte) []byte {
	out := make([]byte, len(mulaw)*2)
	for i, u := range mulaw {
		s := DecodeMuLawSample(u)
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// DecodeMuLawSample decodes a single mu-law byte to a linear sample.
func DecodeMuLawSample(u byte) int16 {
	u = ^u
	sign := u & 0x80
	exponent := (u >> 4) & 0x07
	mantissa := u & 0x0F

	sample := ((int32(mantissa) << 3) + 0x84) << exponent
	sample -= 0x84

	if sign != 0 {
		sample = -sample
	}
	return int16(sample)
}

// Upsample8kTo16k doubles the sample rate of little-endian PCM16 by
// emitting each sample twice. No anti-imaging filter is applied; the
// realtime model's input path tolerates the imaging and the zero added
// latency matters more on a phone call. Output length is exactly twice
// the input length. A trailing odd byte cannot form a sample and is
// dropped.
func Upsample8kTo16k(pcm []byte) []byte {
	n := len(pcm) / 2
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		lo, hi := pcm[i*2], pcm[i*2+1]
		out[i*4] = lo
		out[i*4+1] = hi
		out[i*4+2] = lo
		out[i*4+3] = hi
	}
	return out
}
