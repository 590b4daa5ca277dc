package stream

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Shared stateless coders. EncodeAll and DecodeAll are safe for concurrent
// use.
var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
	coderErr    error
)

func zstdEncoder() (*zstd.Encoder, error) {
	encoderOnce.Do(func() {
		var err error
		encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			coderErr = err
		}
	})
	if encoder == nil {
		return nil, fmt.Errorf("zstd encoder: %w", coderErr)
	}
	return encoder, nil
}

func zstdDecoder() (*zstd.Decoder, error) {
	decoderOnce.Do(func() {
		var err error
		decoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxPayloadSize))
		if err != nil {
			coderErr = err
		}
	})
	if decoder == nil {
		return nil, fmt.Errorf("zstd decoder: %w", coderErr)
	}
	return decoder, nil
}

// compressPayload zstd-compresses a payload.
func compressPayload(payload []byte) ([]byte, error) {
	enc, err := zstdEncoder()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(payload, nil), nil
}

// decompressPayload reverses compressPayload.
func decompressPayload(payload []byte) ([]byte, error) {
	dec, err := zstdDecoder()
	if err != nil {
		return nil, err
	}
	out, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, &ParseError{Reason: "decompress payload: " + err.Error(), Offset: -1}
	}
	return out, nil
}
