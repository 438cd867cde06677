package isolator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/rosacry/beatsight/internal/audio"
)

// isolateMethod is the fixed RPC method path for the external percussive
// separator service. Hand-authoring generated .pb.go stubs would require
// protoc, unavailable to this build; ClientConn.Invoke against the
// well-known wrapperspb.BytesValue message exercises the real grpc/protobuf
// dependencies without that fabrication (see SPEC_FULL.md §4.B). The sample
// rate is packed as a little-endian uint32 prefix ahead of the PCM payload
// so the wire type stays a single proto.Message on both sides of the call.
const isolateMethod = "/beatsight.isolator.v1.Isolator/Isolate"

// RemoteClient isolates drums by calling an external gRPC percussive
// separation service, grounded on internal/analyzer/client.go's dial +
// timed-invoke + slog pattern.
type RemoteClient struct {
	conn   *grpc.ClientConn
	logger *slog.Logger
}

var _ Isolator = (*RemoteClient)(nil)

// NewRemoteClient dials addr with insecure transport credentials, matching
// the teacher's local-network worker assumption.
func NewRemoteClient(addr string, logger *slog.Logger) (*RemoteClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("beatsight: dial isolator at %s: %w", addr, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteClient{conn: conn, logger: logger}, nil
}

// Isolate sends the buffer's PCM samples to the remote separator and
// replaces the buffer with the returned percussive stem. Failure is fatal
// per spec.md §4.B and is returned wrapped (%w) for the caller to propagate.
func (c *RemoteClient) Isolate(buf *audio.Buffer) (*audio.Buffer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	payload := packSampleRatePrefixed(uint32(buf.SampleRate), buf.Samples)
	req := wrapperspb.Bytes(payload)
	resp := &wrapperspb.BytesValue{}

	start := time.Now()
	if err := c.conn.Invoke(ctx, isolateMethod, req, resp); err != nil {
		c.logger.Error("remote isolation failed", "error", err, "duration", time.Since(start))
		return nil, fmt.Errorf("beatsight: remote isolate: %w", err)
	}

	sampleRate, samples := unpackSampleRatePrefixed(resp.GetValue())
	c.logger.Info("remote isolation complete", "duration", time.Since(start), "samples", len(samples))

	out := *buf
	out.Samples = samples
	if sampleRate > 0 {
		out.SampleRate = int(sampleRate)
	}
	return &out, nil
}

func (c *RemoteClient) Close() error {
	return c.conn.Close()
}

func packSampleRatePrefixed(sampleRate uint32, samples []float64) []byte {
	out := make([]byte, 4+len(samples)*4)
	out[0] = byte(sampleRate)
	out[1] = byte(sampleRate >> 8)
	out[2] = byte(sampleRate >> 16)
	out[3] = byte(sampleRate >> 24)
	for i, s := range samples {
		bits := math.Float32bits(float32(s))
		o := 4 + i*4
		out[o+0] = byte(bits)
		out[o+1] = byte(bits >> 8)
		out[o+2] = byte(bits >> 16)
		out[o+3] = byte(bits >> 24)
	}
	return out
}

func unpackSampleRatePrefixed(data []byte) (uint32, []float64) {
	if len(data) < 4 {
		return 0, nil
	}
	sampleRate := uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	pcm := data[4:]
	n := len(pcm) / 4
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := uint32(pcm[i*4]) | uint32(pcm[i*4+1])<<8 | uint32(pcm[i*4+2])<<16 | uint32(pcm[i*4+3])<<24
		samples[i] = float64(math.Float32frombits(bits))
	}
	return sampleRate, samples
}
