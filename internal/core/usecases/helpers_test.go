package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geolisten/internal/core/domain"
)

// --- Fake StreamSource ---

type fakeSource struct {
	payloads [][]byte
	pos      int

	openErr  error
	endErr   error
	onNext   func(call int)
	opened   bool
	closed   bool
	bbox     domain.BBox
	nextCall int
}

func (f *fakeSource) Open(ctx context.Context, bbox domain.BBox) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	f.bbox = bbox
	return nil
}

func (f *fakeSource) Next(ctx context.Context) ([]byte, error) {
	f.nextCall++
	if f.onNext != nil {
		f.onNext(f.nextCall)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.pos >= len(f.payloads) {
		if f.endErr != nil {
			return nil, f.endErr
		}
		return nil, domain.ErrSourceClosed
	}
	p := f.payloads[f.pos]
	f.pos++
	return p, nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

// --- Recording Sink ---

type recordingSink struct {
	initErr  error
	writeErr error
	finErr   error

	initCalls     int
	finalizeCalls int
	entries       []domain.Entry
}

func (s *recordingSink) Initialize(ctx context.Context) error {
	s.initCalls++
	return s.initErr
}

func (s *recordingSink) Write(ctx context.Context, e domain.Entry) error {
	s.entries = append(s.entries, e)
	return s.writeErr
}

func (s *recordingSink) Finalize(ctx context.Context) error {
	s.finalizeCalls++
	return s.finErr
}

// --- Payload builders ---

func pointPayload(id string, lon, lat float64) []byte {
	return []byte(fmt.Sprintf(
		`{"id_str":%q,"text":"post %s","user":{"screen_name":"user_%s"},"coordinates":{"type":"Point","coordinates":[%g,%g]},"place":null}`,
		id, id, id, lon, lat))
}

func placePayload(id string, corners ...[2]float64) []byte {
	parts := make([]string, 0, len(corners))
	for _, c := range corners {
		parts = append(parts, fmt.Sprintf("[%g,%g]", c[0], c[1]))
	}
	return []byte(fmt.Sprintf(
		`{"id_str":%q,"text":"post %s","coordinates":null,"place":{"full_name":"somewhere","bounding_box":{"type":"Polygon","coordinates":[[%s]]}}}`,
		id, id, strings.Join(parts, ",")))
}

func bareRecord(id string) []byte {
	return []byte(fmt.Sprintf(`{"id_str":%q,"text":"no location"}`, id))
}

func decode(raw []byte) *domain.Record {
	r, err := domain.DecodeRecord(raw)
	if err != nil {
		panic(err)
	}
	return r
}

// unitSquare is symmetric in both coordinate orders.
func unitSquare() *domain.Boundary {
	return &domain.Boundary{
		Region: "unit",
		Shape:  orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
		BBox:   domain.BBox{West: 0, South: 0, East: 1, North: 1},
	}
}

var errBoom = errors.New("boom")
