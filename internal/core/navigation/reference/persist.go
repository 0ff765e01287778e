package reference

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zeusync/crowdnav/internal/core/navigation"
	"github.com/zeusync/crowdnav/internal/core/systems/physics"
)

const (
	blobMagic   = "CNAV"
	blobVersion = 1
)

type envelope struct {
	Magic    string `msgpack:"magic"`
	Version  int    `msgpack:"version"`
	Checksum uint64 `msgpack:"checksum"`
	Payload  []byte `msgpack:"payload"`
}

type meshRecord struct {
	Verts [][3]float32 `msgpack:"verts"`
	Polys []polyRecord `msgpack:"polys"`
	Arcs  []arcRecord  `msgpack:"arcs,omitempty"`
	BMin  [3]float32   `msgpack:"bmin"`
	BMax  [3]float32   `msgpack:"bmax"`
}

type polyRecord struct {
	Verts []int  `msgpack:"v"`
	Neis  []int  `msgpack:"n"`
	Area  uint8  `msgpack:"a"`
	Flags uint16 `msgpack:"f"`
}

type arcRecord struct {
	From  int        `msgpack:"from"`
	To    int        `msgpack:"to"`
	Start [3]float32 `msgpack:"start"`
	End   [3]float32 `msgpack:"end"`
	Area  uint8      `msgpack:"a"`
	Flags uint16     `msgpack:"f"`
}

func toArr(v physics.Vec3) [3]float32 { return [3]float32{v.X, v.Y, v.Z} }
func fromArr(a [3]float32) physics.Vec3 { return physics.V3(a[0], a[1], a[2]) }

// MarshalBinary encodes the mesh as a checksummed msgpack envelope.
func (m *Mesh) MarshalBinary() ([]byte, error) {
	rec := meshRecord{
		Verts: make([][3]float32, len(m.verts)),
		Polys: make([]polyRecord, len(m.polys)),
		BMin:  toArr(m.bmin),
		BMax:  toArr(m.bmax),
	}
	for i, v := range m.verts {
		rec.Verts[i] = toArr(v)
	}
	for i, p := range m.polys {
		rec.Polys[i] = polyRecord{Verts: p.verts, Neis: p.neis, Area: p.area, Flags: p.flags}
	}
	for _, a := range m.arcs {
		rec.Arcs = append(rec.Arcs, arcRecord{
			From: a.from, To: a.to,
			Start: toArr(a.start), End: toArr(a.end),
			Area: a.area, Flags: a.flags,
		})
	}

	payload, err := msgpack.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("%w: encode mesh: %w", navigation.ErrEngine, err)
	}
	return msgpack.Marshal(&envelope{
		Magic:    blobMagic,
		Version:  blobVersion,
		Checksum: xxhash.Sum64(payload),
		Payload:  payload,
	})
}

// Load decodes a blob produced by MarshalBinary.
func (e *Engine) Load(data []byte) (navigation.Mesh, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", navigation.ErrCorruptData, err)
	}
	if env.Magic != blobMagic {
		return nil, fmt.Errorf("%w: bad magic %q", navigation.ErrCorruptData, env.Magic)
	}
	if env.Version != blobVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", navigation.ErrCorruptData, env.Version)
	}
	if sum := xxhash.Sum64(env.Payload); sum != env.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch %016x != %016x", navigation.ErrCorruptData, sum, env.Checksum)
	}

	var rec meshRecord
	if err := msgpack.Unmarshal(env.Payload, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", navigation.ErrCorruptData, err)
	}
	if err := rec.validate(); err != nil {
		return nil, err
	}

	verts := make([]physics.Vec3, len(rec.Verts))
	for i, v := range rec.Verts {
		verts[i] = fromArr(v)
	}
	polys := make([]poly, len(rec.Polys))
	for i, p := range rec.Polys {
		polys[i] = poly{verts: p.Verts, neis: p.Neis, area: p.Area, flags: p.Flags}
	}
	arcs := make([]arc, len(rec.Arcs))
	for i, a := range rec.Arcs {
		arcs[i] = arc{
			from: a.From, to: a.To,
			start: fromArr(a.Start), end: fromArr(a.End),
			area: a.Area, flags: a.Flags,
		}
	}
	return newMesh(verts, polys, arcs, fromArr(rec.BMin), fromArr(rec.BMax)), nil
}

func (r *meshRecord) validate() error {
	if len(r.Polys) == 0 {
		return fmt.Errorf("%w: mesh has no polygons", navigation.ErrCorruptData)
	}
	for i, p := range r.Polys {
		if len(p.Verts) < 3 || len(p.Neis) != len(p.Verts) {
			return fmt.Errorf("%w: polygon %d malformed", navigation.ErrCorruptData, i)
		}
		for _, v := range p.Verts {
			if v < 0 || v >= len(r.Verts) {
				return fmt.Errorf("%w: polygon %d vertex out of range", navigation.ErrCorruptData, i)
			}
		}
		for _, n := range p.Neis {
			if n < -1 || n >= len(r.Polys) {
				return fmt.Errorf("%w: polygon %d neighbor out of range", navigation.ErrCorruptData, i)
			}
		}
	}
	for i, a := range r.Arcs {
		if a.From < 0 || a.From >= len(r.Polys) || a.To < 0 || a.To >= len(r.Polys) {
			return fmt.Errorf("%w: off-mesh arc %d out of range", navigation.ErrCorruptData, i)
		}
	}
	return nil
}
